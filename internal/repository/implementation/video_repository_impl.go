package implementation

import (
	"context"
	"errors"

	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/mapper"
	"github.com/amiirziyaa/video-platform/internal/model"
	"github.com/amiirziyaa/video-platform/internal/repository/contract"
	"github.com/amiirziyaa/video-platform/internal/repository/specification"

	"gorm.io/gorm"
)

type VideoRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.VideoMapper
}

func NewVideoRepository(db *gorm.DB) contract.VideoRepository {
	return &VideoRepositoryImpl{
		db:     db,
		mapper: mapper.NewVideoMapper(),
	}
}

func (r *VideoRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *VideoRepositoryImpl) CreateVideo(ctx context.Context, video *entity.Video) error {
	m := r.mapper.ToModel(video)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*video = *r.mapper.ToEntity(m)
	return nil
}

func (r *VideoRepositoryImpl) FindOneVideo(ctx context.Context, specs ...specification.Specification) (*entity.Video, error) {
	var m model.Video
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *VideoRepositoryImpl) FindAllVideos(ctx context.Context, specs ...specification.Specification) ([]*entity.Video, error) {
	var models []*model.Video
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Video, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *VideoRepositoryImpl) CreateWatchEntry(ctx context.Context, entry *entity.WatchHistory) error {
	m := r.mapper.WatchToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.WatchToEntity(m)
	return nil
}

func (r *VideoRepositoryImpl) FindAllWatchEntries(ctx context.Context, specs ...specification.Specification) ([]*entity.WatchHistory, error) {
	var models []*model.WatchHistory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.WatchHistory, len(models))
	for i, m := range models {
		entities[i] = r.mapper.WatchToEntity(m)
	}
	return entities, nil
}
