package service

import (
	"context"
	"time"

	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/repository/specification"
	"github.com/amiirziyaa/video-platform/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ICatalogService interface {
	ListPublished(ctx context.Context) ([]*entity.Video, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Video, error)
	// CanUserAccess decides whether a user may watch a video: free
	// content is open, premium content needs a live subscription whose
	// plan level covers the video's minimum level.
	CanUserAccess(ctx context.Context, userId uuid.UUID, video *entity.Video) (bool, error)
	RecordWatch(ctx context.Context, userId, videoId uuid.UUID, progress int, completed bool) error
	WatchHistory(ctx context.Context, userId uuid.UUID) ([]*entity.WatchHistory, error)
}

type catalogService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewCatalogService(uowFactory unitofwork.RepositoryFactory) ICatalogService {
	return &catalogService{uowFactory: uowFactory}
}

func (s *catalogService) ListPublished(ctx context.Context) ([]*entity.Video, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.VideoRepository().FindAllVideos(ctx,
		specification.PublishedOnly{},
		specification.OrderBy{Field: "published_at", Desc: true},
	)
}

func (s *catalogService) GetBySlug(ctx context.Context, slug string) (*entity.Video, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	video, err := uow.VideoRepository().FindOneVideo(ctx, specification.BySlug{Slug: slug})
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, ErrVideoNotFound
	}
	return video, nil
}

func (s *catalogService) CanUserAccess(ctx context.Context, userId uuid.UUID, video *entity.Video) (bool, error) {
	if !video.IsPremium && video.MinSubscriptionLevel == 0 {
		return true, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindActiveOrPending(ctx, userId)
	if err != nil {
		return false, err
	}
	if sub == nil || !sub.IsActive() {
		return false, nil
	}

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
	if err != nil {
		return false, err
	}
	if plan == nil {
		return false, nil
	}

	return plan.Level >= video.MinSubscriptionLevel, nil
}

func (s *catalogService) RecordWatch(ctx context.Context, userId, videoId uuid.UUID, progress int, completed bool) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	video, err := uow.VideoRepository().FindOneVideo(ctx, specification.ByID{ID: videoId})
	if err != nil {
		return err
	}
	if video == nil {
		return ErrVideoNotFound
	}

	allowed, err := s.CanUserAccess(ctx, userId, video)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrAccessDenied
	}

	entry := &entity.WatchHistory{
		Id:        uuid.New(),
		UserId:    userId,
		VideoId:   videoId,
		WatchedAt: time.Now(),
		Progress:  progress,
		Completed: completed,
	}
	return uow.VideoRepository().CreateWatchEntry(ctx, entry)
}

func (s *catalogService) WatchHistory(ctx context.Context, userId uuid.UUID) ([]*entity.WatchHistory, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.VideoRepository().FindAllWatchEntries(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "watched_at", Desc: true},
	)
}
