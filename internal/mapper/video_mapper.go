package mapper

import (
	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/model"
)

type VideoMapper struct{}

func NewVideoMapper() *VideoMapper {
	return &VideoMapper{}
}

func (m *VideoMapper) ToEntity(v *model.Video) *entity.Video {
	if v == nil {
		return nil
	}
	return &entity.Video{
		Id:                   v.Id,
		Title:                v.Title,
		Slug:                 v.Slug,
		Description:          v.Description,
		DurationSeconds:      v.DurationSeconds,
		StreamURL:            v.StreamURL,
		ThumbnailURL:         v.ThumbnailURL,
		MinSubscriptionLevel: v.MinSubscriptionLevel,
		IsPremium:            v.IsPremium,
		Status:               entity.VideoStatus(v.Status),
		PublishedAt:          v.PublishedAt,
		CreatedAt:            v.CreatedAt,
		UpdatedAt:            v.UpdatedAt,
	}
}

func (m *VideoMapper) ToModel(v *entity.Video) *model.Video {
	if v == nil {
		return nil
	}
	return &model.Video{
		Id:                   v.Id,
		Title:                v.Title,
		Slug:                 v.Slug,
		Description:          v.Description,
		DurationSeconds:      v.DurationSeconds,
		StreamURL:            v.StreamURL,
		ThumbnailURL:         v.ThumbnailURL,
		MinSubscriptionLevel: v.MinSubscriptionLevel,
		IsPremium:            v.IsPremium,
		Status:               string(v.Status),
		PublishedAt:          v.PublishedAt,
		CreatedAt:            v.CreatedAt,
		UpdatedAt:            v.UpdatedAt,
	}
}

func (m *VideoMapper) WatchToEntity(w *model.WatchHistory) *entity.WatchHistory {
	if w == nil {
		return nil
	}
	return &entity.WatchHistory{
		Id:        w.Id,
		UserId:    w.UserId,
		VideoId:   w.VideoId,
		WatchedAt: w.WatchedAt,
		Progress:  w.Progress,
		Completed: w.Completed,
	}
}

func (m *VideoMapper) WatchToModel(w *entity.WatchHistory) *model.WatchHistory {
	if w == nil {
		return nil
	}
	return &model.WatchHistory{
		Id:        w.Id,
		UserId:    w.UserId,
		VideoId:   w.VideoId,
		WatchedAt: w.WatchedAt,
		Progress:  w.Progress,
		Completed: w.Completed,
	}
}
