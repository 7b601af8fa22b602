package contract

import (
	"context"

	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/repository/specification"
)

type VideoRepository interface {
	CreateVideo(ctx context.Context, video *entity.Video) error
	FindOneVideo(ctx context.Context, specs ...specification.Specification) (*entity.Video, error)
	FindAllVideos(ctx context.Context, specs ...specification.Specification) ([]*entity.Video, error)

	CreateWatchEntry(ctx context.Context, entry *entity.WatchHistory) error
	FindAllWatchEntries(ctx context.Context, specs ...specification.Specification) ([]*entity.WatchHistory, error)
}
