package dto

import (
	"time"

	"github.com/google/uuid"
)

type VideoResponse struct {
	Id                   uuid.UUID  `json:"id"`
	Title                string     `json:"title"`
	Slug                 string     `json:"slug"`
	Description          string     `json:"description"`
	DurationSeconds      int        `json:"duration_seconds"`
	ThumbnailURL         string     `json:"thumbnail_url,omitempty"`
	MinSubscriptionLevel int        `json:"min_subscription_level"`
	IsPremium            bool       `json:"is_premium"`
	PublishedAt          *time.Time `json:"published_at,omitempty"`
	// StreamURL is only populated when the requesting user may watch.
	StreamURL string `json:"stream_url,omitempty"`
}

type WatchRequest struct {
	VideoId   uuid.UUID `json:"video_id" validate:"required"`
	Progress  int       `json:"progress" validate:"gte=0"`
	Completed bool      `json:"completed"`
}
