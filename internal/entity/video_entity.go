package entity

import (
	"time"

	"github.com/google/uuid"
)

type VideoStatus string

const (
	VideoStatusDraft     VideoStatus = "draft"
	VideoStatusPublished VideoStatus = "published"
	VideoStatusArchived  VideoStatus = "archived"
)

// Video is catalog reference data. The billing core only reads the
// premium gate fields; catalog management lives elsewhere.
type Video struct {
	Id                   uuid.UUID
	Title                string
	Slug                 string
	Description          string
	DurationSeconds      int
	StreamURL            string
	ThumbnailURL         string
	MinSubscriptionLevel int
	IsPremium            bool
	Status               VideoStatus
	PublishedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// WatchHistory tracks playback per user; recording one requires an
// active subscription covering the video's level.
type WatchHistory struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	VideoId   uuid.UUID
	WatchedAt time.Time
	Progress  int // seconds
	Completed bool
}
