package model

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	Id                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title                string    `gorm:"type:varchar(255);not null"`
	Slug                 string    `gorm:"type:varchar(260);uniqueIndex;not null"`
	Description          string    `gorm:"type:text"`
	DurationSeconds      int       `gorm:"not null"`
	StreamURL            string    `gorm:"type:text"`
	ThumbnailURL         string    `gorm:"type:text"`
	// Gate fields are written explicitly; no column defaults, so a
	// zero value (free, open to everyone) round-trips as written.
	MinSubscriptionLevel int  `gorm:"not null"`
	IsPremium            bool `gorm:"not null"`
	Status               string    `gorm:"type:varchar(20);not null;default:'draft'"`
	PublishedAt          *time.Time
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (Video) TableName() string {
	return "videos"
}

type WatchHistory struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	VideoId   uuid.UUID `gorm:"type:uuid;not null;index"`
	WatchedAt time.Time `gorm:"not null;autoCreateTime"`
	Progress  int       `gorm:"default:0"`
	Completed bool      `gorm:"default:false"`
}

func (WatchHistory) TableName() string {
	return "watch_history"
}
