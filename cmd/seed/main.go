package main

import (
	"log"
	"os"
	"time"

	"github.com/amiirziyaa/video-platform/internal/model"
	"github.com/amiirziyaa/video-platform/pkg/database"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding subscription plans...")
	if err := seedPlans(db); err != nil {
		log.Fatalf("Error: Failed to seed plans: %v", err)
	}

	log.Println("Seeding video catalog...")
	if err := seedVideos(db); err != nil {
		log.Fatalf("Error: Failed to seed videos: %v", err)
	}

	log.Println("✅ Success: Seed data applied.")
}

func seedPlans(db *gorm.DB) error {
	plans := []model.SubscriptionPlan{
		{
			Name:         "Basic",
			Slug:         "basic",
			Description:  "Access to the standard catalog in SD quality.",
			Price:        decimal.NewFromInt(490000),
			Currency:     "IRR",
			DurationDays: 30,
			Level:        1,
			IsActive:     true,
		},
		{
			Name:         "Premium",
			Slug:         "premium",
			Description:  "Full catalog including premium releases, HD quality.",
			Price:        decimal.NewFromInt(990000),
			Currency:     "IRR",
			DurationDays: 30,
			Level:        2,
			IsActive:     true,
		},
		{
			Name:         "Premium Yearly",
			Slug:         "premium-yearly",
			Description:  "A full year of Premium at a discount.",
			Price:        decimal.NewFromInt(9900000),
			Currency:     "IRR",
			DurationDays: 365,
			Level:        2,
			IsActive:     true,
		},
	}

	// Upsert on slug so re-running the seeder refreshes prices without
	// duplicating rows.
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		UpdateAll: true,
	}).Create(&plans).Error
}

func seedVideos(db *gorm.DB) error {
	now := time.Now()
	videos := []model.Video{
		{
			Title:                "Getting Started",
			Slug:                 "getting-started",
			Description:          "A free introduction to the platform.",
			DurationSeconds:      420,
			StreamURL:            "https://stream.example.com/getting-started/master.m3u8",
			MinSubscriptionLevel: 0,
			IsPremium:            false,
			Status:               "published",
			PublishedAt:          &now,
		},
		{
			Title:                "Deep Dive Series: Episode 1",
			Slug:                 "deep-dive-ep1",
			Description:          "First episode of the subscriber-only deep dive series.",
			DurationSeconds:      2700,
			StreamURL:            "https://stream.example.com/deep-dive-ep1/master.m3u8",
			MinSubscriptionLevel: 1,
			IsPremium:            true,
			Status:               "published",
			PublishedAt:          &now,
		},
		{
			Title:                "Masterclass: Advanced Topics",
			Slug:                 "masterclass-advanced",
			Description:          "Premium-tier masterclass content.",
			DurationSeconds:      5400,
			StreamURL:            "https://stream.example.com/masterclass-advanced/master.m3u8",
			MinSubscriptionLevel: 2,
			IsPremium:            true,
			Status:               "published",
			PublishedAt:          &now,
		},
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		UpdateAll: true,
	}).Create(&videos).Error
}
