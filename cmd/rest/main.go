package main

import (
	"context"
	"log"

	"github.com/amiirziyaa/video-platform/internal/bootstrap"
	"github.com/amiirziyaa/video-platform/internal/config"
	"github.com/amiirziyaa/video-platform/internal/server"
	"github.com/amiirziyaa/video-platform/internal/tracer"
	"github.com/amiirziyaa/video-platform/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// 4. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
