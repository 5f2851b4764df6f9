package main

import (
	"context"
	"net/http"
	"os"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/api"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/cache"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/config"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/database"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/logger"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Could not load config: %v", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		logger.Error("Database connection failed: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// Bootstrap schema
	if err := database.EnsureSchema(context.Background()); err != nil {
		logger.Error("Schema bootstrap failed: %v", err)
		os.Exit(1)
	}

	// Optional leaderboard cache
	cache.Connect(cfg.RedisAddr)

	// Initialize routes
	router := api.SetupRouter()

	// Wrap router with CORS middleware
	handler := middleware.CORSMiddleware(router)

	// Start server
	logger.Success("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Error("Server failed: %v", err)
		os.Exit(1)
	}
}
