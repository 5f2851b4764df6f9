package api

import (
	"net/http"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/handler"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/middleware"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/fatih/color"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.LoggerMiddleware)
	r.Use(middleware.MetricsMiddleware)

	// Root - API documentation
	r.HandleFunc("/", handler.RootHandler).Methods(http.MethodGet)

	// Participations
	r.HandleFunc("/participations", handler.JoinChallenge).Methods(http.MethodPost)
	r.HandleFunc("/participations", handler.ListParticipations).Methods(http.MethodGet)
	r.HandleFunc("/participations/{id}", handler.GetParticipation).Methods(http.MethodGet)
	r.HandleFunc("/participations/{id}/progress", handler.RecordProgress).Methods(http.MethodPost)
	r.HandleFunc("/participations/{id}/progress", handler.GetProgressHistory).Methods(http.MethodGet)
	r.HandleFunc("/participations/{id}/abandon", handler.AbandonParticipation).Methods(http.MethodPut)

	// Users
	r.HandleFunc("/users", handler.UpsertUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}", handler.GetUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/badges", handler.GetUserBadges).Methods(http.MethodGet)

	// Challenge catalog (lecture seule + synchro externe)
	r.HandleFunc("/challenges", handler.GetChallenges).Methods(http.MethodGet)
	r.HandleFunc("/challenges/{id}", handler.GetChallengeById).Methods(http.MethodGet)
	r.HandleFunc("/catalog/sync", handler.SyncCatalog).Methods(http.MethodPost)

	// Leaderboard
	r.HandleFunc("/leaderboard", handler.GetLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard/my-rank", handler.GetMyRank).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard/users/{userId}/nearby", handler.GetNearbyUsers).Methods(http.MethodGet)

	// Health check + metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.LogError("404 Not Found: %s %s", r.Method, r.URL.Path)
		color.Yellow("[404] %s %s (route non trouvée)", r.Method, r.URL.Path)
		http.Error(w, "Route not found", http.StatusNotFound)
	})

	return r
}
