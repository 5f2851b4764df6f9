package handler

import (
	"net/http"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/database"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
)

// RootHandler affiche toutes les routes disponibles de l'API
func RootHandler(w http.ResponseWriter, r *http.Request) {
	routes := map[string]interface{}{
		"name":    "EcoTrack Engine API",
		"version": "1.0.0",
		"status":  "running",
		"routes": map[string]interface{}{
			"participations": []map[string]string{
				{"method": "POST", "path": "/participations", "description": "Rejoindre un challenge"},
				{"method": "GET", "path": "/participations?userId=&status=", "description": "Lister les participations d'un utilisateur"},
				{"method": "GET", "path": "/participations/{id}?userId=", "description": "Récupérer une participation"},
				{"method": "POST", "path": "/participations/{id}/progress", "description": "Enregistrer une progression"},
				{"method": "GET", "path": "/participations/{id}/progress?userId=", "description": "Historique de progression"},
				{"method": "PUT", "path": "/participations/{id}/abandon", "description": "Abandonner une participation"},
			},
			"users": []map[string]string{
				{"method": "POST", "path": "/users", "description": "Créer ou rafraîchir un profil"},
				{"method": "GET", "path": "/users/{id}", "description": "Profil avec agrégats et palier"},
				{"method": "GET", "path": "/users/{id}/badges", "description": "Badges acquis et catalogue complet"},
			},
			"challenges": []map[string]string{
				{"method": "GET", "path": "/challenges", "description": "Catalogue des challenges"},
				{"method": "GET", "path": "/challenges/{id}", "description": "Un challenge par ID"},
				{"method": "POST", "path": "/catalog/sync", "description": "Synchroniser le catalogue externe"},
			},
			"leaderboard": []map[string]string{
				{"method": "GET", "path": "/leaderboard?metric=&limit=", "description": "Classement (points, challenges, streak)"},
				{"method": "GET", "path": "/leaderboard/my-rank?userId=", "description": "Rang et percentile d'un utilisateur"},
				{"method": "GET", "path": "/leaderboard/users/{userId}/nearby", "description": "Classement autour d'un utilisateur"},
			},
		},
	}

	utils.Success(w, routes)
}

// HealthCheck vérifie que le serveur et la base répondent
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := database.DB.Ping(r.Context()); err != nil {
		utils.Error(w, http.StatusServiceUnavailable, "database unreachable", err)
		return
	}
	utils.Message(w, "ok")
}
