package handler

import (
	"context"
	"net/http"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/badges"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/database"
	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/gorilla/mux"
)

// GetUserBadges renvoie les badges acquis par un utilisateur et le
// catalogue complet des badges possibles
func GetUserBadges(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	ctx := context.Background()

	var exists bool
	err := database.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not check user", err)
		return
	}
	if !exists {
		utils.ErrorSimple(w, http.StatusNotFound, "user not found")
		return
	}

	rows, err := database.DB.Query(ctx, `
		SELECT badge_id, earned_at
		FROM user_badges
		WHERE user_id = $1
		ORDER BY earned_at ASC
	`, userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not query user badges", err)
		return
	}
	defer rows.Close()

	earned := []model.EarnedBadge{}
	for rows.Next() {
		var badge model.EarnedBadge
		if err := rows.Scan(&badge.ID, &badge.EarnedAt); err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not scan badge row", err)
			return
		}

		// Enrichir depuis le catalogue statique. Un ID inconnu (badge
		// retiré du catalogue) reste renvoyé tel quel : jamais révoqué.
		if def, ok := badges.ByID(badge.ID); ok {
			badge.Badge = def
		}

		earned = append(earned, badge)
	}

	utils.Success(w, map[string]interface{}{
		"earnedBadges":      earned,
		"allPossibleBadges": badges.All(),
	})
}
