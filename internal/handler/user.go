package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/database"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/rank"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/scanner"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, display_name, photo_url, total_points, total_challenges_joined,
	total_challenges_completed, current_streak, longest_streak, last_active_day,
	created_at, updated_at`

// UpsertUser crée le profil au premier sign-in, ou rafraîchit displayName
// et photo. L'identité elle-même est résolue en amont, on reçoit un userId
// opaque. Les compteurs agrégés ne sont jamais touchés ici.
func UpsertUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL,omitempty"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.ErrorSimple(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.UserID == "" || payload.DisplayName == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "userId and displayName are required")
		return
	}

	ctx := context.Background()

	row := database.DB.QueryRow(ctx, `
		INSERT INTO users(id, display_name, photo_url, created_at, updated_at)
		VALUES($1, $2, NULLIF($3, ''), NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			photo_url = COALESCE(EXCLUDED.photo_url, users.photo_url),
			updated_at = NOW()
		RETURNING `+userColumns,
		payload.UserID, payload.DisplayName, payload.PhotoURL,
	)

	user, err := scanner.ScanUserProfile(row)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not upsert user", err)
		return
	}

	user.Rank = rank.TierForPoints(user.TotalPoints)
	user.NextRankPoints = rank.NextTarget(user.TotalPoints)

	utils.Success(w, user)
}

// GetUser récupère un profil avec ses agrégats, son palier et ses badges
func GetUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	ctx := context.Background()

	row := database.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		userID,
	)

	user, err := scanner.ScanUserProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.ErrorSimple(w, http.StatusNotFound, "user not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not load user", err)
		return
	}

	user.Rank = rank.TierForPoints(user.TotalPoints)
	user.NextRankPoints = rank.NextTarget(user.TotalPoints)

	rows, err := database.DB.Query(ctx,
		`SELECT badge_id FROM user_badges WHERE user_id = $1 ORDER BY earned_at ASC`,
		userID,
	)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load user badges", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var badgeID string
		if err := rows.Scan(&badgeID); err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not scan badge row", err)
			return
		}
		user.Badges = append(user.Badges, badgeID)
	}

	utils.Success(w, user)
}
