package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/cache"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/database"
	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/rank"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
)

// Colonnes triables par métrique. Même principe que les clés de tri du
// catalogue : une map fermée, jamais d'entrée utilisateur dans le SQL.
var metricColumns = map[string]string{
	"points":     "total_points",
	"challenges": "total_challenges_completed",
	"streak":     "current_streak",
}

// Tri total et déterministe : métrique desc, puis points desc, puis
// complétions desc, puis user_id asc. Les égalités reçoivent des positions
// séquentielles distinctes, pas de rangs partagés.
func rankedUsersQuery(metricColumn string) string {
	return fmt.Sprintf(`
		WITH ranked_users AS (
			SELECT
				u.id, u.display_name, COALESCE(u.photo_url, '') AS photo_url,
				u.total_points, u.total_challenges_joined, u.total_challenges_completed,
				u.current_streak,
				(SELECT COUNT(*) FROM user_badges ub WHERE ub.user_id = u.id) AS badge_count,
				ROW_NUMBER() OVER (
					ORDER BY u.%s DESC, u.total_points DESC,
						u.total_challenges_completed DESC, u.id ASC
				) AS position
			FROM users u
		)
	`, metricColumn)
}

func scanLeaderboardEntry(row pgx.Row) (*model.LeaderboardEntry, error) {
	var entry model.LeaderboardEntry
	err := row.Scan(
		&entry.UserID, &entry.DisplayName, &entry.PhotoURL,
		&entry.TotalPoints, &entry.TotalChallengesJoined, &entry.TotalChallengesCompleted,
		&entry.CurrentStreak, &entry.BadgeCount, &entry.Position,
	)
	if err != nil {
		return nil, err
	}

	// Même fonction de classement que le profil : les deux vues ne peuvent
	// pas diverger
	entry.Rank = rank.TierForPoints(entry.TotalPoints)

	return &entry, nil
}

// GetLeaderboard récupère le classement général pour une métrique donnée
func GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	metric := query.Get("metric")
	if metric == "" {
		metric = "points"
	}
	metricColumn, ok := metricColumns[metric]
	if !ok {
		utils.ErrorSimple(w, http.StatusBadRequest, "unknown metric: "+metric)
		return
	}

	limit := 50
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	ctx := context.Background()

	cacheKey := fmt.Sprintf("leaderboard:%s:%d", metric, limit)
	var leaderboard []model.LeaderboardEntry
	if cache.GetLeaderboard(ctx, cacheKey, &leaderboard) {
		utils.Success(w, leaderboard)
		return
	}

	rows, err := database.DB.Query(ctx, rankedUsersQuery(metricColumn)+`
		SELECT id, display_name, photo_url, total_points, total_challenges_joined,
			total_challenges_completed, current_streak, badge_count, position
		FROM ranked_users
		ORDER BY position
		LIMIT $1
	`, limit)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not query leaderboard", err)
		return
	}
	defer rows.Close()

	leaderboard = []model.LeaderboardEntry{}
	for rows.Next() {
		entry, err := scanLeaderboardEntry(rows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not scan leaderboard row", err)
			return
		}
		leaderboard = append(leaderboard, *entry)
	}

	cache.SetLeaderboard(ctx, cacheKey, leaderboard)

	utils.Success(w, leaderboard)
}

// Percentile arrondit à l'entier supérieur la part de classement occupée
// par une position
func Percentile(position, totalUsers int) int {
	if totalUsers <= 0 || position <= 0 {
		return 100
	}
	return (100*position + totalUsers - 1) / totalUsers
}

// GetMyRank récupère le rang d'un utilisateur avec son percentile.
// Un utilisateur sans aucune activité qualifiante reçoit la sentinelle
// position=0 / percentile=100 plutôt qu'une erreur.
func GetMyRank(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	ctx := context.Background()

	row := database.DB.QueryRow(ctx, rankedUsersQuery("total_points")+`
		, total_count AS (SELECT COUNT(*) AS total FROM ranked_users)
		SELECT ru.id, ru.display_name, ru.photo_url, ru.total_points,
			ru.total_challenges_joined, ru.total_challenges_completed,
			ru.current_streak, ru.badge_count, ru.position,
			(SELECT total FROM total_count)
		FROM ranked_users ru
		WHERE ru.id = $1
	`, userID)

	var userRank model.UserRank
	err := row.Scan(
		&userRank.UserID, &userRank.DisplayName, &userRank.PhotoURL,
		&userRank.TotalPoints, &userRank.TotalChallengesJoined, &userRank.TotalChallengesCompleted,
		&userRank.CurrentStreak, &userRank.BadgeCount, &userRank.Position,
		&userRank.TotalUsers,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.ErrorSimple(w, http.StatusNotFound, "user not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not query user rank", err)
		return
	}

	userRank.Rank = rank.TierForPoints(userRank.TotalPoints)

	if userRank.TotalPoints == 0 && userRank.TotalChallengesJoined == 0 {
		// Sentinelle : jamais classé
		userRank.Position = 0
		userRank.Percentile = 100
	} else {
		userRank.Percentile = Percentile(userRank.Position, userRank.TotalUsers)
	}

	utils.Success(w, userRank)
}

// GetNearbyUsers récupère les entrées du classement autour d'un utilisateur
func GetNearbyUsers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]

	span := 2
	if spanStr := r.URL.Query().Get("span"); spanStr != "" {
		if s, err := strconv.Atoi(spanStr); err == nil && s > 0 {
			span = s
		}
	}

	ctx := context.Background()

	rows, err := database.DB.Query(ctx, rankedUsersQuery("total_points")+`
		, target AS (SELECT position FROM ranked_users WHERE id = $1)
		SELECT id, display_name, photo_url, total_points, total_challenges_joined,
			total_challenges_completed, current_streak, badge_count, position
		FROM ranked_users
		WHERE position BETWEEN (SELECT position FROM target) - $2
			AND (SELECT position FROM target) + $2
		ORDER BY position
	`, userID, span)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not query nearby users", err)
		return
	}
	defer rows.Close()

	nearby := []model.LeaderboardEntry{}
	for rows.Next() {
		entry, err := scanLeaderboardEntry(rows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not scan leaderboard row", err)
			return
		}
		nearby = append(nearby, *entry)
	}

	if len(nearby) == 0 {
		utils.ErrorSimple(w, http.StatusNotFound, "user not found")
		return
	}

	utils.Success(w, nearby)
}
