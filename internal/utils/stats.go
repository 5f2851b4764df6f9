package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/streak"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier couvre pgxpool.Pool et pgx.Tx : les helpers de stats s'utilisent
// aussi bien hors transaction que dans la transaction de complétion
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// GetUserStats charge les compteurs agrégés d'un utilisateur
func GetUserStats(ctx context.Context, db Querier, userID string) (model.UserStats, error) {
	var stats model.UserStats
	err := db.QueryRow(ctx, `
		SELECT total_points, total_challenges_joined, total_challenges_completed,
			current_streak, longest_streak
		FROM users WHERE id = $1
	`, userID).Scan(
		&stats.TotalPoints, &stats.TotalChallengesJoined, &stats.TotalChallengesCompleted,
		&stats.CurrentStreak, &stats.LongestStreak,
	)
	if err != nil {
		return stats, fmt.Errorf("could not load user stats: %w", err)
	}
	return stats, nil
}

// IncrementJoinedCount incrémente le compteur de challenges rejoints
func IncrementJoinedCount(ctx context.Context, db Querier, userID string) error {
	_, err := db.Exec(ctx,
		`UPDATE users SET total_challenges_joined = total_challenges_joined + 1, updated_at = NOW() WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("impossible d'incrémenter le compteur de participations: %w", err)
	}
	return nil
}

// AwardCompletion crédite les points et le compteur de complétions.
// Toujours en incrément, jamais en écrasement : plusieurs participations du
// même utilisateur peuvent se terminer en parallèle.
func AwardCompletion(ctx context.Context, db Querier, userID string, points int) error {
	_, err := db.Exec(ctx, `
		UPDATE users SET
			total_points = total_points + $1,
			total_challenges_completed = total_challenges_completed + 1,
			updated_at = NOW()
		WHERE id = $2
	`, points, userID)
	if err != nil {
		return fmt.Errorf("impossible de créditer la complétion: %w", err)
	}
	return nil
}

// AdvanceUserStreak avance le streak de l'utilisateur pour une activité à
// l'instant donné. La ligne users est verrouillée pour que deux entrées de
// progression concurrentes ne comptent pas le même jour deux fois.
func AdvanceUserStreak(ctx context.Context, tx Querier, userID string, at time.Time) error {
	var lastActive sql.NullTime
	var current, longest int

	err := tx.QueryRow(ctx, `
		SELECT last_active_day, current_streak, longest_streak
		FROM users WHERE id = $1
		FOR UPDATE
	`, userID).Scan(&lastActive, &current, &longest)
	if err != nil {
		return fmt.Errorf("could not lock user row: %w", err)
	}

	newCurrent, newLongest, changed := streak.Advance(NullTimeToPointer(lastActive), at, current, longest)
	if !changed {
		return nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET
			current_streak = $2,
			longest_streak = $3,
			last_active_day = $4,
			updated_at = NOW()
		WHERE id = $1
	`, userID, newCurrent, newLongest, streak.Day(at))
	if err != nil {
		return fmt.Errorf("could not update streak: %w", err)
	}

	return nil
}
