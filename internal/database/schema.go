package database

import (
	"context"
	"fmt"
)

// Ordre important : participations référence users et challenges
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		photo_url TEXT,
		total_points INT NOT NULL DEFAULT 0,
		total_challenges_joined INT NOT NULL DEFAULT 0,
		total_challenges_completed INT NOT NULL DEFAULT 0,
		current_streak INT NOT NULL DEFAULT 0,
		longest_streak INT NOT NULL DEFAULT 0,
		last_active_day DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS challenges (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT '',
		points INT NOT NULL DEFAULT 0,
		duration_days INT NOT NULL DEFAULT 0,
		max_participants INT,
		participants INT NOT NULL DEFAULT 0,
		tags TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS participations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		challenge_id TEXT NOT NULL REFERENCES challenges(id),
		status TEXT NOT NULL DEFAULT 'active',
		progress_percentage INT NOT NULL DEFAULT 0,
		points_earned INT NOT NULL DEFAULT 0,
		joined_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_date TIMESTAMPTZ,
		idempotency_key TEXT UNIQUE
	)`,
	// Au plus une participation non abandonnée par couple (user, challenge).
	// C'est cet index qui arbitre les joins concurrents.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_participations_active_pair
		ON participations(user_id, challenge_id)
		WHERE status IN ('active', 'completed')`,
	`CREATE INDEX IF NOT EXISTS idx_participations_user
		ON participations(user_id, last_updated DESC)`,
	`CREATE TABLE IF NOT EXISTS progress_entries (
		id TEXT PRIMARY KEY,
		participation_id TEXT NOT NULL REFERENCES participations(id),
		percentage INT NOT NULL,
		notes TEXT,
		impact_value DOUBLE PRECISION,
		idempotency_key TEXT UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_progress_entries_participation
		ON progress_entries(participation_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS user_badges (
		user_id TEXT NOT NULL REFERENCES users(id),
		badge_id TEXT NOT NULL,
		earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, badge_id)
	)`,
}

// EnsureSchema crée les tables et index si nécessaire
func EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := DB.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
