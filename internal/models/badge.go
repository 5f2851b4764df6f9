package model

import (
	"time"
)

// Badge est une entrée du catalogue statique de badges
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"` // milestone, completion, streak, points
}

// EarnedBadge est un badge acquis par un utilisateur. Une fois accordé,
// jamais révoqué même si la statistique retombe sous le seuil.
type EarnedBadge struct {
	Badge
	EarnedAt time.Time `json:"earnedAt"`
}
