package model

import (
	"time"
)

// UserProfile représente un utilisateur avec ses compteurs agrégés.
// Créé au premier sign-in, jamais supprimé par le moteur (la suppression
// de compte est gérée en amont).
type UserProfile struct {
	ID                       string     `json:"id"`
	DisplayName              string     `json:"displayName"`
	PhotoURL                 string     `json:"photoURL,omitempty"`
	TotalPoints              int        `json:"totalPoints"`
	TotalChallengesJoined    int        `json:"totalChallengesJoined"`
	TotalChallengesCompleted int        `json:"totalChallengesCompleted"`
	CurrentStreak            int        `json:"currentStreak"`
	LongestStreak            int        `json:"longestStreak"`
	LastActiveDay            *time.Time `json:"lastActiveDay,omitempty"`
	Rank                     string     `json:"rank"`
	NextRankPoints           int        `json:"nextRankPoints"`
	Badges                   []string   `json:"badges,omitempty"`
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                time.Time  `json:"updatedAt"`
}

// UserStats regroupe les compteurs utilisés par l'évaluateur de badges
type UserStats struct {
	TotalPoints              int
	TotalChallengesJoined    int
	TotalChallengesCompleted int
	CurrentStreak            int
	LongestStreak            int
}
