package model

// LeaderboardEntry est une projection calculée à la demande, jamais
// persistée comme source de vérité
type LeaderboardEntry struct {
	UserID                   string `json:"userId"`
	DisplayName              string `json:"displayName"`
	PhotoURL                 string `json:"photoURL,omitempty"`
	Position                 int    `json:"position"`
	TotalPoints              int    `json:"totalPoints"`
	TotalChallengesJoined    int    `json:"totalChallengesJoined"`
	TotalChallengesCompleted int    `json:"totalChallengesCompleted"`
	CurrentStreak            int    `json:"currentStreak"`
	BadgeCount               int    `json:"badgeCount"`
	Rank                     string `json:"rank"`
}

// UserRank ajoute le percentile pour la vue "mon rang"
type UserRank struct {
	LeaderboardEntry
	TotalUsers int `json:"totalUsers"`
	Percentile int `json:"percentile"` // Top X%
}
