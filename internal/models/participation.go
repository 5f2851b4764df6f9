package model

import (
	"database/sql"
	"time"
)

// Statuts d'une participation. Machine à trois états : active peut passer à
// completed ou abandoned, les états terminaux ne bougent plus.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

// Participation représente l'engagement d'un utilisateur sur un challenge
type Participation struct {
	ID                 string       `json:"id"`
	UserID             string       `json:"userId"`
	ChallengeID        string       `json:"challengeId"`
	Status             string       `json:"status"`
	ProgressPercentage int          `json:"progressPercentage"`
	PointsEarned       int          `json:"pointsEarned"`
	JoinedDate         time.Time    `json:"joinedDate"`
	LastUpdated        time.Time    `json:"lastUpdated"`
	CompletedDate      sql.NullTime `json:"completedDate,omitempty"`
}

// ProgressEntry est une ligne du journal de progression (append-only).
// La projection sur la participation reprend toujours la dernière entrée.
type ProgressEntry struct {
	ID              string          `json:"id"`
	ParticipationID string          `json:"participationId"`
	Percentage      int             `json:"percentage"`
	Notes           sql.NullString  `json:"notes,omitempty"`
	ImpactValue     sql.NullFloat64 `json:"impactValue,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// IsValidStatus vérifie qu'un statut fait partie des trois états connus
func IsValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}
