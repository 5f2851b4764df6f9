package model

import (
	"database/sql"
	"time"
)

// Challenge est une définition issue du catalogue externe. Le moteur ne
// modifie que le compteur de participants, tout le reste est en lecture seule.
type Challenge struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Category        string        `json:"category"` // TRANSPORT, ENERGY, WASTE, FOOD, WATER
	Difficulty      string        `json:"difficulty"`
	Points          int           `json:"points"`
	DurationDays    int           `json:"durationDays"`
	MaxParticipants sql.NullInt32 `json:"maxParticipants,omitempty"`
	Participants    int           `json:"participants"`
	Tags            []string      `json:"tags,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
