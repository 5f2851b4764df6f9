package scanner

import (
	"database/sql"

	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/lib/pq"
)

// rowScanner couvre pgx.Row et pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ScanUserProfile scanne une ligne SQL vers un UserProfile
// Utilise les types sql.Null* et les convertit automatiquement
func ScanUserProfile(scanner rowScanner) (*model.UserProfile, error) {
	var user model.UserProfile
	var photoURL sql.NullString
	var lastActiveDay sql.NullTime

	err := scanner.Scan(
		&user.ID, &user.DisplayName, &photoURL,
		&user.TotalPoints, &user.TotalChallengesJoined, &user.TotalChallengesCompleted,
		&user.CurrentStreak, &user.LongestStreak, &lastActiveDay,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.PhotoURL = utils.NullStringToString(photoURL)
	user.LastActiveDay = utils.NullTimeToPointer(lastActiveDay)

	return &user, nil
}

// ScanChallenge scanne une ligne SQL vers un Challenge
func ScanChallenge(scanner rowScanner) (*model.Challenge, error) {
	var c model.Challenge

	err := scanner.Scan(
		&c.ID, &c.Title, &c.Description, &c.Category, &c.Difficulty,
		&c.Points, &c.DurationDays, &c.MaxParticipants, &c.Participants,
		pq.Array(&c.Tags), &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// ScanParticipation scanne une ligne SQL vers une Participation
func ScanParticipation(scanner rowScanner) (*model.Participation, error) {
	var p model.Participation

	err := scanner.Scan(
		&p.ID, &p.UserID, &p.ChallengeID, &p.Status,
		&p.ProgressPercentage, &p.PointsEarned,
		&p.JoinedDate, &p.LastUpdated, &p.CompletedDate,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// ScanProgressEntry scanne une ligne SQL vers une ProgressEntry
func ScanProgressEntry(scanner rowScanner) (*model.ProgressEntry, error) {
	var e model.ProgressEntry

	err := scanner.Scan(
		&e.ID, &e.ParticipationID, &e.Percentage,
		&e.Notes, &e.ImpactValue, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}
