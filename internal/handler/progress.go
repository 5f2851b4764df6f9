package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/badges"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/database"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/logger"
	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/scanner"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
)

// RecordProgress enregistre une entrée de progression sur une participation.
// Le journal, la projection sur la participation, le streak et l'éventuelle
// complétion commitent ensemble ou pas du tout.
func RecordProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	participationID := vars["id"]

	var payload struct {
		Percentage     *int     `json:"percentage"`
		Notes          *string  `json:"notes,omitempty"`
		ImpactValue    *float64 `json:"impactValue,omitempty"`
		IdempotencyKey string   `json:"idempotencyKey,omitempty"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.ErrorSimple(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if payload.Percentage == nil {
		utils.ErrorSimple(w, http.StatusBadRequest, "percentage is required")
		return
	}
	percentage := *payload.Percentage
	if percentage < 0 || percentage > 100 {
		utils.ErrorSimple(w, http.StatusBadRequest, "percentage must be between 0 and 100")
		return
	}

	ctx := context.Background()

	// Rejeu : si la clé d'idempotence a déjà été consommée, l'entrée est
	// en base et l'état courant de la participation fait foi
	if payload.IdempotencyKey != "" {
		var exists bool
		err := database.DB.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM progress_entries WHERE idempotency_key = $1)`,
			payload.IdempotencyKey,
		).Scan(&exists)
		if err == nil && exists {
			respondWithParticipation(ctx, w, participationID)
			return
		}
	}

	tx, err := database.DB.Begin(ctx)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not start transaction", err)
		return
	}
	defer tx.Rollback(ctx)

	// Verrouiller la participation : les rejeux concurrents d'un "100%"
	// s'exécutent l'un après l'autre et le second voit l'état terminal
	row := tx.QueryRow(ctx, `
		SELECT p.id, p.user_id, p.challenge_id, p.status, p.progress_percentage,
			p.points_earned, p.joined_date, p.last_updated, p.completed_date,
			c.points
		FROM participations p
		INNER JOIN challenges c ON p.challenge_id = c.id
		WHERE p.id = $1
		FOR UPDATE OF p
	`, participationID)

	var participation model.Participation
	var challengePoints int
	err = row.Scan(
		&participation.ID, &participation.UserID, &participation.ChallengeID,
		&participation.Status, &participation.ProgressPercentage, &participation.PointsEarned,
		&participation.JoinedDate, &participation.LastUpdated, &participation.CompletedDate,
		&challengePoints,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.ErrorSimple(w, http.StatusNotFound, "participation not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not load participation", err)
		return
	}

	// Re-poster 100% sur une participation déjà complétée est un no-op qui
	// renvoie l'état existant, pas une erreur
	if participation.Status == model.StatusCompleted && percentage == 100 {
		utils.Success(w, &participation)
		return
	}

	if participation.Status != model.StatusActive {
		utils.ErrorSimple(w, http.StatusConflict, "participation is not active")
		return
	}

	var idempotencyKey interface{}
	if payload.IdempotencyKey != "" {
		idempotencyKey = payload.IdempotencyKey
	}

	now := time.Now()

	// Journal append-only
	_, err = tx.Exec(ctx, `
		INSERT INTO progress_entries(id, participation_id, percentage, notes, impact_value, idempotency_key, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), participationID, percentage, payload.Notes, payload.ImpactValue, idempotencyKey, now)
	if err != nil {
		if isUniqueViolation(err, "") {
			respondWithParticipation(ctx, w, participationID)
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not record progress entry", err)
		return
	}

	// Projection : toujours la dernière entrée, sans contrainte de
	// monotonie (une valeur plus basse est une correction utilisateur)
	_, err = tx.Exec(ctx, `
		UPDATE participations SET progress_percentage = $2, last_updated = $3
		WHERE id = $1
	`, participationID, percentage, now)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not update participation", err)
		return
	}

	if err := utils.AdvanceUserStreak(ctx, tx, participation.UserID, now); err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not update streak", err)
		return
	}

	// Règle de complétion : à 100%, transition atomique vers completed
	// avec crédit des points du challenge
	if percentage == 100 {
		_, err = tx.Exec(ctx, `
			UPDATE participations SET
				status = 'completed',
				points_earned = $2,
				completed_date = $3
			WHERE id = $1 AND status = 'active'
		`, participationID, challengePoints, now)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not complete participation", err)
			return
		}

		if err := utils.AwardCompletion(ctx, tx, participation.UserID, challengePoints); err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not award completion", err)
			return
		}

		logger.Success("Participation %s completed (%d points)", participationID, challengePoints)
	}

	stats, err := utils.GetUserStats(ctx, tx, participation.UserID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load user stats", err)
		return
	}

	granted, err := badges.EvaluateAndGrant(ctx, tx, participation.UserID, stats)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not evaluate badges", err)
		return
	}

	// Relire la projection finale avant commit
	updated := tx.QueryRow(ctx,
		`SELECT `+participationColumns+` FROM participations WHERE id = $1`,
		participationID,
	)
	result, err := scanner.ScanParticipation(updated)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not reload participation", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not commit progress", err)
		return
	}

	if len(granted) > 0 {
		logger.Info("Badges granted to %s: %v", participation.UserID, granted)
	}

	utils.Success(w, result)
}

// respondWithParticipation renvoie l'état courant d'une participation
func respondWithParticipation(ctx context.Context, w http.ResponseWriter, participationID string) {
	row := database.DB.QueryRow(ctx,
		`SELECT `+participationColumns+` FROM participations WHERE id = $1`,
		participationID,
	)
	participation, err := scanner.ScanParticipation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.ErrorSimple(w, http.StatusNotFound, "participation not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not load participation", err)
		return
	}
	utils.Success(w, participation)
}

// GetProgressHistory renvoie le journal de progression d'une participation
func GetProgressHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	participationID := vars["id"]
	userID := r.URL.Query().Get("userId")

	if userID == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	ctx := context.Background()

	var ownerID string
	err := database.DB.QueryRow(ctx,
		`SELECT user_id FROM participations WHERE id = $1`,
		participationID,
	).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.ErrorSimple(w, http.StatusNotFound, "participation not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not load participation", err)
		return
	}
	if ownerID != userID {
		utils.ErrorSimple(w, http.StatusForbidden, "participation does not belong to this user")
		return
	}

	rows, err := database.DB.Query(ctx, `
		SELECT id, participation_id, percentage, notes, impact_value, created_at
		FROM progress_entries
		WHERE participation_id = $1
		ORDER BY created_at ASC
	`, participationID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not query progress entries", err)
		return
	}
	defer rows.Close()

	entries := []model.ProgressEntry{}
	for rows.Next() {
		entry, err := scanner.ScanProgressEntry(rows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not scan progress entry", err)
			return
		}
		entries = append(entries, *entry)
	}

	utils.Success(w, entries)
}
