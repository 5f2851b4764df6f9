package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/badges"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/database"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/logger"
	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/scanner"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const participationColumns = `
	id, user_id, challenge_id, status, progress_percentage, points_earned,
	joined_date, last_updated, completed_date`

// isUniqueViolation détecte une violation de contrainte d'unicité Postgres
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	return false
}

// findParticipationByIdempotencyKey retrouve une participation déjà créée
// par un appel précédent portant la même clé d'idempotence
func findParticipationByIdempotencyKey(ctx context.Context, key string) (*model.Participation, error) {
	row := database.DB.QueryRow(ctx,
		`SELECT `+participationColumns+` FROM participations WHERE idempotency_key = $1`,
		key,
	)
	return scanner.ScanParticipation(row)
}

// JoinChallenge inscrit un utilisateur sur un challenge.
// Toute la séquence (garde de capacité, unicité du couple, compteurs) tient
// dans une seule transaction : deux joins concurrents pour le même couple
// donnent exactement un succès et un "already joined".
func JoinChallenge(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID         string `json:"userId"`
		ChallengeID    string `json:"challengeId"`
		IdempotencyKey string `json:"idempotencyKey,omitempty"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.ErrorSimple(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if payload.UserID == "" || payload.ChallengeID == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "userId and challengeId are required")
		return
	}

	ctx := context.Background()

	// Rejeu d'un appel déjà commité : renvoyer la participation existante
	if payload.IdempotencyKey != "" {
		if existing, err := findParticipationByIdempotencyKey(ctx, payload.IdempotencyKey); err == nil {
			utils.Success(w, existing)
			return
		}
	}

	tx, err := database.DB.Begin(ctx)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not start transaction", err)
		return
	}
	defer tx.Rollback(ctx)

	var userExists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, payload.UserID,
	).Scan(&userExists); err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not check user", err)
		return
	}
	if !userExists {
		utils.ErrorSimple(w, http.StatusNotFound, "user not found")
		return
	}

	var challengeExists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM challenges WHERE id = $1)`, payload.ChallengeID,
	).Scan(&challengeExists); err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not check challenge", err)
		return
	}
	if !challengeExists {
		utils.ErrorSimple(w, http.StatusNotFound, "challenge not found")
		return
	}

	// Garde de capacité et incrément en une seule instruction : sous
	// concurrence, seuls max_participants joins passent cette barrière
	tag, err := tx.Exec(ctx, `
		UPDATE challenges SET participants = participants + 1, updated_at = NOW()
		WHERE id = $1
		  AND (max_participants IS NULL OR participants < max_participants)
	`, payload.ChallengeID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not increment participants", err)
		return
	}
	if tag.RowsAffected() == 0 {
		utils.ErrorSimple(w, http.StatusConflict, "challenge is full")
		return
	}

	var idempotencyKey interface{}
	if payload.IdempotencyKey != "" {
		idempotencyKey = payload.IdempotencyKey
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO participations(id, user_id, challenge_id, status, progress_percentage, points_earned, joined_date, last_updated, idempotency_key)
		VALUES($1, $2, $3, 'active', 0, 0, NOW(), NOW(), $4)
		RETURNING `+participationColumns,
		uuid.NewString(), payload.UserID, payload.ChallengeID, idempotencyKey,
	)

	participation, err := scanner.ScanParticipation(row)
	if err != nil {
		// L'index partiel sur (user_id, challenge_id) transforme le join
		// dupliqué en violation d'unicité. Une participation abandonnée ne
		// bloque pas : elle n'est pas couverte par l'index.
		if isUniqueViolation(err, "idx_participations_active_pair") {
			utils.ErrorSimple(w, http.StatusConflict, "challenge already joined")
			return
		}
		if isUniqueViolation(err, "") {
			// Clé d'idempotence déjà consommée par un appel concurrent
			if existing, lookupErr := findParticipationByIdempotencyKey(ctx, payload.IdempotencyKey); lookupErr == nil {
				utils.Success(w, existing)
				return
			}
		}
		utils.Error(w, http.StatusInternalServerError, "could not create participation", err)
		return
	}

	if err := utils.IncrementJoinedCount(ctx, tx, payload.UserID); err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not update user stats", err)
		return
	}

	stats, err := utils.GetUserStats(ctx, tx, payload.UserID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load user stats", err)
		return
	}

	granted, err := badges.EvaluateAndGrant(ctx, tx, payload.UserID, stats)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not evaluate badges", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not commit join", err)
		return
	}

	if len(granted) > 0 {
		logger.Info("Badges granted to %s: %s", payload.UserID, strings.Join(granted, ", "))
	}

	utils.Success(w, participation)
}

// AbandonParticipation abandonne une participation active.
// Les points et la progression sont figés à leur valeur courante.
func AbandonParticipation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	participationID := vars["id"]

	var payload struct {
		UserID string `json:"userId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.ErrorSimple(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.UserID == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "userId is required")
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

	if ownerID != payload.UserID {
		utils.ErrorSimple(w, http.StatusForbidden, "participation does not belong to this user")
		return
	}

	// Transition conditionnelle : seule une participation encore active
	// bascule, les états terminaux restent intacts même sous concurrence
	row := database.DB.QueryRow(ctx, `
		UPDATE participations
		SET status = 'abandoned', last_updated = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'active'
		RETURNING `+participationColumns,
		participationID, payload.UserID,
	)

	participation, err := scanner.ScanParticipation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.ErrorSimple(w, http.StatusConflict, "participation is not active")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not abandon participation", err)
		return
	}

	utils.Success(w, participation)
}

// GetParticipation récupère une participation par son ID
func GetParticipation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	participationID := vars["id"]
	userID := r.URL.Query().Get("userId")

	if userID == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	ctx := context.Background()

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

	if participation.UserID != userID {
		utils.ErrorSimple(w, http.StatusForbidden, "participation does not belong to this user")
		return
	}

	utils.Success(w, participation)
}

// ParseStatusFilter valide un filtre de statut, simple ou joint par virgules.
// Chaîne vide = tous les statuts.
func ParseStatusFilter(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}

	var statuses []string
	for _, part := range strings.Split(raw, ",") {
		status := strings.ToLower(strings.TrimSpace(part))
		if status == "" {
			continue
		}
		if !model.IsValidStatus(status) {
			return nil, errors.New("unknown status: " + status)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ListParticipations liste les participations d'un utilisateur, les plus
// récemment mises à jour d'abord
func ListParticipations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("userId")

	if userID == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	statuses, err := ParseStatusFilter(query.Get("status"))
	if err != nil {
		utils.ErrorSimple(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()

	var rows pgx.Rows
	if len(statuses) > 0 {
		rows, err = database.DB.Query(ctx, `
			SELECT `+participationColumns+`
			FROM participations
			WHERE user_id = $1 AND status = ANY($2)
			ORDER BY last_updated DESC
		`, userID, statuses)
	} else {
		rows, err = database.DB.Query(ctx, `
			SELECT `+participationColumns+`
			FROM participations
			WHERE user_id = $1
			ORDER BY last_updated DESC
		`, userID)
	}

	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not query participations", err)
		return
	}
	defer rows.Close()

	participations := []model.Participation{}
	for rows.Next() {
		participation, err := scanner.ScanParticipation(rows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not scan participation row", err)
			return
		}
		participations = append(participations, *participation)
	}

	utils.Success(w, participations)
}
