package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/database"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/logger"
	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/scanner"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

const challengeColumns = `
	id, title, description, category, difficulty, points, duration_days,
	max_participants, participants, tags, created_at, updated_at`

// GetChallenges récupère les définitions de challenges avec filtres optionnels.
// Vue en lecture seule sur le catalogue externe.
func GetChallenges(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := map[string]string{
		"category":   query.Get("category"),
		"difficulty": query.Get("difficulty"),
	}

	args := []interface{}{}
	argCount := 1

	sqlQuery := `SELECT ` + challengeColumns + ` FROM challenges WHERE TRUE`

	// Filtres dynamiques
	for col, val := range filters {
		if val != "" {
			sqlQuery += " AND " + col + " = $" + strconv.Itoa(argCount)
			args = append(args, val)
			argCount++
		}
	}

	sqlQuery += " ORDER BY created_at DESC"

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			sqlQuery += " LIMIT $" + strconv.Itoa(argCount)
			args = append(args, limit)
			argCount++
		}
	} else {
		// Limite par défaut pour éviter de renvoyer tout le catalogue
		sqlQuery += " LIMIT 50"
	}

	ctx := context.Background()

	rows, err := database.DB.Query(ctx, sqlQuery, args...)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not query challenges", err)
		return
	}
	defer rows.Close()

	challenges := []model.Challenge{}
	for rows.Next() {
		challenge, err := scanner.ScanChallenge(rows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not scan challenge row", err)
			return
		}
		challenges = append(challenges, *challenge)
	}

	utils.Success(w, challenges)
}

// GetChallengeById récupère un challenge par son ID
func GetChallengeById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	challengeID := vars["id"]

	ctx := context.Background()

	row := database.DB.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`,
		challengeID,
	)

	challenge, err := scanner.ScanChallenge(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.ErrorSimple(w, http.StatusNotFound, "challenge not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not load challenge", err)
		return
	}

	utils.Success(w, challenge)
}

// SyncCatalog ingère ou rafraîchit des définitions venant du catalogue
// externe. Ce n'est pas un CRUD éditorial : le compteur de participants,
// seule colonne écrite par le moteur, n'est jamais écrasé par la synchro.
func SyncCatalog(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Challenges []struct {
			ID           string   `json:"id"`
			Title        string   `json:"title"`
			Description  string   `json:"description,omitempty"`
			Category     string   `json:"category,omitempty"`
			Difficulty   string   `json:"difficulty,omitempty"`
			Points       int      `json:"points"`
			DurationDays int      `json:"durationDays"`
			MaxParts     *int     `json:"maxParticipants,omitempty"`
			Tags         []string `json:"tags,omitempty"`
		} `json:"challenges"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.ErrorSimple(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(payload.Challenges) == 0 {
		utils.ErrorSimple(w, http.StatusBadRequest, "challenges list is empty")
		return
	}

	// Valider tout le lot avant la première écriture : une entrée invalide
	// rejette la synchro entière, jamais une application partielle
	for _, c := range payload.Challenges {
		if c.ID == "" || c.Title == "" {
			utils.ErrorSimple(w, http.StatusBadRequest, "each challenge requires id and title")
			return
		}
	}

	ctx := context.Background()

	tx, err := database.DB.Begin(ctx)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not start transaction", err)
		return
	}
	defer tx.Rollback(ctx)

	synced := 0
	for _, c := range payload.Challenges {
		_, err := tx.Exec(ctx, `
			INSERT INTO challenges(id, title, description, category, difficulty, points, duration_days, max_participants, tags, created_at, updated_at)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, '{}'), NOW(), NOW())
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				category = EXCLUDED.category,
				difficulty = EXCLUDED.difficulty,
				points = EXCLUDED.points,
				duration_days = EXCLUDED.duration_days,
				max_participants = EXCLUDED.max_participants,
				tags = EXCLUDED.tags,
				updated_at = NOW()
		`, c.ID, c.Title, c.Description, c.Category, c.Difficulty,
			c.Points, c.DurationDays, c.MaxParts, pq.Array(c.Tags))
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not sync challenge "+c.ID, err)
			return
		}
		synced++
	}

	if err := tx.Commit(ctx); err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not commit catalog sync", err)
		return
	}

	logger.Success("Catalog sync: %d challenge(s)", synced)
	utils.Message(w, "catalog synced")
}
