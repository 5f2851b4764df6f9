package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/database"
	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scénarios transactionnels contre une vraie base Postgres.
// Lancer avec TEST_DATABASE_URL=postgres://... ; sautés sinon.

func setupIntegrationDB(t *testing.T) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	database.DB = pool
	require.NoError(t, database.EnsureSchema(ctx))
	_, err = pool.Exec(ctx,
		`TRUNCATE progress_entries, user_badges, participations, challenges, users CASCADE`)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
		database.DB = nil
	})
}

func seedUser(t *testing.T, id string) {
	t.Helper()
	_, err := database.DB.Exec(context.Background(),
		`INSERT INTO users(id, display_name) VALUES($1, $1)`, id)
	require.NoError(t, err)
}

func seedChallenge(t *testing.T, id string, points int, maxParticipants *int) {
	t.Helper()
	_, err := database.DB.Exec(context.Background(),
		`INSERT INTO challenges(id, title, points, duration_days, max_participants)
		 VALUES($1, $1, $2, 7, $3)`, id, points, maxParticipants)
	require.NoError(t, err)
}

func postJoin(userID, challengeID string) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"userId":%q,"challengeId":%q}`, userID, challengeID)
	req := httptest.NewRequest(http.MethodPost, "/participations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	JoinChallenge(rec, req)
	return rec
}

func postProgress(participationID string, percentage int) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"percentage":%d}`, percentage)
	req := httptest.NewRequest(http.MethodPost,
		"/participations/"+participationID+"/progress", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": participationID})
	rec := httptest.NewRecorder()
	RecordProgress(rec, req)
	return rec
}

func putAbandon(participationID, userID string) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"userId":%q}`, userID)
	req := httptest.NewRequest(http.MethodPut,
		"/participations/"+participationID+"/abandon", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": participationID})
	rec := httptest.NewRecorder()
	AbandonParticipation(rec, req)
	return rec
}

// decodeData re-sérialise le champ data de l'enveloppe vers la struct cible
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Success, "error: %s", resp.Error)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

func countRows(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t,
		database.DB.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func loadUserTotals(t *testing.T, userID string) (points, joined, completed, streak int) {
	t.Helper()
	require.NoError(t, database.DB.QueryRow(context.Background(),
		`SELECT total_points, total_challenges_joined, total_challenges_completed, current_streak
		 FROM users WHERE id = $1`, userID).Scan(&points, &joined, &completed, &streak))
	return
}

// N+k joins concurrents sur un challenge plafonné à N : exactement N
// acceptés, les autres refusés en 409, et le compteur reste à N.
func TestJoinRespectsCapacityUnderConcurrency(t *testing.T) {
	setupIntegrationDB(t)

	maxParts := 3
	challengeID := "cap-" + uuid.NewString()
	seedChallenge(t, challengeID, 50, &maxParts)

	const joiners = 5
	userIDs := make([]string, joiners)
	for i := range userIDs {
		userIDs[i] = "user-" + uuid.NewString()
		seedUser(t, userIDs[i])
	}

	var wg sync.WaitGroup
	var accepted, rejected int32
	for _, userID := range userIDs {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			switch rec := postJoin(userID, challengeID); rec.Code {
			case http.StatusOK:
				atomic.AddInt32(&accepted, 1)
			case http.StatusConflict:
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected status %d", rec.Code)
			}
		}(userID)
	}
	wg.Wait()

	assert.Equal(t, int32(maxParts), accepted)
	assert.Equal(t, int32(joiners-maxParts), rejected)

	var participants int
	require.NoError(t, database.DB.QueryRow(context.Background(),
		`SELECT participants FROM challenges WHERE id = $1`, challengeID).Scan(&participants))
	assert.Equal(t, maxParts, participants)
	assert.Equal(t, maxParts,
		countRows(t, `SELECT COUNT(*) FROM participations WHERE challenge_id = $1`, challengeID))
}

func TestDuplicateJoinRejectedThenRejoinAfterAbandon(t *testing.T) {
	setupIntegrationDB(t)

	userID := "user-" + uuid.NewString()
	challengeID := "dup-" + uuid.NewString()
	seedUser(t, userID)
	seedChallenge(t, challengeID, 30, nil)

	rec := postJoin(userID, challengeID)
	require.Equal(t, http.StatusOK, rec.Code)
	var first model.Participation
	decodeData(t, rec, &first)

	// Rejoindre le même challenge avec une participation active : refusé
	rec = postJoin(userID, challengeID)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1,
		countRows(t, `SELECT COUNT(*) FROM participations WHERE user_id = $1`, userID))

	// Après abandon, le couple redevient libre
	rec = putAbandon(first.ID, userID)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postJoin(userID, challengeID)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// Parcours complet 40 → 95 → 100 : journal à trois entrées, complétion
// avec les points du challenge, agrégats et badges mis à jour.
func TestProgressLifecycleToCompletion(t *testing.T) {
	setupIntegrationDB(t)

	userID := "user-" + uuid.NewString()
	challengeID := "life-" + uuid.NewString()
	seedUser(t, userID)
	seedChallenge(t, challengeID, 100, nil)

	rec := postJoin(userID, challengeID)
	require.Equal(t, http.StatusOK, rec.Code)
	var p model.Participation
	decodeData(t, rec, &p)

	for _, step := range []struct {
		percentage int
		status     string
		earned     int
	}{
		{40, model.StatusActive, 0},
		{95, model.StatusActive, 0},
		{100, model.StatusCompleted, 100},
	} {
		rec = postProgress(p.ID, step.percentage)
		require.Equal(t, http.StatusOK, rec.Code, "percentage=%d", step.percentage)
		decodeData(t, rec, &p)
		assert.Equal(t, step.percentage, p.ProgressPercentage)
		assert.Equal(t, step.status, p.Status)
		assert.Equal(t, step.earned, p.PointsEarned)
	}
	assert.True(t, p.CompletedDate.Valid)

	assert.Equal(t, 3,
		countRows(t, `SELECT COUNT(*) FROM progress_entries WHERE participation_id = $1`, p.ID))

	points, joined, completed, streak := loadUserTotals(t, userID)
	assert.Equal(t, 100, points)
	assert.Equal(t, 1, joined)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, streak)

	assert.Equal(t, 1, countRows(t,
		`SELECT COUNT(*) FROM user_badges WHERE user_id = $1 AND badge_id = 'first_completion'`, userID))
	assert.Equal(t, 1, countRows(t,
		`SELECT COUNT(*) FROM user_badges WHERE user_id = $1 AND badge_id = 'first_challenge'`, userID))
}

// Deux requêtes à 100 % en parallèle : la complétion et ses points ne
// sont appliqués qu'une seule fois, la seconde rejoue l'état final.
func TestCompletionAppliedExactlyOnce(t *testing.T) {
	setupIntegrationDB(t)

	userID := "user-" + uuid.NewString()
	challengeID := "once-" + uuid.NewString()
	seedUser(t, userID)
	seedChallenge(t, challengeID, 75, nil)

	rec := postJoin(userID, challengeID)
	require.Equal(t, http.StatusOK, rec.Code)
	var p model.Participation
	decodeData(t, rec, &p)

	rec = postProgress(p.ID, 50)
	require.Equal(t, http.StatusOK, rec.Code)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = postProgress(p.ID, 100).Code
		}(i)
	}
	wg.Wait()
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])

	var status string
	var earned int
	require.NoError(t, database.DB.QueryRow(context.Background(),
		`SELECT status, points_earned FROM participations WHERE id = $1`, p.ID).
		Scan(&status, &earned))
	assert.Equal(t, model.StatusCompleted, status)
	assert.Equal(t, 75, earned)

	points, _, completed, _ := loadUserTotals(t, userID)
	assert.Equal(t, 75, points)
	assert.Equal(t, 1, completed)

	// 50 puis une seule entrée à 100, la requête concurrente n'ajoute rien
	assert.Equal(t, 2,
		countRows(t, `SELECT COUNT(*) FROM progress_entries WHERE participation_id = $1`, p.ID))
}

// L'abandon fige la progression et n'accorde jamais de points
func TestAbandonFreezesProgressWithoutPoints(t *testing.T) {
	setupIntegrationDB(t)

	userID := "user-" + uuid.NewString()
	challengeID := "quit-" + uuid.NewString()
	seedUser(t, userID)
	seedChallenge(t, challengeID, 80, nil)

	rec := postJoin(userID, challengeID)
	require.Equal(t, http.StatusOK, rec.Code)
	var p model.Participation
	decodeData(t, rec, &p)

	rec = postProgress(p.ID, 30)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = putAbandon(p.ID, userID)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &p)
	assert.Equal(t, model.StatusAbandoned, p.Status)
	assert.Equal(t, 30, p.ProgressPercentage)
	assert.Equal(t, 0, p.PointsEarned)
	assert.False(t, p.CompletedDate.Valid)

	points, joined, completed, _ := loadUserTotals(t, userID)
	assert.Equal(t, 0, points)
	assert.Equal(t, 1, joined)
	assert.Equal(t, 0, completed)

	// Le badge de premier join survit à l'abandon
	assert.Equal(t, 1, countRows(t,
		`SELECT COUNT(*) FROM user_badges WHERE user_id = $1 AND badge_id = 'first_challenge'`, userID))

	// État terminal : ni progression ni second abandon
	assert.Equal(t, http.StatusConflict, postProgress(p.ID, 60).Code)
	assert.Equal(t, http.StatusConflict, putAbandon(p.ID, userID).Code)
}
