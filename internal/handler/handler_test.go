package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Les chemins de validation s'arrêtent avant tout accès base : ils se
// testent sans Postgres. Les scénarios transactionnels (joins concurrents,
// double complétion, abandon) se jouent contre une vraie base via
// TEST_DATABASE_URL, voir integration_test.go.

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestJoinChallengeInvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/participations", bytes.NewBufferString(`{`))
	rec := httptest.NewRecorder()

	JoinChallenge(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestJoinChallengeMissingFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/participations", bytes.NewBufferString(`{"userId":"u1"}`))
	rec := httptest.NewRecorder()

	JoinChallenge(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinChallengeUnknownField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/participations",
		bytes.NewBufferString(`{"userId":"u1","challengeId":"c1","bogus":true}`))
	rec := httptest.NewRecorder()

	JoinChallenge(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordProgressMissingPercentage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/participations/p1/progress",
		bytes.NewBufferString(`{"notes":"sans pourcentage"}`))
	req = mux.SetURLVars(req, map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()

	RecordProgress(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordProgressOutOfRange(t *testing.T) {
	for _, percentage := range []string{"-1", "101", "250"} {
		req := httptest.NewRequest(http.MethodPost, "/participations/p1/progress",
			bytes.NewBufferString(`{"percentage":`+percentage+`}`))
		req = mux.SetURLVars(req, map[string]string{"id": "p1"})
		rec := httptest.NewRecorder()

		RecordProgress(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "percentage=%s", percentage)
	}
}

func TestAbandonMissingUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/participations/p1/abandon",
		bytes.NewBufferString(`{}`))
	req = mux.SetURLVars(req, map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()

	AbandonParticipation(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListParticipationsMissingUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/participations", nil)
	rec := httptest.NewRecorder()

	ListParticipations(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListParticipationsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/participations?userId=u1&status=paused", nil)
	rec := httptest.NewRecorder()

	ListParticipations(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseStatusFilter(t *testing.T) {
	statuses, err := ParseStatusFilter("")
	require.NoError(t, err)
	assert.Nil(t, statuses)

	statuses, err = ParseStatusFilter("active")
	require.NoError(t, err)
	assert.Equal(t, []string{"active"}, statuses)

	statuses, err = ParseStatusFilter("Active, COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, []string{"active", "completed"}, statuses)

	statuses, err = ParseStatusFilter("active,,abandoned")
	require.NoError(t, err)
	assert.Equal(t, []string{"active", "abandoned"}, statuses)

	_, err = ParseStatusFilter("active,paused")
	assert.Error(t, err)
}

func TestGetLeaderboardUnknownMetric(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/leaderboard?metric=calories", nil)
	rec := httptest.NewRecorder()

	GetLeaderboard(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMyRankMissingUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/leaderboard/my-rank", nil)
	rec := httptest.NewRecorder()

	GetMyRank(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 1, Percentile(1, 100))
	assert.Equal(t, 50, Percentile(50, 100))
	assert.Equal(t, 100, Percentile(100, 100))
	// Arrondi à l'entier supérieur
	assert.Equal(t, 34, Percentile(1, 3))
	assert.Equal(t, 100, Percentile(3, 3))
	assert.Equal(t, 1, Percentile(1, 1000))
	// Valeurs sentinelles
	assert.Equal(t, 100, Percentile(0, 10))
	assert.Equal(t, 100, Percentile(1, 0))
}

func TestSyncCatalogEmptyList(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/catalog/sync",
		bytes.NewBufferString(`{"challenges":[]}`))
	rec := httptest.NewRecorder()

	SyncCatalog(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncCatalogInvalidEntryRejectedBeforeWrite(t *testing.T) {
	// La deuxième entrée est invalide : le lot entier doit être refusé
	// avant la moindre écriture (sans base branchée, toute écriture
	// ferait paniquer le test)
	req := httptest.NewRequest(http.MethodPost, "/catalog/sync",
		bytes.NewBufferString(`{"challenges":[
			{"id":"velo-boulot","title":"Vélo au boulot","points":50,"durationDays":7},
			{"id":"sans-titre","points":30,"durationDays":5}
		]}`))
	rec := httptest.NewRecorder()

	SyncCatalog(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestUpsertUserMissingFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/users",
		bytes.NewBufferString(`{"userId":"u1"}`))
	rec := httptest.NewRecorder()

	UpsertUser(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
