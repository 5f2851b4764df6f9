package badges

import (
	"testing"

	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateEmptyStats(t *testing.T) {
	assert.Empty(t, Evaluate(model.UserStats{}))
}

func TestEvaluateFirstJoin(t *testing.T) {
	earned := Evaluate(model.UserStats{TotalChallengesJoined: 1})
	assert.Equal(t, []string{"first_challenge"}, earned)
}

func TestEvaluateJoinMilestones(t *testing.T) {
	earned := Evaluate(model.UserStats{TotalChallengesJoined: 25})
	assert.Contains(t, earned, "first_challenge")
	assert.Contains(t, earned, "challenger_5")
	assert.Contains(t, earned, "challenger_10")
	assert.Contains(t, earned, "challenger_25")
	assert.NotContains(t, earned, "challenger_50")
}

func TestEvaluateCompletion(t *testing.T) {
	earned := Evaluate(model.UserStats{TotalChallengesJoined: 1, TotalChallengesCompleted: 1})
	assert.Contains(t, earned, "first_completion")
	assert.NotContains(t, earned, "finisher_10")
}

func TestEvaluateStreaks(t *testing.T) {
	assert.NotContains(t, Evaluate(model.UserStats{CurrentStreak: 6}), "week_streak")
	assert.Contains(t, Evaluate(model.UserStats{CurrentStreak: 7}), "week_streak")
	assert.Contains(t, Evaluate(model.UserStats{CurrentStreak: 30}), "month_streak")
}

func TestEvaluatePoints(t *testing.T) {
	earned := Evaluate(model.UserStats{TotalPoints: 500})
	assert.Contains(t, earned, "points_100")
	assert.Contains(t, earned, "points_500")
	assert.NotContains(t, earned, "points_1000")
}

func TestEvaluateIsPure(t *testing.T) {
	stats := model.UserStats{TotalChallengesJoined: 5, CurrentStreak: 7}
	assert.Equal(t, Evaluate(stats), Evaluate(stats))
}

func TestCatalogIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, badge := range All() {
		assert.False(t, seen[badge.ID], "duplicate badge id %s", badge.ID)
		seen[badge.ID] = true
	}
}

func TestByID(t *testing.T) {
	badge, ok := ByID("first_challenge")
	assert.True(t, ok)
	assert.Equal(t, "milestone", badge.Category)

	_, ok = ByID("does_not_exist")
	assert.False(t, ok)
}
