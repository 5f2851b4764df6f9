package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDayTruncatesToUTC(t *testing.T) {
	paris := time.FixedZone("CEST", 2*3600)

	// 00h30 à Paris le 2 juin = encore le 1er juin en UTC
	local := time.Date(2025, 6, 2, 0, 30, 0, 0, paris)
	assert.Equal(t, day("2025-06-01"), Day(local))
}

func TestAdvanceFirstActivity(t *testing.T) {
	current, longest, changed := Advance(nil, day("2025-06-01"), 0, 0)
	assert.True(t, changed)
	assert.Equal(t, 1, current)
	assert.Equal(t, 1, longest)
}

func TestAdvanceSameDayIsNoop(t *testing.T) {
	last := day("2025-06-01")
	current, longest, changed := Advance(&last, last.Add(5*time.Hour), 3, 5)
	assert.False(t, changed)
	assert.Equal(t, 3, current)
	assert.Equal(t, 5, longest)
}

func TestAdvanceConsecutiveDay(t *testing.T) {
	last := day("2025-06-01")
	current, longest, changed := Advance(&last, day("2025-06-02"), 3, 5)
	assert.True(t, changed)
	assert.Equal(t, 4, current)
	assert.Equal(t, 5, longest)
}

func TestAdvanceUpdatesLongest(t *testing.T) {
	last := day("2025-06-01")
	current, longest, changed := Advance(&last, day("2025-06-02"), 5, 5)
	assert.True(t, changed)
	assert.Equal(t, 6, current)
	assert.Equal(t, 6, longest)
}

func TestAdvanceGapResets(t *testing.T) {
	last := day("2025-06-01")
	current, longest, changed := Advance(&last, day("2025-06-04"), 7, 9)
	assert.True(t, changed)
	assert.Equal(t, 1, current)
	// Le record n'est jamais perdu
	assert.Equal(t, 9, longest)
}

func TestAdvanceWeekLong(t *testing.T) {
	var last *time.Time
	current, longest := 0, 0

	start := day("2025-06-01")
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		var changed bool
		current, longest, changed = Advance(last, d, current, longest)
		assert.True(t, changed)
		last = &d
	}

	assert.Equal(t, 7, current)
	assert.Equal(t, 7, longest)
}
