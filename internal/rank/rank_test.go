package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForPoints(t *testing.T) {
	cases := []struct {
		points int
		tier   string
	}{
		{0, TierBeginner},
		{49, TierBeginner},
		{50, TierIntermediate},
		{99, TierIntermediate},
		{100, TierAdvanced},
		{249, TierAdvanced},
		{250, TierExpert},
		{499, TierExpert},
		{500, TierMaster},
		{999, TierMaster},
		{1000, TierLegend},
		{1500, TierLegend},
		{100000, TierLegend},
	}

	for _, c := range cases {
		assert.Equal(t, c.tier, TierForPoints(c.points), "points=%d", c.points)
	}
}

func TestTierForPointsNegative(t *testing.T) {
	// Ne devrait pas arriver (compteurs jamais décrémentés), mais la
	// fonction reste totale
	assert.Equal(t, TierBeginner, TierForPoints(-10))
}

func TestNextTarget(t *testing.T) {
	assert.Equal(t, 50, NextTarget(0))
	assert.Equal(t, 50, NextTarget(49))
	assert.Equal(t, 100, NextTarget(50))
	assert.Equal(t, 250, NextTarget(100))
	assert.Equal(t, 500, NextTarget(250))
	assert.Equal(t, 1000, NextTarget(999))
	// Legend : valeur d'affichage, pas un palier
	assert.Equal(t, 2000, NextTarget(1000))
	assert.Equal(t, 2000, NextTarget(5000))
}
