package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var weatherSizing = SmartParams{Fraction: 0.05, MaxPosCents: 200}

func TestSmartBaseAllocation(t *testing.T) {
	// $1000 balance wants $50 per trade at 5%, but the $2 cap binds:
	// 200c / 10c = 20 contracts.
	got := Smart(weatherSizing, 100000, 10, 3)
	assert.Equal(t, 20, got)
}

func TestSmartEdgeStepUps(t *testing.T) {
	// $30 balance keeps the base allocation (150c) under the cap so the
	// multiplier is visible.
	p := SmartParams{Fraction: 0.05, MaxPosCents: 2000}

	base := Smart(p, 3000, 10, 0)   // 150c / 10c
	mid := Smart(p, 3000, 10, 5)    // x1.5
	strong := Smart(p, 3000, 10, 12) // x2

	assert.Equal(t, 15, base)
	assert.Equal(t, 22, mid)
	assert.Equal(t, 30, strong)
}

func TestSmartCapBindsLargeBalances(t *testing.T) {
	// $1000 at 4% with a strong edge wants 800c, capped at 300c.
	got := Smart(SmartParams{Fraction: 0.04, MaxPosCents: 300}, 100000, 15, 12)
	assert.Equal(t, 20, got)
}

func TestSmartAlwaysAtLeastOneContract(t *testing.T) {
	// Cap below price still yields one contract.
	got := Smart(SmartParams{Fraction: 0.05, MaxPosCents: 10}, 100000, 45, 0)
	assert.Equal(t, 1, got)

	// Tiny balance too.
	got = Smart(weatherSizing, 10, 45, 0)
	assert.Equal(t, 1, got)
}

func TestKellyLowBalanceFixedMode(t *testing.T) {
	t.Run("fixed clip", func(t *testing.T) {
		got := Kelly(DefaultKelly, 10, 0.8, 0.8, 800, 900)
		assert.Equal(t, 200, got)
	})
	t.Run("clipped by balance", func(t *testing.T) {
		got := Kelly(DefaultKelly, 10, 0.8, 0.8, 150, 900)
		assert.Equal(t, 150, got)
	})
	t.Run("clipped by budget", func(t *testing.T) {
		got := Kelly(DefaultKelly, 10, 0.8, 0.8, 800, 120)
		assert.Equal(t, 120, got)
	})
	t.Run("under a dollar trades nothing", func(t *testing.T) {
		got := Kelly(DefaultKelly, 10, 0.8, 0.8, 80, 900)
		assert.Equal(t, 0, got)
	})
}

func TestKellyScalesWithSignalQuality(t *testing.T) {
	weak := Kelly(DefaultKelly, 15, 0.0, 0.0, 10000, 900)
	strong := Kelly(DefaultKelly, 15, 1.0, 1.0, 10000, 900)
	assert.Greater(t, strong, weak, "confident signals size up")
	assert.Equal(t, 0, weak, "weak signals at this edge stay under the $1 floor")
}

func TestKellyRespectsCeilings(t *testing.T) {
	big := KellyParams{Fraction: 1.0, BaseUSD: 500, MaxUSD: 20, SmallBalanceC: 1000, FixedCents: 200}

	t.Run("max USD cap", func(t *testing.T) {
		got := Kelly(big, 15, 1.0, 1.0, 1_000_000, 1_000_000)
		assert.Equal(t, 2000, got)
	})
	t.Run("budget remaining binds below the cap", func(t *testing.T) {
		got := Kelly(big, 15, 1.0, 1.0, 1_000_000, 700)
		assert.Equal(t, 700, got)
	})
	t.Run("balance binds below the cap", func(t *testing.T) {
		got := Kelly(big, 15, 1.0, 1.0, 1500, 1_000_000)
		assert.Equal(t, 1500, got)
	})
}

func TestKellyZeroOnNegativeExpectation(t *testing.T) {
	// Zero edge at the default tuning produces a sub-dollar stake.
	got := Kelly(DefaultKelly, 0, 0.5, 0.5, 10000, 900)
	assert.Equal(t, 0, got)
}
