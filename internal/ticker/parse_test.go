package ticker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCitiesCombo(t *testing.T) {
	p := Parse("KXCITIESWEATHER-26JAN17-(CHI)(B32)(NY)(T40)")

	assert.Equal(t, KindCitiesCombo, p.Kind)
	require.True(t, p.HasDate)
	assert.Equal(t, time.Date(2026, time.January, 17, 0, 0, 0, 0, time.UTC), p.TargetDate)

	require.Len(t, p.Conditions, 2)
	assert.Equal(t, Condition{City: "CHI", Dir: DirBelow, Threshold: 32}, p.Conditions[0])
	assert.Equal(t, Condition{City: "NY", Dir: DirAbove, Threshold: 40}, p.Conditions[1])
}

func TestParseComboDecimalThreshold(t *testing.T) {
	p := Parse("KXCITIESWEATHER-26FEB03-(MIA)(T80.5)")
	require.Len(t, p.Conditions, 1)
	assert.Equal(t, 80.5, p.Conditions[0].Threshold)
}

func TestParseComboUnknownDirectionTag(t *testing.T) {
	// An unexpected letter is not guessed at; the leg comes back DirUnknown
	// so evaluators can refuse to trade it.
	p := Parse("KXCITIESWEATHER-26JAN17-(CHI)(X32)")
	require.Len(t, p.Conditions, 1)
	assert.Equal(t, DirUnknown, p.Conditions[0].Dir)
	assert.Equal(t, "CHI", p.Conditions[0].City)
}

func TestParseComboWithoutDate(t *testing.T) {
	p := Parse("KXCITIESWEATHER-(CHI)(B32)")
	assert.Equal(t, KindCitiesCombo, p.Kind)
	assert.False(t, p.HasDate)
	assert.Len(t, p.Conditions, 1)
}

func TestParseMonthlySnow(t *testing.T) {
	p := Parse("KXLAXSNOWM-26JAN-0.5")

	assert.Equal(t, KindMonthlySnow, p.Kind)
	assert.Equal(t, "LA", p.City)
	assert.Equal(t, time.January, p.Month)
	assert.Equal(t, 2026, p.Year)
	assert.Equal(t, 0.5, p.ThresholdInches)
}

func TestParseSeasonalSnow(t *testing.T) {
	p := Parse("KXCHISNOWXMAS-25DEC-1")
	assert.Equal(t, KindMonthlySnow, p.Kind)
	assert.Equal(t, "CHI", p.City)
	assert.Equal(t, time.December, p.Month)
	assert.Equal(t, 1.0, p.ThresholdInches)
}

func TestParseSnowUnknownSeries(t *testing.T) {
	// Recognized family, unmapped city: City stays empty and callers fall
	// back to price-only evaluation.
	p := Parse("KXBOSSNOWM-26JAN-2")
	assert.Equal(t, KindMonthlySnow, p.Kind)
	assert.Equal(t, "", p.City)
}

func TestParseClimate(t *testing.T) {
	assert.Equal(t, KindClimate, Parse("KXGTEMP-26-T1.5").Kind)
	assert.Equal(t, KindClimate, Parse("KXAVGTEMPNYC-26AUG").Kind)
}

func TestParseUnknown(t *testing.T) {
	assert.Equal(t, KindUnknown, Parse("KXBTCD-25AUG3117-T64999.99").Kind)
	assert.Equal(t, KindUnknown, Parse("").Kind)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "below", DirBelow.String())
	assert.Equal(t, "above", DirAbove.String())
	assert.Equal(t, "unknown", DirUnknown.String())
}
