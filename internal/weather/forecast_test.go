package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

// fakeOpenMeteo serves a daily block starting at startDate with the given
// per-day snowfall and a flat 30F high.
func fakeOpenMeteo(t *testing.T, startDate time.Time, snowfall []float64) *httptest.Server {
	t.Helper()
	daily := openMeteoDaily{}
	for i, sf := range snowfall {
		daily.Time = append(daily.Time, startDate.AddDate(0, 0, i).Format("2006-01-02"))
		daily.TempMax = append(daily.TempMax, fptr(30))
		daily.SnowfallSum = append(daily.SnowfallSum, fptr(sf))
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openMeteoResponse{Daily: daily})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newForecastClientAt(srv *httptest.Server, now time.Time) *ForecastClient {
	f := NewForecastClient()
	f.openMeteoURL = srv.URL
	f.noaaURL = srv.URL // never reached in these tests
	f.now = func() time.Time { return now }
	return f
}

func TestForecastHigh(t *testing.T) {
	start := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	srv := fakeOpenMeteo(t, start, []float64{0, 0, 0})
	f := newForecastClientAt(srv, start)

	high, ok := f.ForecastHigh(context.Background(), "CHI", start.AddDate(0, 0, 1))
	require.True(t, ok)
	assert.Equal(t, 30.0, high)
}

func TestForecastHighUnknownCity(t *testing.T) {
	start := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	srv := fakeOpenMeteo(t, start, []float64{0})
	f := newForecastClientAt(srv, start)

	_, ok := f.ForecastHigh(context.Background(), "NOPE", start)
	assert.False(t, ok)
}

func TestMonthlySnowEstimateBlendsClimatology(t *testing.T) {
	// Jan 16 2026: 16 days remain (16th through 31st). A 10-day forecast
	// window covers 10 of them with 2" total; the other 6 are filled from
	// the CHI January climatology.
	now := time.Date(2026, time.January, 16, 12, 0, 0, 0, time.UTC)
	snow := make([]float64, 10)
	snow[0], snow[1] = 1.5, 0.5
	srv := fakeOpenMeteo(t, now.Truncate(24*time.Hour), snow)
	f := newForecastClientAt(srv, now)

	est := f.MonthlySnowEstimate(context.Background(), "CHI", time.January, 2026)

	assert.Equal(t, 16, est.DaysRemaining)
	assert.Equal(t, 10, est.ForecastDays)
	assert.Equal(t, 6, est.DaysBeyondForecast)
	assert.Equal(t, 2, est.SnowDaysForecast)
	assert.InDelta(t, 2.0, est.ForecastSnowInches, 1e-9)

	require.NotNil(t, est.ClimoMonthlyAvg)
	wantBlend := 2.0 + (*est.ClimoMonthlyAvg/31)*6
	assert.InDelta(t, wantBlend, est.BlendedSnowInches, 1e-9)
	assert.Equal(t, "medium", est.Confidence)
}

func TestMonthlySnowEstimateFullCoverageIsHighConfidence(t *testing.T) {
	// Late in the month the 16-day window covers every remaining day.
	now := time.Date(2026, time.January, 28, 12, 0, 0, 0, time.UTC)
	srv := fakeOpenMeteo(t, now.Truncate(24*time.Hour), []float64{0.5, 0, 0, 0.5, 0, 0, 0, 0})
	f := newForecastClientAt(srv, now)

	est := f.MonthlySnowEstimate(context.Background(), "CHI", time.January, 2026)

	assert.Equal(t, 4, est.DaysRemaining)
	assert.Equal(t, 4, est.ForecastDays)
	assert.Equal(t, 0, est.DaysBeyondForecast)
	assert.Equal(t, "high", est.Confidence)
}

func TestMonthlySnowEstimatePastMonth(t *testing.T) {
	now := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	srv := fakeOpenMeteo(t, now, []float64{0})
	f := newForecastClientAt(srv, now)

	est := f.MonthlySnowEstimate(context.Background(), "CHI", time.January, 2026)
	assert.Equal(t, 0, est.DaysRemaining)
	assert.Zero(t, est.ForecastSnowInches)
}

func TestMonthlySnowEstimateNoClimatology(t *testing.T) {
	now := time.Date(2026, time.January, 16, 12, 0, 0, 0, time.UTC)
	srv := fakeOpenMeteo(t, now.Truncate(24*time.Hour), []float64{1, 0})
	f := newForecastClientAt(srv, now)

	// PHX has no snowfall climatology entry.
	est := f.MonthlySnowEstimate(context.Background(), "PHX", time.January, 2026)
	assert.Nil(t, est.ClimoMonthlyAvg)
	assert.InDelta(t, 1.0, est.BlendedSnowInches, 1e-9)
	assert.Equal(t, "low", est.Confidence, fmt.Sprintf("only %d forecast days", est.ForecastDays))
}
