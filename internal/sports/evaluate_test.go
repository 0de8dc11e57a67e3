package sports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronbuilder/kalshibot/internal/kalshi"
	"github.com/dronbuilder/kalshibot/internal/signal"
)

type stubInjuries struct {
	byPlayer map[string]Injury
}

func (s *stubInjuries) PlayerInjury(_ context.Context, player, _ string) (*Injury, bool) {
	inj, ok := s.byPlayer[player]
	if !ok {
		return nil, false
	}
	return &inj, true
}

type stubStats struct {
	byPlayer map[string]*PlayerStats
}

func (s *stubStats) PlayerStats(_ context.Context, name string) (*PlayerStats, error) {
	if st, ok := s.byPlayer[name]; ok {
		return st, nil
	}
	return nil, assert.AnError
}

var sportsNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func newSportsEvaluator(inj InjurySource, stats StatsSource) *Evaluator {
	e := NewEvaluator(inj, stats, Params{EntryCents: 15, MinEdgeCents: 3})
	e.now = func() time.Time { return sportsNow }
	return e
}

func propMarket(ticker, title string, yesBid, yesAsk, noAsk, volume int) kalshi.Market {
	return kalshi.Market{
		Ticker:       ticker,
		SeriesTicker: "KXNBAPTS",
		Title:        title,
		YesBid:       yesBid,
		YesAsk:       yesAsk,
		NoAsk:        noAsk,
		Volume:       volume,
		CloseTime:    sportsNow.Add(6 * time.Hour),
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestEvaluateSkipsNearClose(t *testing.T) {
	e := newSportsEvaluator(&stubInjuries{}, &stubStats{})
	m := propMarket("KXNBAPTS-26JAN15-CCUNNINGHAM2-25", "Cade Cunningham 25+ points", 40, 45, 58, 100)
	m.CloseTime = sportsNow.Add(30 * time.Minute)

	sig := e.Evaluate(context.Background(), m)
	assert.Equal(t, signal.Skip, sig.Kind)
	assert.Contains(t, sig.Reason, "too soon")
}

func TestEvaluateSkipsUnknownSeries(t *testing.T) {
	e := newSportsEvaluator(&stubInjuries{}, &stubStats{})
	m := propMarket("KXWHATEVER-26JAN15-X", "Something else", 40, 45, 58, 100)
	m.SeriesTicker = "KXWHATEVER"

	sig := e.Evaluate(context.Background(), m)
	assert.Equal(t, signal.Skip, sig.Kind)
	assert.Contains(t, sig.Reason, "unknown sport")
}

func TestEvaluateSkipsZeroVolume(t *testing.T) {
	e := newSportsEvaluator(&stubInjuries{}, &stubStats{})
	m := propMarket("KXNBAPTS-26JAN15-CCUNNINGHAM2-25", "Cade Cunningham 25+ points", 40, 45, 58, 0)

	sig := e.Evaluate(context.Background(), m)
	assert.Equal(t, signal.Skip, sig.Kind)
	assert.Contains(t, sig.Reason, "zero volume")
}

func TestEvaluateInjuryOutBuysNo(t *testing.T) {
	inj := &stubInjuries{byPlayer: map[string]Injury{
		"Cade Cunningham": {Player: "Cade Cunningham", Status: "Out", Details: "ankle"},
	}}
	e := newSportsEvaluator(inj, &stubStats{})

	m := propMarket("KXNBAPTS-26JAN15-CCUNNINGHAM2-25", "Cade Cunningham 25+ points", 30, 35, 68, 500)
	sig := e.Evaluate(context.Background(), m)

	require.Equal(t, signal.BuyNo, sig.Kind)
	assert.Equal(t, 68, sig.Price)
	assert.Equal(t, 30, sig.Edge, "edge is yes ask minus a 5c residual")
	assert.Equal(t, "injury_out", sig.Tag)
	assert.Contains(t, sig.Reason, "INJURY OUT")
}

func TestEvaluateQuestionableIsNotAKnockout(t *testing.T) {
	inj := &stubInjuries{byPlayer: map[string]Injury{
		"Cade Cunningham": {Player: "Cade Cunningham", Status: "Questionable"},
	}}
	e := newSportsEvaluator(inj, &stubStats{})

	m := propMarket("KXNBAPTS-26JAN15-CCUNNINGHAM2-25", "Cade Cunningham 25+ points", 30, 35, 68, 500)
	sig := e.Evaluate(context.Background(), m)

	assert.Equal(t, signal.Hold, sig.Kind)
	assert.Contains(t, sig.Reason, "injury_questionable")
}

func TestEvaluateStatsEdgeBuysYes(t *testing.T) {
	// 10 straight 31-point games against a 25+ line: hit rate 100, model 75
	// (delta 6), theo 90. Market asks only 45.
	stats := &stubStats{byPlayer: map[string]*PlayerStats{
		"Cade Cunningham": {Games: 10, AvgPoints: 31, Points: repeat(31, 10)},
	}}
	e := newSportsEvaluator(&stubInjuries{}, stats)

	m := propMarket("KXNBAPTS-26JAN15-CCUNNINGHAM2-25", "Cade Cunningham 25+ points", 40, 45, 58, 500)
	sig := e.Evaluate(context.Background(), m)

	require.Equal(t, signal.BuyYes, sig.Kind)
	assert.Equal(t, 45, sig.Price)
	assert.Equal(t, 45, sig.Edge)
	assert.Equal(t, "stats_edge", sig.Tag)
}

func TestEvaluateStatsEdgeBuysNo(t *testing.T) {
	// Averaging 12 against a 25+ line: hit rate 0, model 10 (delta < -10),
	// theo 4. NO at 10c has a big edge and is under entry.
	stats := &stubStats{byPlayer: map[string]*PlayerStats{
		"Cade Cunningham": {Games: 10, AvgPoints: 12, Points: repeat(12, 10)},
	}}
	e := newSportsEvaluator(&stubInjuries{}, stats)

	m := propMarket("KXNBAPTS-26JAN15-CCUNNINGHAM2-25", "Cade Cunningham 25+ points", 85, 92, 10, 500)
	sig := e.Evaluate(context.Background(), m)

	require.Equal(t, signal.BuyNo, sig.Kind)
	assert.Equal(t, 10, sig.Price)
	assert.Equal(t, "stats_edge", sig.Tag)
}

func TestEvaluateNoEdgeHolds(t *testing.T) {
	e := newSportsEvaluator(&stubInjuries{}, &stubStats{})
	m := propMarket("KXNBAPTS-26JAN15-CCUNNINGHAM2-25", "Cade Cunningham 25+ points", 40, 45, 58, 500)

	sig := e.Evaluate(context.Background(), m)
	assert.Equal(t, signal.Hold, sig.Kind)
	assert.Contains(t, sig.Reason, "Cade Cunningham")
}

func TestExtractThreshold(t *testing.T) {
	cases := []struct {
		title string
		want  float64
		ok    bool
	}{
		{"Cade Cunningham 25+ points", 25, true},
		{"Will Jokic score > 30", 30, true},
		{"Curry 4.5+ threes", 4.5, true},
		{"Lakers to win", 0, false},
	}
	for _, c := range cases {
		got, ok := ExtractThreshold(c.title)
		assert.Equal(t, c.ok, ok, c.title)
		assert.Equal(t, c.want, got, c.title)
	}
}

func TestDetectStatType(t *testing.T) {
	cases := []struct {
		title  string
		series string
		want   string
		ok     bool
	}{
		{"LeBron 25+ points", "KXNBA", "points", true},
		{"Jokic 12+ rebounds", "KXNBA", "rebounds", true},
		{"Haliburton 10+ assists", "KXNBA", "assists", true},
		{"Curry 5+ threes", "KXNBA", "threes", true},
		{"Some market", "KXNBAPTS", "points", true},
		{"Lakers to win", "KXNBA", "", false},
	}
	for _, c := range cases {
		got, ok := DetectStatType(c.title, c.series)
		assert.Equal(t, c.ok, ok, c.title)
		assert.Equal(t, c.want, got, c.title)
	}
}

func TestOverProbability(t *testing.T) {
	t.Run("blends hit rate and model", func(t *testing.T) {
		stats := &PlayerStats{AvgPoints: 28, Points: []float64{30, 30, 30, 30, 30, 30, 30, 30, 20, 20}}
		// hit rate 80, delta 3 -> model 60: 80*0.6 + 60*0.4 = 72.
		got, ok := OverProbability(stats, "points", 25)
		require.True(t, ok)
		assert.Equal(t, 72.0, got)
	})
	t.Run("bucket extremes", func(t *testing.T) {
		hot := &PlayerStats{AvgPoints: 40, Points: repeat(40, 10)}
		got, _ := OverProbability(hot, "points", 25)
		assert.Equal(t, 96.0, got) // 100*0.6 + 90*0.4

		cold := &PlayerStats{AvgPoints: 5, Points: repeat(5, 10)}
		got, _ = OverProbability(cold, "points", 25)
		assert.Equal(t, 4.0, got) // 0*0.6 + 10*0.4
	})
	t.Run("unknown stat type", func(t *testing.T) {
		_, ok := OverProbability(&PlayerStats{Points: repeat(10, 5)}, "steals", 2)
		assert.False(t, ok)
	})
	t.Run("nil stats", func(t *testing.T) {
		_, ok := OverProbability(nil, "points", 10)
		assert.False(t, ok)
	})
}
