package crypto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronbuilder/kalshibot/internal/kalshi"
)

var scanNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

type fakeMarkets struct {
	bySeries map[string][]kalshi.Market
}

func (f *fakeMarkets) Markets(_ context.Context, series, _ string, _ int) ([]kalshi.Market, error) {
	return f.bySeries[series], nil
}

func closingIn(minutes float64) time.Time {
	return scanNow.Add(time.Duration(minutes * float64(time.Minute)))
}

func newTestScanner(bySeries map[string][]kalshi.Market) *Scanner {
	s := NewScanner(&fakeMarkets{bySeries: bySeries})
	s.now = func() time.Time { return scanNow }
	return s
}

func TestScanFindsConvergedSides(t *testing.T) {
	s := newTestScanner(map[string][]kalshi.Market{
		"KXBTC15M": {
			{Ticker: "YES-SIDE", YesAsk: 85, NoAsk: 30, CloseTime: closingIn(3)},
			{Ticker: "NO-SIDE", YesAsk: 20, NoAsk: 90, CloseTime: closingIn(3)},
		},
	})

	opps := s.Scan(context.Background())
	require.Len(t, opps, 2)

	// Sorted by edge, best first: 100-85=15 beats 100-90=10.
	assert.Equal(t, "YES-SIDE", opps[0].Ticker)
	assert.Equal(t, "yes", opps[0].Side)
	assert.Equal(t, 15, opps[0].Edge)
	assert.Equal(t, "NO-SIDE", opps[1].Ticker)
	assert.Equal(t, "no", opps[1].Side)
	assert.Equal(t, 10, opps[1].Edge)
}

func TestScanPicksBiggerEdgeWhenBothSidesQualify(t *testing.T) {
	s := newTestScanner(map[string][]kalshi.Market{
		"KXBTC15M": {
			// Both sides inside the band; NO at 82 has the bigger edge.
			{Ticker: "BOTH", YesAsk: 95, NoAsk: 82, CloseTime: closingIn(2)},
		},
	})

	opps := s.Scan(context.Background())
	require.Len(t, opps, 1)
	assert.Equal(t, "no", opps[0].Side)
	assert.Equal(t, 18, opps[0].Edge)
}

func TestScanBandAndWindow(t *testing.T) {
	s := newTestScanner(map[string][]kalshi.Market{
		"KXBTC15M": {
			{Ticker: "TOO-CHEAP", YesAsk: 79, NoAsk: 30, CloseTime: closingIn(3)},
			{Ticker: "TOO-RICH", YesAsk: 99, NoAsk: 10, CloseTime: closingIn(3)},
			{Ticker: "TOO-EARLY", YesAsk: 85, NoAsk: 30, CloseTime: closingIn(12)},
			{Ticker: "ALREADY-CLOSED", YesAsk: 85, NoAsk: 30, CloseTime: closingIn(-1)},
			{Ticker: "NO-CLOSE-TIME", YesAsk: 85, NoAsk: 30},
		},
	})

	assert.Empty(t, s.Scan(context.Background()))
}

func TestScanBandEdges(t *testing.T) {
	s := newTestScanner(map[string][]kalshi.Market{
		"KXETH15M": {
			{Ticker: "AT-FLOOR", YesAsk: 80, NoAsk: 30, CloseTime: closingIn(4)},
		},
	})

	opps := s.Scan(context.Background())
	require.Len(t, opps, 1)
	assert.Equal(t, 20, opps[0].Edge)
	assert.Equal(t, "KXETH15M", opps[0].Series)
}

func TestConvergenceProbabilityHeuristic(t *testing.T) {
	opp := Opportunity{Side: "yes", Price: 85, Edge: 15, MinutesLeft: 3}

	t.Run("edge only", func(t *testing.T) {
		p := ConvergenceProbability(opp, nil, nil, nil)
		assert.InDelta(t, 0.875, p, 1e-9) // 0.5 + 15/40
	})

	t.Run("aligned signals add credit", func(t *testing.T) {
		spot := &SpotSignal{Trend: "up", Confidence: 0.8}
		flow := &Flow{Direction: "buying", Strength: 0.9}
		p := ConvergenceProbability(opp, spot, flow, nil)
		assert.Equal(t, 0.95, p, "clamped at the ceiling")
	})

	t.Run("opposed signals add nothing", func(t *testing.T) {
		spot := &SpotSignal{Trend: "down", Confidence: 0.9}
		flow := &Flow{Direction: "selling", Strength: 0.9}
		p := ConvergenceProbability(opp, spot, flow, nil)
		assert.InDelta(t, 0.875, p, 1e-9)
	})

	t.Run("floor clamp", func(t *testing.T) {
		weak := Opportunity{Side: "yes", Edge: -20}
		p := ConvergenceProbability(weak, nil, nil, nil)
		assert.Equal(t, 0.1, p)
	})
}

func TestConvergenceProbabilityModel(t *testing.T) {
	opp := Opportunity{Side: "yes", Edge: 20, MinutesLeft: 5, Volume: 10000}
	spot := &SpotSignal{Confidence: 1}
	flow := &Flow{Strength: 1, Direction: "buying"}

	// Features all normalize to 1; equal weights of 0.15 sum to 0.9.
	model := &ModelWeights{Weights: []float64{0.15, 0.15, 0.15, 0.15, 0.15, 0.15}}
	p := ConvergenceProbability(opp, spot, flow, model)
	assert.InDelta(t, 0.9, p, 1e-9)
}

func TestLoadModelWeights(t *testing.T) {
	assert.Nil(t, LoadModelWeights("does/not/exist.json"))
}

func TestCheckExit(t *testing.T) {
	cases := []struct {
		name    string
		side    string
		entry   int
		current int
		minutes float64
		exit    bool
		reason  string
	}{
		{"yes take profit", "yes", 85, 96, 3, true, "take_profit_96"},
		{"no take profit", "no", 80, 4, 3, true, "take_profit_4"},
		{"yes stop loss", "yes", 85, 65, 3, true, "stop_loss_65"},
		{"no stop loss", "no", 80, 40, 3, true, "stop_loss_40"},
		{"time exit while losing", "yes", 85, 80, 0.4, true, "time_exit_-5"},
		{"time exit spared while winning", "yes", 85, 90, 0.4, false, ""},
		{"no exit mid-range", "yes", 85, 88, 3, false, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			exit, reason := CheckExit(c.side, c.entry, c.current, c.minutes)
			assert.Equal(t, c.exit, exit)
			assert.Equal(t, c.reason, reason)
		})
	}
}

func TestAnalyzeFlow(t *testing.T) {
	t.Run("empty book", func(t *testing.T) {
		assert.Nil(t, AnalyzeFlow("T", kalshi.Orderbook{}))
		assert.Nil(t, AnalyzeFlow("T", kalshi.Orderbook{Yes: []kalshi.Level{{50, 10}}}))
	})

	t.Run("buying pressure", func(t *testing.T) {
		book := kalshi.Orderbook{
			// 300 resting YES bids vs 100 implied asks, with buyers
			// stacked against a thin best bid.
			Yes: []kalshi.Level{{84, 40}, {83, 260}},
			No:  []kalshi.Level{{20, 100}}, // implied ask at 80
		}
		f := AnalyzeFlow("T", book)
		require.NotNil(t, f)
		assert.Equal(t, "buying", f.Direction)
		assert.InDelta(t, 3.0, f.BidAskRatio, 1e-9)
		assert.Greater(t, f.Strength, 0.6)
	})

	t.Run("neutral book", func(t *testing.T) {
		book := kalshi.Orderbook{
			Yes: []kalshi.Level{{84, 100}},
			No:  []kalshi.Level{{14, 100}},
		}
		f := AnalyzeFlow("T", book)
		require.NotNil(t, f)
		assert.Equal(t, "neutral", f.Direction)
		assert.Equal(t, 0.5, f.Strength)
	})
}
