package crypto

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dronbuilder/kalshibot/internal/kalshi"
)

// Convergence window and band.
const (
	MinConvergenceCents = 80
	MaxPriceCents       = 99
	MinMinutesToClose   = 0.0
	MaxMinutesToClose   = 5.0

	TakeProfitCents = 95
	StopLossCents   = 70
	TimeExitMinutes = 0.5
)

// Opportunity is one convergence candidate.
type Opportunity struct {
	Ticker       string
	Series       string
	Side         string // "yes" or "no"
	Price        int    // cents paid for the chosen side
	Edge         int    // cents below certain payout
	MinutesLeft  float64
	YesAsk       int
	NoAsk        int
	Volume       int
	OpenInterest int
}

// MarketSource is the slice of the exchange client the scanner needs.
type MarketSource interface {
	Markets(ctx context.Context, seriesTicker, status string, limit int) ([]kalshi.Market, error)
}

// Scanner finds markets in the final minutes that are already priced near
// certainty on one side.
type Scanner struct {
	markets MarketSource
	now     func() time.Time
}

func NewScanner(markets MarketSource) *Scanner {
	return &Scanner{markets: markets, now: time.Now}
}

// Scan returns candidates sorted by edge, best first. Both sides of each
// market are checked; when both clear the band, the bigger edge wins.
func (s *Scanner) Scan(ctx context.Context) []Opportunity {
	now := s.now()
	var opps []Opportunity

	for _, series := range Series {
		markets, err := s.markets.Markets(ctx, series, "open", 10)
		if err != nil {
			log.Warn().Err(err).Str("series", series).Msg("Market scan failed")
			continue
		}
		for _, m := range markets {
			if m.CloseTime.IsZero() {
				continue
			}
			minsLeft := m.MinutesToClose(now)
			if minsLeft < MinMinutesToClose || minsLeft > MaxMinutesToClose {
				continue
			}

			side, price, edge := "", 0, -1
			if m.YesAsk >= MinConvergenceCents && m.YesAsk < MaxPriceCents {
				side, price, edge = "yes", m.YesAsk, 100-m.YesAsk
			}
			if m.NoAsk >= MinConvergenceCents && m.NoAsk < MaxPriceCents && 100-m.NoAsk > edge {
				side, price, edge = "no", m.NoAsk, 100-m.NoAsk
			}
			if side == "" {
				continue
			}

			opps = append(opps, Opportunity{
				Ticker:       m.Ticker,
				Series:       series,
				Side:         side,
				Price:        price,
				Edge:         edge,
				MinutesLeft:  minsLeft,
				YesAsk:       m.YesAsk,
				NoAsk:        m.NoAsk,
				Volume:       m.Volume,
				OpenInterest: m.OpenInterest,
			})
		}
	}

	sort.Slice(opps, func(i, j int) bool { return opps[i].Edge > opps[j].Edge })
	return opps
}
