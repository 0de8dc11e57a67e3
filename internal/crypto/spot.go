// Package crypto implements the 15-minute convergence strategy: buy the
// heavily favored side of nearly-settled crypto markets when spot and order
// flow agree it will finish there.
package crypto

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog/log"
)

// Series lists the 15-minute crypto series the farmer scans.
var Series = []string{"KXBTC15M", "KXETH15M", "KXSOL15M", "KXXRP15M"}

// SeriesSymbol maps a series to its spot asset symbol.
var SeriesSymbol = map[string]string{
	"KXBTC15M": "BTC",
	"KXETH15M": "ETH",
	"KXSOL15M": "SOL",
	"KXXRP15M": "XRP",
}

// SpotSignal is the short-term trend read for one asset.
type SpotSignal struct {
	Symbol      string
	Change24h   float64 // percent
	Change1h    float64 // percent
	VolumeSurge bool
	Trend       string  // "up", "down", "neutral"
	Confidence  float64 // 0-1
}

// SpotClient reads trend signals off Binance spot markets.
type SpotClient struct {
	api *binance.Client
}

// NewSpotClient builds an unauthenticated client; the endpoints used are
// all public market data.
func NewSpotClient() *SpotClient {
	return &SpotClient{api: binance.NewClient("", "")}
}

// Signal fetches the 24h ticker and last 1h candle for an asset and derives
// a trend with confidence. A trend only counts when the 1h move exceeds 1%
// and agrees with the 24h direction.
func (s *SpotClient) Signal(ctx context.Context, symbol string) (*SpotSignal, error) {
	pair := symbol + "USDT"

	stats, err := s.api.NewListPriceChangeStatsService().Symbol(pair).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance 24h stats: %w", err)
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("binance 24h stats: empty response for %s", pair)
	}
	change24h, _ := strconv.ParseFloat(stats[0].PriceChangePercent, 64)
	volume, _ := strconv.ParseFloat(stats[0].Volume, 64)

	klines, err := s.api.NewKlinesService().Symbol(pair).Interval("1h").Limit(2).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}
	change1h := 0.0
	if len(klines) >= 2 {
		open, _ := strconv.ParseFloat(klines[0].Open, 64)
		close_, _ := strconv.ParseFloat(klines[len(klines)-1].Close, 64)
		if open > 0 {
			change1h = (close_ - open) / open * 100
		}
	}

	sig := &SpotSignal{
		Symbol:      symbol,
		Change24h:   change24h,
		Change1h:    change1h,
		VolumeSurge: volume > 1_000_000,
		Trend:       "neutral",
		Confidence:  0.5,
	}
	switch {
	case change1h > 1 && change24h > 0:
		sig.Trend = "up"
		sig.Confidence = math.Min(0.9, 0.5+math.Abs(change1h)/10)
	case change1h < -1 && change24h < 0:
		sig.Trend = "down"
		sig.Confidence = math.Min(0.9, 0.5+math.Abs(change1h)/10)
	}

	log.Debug().
		Str("symbol", symbol).
		Str("trend", sig.Trend).
		Float64("change_1h", change1h).
		Float64("confidence", sig.Confidence).
		Msg("Spot signal")
	return sig, nil
}

// SignalForSeries resolves a Kalshi series to its spot asset first.
func (s *SpotClient) SignalForSeries(ctx context.Context, series string) (*SpotSignal, error) {
	symbol, ok := SeriesSymbol[series]
	if !ok {
		return nil, fmt.Errorf("no spot symbol for series %s", series)
	}
	return s.Signal(ctx, symbol)
}
