package crypto

import (
	"math"

	"github.com/dronbuilder/kalshibot/internal/kalshi"
)

// Flow is an order-book read for one market: who is leaning on the book.
type Flow struct {
	Ticker       string
	BidAskRatio  float64
	AggBuyRatio  float64
	AggSellRatio float64
	Direction    string  // "buying", "selling", "neutral"
	Strength     float64 // 0-1
}

// AnalyzeFlow reads buyer/seller pressure from a yes/no book. The yes side
// holds resting YES bids; resting NO bids imply YES asks at 100 minus the
// NO price. Returns nil when either side of the book is empty.
func AnalyzeFlow(ticker string, book kalshi.Orderbook) *Flow {
	if len(book.Yes) == 0 || len(book.No) == 0 {
		return nil
	}

	totalBid, totalAsk := 0, 0
	bestBid, bestBidCount := 0, 0
	for _, l := range book.Yes {
		totalBid += l.Count()
		if l.Price() >= bestBid {
			bestBid = l.Price()
			bestBidCount = l.Count()
		}
	}
	bestAsk, bestAskCount := 100, 0
	for _, l := range book.No {
		totalAsk += l.Count()
		if ask := 100 - l.Price(); ask <= bestAsk {
			bestAsk = ask
			bestAskCount = l.Count()
		}
	}

	f := &Flow{Ticker: ticker, Direction: "neutral", Strength: 0.5}
	if totalAsk == 0 {
		f.BidAskRatio = math.Inf(1)
	} else {
		f.BidAskRatio = float64(totalBid) / float64(totalAsk)
	}

	// Aggressive buyers lift the best ask, aggressive sellers hit the
	// best bid; the top-of-book sizes proxy for that pressure.
	totalAggressive := bestAskCount + bestBidCount
	if totalAggressive == 0 {
		f.AggBuyRatio = 0.5
		f.AggSellRatio = 0.5
	} else {
		f.AggBuyRatio = float64(bestAskCount) / float64(totalAggressive)
		f.AggSellRatio = float64(bestBidCount) / float64(totalAggressive)
	}

	switch {
	case f.AggBuyRatio > 0.6 && f.BidAskRatio > 1.2:
		f.Direction = "buying"
		f.Strength = math.Min(0.9, f.AggBuyRatio)
	case f.AggSellRatio > 0.6 && f.BidAskRatio < 0.8:
		f.Direction = "selling"
		f.Strength = math.Min(0.9, f.AggSellRatio)
	}
	return f
}
