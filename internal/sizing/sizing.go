// Package sizing holds the position sizers shared by the bots: a stepped
// balance-fraction sizer for the weather and sports strategies, and a
// fractional Kelly sizer for the convergence farmer.
package sizing

import "github.com/shopspring/decimal"

// SmartParams configures the stepped sizer.
type SmartParams struct {
	Fraction    float64 // fraction of balance per trade, e.g. 0.05
	MaxPosCents int     // per-trade cap in cents
}

// Smart converts balance and edge into a contract count. Base allocation is
// a fraction of balance, stepped up 2x for edges of 10c+ and 1.5x for 5c+,
// then capped per trade. Always returns at least one contract.
func Smart(p SmartParams, balanceCents, priceCents, edgeCents int) int {
	base := int(float64(balanceCents) * p.Fraction)
	if base < 1 {
		base = 1
	}
	switch {
	case edgeCents >= 10:
		base = int(float64(base) * 2.0)
	case edgeCents >= 5:
		base = int(float64(base) * 1.5)
	}
	pos := base
	if pos > p.MaxPosCents {
		pos = p.MaxPosCents
	}
	if priceCents < 1 {
		priceCents = 1
	}
	contracts := pos / priceCents
	if contracts < 1 {
		contracts = 1
	}
	return contracts
}

// KellyParams configures the fractional Kelly sizer.
type KellyParams struct {
	Fraction      float64 // Kelly fraction, e.g. 0.25
	BaseUSD       float64 // stake scaled by the Kelly output
	MaxUSD        float64 // hard per-trade ceiling in dollars
	SmallBalanceC int     // below this balance, fixed-size mode kicks in
	FixedCents    int     // fixed stake for small balances
}

// DefaultKelly matches the farmer's shipped tuning.
var DefaultKelly = KellyParams{
	Fraction:      0.25,
	BaseUSD:       5,
	MaxUSD:        20,
	SmallBalanceC: 1000,
	FixedCents:    200,
}

// Kelly sizes a convergence trade in cents. Edge is the distance from the
// 95c convergence target, confidence and flowStrength are [0,1] signal
// qualities that scale the stake. Returns 0 when the position would be
// under $1.
func Kelly(p KellyParams, edgeCents int, confidence, flowStrength float64, balanceCents, budgetRemainingC int) int {
	// Small accounts trade a fixed clip or nothing.
	if balanceCents < p.SmallBalanceC {
		size := p.FixedCents
		if balanceCents < size {
			size = balanceCents
		}
		if budgetRemainingC < size {
			size = budgetRemainingC
		}
		if size >= 100 {
			return size
		}
		return 0
	}

	winProb := 0.80 + float64(edgeCents)/100
	if winProb > 0.95 {
		winProb = 0.95
	}
	lossProb := 1 - winProb

	denom := float64(95 - edgeCents)
	odds := 1.0
	if denom > 0 {
		odds = (100 - denom) / denom
	}
	kelly := 0.0
	if odds > 0 {
		kelly = (winProb*odds - lossProb) / odds
	}
	if kelly < 0 {
		kelly = 0
	}
	kelly *= p.Fraction

	// Signal-quality modifiers in [0.8, 1.2].
	spotMod := decimal.NewFromFloat(0.8 + confidence*0.4)
	flowMod := decimal.NewFromFloat(0.8 + flowStrength*0.4)
	sizeUSD := decimal.NewFromFloat(p.BaseUSD * kelly).Mul(spotMod).Mul(flowMod)

	maxUSD := decimal.NewFromFloat(p.MaxUSD)
	if bal := decimal.New(int64(balanceCents), -2); bal.LessThan(maxUSD) {
		maxUSD = bal
	}
	if bud := decimal.New(int64(budgetRemainingC), -2); bud.LessThan(maxUSD) {
		maxUSD = bud
	}
	if sizeUSD.GreaterThan(maxUSD) {
		sizeUSD = maxUSD
	}
	if sizeUSD.LessThan(decimal.NewFromInt(1)) {
		return 0
	}
	return int(sizeUSD.Mul(decimal.NewFromInt(100)).IntPart())
}
