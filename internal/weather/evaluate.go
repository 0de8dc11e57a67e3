// Package weather turns temperature and snowfall forecasts into trade
// signals for Kalshi weather markets.
package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dronbuilder/kalshibot/internal/kalshi"
	"github.com/dronbuilder/kalshibot/internal/signal"
	"github.com/dronbuilder/kalshibot/internal/ticker"
)

// Params tune the evaluator. All prices in cents.
type Params struct {
	EntryCents      int
	ExitCents       int
	MinEdgeCents    int
	MinHoursToClose float64
}

// Evaluator scores one weather market at a time against forecast data.
type Evaluator struct {
	forecasts ForecastSource
	params    Params
	now       func() time.Time
}

func NewEvaluator(fc ForecastSource, params Params) *Evaluator {
	if params.MinHoursToClose == 0 {
		params.MinHoursToClose = 2
	}
	return &Evaluator{forecasts: fc, params: params, now: time.Now}
}

// Evaluate returns a signal for the market. Markets too close to resolution
// are skipped outright: near the close the book is mostly informed flow.
func (e *Evaluator) Evaluate(ctx context.Context, m kalshi.Market) signal.Signal {
	if !m.CloseTime.IsZero() {
		hoursLeft := m.HoursToClose(e.now())
		if hoursLeft < e.params.MinHoursToClose {
			return signal.Skipf("resolves in %.1fh", hoursLeft)
		}
	}

	p := ticker.Parse(m.Ticker)
	switch p.Kind {
	case ticker.KindCitiesCombo:
		return e.evaluateCombo(ctx, p, m)
	case ticker.KindMonthlySnow:
		return e.evaluateMonthlySnow(ctx, p, m)
	case ticker.KindClimate:
		return e.evaluateClimate(m)
	}
	return signal.Skipf("unhandled series format")
}

// evaluateCombo handles multi-city combos: every leg must match the
// forecast for a YES, any confirmed miss flips the market to NO.
func (e *Evaluator) evaluateCombo(ctx context.Context, p ticker.Parsed, m kalshi.Market) signal.Signal {
	if len(p.Conditions) == 0 {
		return signal.Skipf("could not parse ticker")
	}

	today := e.now().UTC().Truncate(24 * time.Hour)
	allYes := true
	var lines []string

	for _, c := range p.Conditions {
		if c.Dir == ticker.DirUnknown {
			return signal.Skipf("unclear direction tag for %s, not trading", c.City)
		}
		if !p.HasDate {
			allYes = false
			lines = append(lines, fmt.Sprintf("%s: no date", c.City))
			continue
		}
		if p.TargetDate.Before(today) {
			return signal.Skipf("date %s already passed", p.TargetDate.Format("2006-01-02"))
		}

		high, ok := e.forecasts.ForecastHigh(ctx, c.City, p.TargetDate)
		if !ok {
			allYes = false
			lines = append(lines, fmt.Sprintf("%s: no forecast data", c.City))
			continue
		}

		match := (c.Dir == ticker.DirBelow && high < c.Threshold) ||
			(c.Dir == ticker.DirAbove && high >= c.Threshold)
		sym := "✓"
		cmp := "≥"
		if c.Dir == ticker.DirBelow {
			cmp = "<"
		}
		if !match {
			sym = "✗"
			allYes = false
		}
		lines = append(lines, fmt.Sprintf("%s %.0f°F %s %.0f°F %s", c.City, high, cmp, c.Threshold, sym))
	}

	detail := strings.Join(lines, " | ")

	if allYes {
		if m.YesAsk <= e.params.EntryCents {
			return signal.Buy(signal.BuyYes, m.YesAsk, e.params.EntryCents-m.YesAsk,
				"all forecast conditions match. "+detail)
		}
		if m.YesBid >= e.params.ExitCents {
			return signal.Sell(m.YesBid, "exit target hit. "+detail)
		}
	} else if m.NoAsk <= e.params.EntryCents {
		return signal.Buy(signal.BuyNo, m.NoAsk, e.params.EntryCents-m.NoAsk,
			"forecast disagrees, buying NO. "+detail)
	}
	return signal.Holdf("no threshold hit. %s", detail)
}

func (e *Evaluator) evaluateMonthlySnow(ctx context.Context, p ticker.Parsed, m kalshi.Market) signal.Signal {
	_, known := Cities[p.City]
	if p.City == "" || !known || p.Month == 0 {
		return e.priceOnly(m, "no extended forecast data")
	}
	if p.ThresholdInches <= 0 {
		return e.priceOnly(m, "no extended forecast data")
	}

	est := e.forecasts.MonthlySnowEstimate(ctx, p.City, p.Month, p.Year)
	climoStr := "n/a"
	if est.ClimoMonthlyAvg != nil {
		climoStr = fmt.Sprintf("%.1f\"/mo avg", *est.ClimoMonthlyAvg)
	}
	detail := fmt.Sprintf("forecast %dd covered (%.1f\") | %dd climo-filled @ %s | blended %.1f\" vs %.1f\" threshold (%dd left) [%s]",
		est.ForecastDays, est.ForecastSnowInches, est.DaysBeyondForecast, climoStr,
		est.BlendedSnowInches, p.ThresholdInches, est.DaysRemaining, est.Confidence)

	switch {
	case est.BlendedSnowInches >= p.ThresholdInches*1.3 && est.Confidence != "low":
		if m.YesAsk <= e.params.EntryCents {
			return signal.Buy(signal.BuyYes, m.YesAsk, e.params.EntryCents-m.YesAsk,
				fmt.Sprintf("blended %.1f\" over %.1f\" threshold (130%%+). %s", est.BlendedSnowInches, p.ThresholdInches, detail))
		}
		if m.YesBid >= e.params.ExitCents {
			return signal.Sell(m.YesBid, fmt.Sprintf("exit target hit @ %d¢. %s", m.YesBid, detail))
		}
	case est.BlendedSnowInches <= p.ThresholdInches*0.5 && est.Confidence != "low":
		if m.NoAsk <= e.params.EntryCents {
			return signal.Buy(signal.BuyNo, m.NoAsk, e.params.EntryCents-m.NoAsk,
				fmt.Sprintf("blended %.1f\" far under %.1f\". %s", est.BlendedSnowInches, p.ThresholdInches, detail))
		}
	default:
		// Ambiguous model, but extreme prices still carry value.
		if m.YesAsk <= 5 {
			return signal.Buy(signal.BuyYes, m.YesAsk, 10, fmt.Sprintf("extreme value play at %d¢. %s", m.YesAsk, detail))
		}
		if m.NoAsk <= 5 {
			return signal.Buy(signal.BuyNo, m.NoAsk, 10, fmt.Sprintf("extreme value play NO at %d¢. %s", m.NoAsk, detail))
		}
	}
	return signal.Holdf("%s", detail)
}

// evaluateClimate trades long-range climate markets on price alone.
func (e *Evaluator) evaluateClimate(m kalshi.Market) signal.Signal {
	if m.YesAsk <= e.params.EntryCents {
		return signal.Buy(signal.BuyYes, m.YesAsk, e.params.EntryCents-m.YesAsk,
			fmt.Sprintf("climate market YES at %d¢, possible value", m.YesAsk))
	}
	if m.NoAsk <= e.params.EntryCents {
		return signal.Buy(signal.BuyNo, m.NoAsk, e.params.EntryCents-m.NoAsk,
			fmt.Sprintf("climate market NO at %d¢, reversion play", m.NoAsk))
	}
	if m.YesBid >= e.params.ExitCents {
		return signal.Sell(m.YesBid, fmt.Sprintf("YES hit exit at %d¢", m.YesBid))
	}
	return signal.Holdf("climate market, no edge at current prices (yes_ask=%d¢)", m.YesAsk)
}

func (e *Evaluator) priceOnly(m kalshi.Market, note string) signal.Signal {
	if m.YesAsk <= e.params.EntryCents {
		return signal.Buy(signal.BuyYes, m.YesAsk, e.params.EntryCents-m.YesAsk,
			fmt.Sprintf("YES at %d¢ below entry (%s)", m.YesAsk, note))
	}
	if m.NoAsk <= e.params.EntryCents {
		return signal.Buy(signal.BuyNo, m.NoAsk, e.params.EntryCents-m.NoAsk,
			fmt.Sprintf("NO at %d¢ below entry (%s)", m.NoAsk, note))
	}
	return signal.Holdf("no price edge (yes_ask=%d¢ no_ask=%d¢)", m.YesAsk, m.NoAsk)
}
