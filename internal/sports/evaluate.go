// Package sports evaluates Kalshi sports prop markets against injury
// reports and recent player form.
package sports

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dronbuilder/kalshibot/internal/kalshi"
	"github.com/dronbuilder/kalshibot/internal/signal"
)

// Params tune the evaluator. All prices in cents.
type Params struct {
	EntryCents      int
	MinEdgeCents    int
	MinHoursToClose float64
}

// Evaluator scores sports markets one at a time.
type Evaluator struct {
	injuries InjurySource
	stats    StatsSource
	params   Params
	now      func() time.Time
}

func NewEvaluator(injuries InjurySource, stats StatsSource, params Params) *Evaluator {
	if params.MinHoursToClose == 0 {
		params.MinHoursToClose = 1.5
	}
	return &Evaluator{injuries: injuries, stats: stats, params: params, now: time.Now}
}

var thresholdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+\.?\d*)\s*\+`),
	regexp.MustCompile(`>\s*(\d+\.?\d*)`),
	regexp.MustCompile(`(\d+\.?\d*)\s*(?:points|yards|rebounds|assists|threes|hits|hr|ks)`),
}

// ExtractThreshold pulls the numeric prop threshold from a market title.
func ExtractThreshold(title string) (float64, bool) {
	lower := strings.ToLower(title)
	for _, re := range thresholdPatterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// DetectStatType maps a market title/series to the stat it settles on.
func DetectStatType(title, series string) (string, bool) {
	lower := strings.ToLower(title)
	upper := strings.ToUpper(series)
	switch {
	case strings.Contains(lower, "point") || strings.Contains(upper, "PTS"):
		return "points", true
	case strings.Contains(lower, "rebound") || strings.Contains(upper, "REB"):
		return "rebounds", true
	case strings.Contains(lower, "assist") || strings.Contains(upper, "AST"):
		return "assists", true
	case strings.Contains(lower, "three") || strings.Contains(lower, "3pt") || strings.Contains(upper, "THREE"):
		return "threes", true
	}
	return "", false
}

// Evaluate scores one market. Injury knockouts outrank the stats model: a
// player ruled out cannot hit a prop, whatever the recent form says.
func (e *Evaluator) Evaluate(ctx context.Context, m kalshi.Market) signal.Signal {
	if !m.CloseTime.IsZero() {
		hrs := m.HoursToClose(e.now())
		if hrs < e.params.MinHoursToClose {
			return signal.Skipf("resolves in %.1fh, too soon", hrs)
		}
	}

	sport, ok := SportFor(m.SeriesTicker, m.Ticker)
	if !ok {
		return signal.Skipf("unknown sport series")
	}
	if m.Volume == 0 {
		return signal.Skipf("zero volume")
	}

	player, _, hasPlayer := ExtractPlayer(m.Ticker)
	threshold, hasThreshold := ExtractThreshold(m.Title)

	var notes []string

	if hasPlayer {
		if inj, found := e.injuries.PlayerInjury(ctx, player.Name, sport); found {
			status := strings.ToLower(inj.Status)
			switch {
			case strings.Contains(status, "out") || strings.Contains(status, "injured"):
				notes = append(notes, "injury_out")
				if hasThreshold && m.YesAsk > 5 {
					edge := m.YesAsk - 5
					if edge >= e.params.MinEdgeCents {
						s := signal.Buy(signal.BuyNo, m.NoAsk, edge,
							fmt.Sprintf("%s | INJURY OUT | %s out, prop should be near 0%% but YES=%d¢", sport, player.Name, m.YesAsk))
						s.Tag = "injury_out"
						return s
					}
				}
			case strings.Contains(status, "questionable") || strings.Contains(status, "doubtful"):
				notes = append(notes, "injury_questionable")
			}
		}
	}

	if m.YesAsk-m.YesBid > 5 {
		notes = append(notes, "wide_spread")
	}

	if sport == "NBA" && hasPlayer && hasThreshold {
		if s, ok := e.statsEdge(ctx, m, sport, player, threshold); ok {
			return s
		}
	}

	playerName := "n/a"
	if hasPlayer {
		playerName = player.Name
	}
	return signal.Holdf("no edge. signals: %s | player: %s", notesOrNone(notes), playerName)
}

func (e *Evaluator) statsEdge(ctx context.Context, m kalshi.Market, sport string, player Player, threshold float64) (signal.Signal, bool) {
	statType, ok := DetectStatType(m.Title, m.SeriesTicker)
	if !ok {
		return signal.Signal{}, false
	}
	stats, err := e.stats.PlayerStats(ctx, player.Name)
	if err != nil {
		log.Debug().Err(err).Str("player", player.Name).Msg("Stats unavailable")
		return signal.Signal{}, false
	}
	theo, ok := OverProbability(stats, statType, threshold)
	if !ok {
		return signal.Signal{}, false
	}

	edgeYes := int(theo) - m.YesAsk
	edgeNo := 0
	if m.NoAsk < 100 {
		edgeNo = (100 - int(theo)) - (100 - m.NoAsk)
	}
	avg := stats.Avg(statType)

	if edgeYes >= e.params.MinEdgeCents {
		s := signal.Buy(signal.BuyYes, m.YesAsk, edgeYes,
			fmt.Sprintf("%s | STATS | %s avg %.1f vs %.1f+ theo=%.0f%% mkt=%d%% | +%d¢ edge",
				sport, player.Name, avg, threshold, theo, m.YesAsk, edgeYes))
		s.Tag = "stats_edge"
		return s, true
	}
	if edgeNo >= e.params.MinEdgeCents && m.NoAsk <= e.params.EntryCents {
		s := signal.Buy(signal.BuyNo, m.NoAsk, edgeNo,
			fmt.Sprintf("%s | STATS | %s avg %.1f makes %.1f+ unlikely, NO at %d¢ | +%d¢ edge",
				sport, player.Name, avg, threshold, m.NoAsk, edgeNo))
		s.Tag = "stats_edge"
		return s, true
	}
	return signal.Signal{}, false
}

func notesOrNone(notes []string) string {
	if len(notes) == 0 {
		return "none"
	}
	return strings.Join(notes, ",")
}
