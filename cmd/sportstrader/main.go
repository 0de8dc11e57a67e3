package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dronbuilder/kalshibot/internal/budget"
	"github.com/dronbuilder/kalshibot/internal/config"
	"github.com/dronbuilder/kalshibot/internal/kalshi"
	"github.com/dronbuilder/kalshibot/internal/notify"
	"github.com/dronbuilder/kalshibot/internal/paper"
	"github.com/dronbuilder/kalshibot/internal/signal"
	"github.com/dronbuilder/kalshibot/internal/sizing"
	"github.com/dronbuilder/kalshibot/internal/sports"
)

const botName = "sports_trader"

func main() {
	live := flag.Bool("live", false, "count trades against the shared daily budget")
	quiet := flag.Bool("quiet", false, "warnings and errors only")
	settleOnly := flag.Bool("settle", false, "settle resolved paper trades and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *quiet {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	if cfg.Debug && !*quiet {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	key, err := kalshi.LoadPrivateKey(cfg.KalshiKeyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Private key load failed")
	}
	client, err := kalshi.New(kalshi.Config{
		BaseURL:    cfg.KalshiAPIBase,
		KeyID:      cfg.KalshiKeyID,
		PrivateKey: key,
		Timeout:    cfg.RequestTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Client init failed")
	}

	ledger, err := paper.NewLedger(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Paper ledger init failed")
	}

	ctx := context.Background()
	settlePaperTrades(ctx, client, ledger)
	if *settleOnly {
		ledger.Report()
		return
	}

	run(ctx, cfg, client, ledger, *live)
}

// settlePaperTrades closes open paper positions whose markets have resolved,
// and takes profit on positions that have run past the exit threshold.
func settlePaperTrades(ctx context.Context, client *kalshi.Client, ledger *paper.Ledger) {
	open := ledger.OpenPositions()
	if len(open) == 0 {
		return
	}
	fmt.Printf("🧾 Checking %d open paper position(s) for settlement...\n", len(open))

	resolutions := make(map[string]bool)
	for _, t := range open {
		m, err := client.Market(ctx, t.Ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", t.Ticker).Msg("Settlement check failed")
			continue
		}
		if yes, done := m.Resolved(); done {
			resolutions[t.Ticker] = yes
		}
	}
	settled, err := ledger.SettleResolved(resolutions)
	if err != nil {
		log.Error().Err(err).Msg("Paper settlement failed")
	}
	for _, t := range settled {
		fmt.Printf("   ⚖️  %s settled %s: P&L $%s\n", t.Ticker, t.Result, t.Pnl.StringFixed(2))
	}
}

func run(ctx context.Context, cfg *config.Config, client *kalshi.Client, ledger *paper.Ledger, live bool) {
	fmt.Println("🏀 Kalshi Sports Trader")
	fmt.Println("════════════════════════════════════════════════════════════")
	mode := "🟡 PAPER"
	if live {
		mode = "🔴 LIVE (budget-tracked)"
	}
	fmt.Printf("Mode: %s | Entry ≤%d¢ | Min edge %d¢ | Max pos $%.2f\n",
		mode, cfg.SportsEntryCents, cfg.SportsMinEdgeCents, float64(cfg.SportsMaxPosCents)/100)

	portfolio := ledger.Portfolio()
	fmt.Printf("📒 Paper bankroll: $%s | P&L: $%s\n",
		portfolio.BankrollUSD.StringFixed(2), portfolio.TotalPnlUSD.StringFixed(2))

	if balance, err := client.Balance(ctx); err == nil {
		fmt.Printf("💰 Live balance: $%.2f\n", float64(balance)/100)
	}

	coord, err := budget.New(budget.Config{
		StateFile:       cfg.StateFile,
		DailyLimitCents: cfg.DailyLimitCents,
		BotBudgetsCents: cfg.BotBudgetsCents,
		DefaultBudgetC:  cfg.DefaultBudgetC,
		LockTimeout:     cfg.LockTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Budget coordinator init failed")
	}

	notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Warn().Err(err).Msg("Telegram unavailable")
	}

	markets := fetchSportsMarkets(ctx, client)
	fmt.Printf("\n🔍 Scanning %d sports market(s)...\n", len(markets))

	season := fmt.Sprintf("%d", seasonYear(time.Now()))
	evaluator := sports.NewEvaluator(
		sports.NewESPNClient(),
		sports.NewBallDontLieClient(os.Getenv("BALLDONTLIE_API_KEY"), season),
		sports.Params{
			EntryCents:      cfg.SportsEntryCents,
			MinEdgeCents:    cfg.SportsMinEdgeCents,
			MinHoursToClose: cfg.SportsMinHoursClose,
		})

	var (
		opportunities int
		trades        int
		tradeLines    []string
	)

	for _, m := range markets {
		if trades >= cfg.SportsMaxTrades {
			fmt.Printf("\n🛑 Max trades (%d) reached for this run\n", cfg.SportsMaxTrades)
			break
		}

		sig := evaluator.Evaluate(ctx, m)
		if !sig.Actionable() {
			log.Debug().Str("ticker", m.Ticker).Str("why", sig.Reason).Msg("No action")
			continue
		}
		opportunities++
		fmt.Printf("\n  %s %s: %s\n", "🎯", m.Ticker, sig.Reason)

		if sig.Kind == signal.SellYes {
			// The paper book only holds bought positions; exit via ledger.
			if t, ok := ledger.OpenByTicker(m.Ticker); ok && t.Side == "YES" {
				if closed, err := ledger.Close(t.ID, sig.Price, "exit_signal"); err == nil {
					fmt.Printf("     📕 Closed paper position: P&L $%s\n", closed.Pnl.StringFixed(2))
					trades++
				}
			}
			continue
		}

		bankrollCents := int(ledger.Portfolio().BankrollUSD.Mul(decimal.NewFromInt(100)).IntPart())
		posCents := sizing.Smart(sizing.SmartParams{
			Fraction:    cfg.SportsSizingPct,
			MaxPosCents: cfg.SportsMaxPosCents,
		}, bankrollCents, sig.Price, sig.Edge)
		cost := posCents * sig.Price

		_ = ledger.RecordSignal(paper.SignalEntry{
			Ticker:     m.Ticker,
			SignalType: sig.Tag,
			Side:       sig.Side(),
			Price:      sig.Price,
			Edge:       sig.Edge,
			Reason:     sig.Reason,
			Executed:   true,
		})

		if live {
			okTrade, why, err := coord.CanTrade(botName, cost)
			if err != nil {
				log.Error().Err(err).Msg("Budget check failed")
				continue
			}
			if !okTrade {
				fmt.Printf("     🛡️  %s\n", why)
				continue
			}
			// Real execution for sports props stays off until the paper book
			// proves out. The budget still tracks the intent.
			fmt.Println("     ⚠️  Would execute live trade (disabled for safety)")
			if err := coord.RecordTrade(botName, cost, m.Ticker, sig.Side(), "", false); err != nil {
				log.Error().Err(err).Msg("Budget record failed")
			}
		}

		side := "YES"
		if sig.Kind == signal.BuyNo {
			side = "NO"
		}
		t, err := ledger.Open(m.Ticker, m.Title, side, sig.Price, posCents, sig.Tag, sig.Edge, sig.Reason)
		if err != nil {
			fmt.Printf("     ❌ Paper open failed: %v\n", err)
			continue
		}
		fmt.Printf("     📝 Paper %s x%d @ %d¢ ($%s) [%s]\n",
			side, t.Size, t.EntryPrice, t.CostUSD.StringFixed(2), t.ID)
		trades++
		tradeLines = append(tradeLines,
			fmt.Sprintf("%s %s x%d @ %d¢ (%s)", m.Ticker, side, t.Size, t.EntryPrice, sig.Tag))
	}

	fmt.Println("\n════════════════════════════════════════════════════════════")
	fmt.Printf("📊 %d markets | %d opportunities | %d paper trades\n",
		len(markets), opportunities, trades)
	ledger.Report()
	fmt.Println(coord.SummaryLine())

	notifier.Send(notify.SessionSummary{
		Bot:            botName,
		Timestamp:      time.Now().Format("2006-01-02 15:04"),
		MarketsScanned: len(markets),
		Opportunities:  opportunities,
		Trades:         trades,
		Live:           live,
		BudgetLine:     coord.SummaryLine(),
		Lines:          tradeLines,
	}.Format())
}

// fetchSportsMarkets pulls open markets for every known sports series,
// deduplicated by ticker.
func fetchSportsMarkets(ctx context.Context, client *kalshi.Client) []kalshi.Market {
	seen := make(map[string]bool)
	var all []kalshi.Market

	series := make([]string, 0, len(sports.SeriesMap))
	for s := range sports.SeriesMap {
		series = append(series, s)
	}
	sort.Strings(series)

	for _, s := range series {
		markets, err := client.Markets(ctx, s, "open", 50)
		if err != nil {
			log.Debug().Err(err).Str("series", s).Msg("Series fetch failed")
			continue
		}
		for _, m := range markets {
			if !seen[m.Ticker] {
				seen[m.Ticker] = true
				all = append(all, m)
			}
		}
	}
	return all
}

// seasonYear maps a date to the NBA season label balldontlie expects. The
// season spanning Oct 2025 to Jun 2026 is "2025".
func seasonYear(now time.Time) int {
	if now.Month() >= time.October {
		return now.Year()
	}
	return now.Year() - 1
}
