package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dronbuilder/kalshibot/internal/budget"
	"github.com/dronbuilder/kalshibot/internal/config"
	"github.com/dronbuilder/kalshibot/internal/history"
	"github.com/dronbuilder/kalshibot/internal/kalshi"
	"github.com/dronbuilder/kalshibot/internal/notify"
	"github.com/dronbuilder/kalshibot/internal/signal"
	"github.com/dronbuilder/kalshibot/internal/sizing"
	"github.com/dronbuilder/kalshibot/internal/weather"
)

const botName = "weather_trader"

func main() {
	live := flag.Bool("live", false, "execute real orders")
	quiet := flag.Bool("quiet", false, "minimal output (for cron)")
	positions := flag.Bool("positions", false, "show open positions and exit")
	showConfig := flag.Bool("config", false, "show configuration and exit")
	noSafeguards := flag.Bool("no-safeguards", false, "skip balance and flip checks")
	maxTrades := flag.Int("max-trades", 0, "override max trades per run")
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
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *showConfig {
		printConfig(cfg)
		return
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

	ctx := context.Background()

	if *positions {
		showPositions(ctx, client)
		return
	}

	limit := cfg.WeatherMaxTrades
	if *maxTrades > 0 {
		limit = *maxTrades
	}
	run(ctx, cfg, client, *live, *quiet, *noSafeguards, limit)
}

func run(ctx context.Context, cfg *config.Config, client *kalshi.Client, live, quiet, noSafeguards bool, maxTrades int) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	if !quiet {
		fmt.Printf("🌡️  Kalshi Weather Trader  [%s]\n", ts)
		fmt.Println("════════════════════════════════════════════════════════════")
	}

	balance, err := client.Balance(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Balance fetch failed")
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

	store, err := history.Open(cfg.DatabasePath)
	if err != nil {
		log.Warn().Err(err).Msg("Trade history unavailable, continuing without it")
		store, _ = history.Open("")
	}

	notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Warn().Err(err).Msg("Telegram unavailable")
	}

	mode := "🟡 DRY RUN"
	if live {
		mode = "🔴 LIVE"
	}
	if !quiet {
		fmt.Printf("💰 Balance: $%.2f\n", float64(balance)/100)
		fmt.Printf("⚙️  Mode: %s | Entry: %d¢ | Exit: %d¢ | Sizing: %.0f%% of balance\n",
			mode, cfg.WeatherEntryCents, cfg.WeatherExitCents, cfg.WeatherSizingPct*100)
	}

	held, err := client.HeldPositions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Positions fetch failed")
		held = map[string]kalshi.Position{}
	}
	if !quiet && len(held) > 0 {
		fmt.Printf("📋 Already holding: %d position(s)\n", len(held))
	}

	markets := fetchWeatherMarkets(ctx, client)
	if len(markets) == 0 {
		fmt.Println("⚠️  No weather markets currently open.")
		return
	}
	if !quiet {
		fmt.Printf("\n🔍 %d open weather markets found\n\n", len(markets))
	}

	ev := weather.NewEvaluator(weather.NewForecastClient(), weather.Params{
		EntryCents:      cfg.WeatherEntryCents,
		ExitCents:       cfg.WeatherExitCents,
		MinEdgeCents:    cfg.WeatherMinEdgeCents,
		MinHoursToClose: cfg.WeatherMinHoursClose,
	})

	trades, opps := 0, 0
	var tradeLines []string

	for _, m := range markets {
		if trades >= maxTrades {
			break
		}

		if !quiet {
			fmt.Printf("📍 %s\n   %s\n   yes_ask=%d¢  yes_bid=%d¢  no_ask=%d¢\n",
				m.Ticker, truncate(m.Title, 65), m.YesAsk, m.YesBid, m.NoAsk)
		}

		sig := ev.Evaluate(ctx, m)
		if !sig.Actionable() {
			if !quiet {
				icon := "⏭️"
				if sig.Kind == signal.Hold {
					icon = "💤"
				}
				fmt.Printf("   %s  %s: %s\n\n", icon, sig.Kind, sig.Reason)
			}
			continue
		}

		existing, holding := held[m.Ticker]
		existingPos := 0
		if holding {
			existingPos = existing.Position
		}

		// Sells only make sense against a held YES position.
		if sig.Kind == signal.SellYes && existingPos <= 0 {
			if !quiet {
				fmt.Printf("   ⏭️  Sell signal but no YES position held, skipping.\n\n")
			}
			continue
		}

		opps++
		if !quiet {
			fmt.Printf("   💡 [%s] edge=%d¢ — %s\n", sig.Kind, sig.Edge, sig.Reason)
		}

		// Exit logic when the model flips against a held position.
		if holding && !noSafeguards {
			if existingPos > 0 && sig.Kind == signal.BuyNo {
				if m.YesBid > 0 {
					if !quiet {
						fmt.Printf("   ↩️  MODEL FLIP: exiting %dx YES @ %d¢ (model now says NO)\n", existingPos, m.YesBid)
					}
					if placeOrder(ctx, client, m.Ticker, "yes", "sell", existingPos, m.YesBid, live, quiet) {
						trades++
						delete(held, m.Ticker)
					}
				}
				continue
			}
			if existingPos < 0 && sig.Kind == signal.BuyYes {
				noBid := 100 - m.YesAsk
				heldNo := -existingPos
				if noBid > 0 {
					if !quiet {
						fmt.Printf("   ↩️  MODEL FLIP: exiting %dx NO @ %d¢ (model now says YES wins)\n", heldNo, noBid)
					}
					if placeOrder(ctx, client, m.Ticker, "no", "sell", heldNo, noBid, live, quiet) {
						trades++
						delete(held, m.Ticker)
						balance += heldNo * noBid
					}
				}
				continue
			}
			if (existingPos > 0 && sig.Kind == signal.BuyYes) || (existingPos < 0 && sig.Kind == signal.BuyNo) {
				if !quiet {
					fmt.Printf("   ⏭️  Already in this position, skipping.\n\n")
				}
				continue
			}
		}

		count := sizing.Smart(sizing.SmartParams{
			Fraction:    cfg.WeatherSizingPct,
			MaxPosCents: cfg.WeatherMaxPosCents,
		}, balance, sig.Price, sig.Edge)
		cost := count * sig.Price

		action := "sell"
		isBuy := sig.Kind == signal.BuyYes || sig.Kind == signal.BuyNo
		if isBuy {
			action = "buy"
		}
		if !quiet {
			fmt.Printf("   📊 %s %dx %s @ %d¢ = $%.2f\n", action, count, sig.Side(), sig.Price, float64(cost)/100)
		}

		if isBuy && !noSafeguards {
			if cost > balance {
				if !quiet {
					fmt.Printf("   🛡️  Insufficient balance ($%.2f available)\n\n", float64(balance)/100)
				}
				continue
			}
			if live {
				ok, denyReason, err := coord.CanTrade(botName, cost)
				if err != nil {
					log.Error().Err(err).Msg("Budget check failed, skipping trade")
					continue
				}
				if !ok {
					if !quiet {
						fmt.Printf("   🤝 Budget gate: %s\n\n", denyReason)
					}
					continue
				}
			}
		}

		if !placeOrder(ctx, client, m.Ticker, sig.Side(), action, count, sig.Price, live, quiet) {
			continue
		}
		trades++
		if isBuy {
			balance -= cost
			pos := count
			if sig.Kind == signal.BuyNo {
				pos = -count
			}
			held[m.Ticker] = kalshi.Position{Ticker: m.Ticker, Position: pos}
			if err := coord.RecordTrade(botName, cost, m.Ticker, sig.Side(), "", !live); err != nil {
				log.Error().Err(err).Msg("Budget record failed")
			}
		}
		rec := &history.Record{
			ID:        uuid.NewString(),
			Bot:       botName,
			Ticker:    m.Ticker,
			Side:      sig.Side(),
			Action:    action,
			Price:     sig.Price,
			Count:     count,
			CostCents: cost,
			Edge:      sig.Edge,
			DryRun:    !live,
			Status:    "open",
		}
		if err := store.Log(rec); err != nil {
			log.Warn().Err(err).Msg("History log failed")
		}
		tradeLines = append(tradeLines,
			fmt.Sprintf("%s %dx %s %s @ %d¢", action, count, m.Ticker, sig.Side(), sig.Price))
		if !quiet {
			fmt.Println()
		}
	}

	fmt.Printf("\n📊 Summary [%s]:\n", ts)
	fmt.Printf("   Markets scanned : %d\n", len(markets))
	fmt.Printf("   Opportunities   : %d\n", opps)
	execLabel := "(dry run)"
	if live {
		execLabel = "executed"
	}
	fmt.Printf("   Trades %s: %d\n", execLabel, trades)
	fmt.Printf("   Balance now     : $%.2f\n", float64(balance)/100)
	fmt.Println(coord.SummaryLine())

	notifier.Send(notify.SessionSummary{
		Bot:            "Weather Trader",
		Timestamp:      ts,
		MarketsScanned: len(markets),
		Opportunities:  opps,
		Trades:         trades,
		Live:           live,
		BudgetLine:     coord.SummaryLine(),
		Lines:          tradeLines,
	}.Format())
}

func fetchWeatherMarkets(ctx context.Context, client *kalshi.Client) []kalshi.Market {
	var markets []kalshi.Market
	seen := make(map[string]bool)
	for _, series := range weather.Series {
		ms, err := client.Markets(ctx, series, "open", 100)
		if err != nil {
			log.Debug().Err(err).Str("series", series).Msg("Series fetch failed")
			continue
		}
		for _, m := range ms {
			if !seen[m.Ticker] {
				seen[m.Ticker] = true
				markets = append(markets, m)
			}
		}
	}
	return markets
}

// placeOrder submits (or in dry-run mode, prints) one limit order. Returns
// true when the trade should count against this run.
func placeOrder(ctx context.Context, client *kalshi.Client, ticker, side, action string, count, price int, live, quiet bool) bool {
	if !live {
		if !quiet {
			fmt.Printf("   [DRY RUN] %s %dx %s @ %d¢\n", action, count, side, price)
		}
		return true
	}
	req := kalshi.OrderRequest{
		Ticker:        ticker,
		ClientOrderID: uuid.NewString(),
		Side:          side,
		Action:        action,
		Count:         count,
		Type:          "limit",
	}
	if side == "yes" {
		req.YesPrice = price
	} else {
		req.NoPrice = price
	}
	order, err := client.PlaceOrder(ctx, req)
	if err != nil {
		fmt.Printf("   ❌ Order error: %v\n", err)
		return false
	}
	fmt.Printf("   ✅ Order %s | status=%s | %dx %s @ %d¢\n", order.OrderID, order.Status, count, side, price)
	return true
}

func showPositions(ctx context.Context, client *kalshi.Client) {
	positions, err := client.Positions(ctx)
	if err != nil {
		fmt.Println("Failed to fetch positions:", err)
		return
	}
	var active []kalshi.Position
	for _, p := range positions {
		if p.Position != 0 {
			active = append(active, p)
		}
	}
	fmt.Printf("\n📋 Open Positions (%d):\n", len(active))
	if len(active) == 0 {
		fmt.Println("   (none)")
		return
	}
	for _, p := range active {
		fmt.Printf("  %s: pos=%d | exposure=%d¢ | realized_pnl=%d¢\n",
			p.Ticker, p.Position, p.MarketExposure, p.RealizedPnl)
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println("⚙️  Kalshi Weather Trader Config:")
	fmt.Printf("   BASE_URL     : %s\n", cfg.KalshiAPIBase)
	fmt.Printf("   API_KEY      : %s\n", cfg.KalshiKeyID)
	fmt.Printf("   ENTRY        : %d¢\n", cfg.WeatherEntryCents)
	fmt.Printf("   EXIT         : %d¢\n", cfg.WeatherExitCents)
	fmt.Printf("   MAX_POSITION : $%.2f\n", float64(cfg.WeatherMaxPosCents)/100)
	fmt.Printf("   SIZING_PCT   : %.0f%% of balance\n", cfg.WeatherSizingPct*100)
	fmt.Printf("   MAX_TRADES   : %d\n", cfg.WeatherMaxTrades)
	fmt.Printf("   SERIES       : %v\n", weather.Series)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
