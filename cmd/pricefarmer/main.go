package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dronbuilder/kalshibot/internal/budget"
	"github.com/dronbuilder/kalshibot/internal/config"
	"github.com/dronbuilder/kalshibot/internal/crypto"
	"github.com/dronbuilder/kalshibot/internal/feeds"
	"github.com/dronbuilder/kalshibot/internal/history"
	"github.com/dronbuilder/kalshibot/internal/kalshi"
	"github.com/dronbuilder/kalshibot/internal/sizing"
)

const botName = "price_farmer"

func main() {
	live := flag.Bool("live", false, "execute real orders")
	watch := flag.Bool("watch", false, "stream spot prices until interrupted")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *watch {
		watchSpot()
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

	run(context.Background(), cfg, client, *live)
}

func run(ctx context.Context, cfg *config.Config, client *kalshi.Client, live bool) {
	fmt.Println("🎯 Kalshi Price Farmer")
	fmt.Println("════════════════════════════════════════════════════════════")
	mode := "🟡 DRY-RUN"
	if live {
		mode = "🔴 LIVE"
	}
	kelly := sizing.DefaultKelly
	fmt.Printf("Mode: %s | Kelly: %.0f%% | Max: $%.0f\n", mode, kelly.Fraction*100, kelly.MaxUSD)

	balance, err := client.Balance(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Balance fetch failed")
	}
	fmt.Printf("💰 Balance: $%.2f\n", float64(balance)/100)

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
	remaining, err := coord.Remaining(botName)
	if err != nil {
		log.Fatal().Err(err).Msg("Budget check failed")
	}
	fmt.Printf("📊 Daily budget remaining: $%.2f\n", float64(remaining)/100)

	store, err := history.Open(cfg.DatabasePath)
	if err != nil {
		log.Warn().Err(err).Msg("Trade history unavailable, continuing without it")
		store, _ = history.Open("")
	}

	fmt.Println("\n🔍 Scanning with signal analysis...")
	scanner := crypto.NewScanner(client)
	opps := scanner.Scan(ctx)
	if len(opps) == 0 {
		fmt.Println("⏸️  No convergence opportunities.")
		return
	}
	fmt.Printf("🎯 %d opportunity/ies found!\n", len(opps))

	spotClient := crypto.NewSpotClient()
	model := crypto.LoadModelWeights(cfg.ModelPath)
	if len(opps) > 3 {
		opps = opps[:3]
	}

	executed := 0
	for _, opp := range opps {
		fmt.Printf("\n  📈 %s | %s @ %d¢ | edge=%d¢ | %.1fm left\n",
			opp.Ticker, opp.Side, opp.Price, opp.Edge, opp.MinutesLeft)

		spot, err := spotClient.SignalForSeries(ctx, opp.Series)
		if err != nil {
			log.Warn().Err(err).Msg("Spot signal unavailable")
		} else {
			fmt.Printf("     🌊 Spot: %s (conf: %.2f, 1h: %+.2f%%)\n", spot.Trend, spot.Confidence, spot.Change1h)
		}

		var flow *crypto.Flow
		if book, err := client.Orderbook(ctx, opp.Ticker, 20); err == nil {
			flow = crypto.AnalyzeFlow(opp.Ticker, book)
		}
		if flow != nil {
			fmt.Printf("     📚 Flow: %s (strength: %.2f, B/A: %.2f)\n", flow.Direction, flow.Strength, flow.BidAskRatio)
		}

		prob := crypto.ConvergenceProbability(opp, spot, flow, model)
		fmt.Printf("     🤖 Convergence prob: %.2f\n", prob)
		if prob < 0.5 {
			fmt.Printf("     ⏭️  Skipping — confidence %.2f < 0.50\n", prob)
			continue
		}

		spotConf, flowStrength := 0.5, 0.5
		if spot != nil {
			spotConf = spot.Confidence
		}
		if flow != nil {
			flowStrength = flow.Strength
		}
		sizeCents := sizing.Kelly(kelly, opp.Edge, spotConf, flowStrength, balance, remaining)
		if sizeCents == 0 {
			fmt.Printf("     ⏭️  Skipping — position size too small\n")
			continue
		}
		count := sizeCents / opp.Price
		if count < 1 {
			count = 1
		}
		cost := count * opp.Price

		fmt.Printf("     💰 Kelly size: $%.2f → %d contracts @ %d¢ = $%.2f\n",
			float64(sizeCents)/100, count, opp.Price, float64(cost)/100)
		fmt.Printf("     💵 Balance: $%.2f | Daily remaining: $%.2f\n",
			float64(balance)/100, float64(remaining)/100)

		if live && cost > balance {
			fmt.Printf("     🛡️  Insufficient balance (need $%.2f, have $%.2f)\n",
				float64(cost)/100, float64(balance)/100)
			continue
		}
		if live && cost > remaining {
			fmt.Printf("     🛡️  Daily budget exhausted\n")
			continue
		}

		if !live {
			fmt.Println("     [DRY-RUN] Would execute")
			continue
		}

		req := kalshi.OrderRequest{
			Ticker:        opp.Ticker,
			ClientOrderID: uuid.NewString(),
			Side:          opp.Side,
			Action:        "buy",
			Count:         count,
			Type:          "limit",
		}
		if opp.Side == "yes" {
			req.YesPrice = opp.Price
		} else {
			req.NoPrice = opp.Price
		}
		order, err := client.PlaceOrder(ctx, req)
		if err != nil {
			fmt.Printf("     ❌ Error: %v\n", err)
			continue
		}
		fmt.Printf("     ✅ Executed | order_id=%s\n", order.OrderID)

		if err := coord.RecordTrade(botName, cost, opp.Ticker, opp.Side, order.OrderID, false); err != nil {
			log.Error().Err(err).Msg("Budget record failed")
		}
		rec := &history.Record{
			ID:           uuid.NewString(),
			Bot:          botName,
			Ticker:       opp.Ticker,
			Side:         opp.Side,
			Action:       "buy",
			Price:        opp.Price,
			Count:        count,
			CostCents:    cost,
			Edge:         opp.Edge,
			ConvergeProb: prob,
			OrderID:      order.OrderID,
			Status:       "open",
		}
		if spot != nil {
			rec.SpotTrend = spot.Trend
			rec.SpotConfidence = spot.Confidence
			rec.SpotChange1h = spot.Change1h
		}
		if flow != nil {
			rec.FlowDirection = flow.Direction
			rec.FlowStrength = flow.Strength
			rec.BidAskRatio = flow.BidAskRatio
		}
		if err := store.Log(rec); err != nil {
			log.Warn().Err(err).Msg("History log failed")
		}

		balance -= cost
		remaining -= cost
		executed++
	}

	fmt.Println("\n════════════════════════════════════════════════════════════")
	execLabel := "(dry-run)"
	if live {
		execLabel = "executed"
	}
	fmt.Printf("📊 %d opps | %d trades %s\n", len(opps), executed, execLabel)
	fmt.Println(coord.SummaryLine())
}

// watchSpot streams live miniTicker prices for the farmer's assets until
// interrupted. Useful for eyeballing convergence behavior near the close.
func watchSpot() {
	symbols := make([]string, 0, len(crypto.SeriesSymbol))
	for _, sym := range crypto.SeriesSymbol {
		symbols = append(symbols, sym+"USDT")
	}
	stream := feeds.NewBinanceStream(symbols...)
	stream.OnTick(func(t feeds.Tick) {
		log.Info().Str("symbol", t.Symbol).Str("price", t.Price.String()).Msg("tick")
	})
	if err := stream.Start(); err != nil {
		log.Fatal().Err(err).Msg("Stream start failed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	stream.Stop()
	time.Sleep(100 * time.Millisecond)
	log.Info().Msg("Watch mode stopped")
}
