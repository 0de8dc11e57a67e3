// Command kalshictl is the admin CLI for the bot suite: budget status and
// reset, paper book reporting, live positions and trade history.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dronbuilder/kalshibot/internal/budget"
	"github.com/dronbuilder/kalshibot/internal/config"
	"github.com/dronbuilder/kalshibot/internal/history"
	"github.com/dronbuilder/kalshibot/internal/kalshi"
	"github.com/dronbuilder/kalshibot/internal/paper"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: kalshictl <command>

Commands:
  status        show today's shared budget state
  reset         wipe the shared budget state (asks for confirmation)
  report        print the paper trading book
  paper-reset   reset the paper book to the starting bankroll
  positions     list live Kalshi positions
  recent [n]    show the n most recent recorded trades (default 20)`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}

	switch os.Args[1] {
	case "status":
		cmdStatus(cfg)
	case "reset":
		cmdReset(cfg)
	case "report":
		cmdReport(cfg)
	case "paper-reset":
		cmdPaperReset(cfg)
	case "positions":
		cmdPositions(cfg)
	case "recent":
		cmdRecent(cfg)
	default:
		usage()
	}
}

func newCoordinator(cfg *config.Config) *budget.Coordinator {
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
	return coord
}

func cmdStatus(cfg *config.Config) {
	coord := newCoordinator(cfg)
	st, err := coord.Status()
	if err != nil {
		log.Fatal().Err(err).Msg("Status read failed")
	}

	fmt.Printf("Date:        %s\n", st.Date)
	fmt.Printf("Daily limit: $%.2f\n", float64(st.DailyLimitCents)/100)
	fmt.Printf("Total spent: $%.2f\n", float64(st.TotalSpentCents)/100)
	for bot, bs := range st.Bots {
		fmt.Printf("  %-16s $%.2f/$%.2f  %d trade(s)", bot,
			float64(bs.DailySpentCents)/100, float64(bs.DailyBudgetCents)/100, bs.TradesToday)
		if bs.LastTradeTicker != "" {
			fmt.Printf("  last: %s", bs.LastTradeTicker)
		}
		fmt.Println()
	}
	if len(st.TradeLog) > 0 {
		fmt.Printf("\nTrade log (%d):\n", len(st.TradeLog))
		for _, t := range st.TradeLog {
			fmt.Printf("  %s  %-14s %-30s %s $%.2f\n",
				t.TS, t.Bot, t.Ticker, t.Side, float64(t.CostCents)/100)
		}
	}
}

func cmdReset(cfg *config.Config) {
	if !confirm(fmt.Sprintf("Delete budget state at %s?", cfg.StateFile)) {
		fmt.Println("Aborted.")
		return
	}
	coord := newCoordinator(cfg)
	if err := coord.Reset(); err != nil {
		log.Fatal().Err(err).Msg("Reset failed")
	}
	fmt.Println("Budget state reset.")
}

func cmdReport(cfg *config.Config) {
	ledger, err := paper.NewLedger(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Paper ledger open failed")
	}
	ledger.Report()
}

func cmdPaperReset(cfg *config.Config) {
	if !confirm("Reset the paper book to the starting bankroll?") {
		fmt.Println("Aborted.")
		return
	}
	ledger, err := paper.NewLedger(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Paper ledger open failed")
	}
	if err := ledger.Reset(); err != nil {
		log.Fatal().Err(err).Msg("Paper reset failed")
	}
	fmt.Println("Paper book reset.")
}

func cmdPositions(cfg *config.Config) {
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
	if balance, err := client.Balance(ctx); err == nil {
		fmt.Printf("Balance: $%.2f\n\n", float64(balance)/100)
	}

	held, err := client.HeldPositions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Positions fetch failed")
	}
	if len(held) == 0 {
		fmt.Println("No open positions.")
		return
	}
	for ticker, p := range held {
		fmt.Printf("  %-30s pos=%+d exposure=$%.2f realized=$%.2f resting=%d\n",
			ticker, p.Position, float64(p.MarketExposure)/100,
			float64(p.RealizedPnl)/100, p.RestingOrdersCount)
	}
}

func cmdRecent(cfg *config.Config) {
	limit := 20
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			limit = n
		}
	}

	store, err := history.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Trade history open failed")
	}
	recs, err := store.Recent(limit)
	if err != nil {
		log.Fatal().Err(err).Msg("History query failed")
	}
	if len(recs) == 0 {
		fmt.Println("No recorded trades.")
		return
	}
	for _, r := range recs {
		fmt.Printf("%s  %-14s %-30s %s %s %dx @ %d¢  %-6s",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Bot, r.Ticker,
			r.Action, r.Side, r.Count, r.Price, r.Status)
		if !r.Pnl.IsZero() {
			fmt.Printf("  pnl=$%s", r.Pnl.StringFixed(2))
		}
		fmt.Println()
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
