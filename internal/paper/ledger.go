// Package paper is a file-backed paper-trading ledger: a simulated bankroll
// with open/close cash-flow accounting and a signal journal, persisted as
// JSON so runs of a cron-launched bot share one book.
package paper

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	startingBankrollUSD = 1000
	signalJournalCap    = 500
)

var (
	ErrInsufficientFunds = errors.New("paper: insufficient bankroll")
	ErrPositionOpen      = errors.New("paper: position already open for ticker")
	ErrTradeNotFound     = errors.New("paper: trade not found")
)

// Trade is one simulated position. Prices are yes-side cents; money fields
// are dollars.
type Trade struct {
	ID            string           `json:"id"`
	Timestamp     string           `json:"timestamp"`
	Ticker        string           `json:"ticker"`
	Title         string           `json:"title"`
	Side          string           `json:"side"` // "YES" or "NO"
	EntryPrice    int              `json:"entry_price"`
	Size          int              `json:"size"`
	CostUSD       decimal.Decimal  `json:"cost_usd"`
	SignalType    string           `json:"signal_type"`
	Edge          int              `json:"edge"`
	Reason        string           `json:"reason"`
	Status        string           `json:"status"` // "open" or "closed"
	ExitPrice     *int             `json:"exit_price,omitempty"`
	ExitTimestamp string           `json:"exit_timestamp,omitempty"`
	Pnl           *decimal.Decimal `json:"pnl,omitempty"`
	Result        string           `json:"result,omitempty"` // "win" or "loss"
	ExitReason    string           `json:"exit_reason,omitempty"`
}

// Portfolio is the bankroll summary persisted alongside trades.
type Portfolio struct {
	BankrollUSD decimal.Decimal `json:"bankroll"`
	ExposureUSD decimal.Decimal `json:"exposure"`
	TotalPnlUSD decimal.Decimal `json:"total_pnl"`
	TradesCount int             `json:"trades_count"`
	WinCount    int             `json:"win_count"`
	LossCount   int             `json:"loss_count"`
	CreatedAt   string          `json:"created_at"`
	LastUpdated string          `json:"last_updated"`
}

// SignalEntry is one row of the signal journal, recorded whether or not the
// signal was traded.
type SignalEntry struct {
	Timestamp  string `json:"timestamp"`
	Ticker     string `json:"ticker"`
	SignalType string `json:"signal_type"`
	Side       string `json:"side"`
	Price      int    `json:"price"`
	Edge       int    `json:"edge"`
	Reason     string `json:"reason"`
	Executed   bool   `json:"executed"`
}

// Ledger reads and writes the paper book under one directory.
type Ledger struct {
	mu          sync.Mutex
	portfolioFn string
	tradesFn    string
	signalsFn   string
	now         func() time.Time
}

// NewLedger opens (or creates) a paper book in dir.
func NewLedger(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("paper: create dir: %w", err)
	}
	l := &Ledger{
		portfolioFn: filepath.Join(dir, "paper_portfolio.json"),
		tradesFn:    filepath.Join(dir, "paper_trades.json"),
		signalsFn:   filepath.Join(dir, "paper_signals.json"),
		now:         time.Now,
	}
	if _, err := os.Stat(l.portfolioFn); os.IsNotExist(err) {
		if err := l.writePortfolio(l.freshPortfolio()); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Ledger) freshPortfolio() *Portfolio {
	now := l.now().UTC().Format(time.RFC3339)
	return &Portfolio{
		BankrollUSD: decimal.NewFromInt(startingBankrollUSD),
		ExposureUSD: decimal.Zero,
		TotalPnlUSD: decimal.Zero,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func (l *Ledger) readPortfolio() *Portfolio {
	raw, err := os.ReadFile(l.portfolioFn)
	if err != nil {
		return l.freshPortfolio()
	}
	var p Portfolio
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Warn().Err(err).Msg("Corrupt paper portfolio, resetting")
		return l.freshPortfolio()
	}
	return &p
}

func (l *Ledger) writePortfolio(p *Portfolio) error {
	p.LastUpdated = l.now().UTC().Format(time.RFC3339)
	return writeJSON(l.portfolioFn, p)
}

func (l *Ledger) readTrades() []Trade {
	raw, err := os.ReadFile(l.tradesFn)
	if err != nil {
		return nil
	}
	var trades []Trade
	if err := json.Unmarshal(raw, &trades); err != nil {
		log.Warn().Err(err).Msg("Corrupt paper trades file, starting empty")
		return nil
	}
	return trades
}

func (l *Ledger) readSignals() []SignalEntry {
	raw, err := os.ReadFile(l.signalsFn)
	if err != nil {
		return nil
	}
	var sigs []SignalEntry
	if err := json.Unmarshal(raw, &sigs); err != nil {
		return nil
	}
	return sigs
}

func writeJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Open opens a simulated position. Cost is size*entryPrice in cents,
// debited from the bankroll into exposure. Rejects when the bankroll can't
// cover the cost or the ticker already has an open trade.
func (l *Ledger) Open(ticker, title, side string, entryPrice, size int, signalType string, edge int, reason string) (*Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.readPortfolio()
	trades := l.readTrades()

	for _, t := range trades {
		if t.Ticker == ticker && t.Status == "open" {
			return nil, fmt.Errorf("%w: %s", ErrPositionOpen, ticker)
		}
	}

	cost := decimal.New(int64(size*entryPrice), -2)
	if cost.GreaterThan(p.BankrollUSD) {
		return nil, fmt.Errorf("%w: need $%s, have $%s",
			ErrInsufficientFunds, cost.StringFixed(2), p.BankrollUSD.StringFixed(2))
	}

	now := l.now()
	trade := Trade{
		ID:         fmt.Sprintf("paper_%d_%d", now.Unix(), p.TradesCount+1),
		Timestamp:  now.UTC().Format(time.RFC3339),
		Ticker:     ticker,
		Title:      title,
		Side:       side,
		EntryPrice: entryPrice,
		Size:       size,
		CostUSD:    cost,
		SignalType: signalType,
		Edge:       edge,
		Reason:     reason,
		Status:     "open",
	}
	trades = append(trades, trade)

	p.BankrollUSD = p.BankrollUSD.Sub(cost)
	p.ExposureUSD = p.ExposureUSD.Add(cost)
	p.TradesCount++

	if err := writeJSON(l.tradesFn, trades); err != nil {
		return nil, err
	}
	if err := l.writePortfolio(p); err != nil {
		return nil, err
	}

	log.Info().
		Str("ticker", ticker).
		Str("side", side).
		Int("entry", entryPrice).
		Int("size", size).
		Str("type", signalType).
		Msg("📝 Paper position opened")
	return &trade, nil
}

// Close exits an open trade at exitPrice (yes-side cents). P&L per contract
// is the yes-price move for YES positions and the no-price move for NO
// positions. A positive P&L counts as a win.
func (l *Ledger) Close(tradeID string, exitPrice int, exitReason string) (*Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.readPortfolio()
	trades := l.readTrades()

	idx := -1
	for i := range trades {
		if trades[i].ID == tradeID && trades[i].Status == "open" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrTradeNotFound, tradeID)
	}
	t := &trades[idx]

	var pnl, payout decimal.Decimal
	if t.Side == "YES" {
		pnl = decimal.New(int64((exitPrice-t.EntryPrice)*t.Size), -2)
		payout = decimal.New(int64(exitPrice*t.Size), -2)
	} else {
		entryNo := 100 - t.EntryPrice
		exitNo := 100 - exitPrice
		pnl = decimal.New(int64((exitNo-entryNo)*t.Size), -2)
		payout = decimal.New(int64(exitNo*t.Size), -2)
	}

	result := "loss"
	if pnl.GreaterThan(decimal.Zero) {
		result = "win"
		p.WinCount++
	} else {
		p.LossCount++
	}

	t.Status = "closed"
	t.ExitPrice = &exitPrice
	t.ExitTimestamp = l.now().UTC().Format(time.RFC3339)
	t.Pnl = &pnl
	t.Result = result
	t.ExitReason = exitReason

	p.BankrollUSD = p.BankrollUSD.Add(payout)
	p.ExposureUSD = p.ExposureUSD.Sub(t.CostUSD)
	p.TotalPnlUSD = p.TotalPnlUSD.Add(pnl)

	if err := writeJSON(l.tradesFn, trades); err != nil {
		return nil, err
	}
	if err := l.writePortfolio(p); err != nil {
		return nil, err
	}

	log.Info().
		Str("ticker", t.Ticker).
		Int("exit", exitPrice).
		Str("pnl", pnl.StringFixed(2)).
		Str("result", result).
		Msg("📕 Paper position closed")
	tc := *t
	return &tc, nil
}

// SettleResolved closes every open trade whose market has resolved.
// resolutions maps ticker to whether the market settled yes. Settlement is
// an exit at 100 (yes) or 0 (no); side-relative P&L falls out of Close.
func (l *Ledger) SettleResolved(resolutions map[string]bool) ([]Trade, error) {
	var settled []Trade
	for _, t := range l.OpenPositions() {
		yes, ok := resolutions[t.Ticker]
		if !ok {
			continue
		}
		exit := 0
		if yes {
			exit = 100
		}
		closed, err := l.Close(t.ID, exit, "settlement")
		if err != nil {
			return settled, err
		}
		settled = append(settled, *closed)
	}
	return settled, nil
}

// OpenPositions returns all trades still open.
func (l *Ledger) OpenPositions() []Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	var open []Trade
	for _, t := range l.readTrades() {
		if t.Status == "open" {
			open = append(open, t)
		}
	}
	return open
}

// OpenByTicker returns the open trade for a ticker, if any.
func (l *Ledger) OpenByTicker(ticker string) (*Trade, bool) {
	for _, t := range l.OpenPositions() {
		if t.Ticker == ticker {
			tc := t
			return &tc, true
		}
	}
	return nil, false
}

// RecordSignal appends to the signal journal, keeping the most recent
// entries only.
func (l *Ledger) RecordSignal(e SignalEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Timestamp == "" {
		e.Timestamp = l.now().UTC().Format(time.RFC3339)
	}
	sigs := append(l.readSignals(), e)
	if len(sigs) > signalJournalCap {
		sigs = sigs[len(sigs)-signalJournalCap:]
	}
	return writeJSON(l.signalsFn, sigs)
}

// Portfolio returns the current bankroll summary.
func (l *Ledger) Portfolio() *Portfolio {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readPortfolio()
}

// Reset wipes the book back to the starting bankroll.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := writeJSON(l.tradesFn, []Trade{}); err != nil {
		return err
	}
	if err := writeJSON(l.signalsFn, []SignalEntry{}); err != nil {
		return err
	}
	return l.writePortfolio(l.freshPortfolio())
}

// Report prints a human summary of the book to stdout.
func (l *Ledger) Report() {
	p := l.Portfolio()
	open := l.OpenPositions()

	fmt.Println("════════════════ PAPER TRADING ════════════════")
	fmt.Printf("Bankroll:  $%s\n", p.BankrollUSD.StringFixed(2))
	fmt.Printf("Exposure:  $%s (%d open)\n", p.ExposureUSD.StringFixed(2), len(open))
	fmt.Printf("Total P&L: $%s\n", p.TotalPnlUSD.StringFixed(2))
	closedCount := p.WinCount + p.LossCount
	if closedCount > 0 {
		fmt.Printf("Record:    %d-%d (%.0f%% win rate)\n",
			p.WinCount, p.LossCount, float64(p.WinCount)/float64(closedCount)*100)
	}
	for _, t := range open {
		fmt.Printf("  open %-30s %s %dx @ %dc (%s)\n", t.Ticker, t.Side, t.Size, t.EntryPrice, t.SignalType)
	}
	fmt.Println("═══════════════════════════════════════════════")
}
