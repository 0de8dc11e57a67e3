// Package budget coordinates a shared daily spend cap across independent
// bot processes. All state lives in one JSON file guarded by an advisory
// file lock, so any number of cron-launched processes can cooperate without
// a daemon.
package budget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
)

const (
	tradeLogCap   = 100
	lockRetryTick = 50 * time.Millisecond
)

// ErrLockTimeout means another process held the state lock past the
// configured wait bound. Callers treat this as a denied trade, never as
// permission to write unprotected.
var ErrLockTimeout = errors.New("budget: timed out waiting for state lock")

// Config for a Coordinator. Zero values fall back to the defaults the suite
// ships with (a $18.00 global cap split $9.00/$9.00 between the two live
// bots).
type Config struct {
	StateFile       string
	DailyLimitCents int
	BotBudgetsCents map[string]int
	DefaultBudgetC  int
	LockTimeout     time.Duration
	Now             func() time.Time
}

// Coordinator mediates budget checks and trade recording for one process.
// Multiple Coordinator instances (across processes or goroutines) sharing a
// state file are safe against lost updates.
type Coordinator struct {
	cfg Config
}

// New creates a coordinator and ensures the state directory exists.
func New(cfg Config) (*Coordinator, error) {
	if cfg.StateFile == "" {
		cfg.StateFile = "data/kalshi_shared_state.json"
	}
	if cfg.DailyLimitCents == 0 {
		cfg.DailyLimitCents = 1800
	}
	if cfg.BotBudgetsCents == nil {
		cfg.BotBudgetsCents = map[string]int{
			"price_farmer":   900,
			"weather_trader": 900,
		}
	}
	if cfg.DefaultBudgetC == 0 {
		cfg.DefaultBudgetC = 900
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := os.MkdirAll(filepath.Dir(cfg.StateFile), 0o755); err != nil {
		return nil, fmt.Errorf("budget: create state dir: %w", err)
	}
	return &Coordinator{cfg: cfg}, nil
}

func (c *Coordinator) today() string {
	return c.cfg.Now().UTC().Format("2006-01-02")
}

func (c *Coordinator) emptyDay() *State {
	return &State{
		Date:            c.today(),
		DailyLimitCents: c.cfg.DailyLimitCents,
		Bots:            make(map[string]*BotState),
		TradeLog:        []TradeEntry{},
	}
}

// load reads the state file, rolling over to a fresh day when the stored
// date is stale and falling back to an empty day on a missing or corrupt
// file. It never fails: a bot that cannot read state must still be able to
// start the day at zero spend.
func (c *Coordinator) load() *State {
	raw, err := os.ReadFile(c.cfg.StateFile)
	if err != nil {
		return c.emptyDay()
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		log.Warn().Err(err).Str("file", c.cfg.StateFile).Msg("Corrupt budget state, starting fresh day")
		return c.emptyDay()
	}
	if st.Date != c.today() {
		return c.emptyDay()
	}
	if st.Bots == nil {
		st.Bots = make(map[string]*BotState)
	}
	return &st
}

// save writes atomically via temp file + rename.
func (c *Coordinator) save(st *State) error {
	st.LastUpdated = c.cfg.Now().UTC().Format(time.RFC3339)
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("budget: encode state: %w", err)
	}
	tmp := c.cfg.StateFile + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("budget: write state: %w", err)
	}
	if err := os.Rename(tmp, c.cfg.StateFile); err != nil {
		return fmt.Errorf("budget: replace state: %w", err)
	}
	return nil
}

// withLock runs fn under the advisory lock with a bounded wait, persisting
// the mutated state afterwards. The lock is released on every exit path.
func (c *Coordinator) withLock(fn func(*State) error) error {
	fl := flock.New(c.cfg.StateFile + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, lockRetryTick)
	if err != nil || !locked {
		return fmt.Errorf("%w (waited %s)", ErrLockTimeout, c.cfg.LockTimeout)
	}
	defer fl.Unlock()

	st := c.load()
	if err := fn(st); err != nil {
		return err
	}
	return c.save(st)
}

func (c *Coordinator) botBudget(bot string) int {
	if b, ok := c.cfg.BotBudgetsCents[bot]; ok {
		return b
	}
	return c.cfg.DefaultBudgetC
}

func (c *Coordinator) botState(st *State, bot string) *BotState {
	bs, ok := st.Bots[bot]
	if !ok {
		bs = &BotState{DailyBudgetCents: c.botBudget(bot)}
		st.Bots[bot] = bs
	}
	return bs
}

func remaining(st *State, bs *BotState) int {
	botRem := bs.DailyBudgetCents - bs.DailySpentCents
	totalRem := st.DailyLimitCents - st.TotalSpentCents
	rem := botRem
	if totalRem < rem {
		rem = totalRem
	}
	if rem < 0 {
		rem = 0
	}
	return rem
}

// Remaining returns how many cents the bot may still spend today: the
// smaller of its own headroom and the global headroom, floored at zero.
func (c *Coordinator) Remaining(bot string) (int, error) {
	var rem int
	err := c.withLock(func(st *State) error {
		rem = remaining(st, c.botState(st, bot))
		return nil
	})
	return rem, err
}

// CanTrade checks a prospective cost against both the bot and global caps.
// A denial carries a human-readable reason naming the binding limit.
func (c *Coordinator) CanTrade(bot string, costCents int) (bool, string, error) {
	allowed := false
	reason := ""
	err := c.withLock(func(st *State) error {
		bs := c.botState(st, bot)
		if bs.DailySpentCents+costCents > bs.DailyBudgetCents {
			reason = fmt.Sprintf("%s daily budget exhausted ($%.2f/$%.2f spent)",
				bot, float64(bs.DailySpentCents)/100, float64(bs.DailyBudgetCents)/100)
			return nil
		}
		if st.TotalSpentCents+costCents > st.DailyLimitCents {
			reason = fmt.Sprintf("total daily cap reached ($%.2f/$%.2f spent)",
				float64(st.TotalSpentCents)/100, float64(st.DailyLimitCents)/100)
			return nil
		}
		allowed = true
		return nil
	})
	return allowed, reason, err
}

// RecordTrade charges a filled order against the budget and appends it to
// the rolling trade log. Dry-run trades are never recorded.
func (c *Coordinator) RecordTrade(bot string, costCents int, ticker, side, orderID string, dryRun bool) error {
	if dryRun {
		log.Debug().Str("bot", bot).Str("ticker", ticker).Int("cost_c", costCents).Msg("Dry run, budget untouched")
		return nil
	}
	return c.withLock(func(st *State) error {
		bs := c.botState(st, bot)
		now := c.cfg.Now().UTC().Format(time.RFC3339)

		bs.DailySpentCents += costCents
		bs.TradesToday++
		bs.LastTrade = now
		bs.LastTradeTicker = ticker
		st.TotalSpentCents += costCents

		st.TradeLog = append(st.TradeLog, TradeEntry{
			TS:        now,
			Bot:       bot,
			Ticker:    ticker,
			Side:      side,
			CostCents: costCents,
			OrderID:   orderID,
		})
		if len(st.TradeLog) > tradeLogCap {
			st.TradeLog = st.TradeLog[len(st.TradeLog)-tradeLogCap:]
		}

		log.Info().
			Str("bot", bot).
			Str("ticker", ticker).
			Int("cost_c", costCents).
			Int("total_spent_c", st.TotalSpentCents).
			Msg("💸 Trade recorded against budget")
		return nil
	})
}

// Status returns a snapshot of today's state without mutating it.
func (c *Coordinator) Status() (*State, error) {
	var snap *State
	err := c.withLock(func(st *State) error {
		clone := *st
		clone.Bots = make(map[string]*BotState, len(st.Bots))
		for k, v := range st.Bots {
			cp := *v
			clone.Bots[k] = &cp
		}
		clone.TradeLog = append([]TradeEntry(nil), st.TradeLog...)
		snap = &clone
		return nil
	})
	return snap, err
}

// SummaryLine renders a one-line spend summary for end-of-run output.
func (c *Coordinator) SummaryLine() string {
	st, err := c.Status()
	if err != nil {
		return fmt.Sprintf("budget status unavailable: %v", err)
	}
	s := fmt.Sprintf("💰 Daily spend: $%.2f/$%.2f",
		float64(st.TotalSpentCents)/100, float64(st.DailyLimitCents)/100)
	for bot, bs := range st.Bots {
		s += fmt.Sprintf(" | %s $%.2f/$%.2f (%d trades)",
			bot, float64(bs.DailySpentCents)/100, float64(bs.DailyBudgetCents)/100, bs.TradesToday)
	}
	return s
}

// Reset deletes the state file. Used by the admin CLI only.
func (c *Coordinator) Reset() error {
	err := os.Remove(c.cfg.StateFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
