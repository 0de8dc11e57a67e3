package paper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(t.TempDir())
	require.NoError(t, err)
	return l
}

func usd(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestOpenDebitsBankroll(t *testing.T) {
	l := newTestLedger(t)

	tr, err := l.Open("KXTEST-1", "Test market", "YES", 12, 20, "forecast", 3, "looks cheap")
	require.NoError(t, err)
	assert.Equal(t, "open", tr.Status)
	assert.True(t, tr.CostUSD.Equal(usd("2.40")), "20 contracts at 12c cost $2.40, got %s", tr.CostUSD)

	p := l.Portfolio()
	assert.True(t, p.BankrollUSD.Equal(usd("997.60")))
	assert.True(t, p.ExposureUSD.Equal(usd("2.40")))
	assert.Equal(t, 1, p.TradesCount)
}

func TestOpenRejectsDuplicateTicker(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Open("KXTEST-1", "Test", "YES", 10, 5, "forecast", 2, "")
	require.NoError(t, err)
	_, err = l.Open("KXTEST-1", "Test", "NO", 80, 5, "forecast", 2, "")
	assert.ErrorIs(t, err, ErrPositionOpen)
}

func TestOpenRejectsOversizedPosition(t *testing.T) {
	l := newTestLedger(t)

	// 2000 contracts at 99c is $1980, over the $1000 starting bankroll.
	_, err := l.Open("KXTEST-1", "Test", "YES", 99, 2000, "forecast", 2, "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestCloseYesPnl(t *testing.T) {
	l := newTestLedger(t)

	tr, err := l.Open("KXTEST-1", "Test", "YES", 12, 20, "forecast", 3, "")
	require.NoError(t, err)

	closed, err := l.Close(tr.ID, 45, "exit target")
	require.NoError(t, err)
	// (45 - 12) * 20 = 660c profit.
	require.NotNil(t, closed.Pnl)
	assert.True(t, closed.Pnl.Equal(usd("6.60")), "got %s", closed.Pnl)
	assert.Equal(t, "win", closed.Result)

	p := l.Portfolio()
	assert.True(t, p.BankrollUSD.Equal(usd("1006.60")))
	assert.True(t, p.ExposureUSD.IsZero())
	assert.Equal(t, 1, p.WinCount)
}

func TestCloseNoPnl(t *testing.T) {
	l := newTestLedger(t)

	// NO at yes-price 85 costs 15c per contract. Exit at yes-price 40 means
	// the NO side moved from 15 to 60: +45c per contract.
	tr, err := l.Open("KXTEST-1", "Test", "NO", 85, 10, "forecast", 3, "")
	require.NoError(t, err)
	assert.True(t, tr.CostUSD.Equal(usd("8.50")), "cost follows the recorded yes price, got %s", tr.CostUSD)

	closed, err := l.Close(tr.ID, 40, "exit")
	require.NoError(t, err)
	assert.True(t, closed.Pnl.Equal(usd("4.50")), "got %s", closed.Pnl)
	assert.Equal(t, "win", closed.Result)
}

func TestCloseBreakEvenIsLoss(t *testing.T) {
	l := newTestLedger(t)

	tr, err := l.Open("KXTEST-1", "Test", "YES", 30, 10, "forecast", 3, "")
	require.NoError(t, err)

	closed, err := l.Close(tr.ID, 30, "flat exit")
	require.NoError(t, err)
	assert.True(t, closed.Pnl.IsZero())
	assert.Equal(t, "loss", closed.Result, "only positive P&L counts as a win")

	p := l.Portfolio()
	assert.Equal(t, 0, p.WinCount)
	assert.Equal(t, 1, p.LossCount)
}

func TestCloseUnknownTrade(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Close("paper_0_99", 50, "whatever")
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestSettleResolved(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Open("KXWIN-1", "Winner", "YES", 20, 10, "forecast", 5, "")
	require.NoError(t, err)
	_, err = l.Open("KXLOSE-1", "Loser", "NO", 30, 10, "forecast", 5, "")
	require.NoError(t, err)
	_, err = l.Open("KXOPEN-1", "Still open", "YES", 10, 5, "forecast", 5, "")
	require.NoError(t, err)

	settled, err := l.SettleResolved(map[string]bool{
		"KXWIN-1":  true, // YES position, market yes: full payout
		"KXLOSE-1": true, // NO position, market yes: total loss
	})
	require.NoError(t, err)
	require.Len(t, settled, 2)

	byTicker := map[string]Trade{}
	for _, s := range settled {
		byTicker[s.Ticker] = s
	}
	assert.True(t, byTicker["KXWIN-1"].Pnl.Equal(usd("8.00")), "YES at 20c settling yes gains 80c x10")
	assert.Equal(t, "win", byTicker["KXWIN-1"].Result)
	assert.True(t, byTicker["KXLOSE-1"].Pnl.Equal(usd("-7.00")), "NO at 70c settling yes loses the stake")
	assert.Equal(t, "loss", byTicker["KXLOSE-1"].Result)

	open := l.OpenPositions()
	require.Len(t, open, 1)
	assert.Equal(t, "KXOPEN-1", open[0].Ticker)
}

func TestBankrollRestoredAfterRoundTrip(t *testing.T) {
	l := newTestLedger(t)

	tr, err := l.Open("KXTEST-1", "Test", "YES", 50, 10, "forecast", 3, "")
	require.NoError(t, err)
	_, err = l.Close(tr.ID, 50, "flat")
	require.NoError(t, err)

	p := l.Portfolio()
	assert.True(t, p.BankrollUSD.Equal(usd("1000")), "flat exit returns the full stake, got %s", p.BankrollUSD)
	assert.True(t, p.ExposureUSD.IsZero())
}

func TestOpenByTicker(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Open("KXTEST-1", "Test", "YES", 10, 5, "forecast", 2, "")
	require.NoError(t, err)

	tr, ok := l.OpenByTicker("KXTEST-1")
	require.True(t, ok)
	assert.Equal(t, "KXTEST-1", tr.Ticker)

	_, ok = l.OpenByTicker("KXOTHER-1")
	assert.False(t, ok)
}

func TestSignalJournalCapped(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < signalJournalCap+10; i++ {
		require.NoError(t, l.RecordSignal(SignalEntry{Ticker: "T", SignalType: "x"}))
	}
	assert.Len(t, l.readSignals(), signalJournalCap)
}

func TestReset(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Open("KXTEST-1", "Test", "YES", 10, 5, "forecast", 2, "")
	require.NoError(t, err)

	require.NoError(t, l.Reset())
	p := l.Portfolio()
	assert.True(t, p.BankrollUSD.Equal(usd("1000")))
	assert.Empty(t, l.OpenPositions())
	assert.Equal(t, 0, p.TradesCount)
}
