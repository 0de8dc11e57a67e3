package signal

import "fmt"

// Kind tags what a strategy wants done with a market.
type Kind int

const (
	Skip Kind = iota // market not tradeable this run, with a reason
	Hold             // evaluated, no action at current prices
	BuyYes
	BuyNo
	SellYes
)

func (k Kind) String() string {
	switch k {
	case Skip:
		return "skip"
	case Hold:
		return "hold"
	case BuyYes:
		return "buy_yes"
	case BuyNo:
		return "buy_no"
	case SellYes:
		return "sell_yes"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Signal is a strategy verdict for one market. Price and Edge are in cents
// and only meaningful for actionable kinds.
type Signal struct {
	Kind   Kind
	Price  int
	Edge   int
	Tag    string // strategy-specific label, e.g. "injury_out"
	Reason string
}

func Skipf(format string, args ...interface{}) Signal {
	return Signal{Kind: Skip, Reason: fmt.Sprintf(format, args...)}
}

func Holdf(format string, args ...interface{}) Signal {
	return Signal{Kind: Hold, Reason: fmt.Sprintf(format, args...)}
}

func Buy(kind Kind, price, edge int, reason string) Signal {
	return Signal{Kind: kind, Price: price, Edge: edge, Reason: reason}
}

func Sell(price int, reason string) Signal {
	return Signal{Kind: SellYes, Price: price, Reason: reason}
}

// Actionable reports whether the signal should reach the order path.
func (s Signal) Actionable() bool {
	switch s.Kind {
	case BuyYes, BuyNo, SellYes:
		return true
	}
	return false
}

// Side returns the contract side an actionable signal trades.
func (s Signal) Side() string {
	switch s.Kind {
	case BuyYes, SellYes:
		return "yes"
	case BuyNo:
		return "no"
	}
	return ""
}
