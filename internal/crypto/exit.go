package crypto

import "fmt"

// CheckExit decides whether an open convergence position should be closed.
// currentPrice is the yes-side price in cents. Take-profit and stop-loss
// mirror across sides; near the close a losing position is dumped rather
// than ridden into settlement.
func CheckExit(side string, entryPrice, currentPrice int, minutesToClose float64) (bool, string) {
	if side == "yes" && currentPrice >= TakeProfitCents {
		return true, fmt.Sprintf("take_profit_%d", currentPrice)
	}
	if side == "no" && currentPrice <= 100-TakeProfitCents {
		return true, fmt.Sprintf("take_profit_%d", currentPrice)
	}

	if side == "yes" && currentPrice <= StopLossCents {
		return true, fmt.Sprintf("stop_loss_%d", currentPrice)
	}
	if side == "no" && currentPrice >= 100-StopLossCents {
		return true, fmt.Sprintf("stop_loss_%d", currentPrice)
	}

	if minutesToClose <= TimeExitMinutes {
		pnl := currentPrice - entryPrice
		if side == "no" {
			pnl = entryPrice - currentPrice
		}
		if pnl < 0 {
			return true, fmt.Sprintf("time_exit_%d", pnl)
		}
	}
	return false, ""
}
