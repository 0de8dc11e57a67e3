package kalshi

import "time"

// Market is one binary contract as returned by /trade-api/v2/markets.
// Prices are in cents (0-100).
type Market struct {
	Ticker       string    `json:"ticker"`
	EventTicker  string    `json:"event_ticker"`
	SeriesTicker string    `json:"series_ticker"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	YesBid       int       `json:"yes_bid"`
	YesAsk       int       `json:"yes_ask"`
	NoBid        int       `json:"no_bid"`
	NoAsk        int       `json:"no_ask"`
	LastPrice    int       `json:"last_price"`
	Volume       int       `json:"volume"`
	OpenInterest int       `json:"open_interest"`
	Liquidity    int       `json:"liquidity"`
	Status       string    `json:"status"`
	Result       string    `json:"result"`
	CloseTime    time.Time `json:"close_time"`
}

// MinutesToClose returns minutes until market close, negative once past.
func (m Market) MinutesToClose(now time.Time) float64 {
	return m.CloseTime.Sub(now).Minutes()
}

// HoursToClose returns hours until market close, negative once past.
func (m Market) HoursToClose(now time.Time) float64 {
	return m.CloseTime.Sub(now).Hours()
}

// Resolved reports whether the market has settled, and to which side.
func (m Market) Resolved() (yes bool, done bool) {
	if m.Status != "resolved" && m.Status != "finalized" {
		return false, false
	}
	return m.Result == "yes", true
}

type marketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

type marketResponse struct {
	Market Market `json:"market"`
}

// Level is one orderbook level: [price_cents, contracts].
type Level [2]int

func (l Level) Price() int { return l[0] }
func (l Level) Count() int { return l[1] }

// Orderbook holds resting yes/no bids for a market.
type Orderbook struct {
	Yes []Level `json:"yes"`
	No  []Level `json:"no"`
}

type orderbookResponse struct {
	Orderbook Orderbook `json:"orderbook"`
}

// Balance is the portfolio cash balance in cents.
type Balance struct {
	BalanceCents int `json:"balance"`
}

// Position is a held market position. Position is signed: positive means
// yes contracts, negative means no contracts.
type Position struct {
	Ticker             string `json:"ticker"`
	Position           int    `json:"position"`
	MarketExposure     int    `json:"market_exposure"`
	RealizedPnl        int    `json:"realized_pnl"`
	TotalTradedCents   int    `json:"total_traded"`
	RestingOrdersCount int    `json:"resting_orders_count"`
}

type positionsResponse struct {
	MarketPositions []Position `json:"market_positions"`
	Cursor          string     `json:"cursor"`
}

// OrderRequest is the payload for POST /trade-api/v2/portfolio/orders.
// Exactly one of YesPrice/NoPrice is set, matching Side.
type OrderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id"`
	Side          string `json:"side"`   // "yes" or "no"
	Action        string `json:"action"` // "buy" or "sell"
	Count         int    `json:"count"`
	Type          string `json:"type"` // always "limit"
	YesPrice      int    `json:"yes_price,omitempty"`
	NoPrice       int    `json:"no_price,omitempty"`
}

// Order is the accepted order echoed back by the exchange.
type Order struct {
	OrderID   string `json:"order_id"`
	Ticker    string `json:"ticker"`
	Side      string `json:"side"`
	Action    string `json:"action"`
	Count     int    `json:"count"`
	YesPrice  int    `json:"yes_price"`
	NoPrice   int    `json:"no_price"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_time"`
}

type orderResponse struct {
	Order Order `json:"order"`
}
