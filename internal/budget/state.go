package budget

// BotState tracks one bot's slice of the shared daily budget.
type BotState struct {
	DailyBudgetCents int    `json:"daily_budget_cents"`
	DailySpentCents  int    `json:"daily_spent_cents"`
	TradesToday      int    `json:"trades_today"`
	LastTrade        string `json:"last_trade,omitempty"`
	LastTradeTicker  string `json:"last_trade_ticker,omitempty"`
}

// TradeEntry is one row of the rolling trade log.
type TradeEntry struct {
	TS        string `json:"ts"`
	Bot       string `json:"bot"`
	Ticker    string `json:"ticker"`
	Side      string `json:"side"`
	CostCents int    `json:"cost_c"`
	OrderID   string `json:"order_id"`
}

// State is the on-disk shared budget document. TotalSpentCents is the one
// canonical cross-bot total; every reader and writer uses this field.
type State struct {
	Date            string               `json:"date"`
	DailyLimitCents int                  `json:"daily_limit_cents"`
	TotalSpentCents int                  `json:"total_spent_cents"`
	Bots            map[string]*BotState `json:"bots"`
	TradeLog        []TradeEntry         `json:"trade_log"`
	LastUpdated     string               `json:"last_updated,omitempty"`
}
