package types

// WalletResult is the outcome of replaying one event sequence against an
// initial capital amount. Trade statistics cover completed BUY→SELL round
// trips only; a dangling open position contributes to FinalEquity via
// mark-to-last-price but not to TradeCount or WinRate.
type WalletResult struct {
	FinalEquity    float64
	TotalReturnPct float64
	TradeCount     int
	WinRate        float64
	AvgReturnPct   float64
	MinReturnPct   float64
	MaxReturnPct   float64
}

// GridResult is the immutable outcome of one grid tuple.
type GridResult struct {
	Symbol         string  `json:"symbol"`
	Method         Method  `json:"-"`
	MethodName     string  `json:"method"`
	BuyPct         float64 `json:"buy_pct"`
	SellPct        float64 `json:"sell_pct"`
	TotalReturnPct float64 `json:"total_return_pct"`
	NumTrades      int     `json:"num_trades"`
	WinRate        float64 `json:"win_rate"`
	AvgReturnPct   float64 `json:"avg_return_pct"`
	MinReturnPct   float64 `json:"min_return_pct"`
	MaxReturnPct   float64 `json:"max_return_pct"`
}
