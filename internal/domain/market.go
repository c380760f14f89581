package domain

import "time"

// MarketSnapshot is the latest macro view written by the engine.
type MarketSnapshot struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	BTCPrice       *float64  `json:"btc_price"`
	BTC24hChange   *float64  `json:"btc_24h_change"`
	ETHPrice       *float64  `json:"eth_price"`
	ETH24hChange   *float64  `json:"eth_24h_change"`
	BTCDominance   *float64  `json:"btc_dominance"`
	ETHDominance   *float64  `json:"eth_dominance"`
	TotalMarketCap *float64  `json:"total_market_cap"`
	TotalVolume24h *float64  `json:"total_volume_24h"`
	FearGreedIndex *int      `json:"fear_greed_index"`
	FearGreedLabel *string   `json:"fear_greed_label"`
}
