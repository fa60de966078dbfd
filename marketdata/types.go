// Package marketdata implements the ingestion half of the core: exchange
// subscribers that keep a concurrent-read store of per-symbol ticker and
// depth state, deliberately disjoint from the matching engine in package
// clob.
package marketdata

import "time"

// PriceLevelView is one aggregated (price, quantity) depth level, as
// exposed by MarketData.BidDepth/AskDepth.
type PriceLevelView struct {
	Price    float64
	Quantity float64
}

// MarketData is the latest known snapshot for one symbol, combining
// whatever the ticker and depth streams have most recently delivered.
// BidDepth/AskDepth and the ticker fields are updated independently and
// are not ordered with respect to each other.
type MarketData struct {
	Symbol    string
	LastPrice float64
	BestBid   float64
	BestAsk   float64
	Spread    float64

	BidDepth []PriceLevelView
	AskDepth []PriceLevelView

	LastUpdateTime time.Time
}
