package clob

import "sync"

// SharedOrderBook is a thread-safe facade over OrderBook. A single mutex
// guards the underlying book and is held only for the duration of one
// operation — matching is write-heavy, so a reader-writer lock would buy
// nothing here and would only complicate invariant maintenance.
//
// Concurrent Submit calls are serialized by this lock; the order in which
// they acquire it is the order in which they are matched, which is what
// establishes price-time priority under concurrency.
type SharedOrderBook struct {
	mu   sync.Mutex
	book *OrderBook
}

// NewSharedOrderBook creates an empty, concurrency-safe book for symbol.
func NewSharedOrderBook(symbol string) *SharedOrderBook {
	return &SharedOrderBook{book: NewOrderBook(symbol)}
}

// Submit matches or rests incoming, as OrderBook.Submit does, under the
// book's lock.
func (b *SharedOrderBook) Submit(order *Order) (*Order, []*Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	updated, trades, err := b.book.Submit(order)
	if err != nil {
		logger.Warn("submit rejected", "symbol", b.book.Symbol, "order_id", order.ID, "error", err)
		return updated, trades, err
	}
	if len(trades) > 0 {
		logger.Info("order matched", "symbol", b.book.Symbol, "order_id", order.ID, "trades", len(trades), "status", updated.Status.String())
	}
	return updated, trades, nil
}

// Cancel removes orderID from the book, returning whether it was present.
func (b *SharedOrderBook) Cancel(orderID uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.book.Cancel(orderID)
}

// BestBid returns the highest resting bid price, if any.
func (b *SharedOrderBook) BestBid() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.book.BestBid()
}

// BestAsk returns the lowest resting ask price, if any.
func (b *SharedOrderBook) BestAsk() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.book.BestAsk()
}

// Spread returns best_ask - best_bid when both sides are non-empty.
func (b *SharedOrderBook) Spread() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.book.Spread()
}

// MidPrice returns (best_ask + best_bid) / 2 when both sides are non-empty.
func (b *SharedOrderBook) MidPrice() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.book.MidPrice()
}

// GetDepth returns up to k aggregated (price, total_quantity) levels on
// each side: bids descending, asks ascending.
func (b *SharedOrderBook) GetDepth(k int) (bids, asks []PriceQuantity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.book.GetDepth(k)
}

// ActiveOrderCount returns the number of orders currently resting on the
// book across both sides.
func (b *SharedOrderBook) ActiveOrderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.book.ActiveOrderCount()
}

// NextOrderID returns the next engine-assigned order id, without
// submitting anything.
func (b *SharedOrderBook) NextOrderID() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.book.NextOrderID()
}

// Symbol returns the symbol this book was created for.
func (b *SharedOrderBook) Symbol() string {
	return b.book.Symbol
}
