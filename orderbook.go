package clob

import (
	"math"
	"sync/atomic"

	"github.com/huandu/skiplist"
)

type orderLocation struct {
	side  Side
	price float64
}

// OrderBook is the per-symbol matching engine: two price-ordered maps of
// PriceLevel (bids descending, asks ascending), an index from order id to
// its resting (side, price), and the monotonic id counters the book itself
// owns.
//
// OrderBook is NOT safe for concurrent use. SharedOrderBook supplies the
// mutual-exclusion discipline; callers that need concurrent access should
// go through it instead of touching an OrderBook directly.
type OrderBook struct {
	Symbol string

	bids      *skiplist.SkipList
	asks      *skiplist.SkipList
	bidLevels map[float64]*skiplist.Element
	askLevels map[float64]*skiplist.Element

	ordersIndex map[uint64]orderLocation

	nextOrderID atomic.Uint64
	nextTradeID atomic.Uint64
}

// NewOrderBook creates an empty book for symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		bids: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			// bids are ordered descending: the first key of the skiplist
			// must always be the highest bid.
			l, r := lhs.(float64), rhs.(float64)
			switch {
			case l > r:
				return -1
			case l < r:
				return 1
			default:
				return 0
			}
		})),
		asks: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			l, r := lhs.(float64), rhs.(float64)
			switch {
			case l < r:
				return -1
			case l > r:
				return 1
			default:
				return 0
			}
		})),
		bidLevels:   make(map[float64]*skiplist.Element),
		askLevels:   make(map[float64]*skiplist.Element),
		ordersIndex: make(map[uint64]orderLocation),
	}
}

func (b *OrderBook) levelsFor(side Side) (*skiplist.SkipList, map[float64]*skiplist.Element) {
	if side == Buy {
		return b.bids, b.bidLevels
	}
	return b.asks, b.askLevels
}

func (b *OrderBook) oppositeSide(side Side) Side {
	if side == Buy {
		return Sell
	}
	return Buy
}

// NextOrderID advances the book's order-id counter and returns the new
// value, so a caller can mint a fresh, collision-free id before building
// the Order it will hand to Submit. Every call returns a different id.
func (b *OrderBook) NextOrderID() uint64 {
	return b.nextOrderID.Add(1)
}

func (b *OrderBook) nextTradeIDVal() uint64 {
	return b.nextTradeID.Add(1)
}

// validate checks submit-time rejection conditions: quantity must be a
// positive finite number (and so must price, for Limit orders), the symbol
// must match the book, and the order id must not already be resting.
func (b *OrderBook) validate(o *Order) error {
	if o.Symbol != b.Symbol {
		return ErrUnknownSymbol
	}
	if _, exists := b.ordersIndex[o.ID]; exists {
		return ErrDuplicateOrderID
	}
	if o.Quantity <= 0 || math.IsNaN(o.Quantity) || math.IsInf(o.Quantity, 0) {
		return ErrInvalidOrder
	}
	if o.Type == Limit {
		if o.Price <= 0 || math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
			return ErrInvalidOrder
		}
	}
	return nil
}

func (b *OrderBook) levelAt(side Side, price float64) (*PriceLevel, bool) {
	_, index := b.levelsFor(side)
	el, ok := index[price]
	if !ok {
		return nil, false
	}
	return el.Value.(*PriceLevel), true
}

func (b *OrderBook) removeLevel(side Side, price float64) {
	list, index := b.levelsFor(side)
	el, ok := index[price]
	if !ok {
		return
	}
	list.RemoveElement(el)
	delete(index, price)
}

func (b *OrderBook) insertResting(order *Order) {
	side := order.Side
	list, index := b.levelsFor(side)

	el, ok := index[order.Price]
	var lvl *PriceLevel
	if ok {
		lvl = el.Value.(*PriceLevel)
	} else {
		lvl = newPriceLevel(order.Price)
		el = list.Set(order.Price, lvl)
		index[order.Price] = el
	}

	lvl.PushBack(order)
	b.ordersIndex[order.ID] = orderLocation{side: side, price: order.Price}
}

// Submit accepts a new order into the book, matching it against the
// opposite side per price-time priority before resting any residual. It
// returns the same *Order passed in (mutated in place to reflect its final
// status) along with the trades produced, in chronological order.
func (b *OrderBook) Submit(incoming *Order) (*Order, []*Trade, error) {
	if err := b.validate(incoming); err != nil {
		return incoming, nil, err
	}

	incoming.RemainingQuantity = incoming.Quantity
	incoming.Status = Pending

	opposite := b.oppositeSide(incoming.Side)
	oppList, oppIndex := b.levelsFor(opposite)

	var trades []*Trade

	for incoming.RemainingQuantity > 0 {
		el := oppList.Front()
		if el == nil {
			break
		}
		bestPrice := el.Key().(float64)
		best := el.Value.(*PriceLevel)

		if incoming.Type == Limit {
			if incoming.Side == Buy && bestPrice > incoming.Price {
				break
			}
			if incoming.Side == Sell && bestPrice < incoming.Price {
				break
			}
		}

		resting := best.Head()
		if resting == nil {
			oppList.RemoveElement(el)
			delete(oppIndex, bestPrice)
			continue
		}

		fill := math.Min(incoming.RemainingQuantity, resting.RemainingQuantity)

		trade := newTrade(b.nextTradeIDVal(), b.Symbol, bestPrice, fill, resting.ID, incoming.ID)
		trades = append(trades, trade)

		incoming.RemainingQuantity -= fill
		restingFilled := fill >= resting.RemainingQuantity
		best.ConsumeHead(fill)

		if restingFilled {
			resting.RemainingQuantity = 0
			resting.Status = Filled
			delete(b.ordersIndex, resting.ID)
		} else {
			resting.Status = PartiallyFilled
		}

		if incoming.RemainingQuantity <= 0 {
			incoming.RemainingQuantity = 0
			incoming.Status = Filled
		} else {
			incoming.Status = PartiallyFilled
		}

		if best.IsEmpty() {
			oppList.RemoveElement(el)
			delete(oppIndex, bestPrice)
		}
	}

	switch incoming.Type {
	case Market:
		if incoming.RemainingQuantity > 0 {
			incoming.Status = Cancelled
		}
	case Limit:
		if incoming.RemainingQuantity > 0 {
			b.insertResting(incoming)
			if incoming.Status != PartiallyFilled {
				incoming.Status = Pending
			}
		}
	}

	return incoming, trades, nil
}

// Cancel removes an order from the book. It returns true iff the order was
// present; a missing, filled, or already-cancelled id returns false and is
// not an error.
func (b *OrderBook) Cancel(orderID uint64) bool {
	loc, ok := b.ordersIndex[orderID]
	if !ok {
		return false
	}

	lvl, ok := b.levelAt(loc.side, loc.price)
	if !ok {
		delete(b.ordersIndex, orderID)
		return false
	}

	for o := lvl.Head(); o != nil; o = o.next {
		if o.ID == orderID {
			o.Status = Cancelled
			break
		}
	}

	if _, removed := lvl.Remove(orderID); !removed {
		delete(b.ordersIndex, orderID)
		return false
	}

	delete(b.ordersIndex, orderID)
	if lvl.IsEmpty() {
		b.removeLevel(loc.side, loc.price)
	}
	return true
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (float64, bool) {
	el := b.bids.Front()
	if el == nil {
		return 0, false
	}
	return el.Key().(float64), true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (float64, bool) {
	el := b.asks.Front()
	if el == nil {
		return 0, false
	}
	return el.Key().(float64), true
}

// Spread returns best_ask - best_bid when both sides are non-empty.
func (b *OrderBook) Spread() (float64, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}
	return ask - bid, true
}

// MidPrice returns (best_ask + best_bid) / 2 when both sides are non-empty.
func (b *OrderBook) MidPrice() (float64, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}
	return (ask + bid) / 2, true
}

// GetDepth returns up to k aggregated (price, total_quantity) levels from
// the best boundary of each side: bids descending, asks ascending.
func (b *OrderBook) GetDepth(k int) (bids, asks []PriceQuantity) {
	bids = collectDepth(b.bids, k)
	asks = collectDepth(b.asks, k)
	return bids, asks
}

func collectDepth(list *skiplist.SkipList, k int) []PriceQuantity {
	if k <= 0 {
		return nil
	}
	out := make([]PriceQuantity, 0, k)
	el := list.Front()
	for i := 0; i < k && el != nil; i++ {
		lvl := el.Value.(*PriceLevel)
		out = append(out, PriceQuantity{Price: lvl.Price, Quantity: lvl.TotalQuantity})
		el = el.Next()
	}
	return out
}

// ActiveOrderCount returns the number of orders currently resting on the
// book across both sides.
func (b *OrderBook) ActiveOrderCount() int {
	return len(b.ordersIndex)
}
