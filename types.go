package clob

import "time"

// Side is the direction of an order.
type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// OrderType is the kind of order accepted by the book. Only Limit and
// Market are supported; this engine has no notion of iceberg, stop, IOC or
// FOK orders.
type OrderType int8

const (
	Limit  OrderType = 1
	Market OrderType = 2
)

func (t OrderType) String() string {
	if t == Limit {
		return "limit"
	}
	return "market"
}

// Status is an order's lifecycle state. Transitions are one-way:
// Pending -> PartiallyFilled -> Filled/Cancelled.
type Status int8

const (
	Pending         Status = 1
	PartiallyFilled Status = 2
	Filled          Status = 3
	Cancelled       Status = 4
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order is a single order intent. Price and Quantity are immutable once
// submitted; RemainingQuantity and Status are mutated in place by the
// matching engine as the order is filled, partially filled, or cancelled.
//
// next/prev are intrusive FIFO links owned by whichever PriceLevel the
// order currently rests in. An order resting on the book is never copied:
// the same *Order is reachable from both the price level's queue and
// OrderBook's index lookup path, so callers holding a returned *Order see
// it mutate live as later operations fill or cancel it.
type Order struct {
	ID                uint64
	Symbol            string
	Side              Side
	Type              OrderType
	Price             float64 // ignored for Market orders
	Quantity          float64
	RemainingQuantity float64
	Status            Status
	Timestamp         int64 // unix nano, arrival order tiebreak

	next *Order
	prev *Order
}

// Trade is an immutable record of one fill produced by the matching
// algorithm. Price is always the maker's resting price.
type Trade struct {
	ID           uint64
	Symbol       string
	Price        float64
	Quantity     float64
	MakerOrderID uint64
	TakerOrderID uint64
	Timestamp    int64
}

func newTrade(id uint64, symbol string, price, quantity float64, makerID, takerID uint64) *Trade {
	return &Trade{
		ID:           id,
		Symbol:       symbol,
		Price:        price,
		Quantity:     quantity,
		MakerOrderID: makerID,
		TakerOrderID: takerID,
		Timestamp:    time.Now().UnixNano(),
	}
}

// PriceQuantity is one aggregated depth level, as returned by GetDepth.
type PriceQuantity struct {
	Price    float64
	Quantity float64
}
