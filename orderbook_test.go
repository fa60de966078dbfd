package clob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitOrder(id uint64, side Side, price, qty float64) *Order {
	return &Order{
		ID:       id,
		Symbol:   "BTCUSDT",
		Side:     side,
		Type:     Limit,
		Price:    price,
		Quantity: qty,
	}
}

func marketOrder(id uint64, side Side, qty float64) *Order {
	return &Order{
		ID:       id,
		Symbol:   "BTCUSDT",
		Side:     side,
		Type:     Market,
		Quantity: qty,
	}
}

// buildRestingAskLadder submits three resting asks at distinct prices and
// one resting bid, returning the book for reuse by tests that match or
// cancel against this fixture.
func buildRestingAskLadder(t *testing.T) *OrderBook {
	t.Helper()
	book := NewOrderBook("BTCUSDT")

	_, trades, err := book.Submit(limitOrder(1, Sell, 50100, 0.5))
	require.NoError(t, err)
	require.Empty(t, trades)

	_, trades, err = book.Submit(limitOrder(2, Sell, 50200, 1.0))
	require.NoError(t, err)
	require.Empty(t, trades)

	_, trades, err = book.Submit(limitOrder(3, Sell, 50150, 0.75))
	require.NoError(t, err)
	require.Empty(t, trades)

	_, trades, err = book.Submit(limitOrder(4, Buy, 49900, 0.3))
	require.NoError(t, err)
	require.Empty(t, trades)

	return book
}

func TestGetDepth_ReturnsRestingLevelsInPriceOrder(t *testing.T) {
	book := buildRestingAskLadder(t)

	bids, asks := book.GetDepth(3)
	assert.Equal(t, []PriceQuantity{
		{Price: 50100, Quantity: 0.5},
		{Price: 50150, Quantity: 0.75},
		{Price: 50200, Quantity: 1.0},
	}, asks)
	assert.Equal(t, []PriceQuantity{{Price: 49900, Quantity: 0.3}}, bids)

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.Equal(t, 200.0, spread)
}

func TestSubmit_BuyLimitSweepsMultipleAskLevels(t *testing.T) {
	book := buildRestingAskLadder(t)

	updated, trades, err := book.Submit(limitOrder(5, Buy, 50200, 1.0))
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, 50100.0, trades[0].Price)
	assert.Equal(t, 0.5, trades[0].Quantity)
	assert.Equal(t, uint64(1), trades[0].MakerOrderID)
	assert.Equal(t, uint64(5), trades[0].TakerOrderID)

	assert.Equal(t, 50150.0, trades[1].Price)
	assert.Equal(t, 0.5, trades[1].Quantity)
	assert.Equal(t, uint64(3), trades[1].MakerOrderID)
	assert.Equal(t, uint64(5), trades[1].TakerOrderID)

	assert.Equal(t, Filled, updated.Status)

	_, asks := book.GetDepth(2)
	require.Len(t, asks, 2)
	assert.Equal(t, PriceQuantity{Price: 50150, Quantity: 0.25}, asks[0])
	assert.Equal(t, PriceQuantity{Price: 50200, Quantity: 1.0}, asks[1])
}

func TestSubmit_MarketOrderAgainstEmptyBookIsCancelledUnfilled(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	updated, trades, err := book.Submit(marketOrder(1, Buy, 1.0))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, Cancelled, updated.Status)
}

func TestCancel_RemovesLevelAndIsIdempotentAcrossCalls(t *testing.T) {
	book := buildRestingAskLadder(t)

	ok := book.Cancel(3)
	assert.True(t, ok)

	_, asks := book.GetDepth(2)
	assert.Equal(t, []PriceQuantity{
		{Price: 50100, Quantity: 0.5},
		{Price: 50200, Quantity: 1.0},
	}, asks)

	ok = book.Cancel(3)
	assert.False(t, ok)
}

func TestSubmit_FullMatchAtSamePriceConsumesOldestRestingOrderFirst(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	_, _, err := book.Submit(limitOrder(10, Sell, 50000, 1.0))
	require.NoError(t, err)
	_, _, err = book.Submit(limitOrder(11, Sell, 50000, 1.0))
	require.NoError(t, err)

	_, trades, err := book.Submit(limitOrder(12, Buy, 50000, 1.0))
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, 50000.0, trades[0].Price)
	assert.Equal(t, 1.0, trades[0].Quantity)
	assert.Equal(t, uint64(10), trades[0].MakerOrderID)
	assert.Equal(t, uint64(12), trades[0].TakerOrderID)
}

func TestSubmit_LimitAgainstEmptyBookRestsFully(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	updated, trades, err := book.Submit(limitOrder(1, Buy, 100, 1.0))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, Pending, updated.Status)
	assert.Equal(t, 1, book.ActiveOrderCount())
}

func TestSubmit_MarketAgainstEmptyBookLeavesBookUntouched(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	updated, trades, err := book.Submit(marketOrder(1, Sell, 1.0))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, Cancelled, updated.Status)
	assert.Equal(t, 0, book.ActiveOrderCount())
}

func TestSubmit_ExactFullFillPopsHeadBeforeNextIteration(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	_, _, err := book.Submit(limitOrder(1, Sell, 100, 1.0))
	require.NoError(t, err)
	_, _, err = book.Submit(limitOrder(2, Sell, 100, 1.0))
	require.NoError(t, err)

	_, trades, err := book.Submit(limitOrder(3, Buy, 100, 2.0))
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.Equal(t, uint64(1), trades[0].MakerOrderID)
	assert.Equal(t, uint64(2), trades[1].MakerOrderID)
	assert.Equal(t, 0, book.ActiveOrderCount())
}

func TestSubmit_LimitAtCrossingPriceMatchesInclusive(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	_, _, err := book.Submit(limitOrder(1, Sell, 100, 1.0))
	require.NoError(t, err)

	_, trades, err := book.Submit(limitOrder(2, Buy, 100, 1.0))
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, 100.0, trades[0].Price)
}

func TestSubmit_SamePriceOrdersMatchInArrivalOrder(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	_, _, err := book.Submit(limitOrder(1, Sell, 100, 0.5))
	require.NoError(t, err)
	_, _, err = book.Submit(limitOrder(2, Sell, 100, 0.5))
	require.NoError(t, err)
	_, _, err = book.Submit(limitOrder(3, Sell, 100, 0.5))
	require.NoError(t, err)

	_, trades, err := book.Submit(limitOrder(4, Buy, 100, 1.0))
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.Equal(t, uint64(1), trades[0].MakerOrderID)
	assert.Equal(t, uint64(2), trades[1].MakerOrderID)
}

func TestSubmit_ConservesQuantityAcrossTradesAndResidual(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	_, _, err := book.Submit(limitOrder(1, Sell, 100, 3.0))
	require.NoError(t, err)

	updated, trades, err := book.Submit(limitOrder(2, Buy, 100, 2.0))
	require.NoError(t, err)

	var filled float64
	for _, tr := range trades {
		filled += tr.Quantity
	}
	assert.InDelta(t, 2.0, filled+updated.RemainingQuantity, 1e-9)

	_, asks := book.GetDepth(1)
	require.Len(t, asks, 1)
	assert.InDelta(t, 1.0, asks[0].Quantity, 1e-9)
}

func TestCancel_BeforeAnyMatchRestoresPriorBookState(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	_, _, err := book.Submit(limitOrder(1, Sell, 100, 1.0))
	require.NoError(t, err)

	before := book.ActiveOrderCount()
	bestAskBefore, _ := book.BestAsk()

	_, _, err = book.Submit(limitOrder(2, Buy, 90, 1.0))
	require.NoError(t, err)

	ok := book.Cancel(2)
	require.True(t, ok)

	assert.Equal(t, before, book.ActiveOrderCount())
	bestAskAfter, _ := book.BestAsk()
	assert.Equal(t, bestAskBefore, bestAskAfter)
}

func TestCancel_IsIdempotentAndRejectsUnknownID(t *testing.T) {
	book := NewOrderBook("BTCUSDT")
	_, _, err := book.Submit(limitOrder(1, Buy, 100, 1.0))
	require.NoError(t, err)

	assert.True(t, book.Cancel(1))
	assert.False(t, book.Cancel(1))
	assert.False(t, book.Cancel(999))
}

func TestSubmit_RejectsInvalidOrder(t *testing.T) {
	book := NewOrderBook("BTCUSDT")

	_, _, err := book.Submit(limitOrder(1, Buy, 100, 0))
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, _, err = book.Submit(limitOrder(2, Buy, 0, 1.0))
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestSubmit_RejectsUnknownSymbol(t *testing.T) {
	book := NewOrderBook("BTCUSDT")
	o := limitOrder(1, Buy, 100, 1.0)
	o.Symbol = "ETHUSDT"

	_, _, err := book.Submit(o)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestSubmit_RejectsDuplicateOrderID(t *testing.T) {
	book := NewOrderBook("BTCUSDT")
	_, _, err := book.Submit(limitOrder(1, Buy, 100, 1.0))
	require.NoError(t, err)

	_, _, err = book.Submit(limitOrder(1, Buy, 101, 1.0))
	assert.ErrorIs(t, err, ErrDuplicateOrderID)
}

func TestMidPrice_BothSidesPresent(t *testing.T) {
	book := NewOrderBook("BTCUSDT")
	_, _, err := book.Submit(limitOrder(1, Buy, 100, 1.0))
	require.NoError(t, err)
	_, _, err = book.Submit(limitOrder(2, Sell, 102, 1.0))
	require.NoError(t, err)

	mid, ok := book.MidPrice()
	require.True(t, ok)
	assert.Equal(t, 101.0, mid)
}

func TestMidPrice_OneSideEmpty(t *testing.T) {
	book := NewOrderBook("BTCUSDT")
	_, ok := book.MidPrice()
	assert.False(t, ok)
}

func TestNextOrderID_Monotonic(t *testing.T) {
	book := NewOrderBook("BTCUSDT")
	first := book.NextOrderID()
	second := book.NextOrderID()
	assert.Equal(t, first+1, second)
}
