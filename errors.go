package clob

import "errors"

var (
	// ErrInvalidOrder is returned by Submit when quantity <= 0, or a Limit
	// order carries a non-positive or non-finite price.
	ErrInvalidOrder = errors.New("clob: invalid order")

	// ErrUnknownSymbol is returned by Submit when the order's symbol does
	// not match the book's symbol.
	ErrUnknownSymbol = errors.New("clob: unknown symbol")

	// ErrDuplicateOrderID is returned by Submit when the order's id is
	// already present in the book's index.
	ErrDuplicateOrderID = errors.New("clob: duplicate order id")
)
