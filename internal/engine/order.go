package engine

import (
	"fmt"
	"time"

	"tickbot/internal/common"
)

type Order struct {
	UUID          string           // Order tracked uuid
	OrderType     common.OrderType //
	Symbol        string           // Product identifier
	Side          common.Side      // Order side
	LimitPrice    float64          // Limiting price
	Quantity      uint64           // Remaining quantity
	TotalQuantity uint64           // Total volume requested
	Timestamp     time.Time        // Time of arrival of order
	ExchTimestamp time.Time        // Time of arrival of order into the book
	Owner         string           // Who owns this order

	seq uint64 // Arrival sequence within the book, breaks timestamp ties
}

// NewOrder converts a trader instruction into a limit order owned by owner.
// The sign of the quantity picks the side.
func NewOrder(owner string, o common.Order) Order {
	qty := o.Quantity
	if qty < 0 {
		qty = -qty
	}
	return Order{
		OrderType:     common.LimitOrder,
		Symbol:        o.Symbol,
		Side:          o.Side(),
		LimitPrice:    o.Price,
		Quantity:      uint64(qty),
		TotalQuantity: uint64(qty),
		Owner:         owner,
	}
}

// String renders the order on one line, e.g. for log fields.
func (order Order) String() string {
	return fmt.Sprintf("%s %v %v %s %d/%d @ %g owner=%s",
		order.UUID,
		order.OrderType,
		order.Side,
		order.Symbol,
		order.Quantity,
		order.TotalQuantity,
		order.LimitPrice,
		order.Owner,
	)
}
