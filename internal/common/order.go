package common

import "fmt"

// Order is a trader instruction for a single product. A positive quantity is
// a buy, a negative quantity a sell.
type Order struct {
	Symbol   string  // Product identifier
	Price    float64 // Limit price
	Quantity int     // Signed quantity
}

// Side reports which side of the book the order lands on.
func (order Order) Side() Side {
	if order.Quantity < 0 {
		return Sell
	}
	return Buy
}

func (order Order) String() string {
	return fmt.Sprintf("(%s, %g, %d)", order.Symbol, order.Price, order.Quantity)
}
