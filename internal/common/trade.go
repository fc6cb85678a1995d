package common

import (
	"fmt"
	"time"
)

// Trade records a single match between two parties on the exchange.
type Trade struct {
	Symbol    string
	Price     float64
	Quantity  uint64
	Buyer     string
	Seller    string
	TakerSide Side
	Timestamp time.Time
}

func (t Trade) String() string {
	return fmt.Sprintf("%s %d @ %g buyer=%s seller=%s taker=%v at %s",
		t.Symbol,
		t.Quantity,
		t.Price,
		t.Buyer,
		t.Seller,
		t.TakerSide,
		t.Timestamp.Format(time.RFC3339),
	)
}
