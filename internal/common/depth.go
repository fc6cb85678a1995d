package common

import "math"

// OrderDepth is the resting interest for one product at one tick, keyed by
// price. Keys are unordered; an empty map means no interest on that side.
type OrderDepth struct {
	BuyOrders  map[float64]int
	SellOrders map[float64]int
}

// NewOrderDepth returns an OrderDepth with both sides initialised.
func NewOrderDepth() OrderDepth {
	return OrderDepth{
		BuyOrders:  make(map[float64]int),
		SellOrders: make(map[float64]int),
	}
}

// BestBid returns the highest resting buy price. NaN keys are ignored.
func (d OrderDepth) BestBid() (float64, bool) {
	var best float64
	found := false
	for price := range d.BuyOrders {
		if math.IsNaN(price) {
			continue
		}
		if !found || price > best {
			best = price
			found = true
		}
	}
	return best, found
}

// BestAsk returns the lowest resting sell price. NaN keys are ignored.
func (d OrderDepth) BestAsk() (float64, bool) {
	var best float64
	found := false
	for price := range d.SellOrders {
		if math.IsNaN(price) {
			continue
		}
		if !found || price < best {
			best = price
			found = true
		}
	}
	return best, found
}

// TradingState is everything the trader sees on one tick.
type TradingState struct {
	Timestamp   int64                 // Harness tick counter
	TraderData  string                // Persisted state from the previous tick
	OrderDepths map[string]OrderDepth // Per product book snapshot
}
