package signal

import (
	"math"

	"tickbot/internal/common"
)

// MidPrice derives a fair value for a product from the top of its book.
// With both sides present it is the midpoint of best bid and best ask,
// otherwise whichever side exists. It reports false for an empty book.
func MidPrice(depth common.OrderDepth) (float64, bool) {
	bid, hasBid := depth.BestBid()
	ask, hasAsk := depth.BestAsk()

	var mid float64
	switch {
	case hasBid && hasAsk:
		mid = (bid + ask) / 2.0
	case hasBid:
		mid = bid
	case hasAsk:
		mid = ask
	default:
		return 0, false
	}

	if math.IsNaN(mid) || math.IsInf(mid, 0) {
		return 0, false
	}
	return mid, true
}
