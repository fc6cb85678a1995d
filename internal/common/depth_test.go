package common

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderDepth_BestPrices(t *testing.T) {
	depth := OrderDepth{
		BuyOrders:  map[float64]int{10: 5, 9: 3, 9.5: 1},
		SellOrders: map[float64]int{12: 4, 13: 1, 12.5: 2},
	}

	bid, ok := depth.BestBid()
	assert.True(t, ok)
	assert.Equal(t, 10.0, bid)

	ask, ok := depth.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, 12.0, ask)
}

func TestOrderDepth_EmptySides(t *testing.T) {
	depth := NewOrderDepth()

	_, ok := depth.BestBid()
	assert.False(t, ok)
	_, ok = depth.BestAsk()
	assert.False(t, ok)

	// A nil map reads as empty too.
	_, ok = OrderDepth{}.BestAsk()
	assert.False(t, ok)
}

func TestOrderDepth_IgnoresNaNPrices(t *testing.T) {
	// Repeat so every map iteration order gets a chance to put NaN first.
	for i := 0; i < 50; i++ {
		depth := OrderDepth{
			BuyOrders:  map[float64]int{math.NaN(): 1, 10: 5, 9: 3},
			SellOrders: map[float64]int{math.NaN(): 1, 12: 4, 13: 1},
		}

		bid, ok := depth.BestBid()
		assert.True(t, ok)
		assert.Equal(t, 10.0, bid)

		ask, ok := depth.BestAsk()
		assert.True(t, ok)
		assert.Equal(t, 12.0, ask)
	}

	_, ok := OrderDepth{BuyOrders: map[float64]int{math.NaN(): 1}}.BestBid()
	assert.False(t, ok)
	_, ok = OrderDepth{SellOrders: map[float64]int{math.NaN(): 1}}.BestAsk()
	assert.False(t, ok)
}

func TestTrade_String(t *testing.T) {
	trade := Trade{
		Symbol:    "SQUID_INK",
		Price:     2007,
		Quantity:  5,
		Buyer:     "trader",
		Seller:    "market",
		TakerSide: Buy,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	assert.Equal(t,
		"SQUID_INK 5 @ 2007 buyer=trader seller=market taker=BUY at 2026-01-02T03:04:05Z",
		trade.String())
}

func TestOrderType_String(t *testing.T) {
	assert.Equal(t, "LIMIT", LimitOrder.String())
	assert.Equal(t, "MARKET", MarketOrder.String())
	assert.Equal(t, "UNKNOWN", OrderType(7).String())
}

func TestOrder_Side(t *testing.T) {
	assert.Equal(t, Buy, Order{Symbol: "KELP", Price: 10, Quantity: 10}.Side())
	assert.Equal(t, Sell, Order{Symbol: "KELP", Price: 10, Quantity: -3}.Side())
	assert.Equal(t, "(KELP, 10.5, 10)", Order{Symbol: "KELP", Price: 10.5, Quantity: 10}.String())
}
