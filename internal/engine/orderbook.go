package engine

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"

	"tickbot/internal/common"
)

var (
	ErrNotEnoughLiquidity = errors.New("not enough liquidity")
	ErrRejection          = errors.New("order rejection")
)

type PriceLevel struct {
	priceLevel float64
	orders     []*Order
}

type PriceLevels = btree.BTreeG[*PriceLevel]
type OrderBook struct {
	// Pointer to the owning engine.
	engine *Engine
	symbol string

	// Price levels to orders sat on the price level, sorted by time added
	// as they will be push-back'd.
	bids *PriceLevels
	asks *PriceLevels

	// Some book keeping
	seq          uint64 // Arrival counter handed to each placed order.
	nBuyOrders   uint64 // Track the number of bids in the book.
	nSellOrders  uint64 // Track the number of asks in the book.
	buyQuantity  uint64 // Track the bid-side liquidity of the book.
	sellQuantity uint64 // Track the ask-side liquidity of the book.
}

func newLevels(side common.Side) *PriceLevels {
	if side == common.Buy {
		// Sorted greatest first.
		return btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return a.priceLevel > b.priceLevel
		})
	}
	// Sorted least first.
	return btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.priceLevel < b.priceLevel
	})
}

func NewOrderBook(engine *Engine, symbol string) *OrderBook {
	return &OrderBook{
		engine: engine,
		symbol: symbol,
		bids:   newLevels(common.Buy),
		asks:   newLevels(common.Sell),
	}
}

// placeOrder places a new order which can either (fully or partially):
// 1. Execute immediately
// 2. Rest in the book
// The caller has already validated and stamped the order.
func (book *OrderBook) placeOrder(order *Order) error {
	book.seq++
	order.seq = book.seq
	log.Debug().Str("book", book.symbol).Stringer("order", order).Msg("order received")

	switch order.OrderType {
	case LimitOrder:
		return book.handleLimit(order)
	case MarketOrder:
		return book.handleMarket(order)
	}
	return ErrRejection
}

// Match consumes the top of book price levels while they cross (i.e., bid >= ask).
// While these orders cross, we match orders in price-time-priority.
//
// The order that arrived last is the liquidity taker and trades at the resting
// order's price.
//
// NOTE: There will only be a matching, if the new order's limit price is top of book.
// Otherwise, we would have a stable state.
func (book *OrderBook) Match() {
	for {
		bestBid, bidOk := book.bids.MinMut()
		bestAsk, askOk := book.asks.MinMut()

		// If either side is empty, or prices don't cross, we are done.
		if !bidOk || !askOk || bestBid.priceLevel < bestAsk.priceLevel {
			return
		}

		for len(bestBid.orders) > 0 && len(bestAsk.orders) > 0 {
			bidOrder := bestBid.orders[0]
			askOrder := bestAsk.orders[0]

			matchQty := min(askOrder.Quantity, bidOrder.Quantity)
			askOrder.Quantity -= matchQty
			bidOrder.Quantity -= matchQty
			book.buyQuantity -= matchQty
			book.sellQuantity -= matchQty

			if askOrder.seq > bidOrder.seq {
				book.engine.Trade(askOrder, bidOrder, matchQty)
			} else {
				book.engine.Trade(bidOrder, askOrder, matchQty)
			}

			if bidOrder.Quantity == 0 {
				bestBid.orders = bestBid.orders[1:]
				book.nBuyOrders--
			}
			if askOrder.Quantity == 0 {
				bestAsk.orders = bestAsk.orders[1:]
				book.nSellOrders--
			}
		}

		// Full consumption cases (i.e. empty levels).
		if len(bestAsk.orders) == 0 {
			book.asks.Delete(bestAsk)
		}
		if len(bestBid.orders) == 0 {
			book.bids.Delete(bestBid)
		}
	}
}

// handleMarket handles a market order. Performs a sweep on the opposite side until
// volume is filled. Market orders are always liquidity takers and never rest.
func (book *OrderBook) handleMarket(order *Order) error {
	var levels *PriceLevels
	var available uint64
	switch order.Side {
	case Buy:
		levels, available = book.asks, book.sellQuantity
	case Sell:
		levels, available = book.bids, book.buyQuantity
	}

	// We do not have enough liquidity to cover the order in the book, give up
	// before touching anything.
	if available < order.Quantity {
		return ErrNotEnoughLiquidity
	}

	for order.Quantity > 0 {
		// Min here accounts for bids and asks being in inverse order, based on their
		// comparison method.
		level, ok := levels.MinMut()
		if !ok {
			return ErrNotEnoughLiquidity
		}

		for len(level.orders) > 0 && order.Quantity > 0 {
			resting := level.orders[0]
			matchQty := min(order.Quantity, resting.Quantity)
			order.Quantity -= matchQty
			resting.Quantity -= matchQty
			book.removeLiquidity(resting.Side, matchQty)

			book.engine.Trade(order, resting, matchQty)

			if resting.Quantity == 0 {
				level.orders = level.orders[1:]
				book.removeOrder(resting.Side)
			}
		}

		if len(level.orders) == 0 {
			levels.Delete(level)
		}
	}

	return nil
}

// handleLimit handles a limit order. The order is placed at the price level specified
// (tick size handling is assumed to have already been done). This method triggers a
// "matching", which checks for any crossing pairs of orders, which are matched away.
func (book *OrderBook) handleLimit(order *Order) error {
	// Limit orders are placed on the same side as their order.Side. This is because
	// they are resting.
	var levels *PriceLevels
	switch order.Side {
	case Buy:
		levels = book.bids
		book.nBuyOrders++
		book.buyQuantity += order.Quantity
	case Sell:
		levels = book.asks
		book.nSellOrders++
		book.sellQuantity += order.Quantity
	}

	// Levels comparator only accounts for price levels, so we create a dummy price
	// level for the search.
	level, ok := levels.GetMut(&PriceLevel{priceLevel: order.LimitPrice})
	if ok {
		level.orders = append(level.orders, order)
	} else {
		levels.Set(&PriceLevel{
			priceLevel: order.LimitPrice,
			orders:     []*Order{order},
		})
	}

	book.Match()
	return nil
}

func (book *OrderBook) removeLiquidity(side common.Side, qty uint64) {
	switch side {
	case Buy:
		book.buyQuantity -= qty
	case Sell:
		book.sellQuantity -= qty
	}
}

func (book *OrderBook) removeOrder(side common.Side) {
	switch side {
	case Buy:
		book.nBuyOrders--
	case Sell:
		book.nSellOrders--
	}
}

// Depth aggregates the resting quantity per price on both sides.
func (book *OrderBook) Depth() common.OrderDepth {
	depth := common.NewOrderDepth()
	aggregate := func(into map[float64]int) func(*PriceLevel) bool {
		return func(level *PriceLevel) bool {
			var qty uint64
			for _, o := range level.orders {
				qty += o.Quantity
			}
			if qty > 0 {
				into[level.priceLevel] = int(qty)
			}
			return true
		}
	}
	book.bids.Scan(aggregate(depth.BuyOrders))
	book.asks.Scan(aggregate(depth.SellOrders))
	return depth
}

// Clear drops every resting order.
func (book *OrderBook) Clear() {
	book.bids = newLevels(common.Buy)
	book.asks = newLevels(common.Sell)
	book.nBuyOrders, book.nSellOrders = 0, 0
	book.buyQuantity, book.sellQuantity = 0, 0
}

// Liquidity returns the resting quantity on each side.
func (book *OrderBook) Liquidity() (bids, asks uint64) {
	return book.buyQuantity, book.sellQuantity
}

// OrderCount returns the number of resting orders on each side.
func (book *OrderBook) OrderCount() (bids, asks uint64) {
	return book.nBuyOrders, book.nSellOrders
}

// BidLevels returns the bid side best first.
func (book *OrderBook) BidLevels() []FlatPriceLevel {
	return FlattenLevels(book.bids.Items())
}

// AskLevels returns the ask side best first.
func (book *OrderBook) AskLevels() []FlatPriceLevel {
	return FlattenLevels(book.asks.Items())
}

type FlatOrder struct {
	UUID          string
	Owner         string
	Quantity      uint64
	TotalQuantity uint64
}

type FlatPriceLevel struct {
	PriceLevel float64
	Orders     []FlatOrder
}

// FlattenLevels renders btree levels as plain values for inspection.
func FlattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	flat := make([]FlatPriceLevel, 0, len(levels))
	for _, level := range levels {
		orders := make([]FlatOrder, 0, len(level.orders))
		for _, o := range level.orders {
			orders = append(orders, FlatOrder{
				UUID:          o.UUID,
				Owner:         o.Owner,
				Quantity:      o.Quantity,
				TotalQuantity: o.TotalQuantity,
			})
		}
		flat = append(flat, FlatPriceLevel{PriceLevel: level.priceLevel, Orders: orders})
	}
	return flat
}
