// Package engine is the simulated exchange the trader is replayed against: a
// price-time priority matching engine with one order book per product.
package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tickbot/internal/common"
)

const (
	Buy         = common.Buy
	Sell        = common.Sell
	LimitOrder  = common.LimitOrder
	MarketOrder = common.MarketOrder
)

// Reporter receives every trade the engine books.
type Reporter interface {
	ReportTrade(trade common.Trade) error
}

type Engine struct {
	Books    map[string]*OrderBook
	reporter Reporter
	now      func() time.Time
}

func New(symbols ...string) *Engine {
	engine := &Engine{
		Books: make(map[string]*OrderBook),
		now:   time.Now,
	}

	for _, symbol := range symbols {
		engine.Books[symbol] = NewOrderBook(engine, symbol)
	}

	return engine
}

func (engine *Engine) SetReporter(reporter Reporter) {
	engine.reporter = reporter
}

// Book returns the order book for symbol, creating it on first use.
func (engine *Engine) Book(symbol string) *OrderBook {
	book, ok := engine.Books[symbol]
	if !ok {
		book = NewOrderBook(engine, symbol)
		engine.Books[symbol] = book
	}
	return book
}

// Symbols lists the products with a book, sorted.
func (engine *Engine) Symbols() []string {
	symbols := make([]string, 0, len(engine.Books))
	for symbol := range engine.Books {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// PlaceOrder validates the order, stamps it and hands it to the product's
// book. It returns the order's UUID, generating one when the caller left it
// empty.
func (engine *Engine) PlaceOrder(order Order) (string, error) {
	if order.Symbol == "" {
		return "", fmt.Errorf("%w: missing symbol", ErrRejection)
	}
	if order.Quantity == 0 {
		return "", fmt.Errorf("%w: zero quantity", ErrRejection)
	}
	if order.OrderType == LimitOrder &&
		(order.LimitPrice <= 0 || math.IsNaN(order.LimitPrice) || math.IsInf(order.LimitPrice, 0)) {
		return "", fmt.Errorf("%w: invalid limit price %v", ErrRejection, order.LimitPrice)
	}

	if order.UUID == "" {
		order.UUID = uuid.New().String()
	}
	if order.TotalQuantity == 0 {
		order.TotalQuantity = order.Quantity
	}
	now := engine.now()
	if order.Timestamp.IsZero() {
		order.Timestamp = now
	}
	order.ExchTimestamp = now

	if err := engine.Book(order.Symbol).placeOrder(&order); err != nil {
		return "", err
	}
	return order.UUID, nil
}

// Depth snapshots the resting interest of symbol. Unknown products have an
// empty depth.
func (engine *Engine) Depth(symbol string) common.OrderDepth {
	book, ok := engine.Books[symbol]
	if !ok {
		return common.NewOrderDepth()
	}
	return book.Depth()
}

// Clear drops every resting order of symbol.
func (engine *Engine) Clear(symbol string) {
	if book, ok := engine.Books[symbol]; ok {
		book.Clear()
	}
}

// Trade books a match between the taker and the resting maker at the maker's
// price and forwards it to the reporter.
func (engine *Engine) Trade(taker, maker *Order, quantity uint64) {
	trade := common.Trade{
		Symbol:    maker.Symbol,
		Price:     maker.LimitPrice,
		Quantity:  quantity,
		TakerSide: taker.Side,
		Timestamp: engine.now(),
	}
	if taker.Side == Buy {
		trade.Buyer, trade.Seller = taker.Owner, maker.Owner
	} else {
		trade.Buyer, trade.Seller = maker.Owner, taker.Owner
	}

	if engine.reporter == nil {
		return
	}
	if err := engine.reporter.ReportTrade(trade); err != nil {
		log.Error().
			Err(err).
			Str("symbol", trade.Symbol).
			Uint64("quantity", quantity).
			Msg("unable to report trade")
	}
}
