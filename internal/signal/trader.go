// Package signal turns order book snapshots into trading decisions. It keeps
// a mid-price history per product inside the trader data blob handed back
// and forth with the harness, and buys on a bullish SMA crossover.
package signal

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"tickbot/internal/common"
)

const (
	DefaultShortWindow   = 3
	DefaultLongWindow    = 6
	DefaultOrderQuantity = 10
)

var ErrInvalidParams = errors.New("invalid strategy parameters")

// Params controls the crossover windows and the size of each buy.
type Params struct {
	ShortWindow   int
	LongWindow    int
	OrderQuantity int
}

func DefaultParams() Params {
	return Params{
		ShortWindow:   DefaultShortWindow,
		LongWindow:    DefaultLongWindow,
		OrderQuantity: DefaultOrderQuantity,
	}
}

func (p Params) Validate() error {
	if p.ShortWindow <= 0 || p.LongWindow <= p.ShortWindow {
		return fmt.Errorf("%w: need 0 < short window (%d) < long window (%d)",
			ErrInvalidParams, p.ShortWindow, p.LongWindow)
	}
	if p.OrderQuantity <= 0 {
		return fmt.Errorf("%w: order quantity %d must be positive",
			ErrInvalidParams, p.OrderQuantity)
	}
	return nil
}

// Crossover holds the four moving averages compared on a tick.
type Crossover struct {
	ShortPrev float64
	Short     float64
	LongPrev  float64
	Long      float64
}

// Bullish reports a short average moving from at-or-below the long average
// to strictly above it.
func (c Crossover) Bullish() bool {
	return c.ShortPrev <= c.LongPrev && c.Short > c.Long
}

// Crossover computes the current and previous averages of the series. It
// needs LongWindow+1 observations.
func (p Params) Crossover(s Series) (Crossover, bool) {
	if s.Len() < p.LongWindow+1 {
		return Crossover{}, false
	}

	var c Crossover
	c.Short, _ = s.SMA(p.ShortWindow, 0)
	c.Long, _ = s.SMA(p.LongWindow, 0)
	c.ShortPrev, _ = s.SMA(p.ShortWindow, 1)
	c.LongPrev, _ = s.SMA(p.LongWindow, 1)
	return c, true
}

// Result is the trader's answer for one tick.
type Result struct {
	Orders      map[string][]common.Order
	Conversions int
	TraderData  string
}

// Trader is the per-tick decision function. It holds no state between
// calls; everything carried across ticks travels in TradingState.TraderData.
type Trader struct {
	params Params
	logger zerolog.Logger
}

type Option func(*Trader)

// WithLogger routes the trader's diagnostics to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Trader) {
		t.logger = logger
	}
}

func NewTrader(params Params, opts ...Option) (*Trader, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	t := &Trader{
		params: params,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Trader) Params() Params { return t.params }

// Run processes one tick. Products with an empty book are left out of the
// returned orders entirely; every other product gets an entry, possibly
// empty. Run never fails: bad trader data is replaced by an empty history.
func (t *Trader) Run(state common.TradingState) Result {
	history := t.loadHistory(state.TraderData)

	result := Result{
		Orders:      make(map[string][]common.Order),
		Conversions: common.Conversions,
	}

	symbols := make([]string, 0, len(state.OrderDepths))
	for symbol := range state.OrderDepths {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		depth := state.OrderDepths[symbol]

		mid, ok := MidPrice(depth)
		if !ok {
			t.logger.Debug().Str("product", symbol).Msg("empty book, skipping")
			continue
		}
		history.Append(symbol, mid)

		orders := []common.Order{}
		if order, ok := t.evaluate(symbol, history[symbol], depth); ok {
			orders = append(orders, order)
		}
		result.Orders[symbol] = orders
	}

	data, err := EncodeHistory(history)
	if err != nil {
		// Keep the caller's blob so the next tick still has its history.
		t.logger.Error().Err(err).Msg("unable to encode trader state")
		data = state.TraderData
	}
	result.TraderData = data

	return result
}

// loadHistory is the single place where a decode failure is mapped to a
// fresh history.
func (t *Trader) loadHistory(blob string) History {
	history, err := DecodeHistory(blob)
	if err != nil {
		t.logger.Warn().Err(err).Msg("discarding trader state")
		return History{}
	}
	return history
}

// evaluate returns the buy order for symbol when its series has just crossed
// upwards and there is an ask to lift.
func (t *Trader) evaluate(symbol string, series Series, depth common.OrderDepth) (common.Order, bool) {
	cross, ok := t.params.Crossover(series)
	if !ok || !cross.Bullish() {
		return common.Order{}, false
	}

	bestAsk, ok := depth.BestAsk()
	if !ok {
		t.logger.Debug().Str("product", symbol).Msg("crossover without asks, no order")
		return common.Order{}, false
	}

	order := common.Order{
		Symbol:   symbol,
		Price:    bestAsk,
		Quantity: t.params.OrderQuantity,
	}
	t.logger.Info().
		Str("product", symbol).
		Int("quantity", order.Quantity).
		Float64("price", order.Price).
		Float64("sma_short_prev", cross.ShortPrev).
		Float64("sma_short", cross.Short).
		Float64("sma_long_prev", cross.LongPrev).
		Float64("sma_long", cross.Long).
		Msg("BUY on SMA crossover")
	return order, true
}
