// Package harness replays scenarios through a trader against the simulated
// exchange, carrying the trader data blob from tick to tick the way a live
// harness would.
package harness

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"tickbot/internal/common"
	"tickbot/internal/engine"
	"tickbot/internal/scenario"
	"tickbot/internal/signal"
	"tickbot/internal/store"
)

const (
	MarketOwner = "market"
	TraderOwner = "trader"
)

// Strategy is the per-tick decision function being replayed.
type Strategy interface {
	Run(state common.TradingState) signal.Result
}

var ErrNothingToResume = errors.New("nothing journaled to resume from")

// Journal records every tick and every trader fill of a run.
type Journal interface {
	CreateRun(ctx context.Context, name string) (string, error)
	SaveTick(ctx context.Context, rec store.TickRecord) error
	SaveFill(ctx context.Context, runID string, timestamp int64, trade common.Trade) error
}

// Report summarises a finished (or interrupted) run.
type Report struct {
	Scenario       string
	RunID          string
	Ticks          int
	OrdersSent     int
	OrdersRejected int
	Fills          []common.Trade
	Positions      map[string]int
	Cash           float64
	TraderData     string
}

type Runner struct {
	strategy   Strategy
	exchange   *engine.Engine
	journal    Journal
	logger     zerolog.Logger
	traderData string

	// Trades booked while the current tick executes.
	pending []common.Trade
}

type Option func(*Runner)

func WithJournal(journal Journal) Option {
	return func(r *Runner) {
		r.journal = journal
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTraderData seeds the first tick with a previously persisted blob, e.g.
// one read back from the journal.
func WithTraderData(data string) Option {
	return func(r *Runner) {
		r.traderData = data
	}
}

// Checkpoints reads back the trader data a journal persisted for a run.
type Checkpoints interface {
	LatestTraderData(ctx context.Context, runID string) (string, error)
}

// ResumeFrom seeds the runner with the trader data journaled last for runID.
func ResumeFrom(ctx context.Context, checkpoints Checkpoints, runID string) (Option, error) {
	data, err := checkpoints.LatestTraderData(ctx, runID)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, fmt.Errorf("%w: run %s", ErrNothingToResume, runID)
	}
	return WithTraderData(data), nil
}

func NewRunner(strategy Strategy, opts ...Option) *Runner {
	r := &Runner{
		strategy: strategy,
		exchange: engine.New(),
		logger:   zerolog.Nop(),
	}
	r.exchange.SetReporter(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReportTrade collects trades booked by the exchange.
func (r *Runner) ReportTrade(trade common.Trade) error {
	r.pending = append(r.pending, trade)
	return nil
}

// Run replays every tick of sc in order. Each tick is handled to completion
// before the next one starts; cancellation is only observed between ticks.
// An invalid scenario is refused before any tick runs.
func (r *Runner) Run(ctx context.Context, sc *scenario.Scenario) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("scenario", sc.Name).
		Strs("products", sc.Products()).
		Int("ticks", len(sc.Ticks)).
		Bool("resumed", r.traderData != "").
		Msg("run started")

	report := &Report{
		Scenario:  sc.Name,
		Positions: make(map[string]int),
	}

	if r.journal != nil {
		runID, err := r.journal.CreateRun(ctx, sc.Name)
		if err != nil {
			return nil, err
		}
		report.RunID = runID
	}

	data := r.traderData
	for _, tick := range sc.Ticks {
		if err := ctx.Err(); err != nil {
			report.TraderData = data
			return report, err
		}

		next, err := r.step(ctx, tick, data, report)
		if err != nil {
			report.TraderData = data
			return report, fmt.Errorf("tick %d: %w", tick.Timestamp, err)
		}
		data = next
		report.Ticks++
	}
	report.TraderData = data

	r.logger.Info().
		Str("scenario", sc.Name).
		Int("ticks", report.Ticks).
		Int("orders", report.OrdersSent).
		Int("fills", len(report.Fills)).
		Float64("cash", report.Cash).
		Msg("run finished")
	return report, nil
}

// step runs a single tick and returns the trader data for the next one.
func (r *Runner) step(ctx context.Context, tick scenario.Tick, data string, report *Report) (string, error) {
	if err := r.reseed(tick); err != nil {
		return "", err
	}

	state := common.TradingState{
		Timestamp:   tick.Timestamp,
		TraderData:  data,
		OrderDepths: make(map[string]common.OrderDepth, len(tick.Books)),
	}
	for symbol := range tick.Books {
		state.OrderDepths[symbol] = r.exchange.Depth(symbol)
	}

	result := r.strategy.Run(state)

	r.pending = r.pending[:0]
	orders := r.execute(result.Orders, report)
	fills := r.settle(report)

	r.logger.Debug().
		Int64("timestamp", tick.Timestamp).
		Int("orders", orders).
		Int("fills", len(fills)).
		Msg("tick processed")

	if r.journal != nil {
		if err := r.journal.SaveTick(ctx, store.TickRecord{
			RunID:      report.RunID,
			Timestamp:  tick.Timestamp,
			TraderData: result.TraderData,
			Orders:     orders,
		}); err != nil {
			return "", err
		}
		for _, fill := range fills {
			if err := r.journal.SaveFill(ctx, report.RunID, tick.Timestamp, fill); err != nil {
				return "", err
			}
		}
	}

	return result.TraderData, nil
}

// reseed replaces every book's resting orders with the tick's liquidity. Any
// trader order left unfilled from the previous tick is dropped with it.
func (r *Runner) reseed(tick scenario.Tick) error {
	for _, symbol := range r.exchange.Symbols() {
		r.exchange.Clear(symbol)
	}

	for _, symbol := range sortedKeys(tick.Books) {
		book := tick.Books[symbol]
		r.exchange.Book(symbol)
		for _, side := range []struct {
			side   common.Side
			levels []scenario.Level
		}{{common.Buy, book.Bids}, {common.Sell, book.Asks}} {
			for _, level := range side.levels {
				_, err := r.exchange.PlaceOrder(engine.Order{
					OrderType:  common.LimitOrder,
					Symbol:     symbol,
					Side:       side.side,
					LimitPrice: level.Price,
					Quantity:   level.Quantity,
					Owner:      MarketOwner,
				})
				if err != nil {
					return fmt.Errorf("seed %s: %w", symbol, err)
				}
			}
		}
	}
	return nil
}

// execute sends the trader's orders to the exchange. A rejected order is
// logged and skipped.
func (r *Runner) execute(orders map[string][]common.Order, report *Report) int {
	sent := 0
	for _, symbol := range sortedKeys(orders) {
		for _, order := range orders[symbol] {
			if _, err := r.exchange.PlaceOrder(engine.NewOrder(TraderOwner, order)); err != nil {
				r.logger.Warn().Err(err).Str("order", order.String()).Msg("order rejected")
				report.OrdersRejected++
				continue
			}
			sent++
		}
	}
	report.OrdersSent += sent
	return sent
}

// settle applies the trader's fills from the pending trades to the report
// and returns them.
func (r *Runner) settle(report *Report) []common.Trade {
	var fills []common.Trade
	for _, trade := range r.pending {
		notional := trade.Price * float64(trade.Quantity)
		switch {
		case trade.Buyer == TraderOwner:
			report.Positions[trade.Symbol] += int(trade.Quantity)
			report.Cash -= notional
		case trade.Seller == TraderOwner:
			report.Positions[trade.Symbol] -= int(trade.Quantity)
			report.Cash += notional
		default:
			continue
		}
		r.logger.Debug().Stringer("trade", trade).Msg("fill")
		fills = append(fills, trade)
	}
	report.Fills = append(report.Fills, fills...)
	return fills
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
