// Package scenario loads replay files: a sequence of ticks, each holding the
// resting liquidity the simulated exchange shows for every product.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Level is one resting price level.
type Level struct {
	Price    float64 `yaml:"price"`
	Quantity uint64  `yaml:"quantity"`
}

// Book is the liquidity of one product at one tick.
type Book struct {
	Bids []Level `yaml:"bids"`
	Asks []Level `yaml:"asks"`
}

// Spread returns the highest bid and the lowest ask. ok is false unless both
// sides have a level.
func (b Book) Spread() (bid, ask float64, ok bool) {
	if len(b.Bids) == 0 || len(b.Asks) == 0 {
		return 0, 0, false
	}
	bid, ask = b.Bids[0].Price, b.Asks[0].Price
	for _, level := range b.Bids[1:] {
		bid = math.Max(bid, level.Price)
	}
	for _, level := range b.Asks[1:] {
		ask = math.Min(ask, level.Price)
	}
	return bid, ask, true
}

type Tick struct {
	Timestamp int64           `yaml:"timestamp"`
	Books     map[string]Book `yaml:"books"`
}

type Scenario struct {
	Name  string `yaml:"name"`
	Ticks []Tick `yaml:"ticks"`
}

// Load reads and validates the scenario file at path. A scenario without a
// name is named after its file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

func Parse(data []byte) (*Scenario, error) {
	sc := &Scenario{}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Validate checks that timestamps strictly increase, every level carries a
// positive price and quantity, and no book is crossed.
func (sc *Scenario) Validate() error {
	if len(sc.Ticks) == 0 {
		return fmt.Errorf("%w: no ticks", ErrInvalidScenario)
	}

	for i, tick := range sc.Ticks {
		if i > 0 && tick.Timestamp <= sc.Ticks[i-1].Timestamp {
			return fmt.Errorf("%w: tick %d: timestamp %d not after %d",
				ErrInvalidScenario, i, tick.Timestamp, sc.Ticks[i-1].Timestamp)
		}
		for symbol, book := range tick.Books {
			if symbol == "" {
				return fmt.Errorf("%w: tick %d: empty product symbol", ErrInvalidScenario, i)
			}
			for _, level := range append(append([]Level(nil), book.Bids...), book.Asks...) {
				if level.Price <= 0 || math.IsNaN(level.Price) || math.IsInf(level.Price, 0) {
					return fmt.Errorf("%w: tick %d: %s: bad price %v", ErrInvalidScenario, i, symbol, level.Price)
				}
				if level.Quantity == 0 {
					return fmt.Errorf("%w: tick %d: %s: zero quantity at %v", ErrInvalidScenario, i, symbol, level.Price)
				}
			}
			if bid, ask, ok := book.Spread(); ok && bid >= ask {
				return fmt.Errorf("%w: tick %d: %s: crossed book, bid %v >= ask %v", ErrInvalidScenario, i, symbol, bid, ask)
			}
		}
	}
	return nil
}

// Products returns every product named anywhere in the scenario, sorted.
func (sc *Scenario) Products() []string {
	seen := make(map[string]struct{})
	for _, tick := range sc.Ticks {
		for symbol := range tick.Books {
			seen[symbol] = struct{}{}
		}
	}

	products := make([]string, 0, len(seen))
	for symbol := range seen {
		products = append(products, symbol)
	}
	sort.Strings(products)
	return products
}
