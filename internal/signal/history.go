package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedState = errors.New("malformed trader state")

// Series is the mid-price record of one product, oldest first. It only grows
// for the lifetime of a session.
type Series []float64

func (s Series) Len() int { return len(s) }

// Append adds the newest observation to the end of the series.
func (s *Series) Append(price float64) {
	*s = append(*s, price)
}

// SMA returns the mean of the window values ending offset positions before
// the newest one. Offset 0 includes the newest value. The second return is
// false when the series is too short.
func (s Series) SMA(window, offset int) (float64, bool) {
	end := len(s) - offset
	start := end - window
	if window <= 0 || offset < 0 || start < 0 {
		return 0, false
	}

	var sum float64
	for _, price := range s[start:end] {
		sum += price
	}
	return sum / float64(window), true
}

// History maps a product identifier to its mid-price series.
type History map[string]Series

// Append records price as the newest observation for symbol, creating the
// series on first sight.
func (h History) Append(symbol string, price float64) {
	series := h[symbol]
	series.Append(price)
	h[symbol] = series
}

// EncodeHistory renders the history as a JSON object of product to price
// array. Keys come out sorted so identical histories encode identically.
func EncodeHistory(h History) (string, error) {
	if h == nil {
		h = History{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode trader state: %w", err)
	}
	return string(data), nil
}

// DecodeHistory parses a blob produced by EncodeHistory. An empty blob is a
// fresh session and decodes to an empty history without error.
func DecodeHistory(blob string) (History, error) {
	if strings.TrimSpace(blob) == "" {
		return History{}, nil
	}

	var h History
	if err := json.Unmarshal([]byte(blob), &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if h == nil {
		// A literal JSON null.
		h = History{}
	}
	return h, nil
}
