package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
name: squid-rally
ticks:
  - timestamp: 0
    books:
      SQUID_INK:
        bids: [{price: 1999, quantity: 10}]
        asks: [{price: 2001, quantity: 12}, {price: 2002, quantity: 3}]
      KELP:
        bids: [{price: 2020.5, quantity: 4}]
  - timestamp: 100
    books:
      SQUID_INK:
        asks: [{price: 2003, quantity: 1}]
      EMPTY: {}
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "squid-rally", sc.Name)
	require.Len(t, sc.Ticks, 2)
	assert.Equal(t, int64(100), sc.Ticks[1].Timestamp)
	assert.Equal(t, []Level{{Price: 2001, Quantity: 12}, {Price: 2002, Quantity: 3}}, sc.Ticks[0].Books["SQUID_INK"].Asks)
	assert.Equal(t, []Level{{Price: 2020.5, Quantity: 4}}, sc.Ticks[0].Books["KELP"].Bids)
	assert.Empty(t, sc.Ticks[1].Books["SQUID_INK"].Bids)
	assert.Equal(t, []string{"EMPTY", "KELP", "SQUID_INK"}, sc.Products())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "ticks: [\n"},
		{"no ticks", "name: x\n"},
		{"timestamps not increasing", `
ticks:
  - timestamp: 5
  - timestamp: 5
`},
		{"zero price", `
ticks:
  - timestamp: 0
    books:
      KELP:
        bids: [{price: 0, quantity: 1}]
`},
		{"zero quantity", `
ticks:
  - timestamp: 0
    books:
      KELP:
        asks: [{price: 10, quantity: 0}]
`},
		{"crossed book", `
ticks:
  - timestamp: 0
    books:
      KELP:
        bids: [{price: 12, quantity: 5}]
        asks: [{price: 10, quantity: 5}]
`},
		{"locked book", `
ticks:
  - timestamp: 0
    books:
      KELP:
        bids: [{price: 9, quantity: 5}, {price: 11, quantity: 1}]
        asks: [{price: 13, quantity: 5}, {price: 11, quantity: 2}]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestBook_Spread(t *testing.T) {
	book := Book{
		Bids: []Level{{Price: 9, Quantity: 1}, {Price: 10, Quantity: 1}},
		Asks: []Level{{Price: 13, Quantity: 1}, {Price: 12, Quantity: 1}},
	}
	bid, ask, ok := book.Spread()
	assert.True(t, ok)
	assert.Equal(t, 10.0, bid)
	assert.Equal(t, 12.0, ask)

	_, _, ok = Book{Bids: book.Bids}.Spread()
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unnamed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ticks:\n  - timestamp: 0\n"), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, sc.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
