// Package store journals replay runs to SQLite: the trader data handed back
// on every tick and the fills the exchange booked, so a run can be inspected
// afterwards or resumed from its last persisted state.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tickbot/internal/common"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ticks (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	timestamp   INTEGER NOT NULL,
	trader_data TEXT NOT NULL,
	orders      INTEGER NOT NULL,
	PRIMARY KEY (run_id, timestamp)
);
CREATE TABLE IF NOT EXISTS fills (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	timestamp  INTEGER NOT NULL,
	symbol     TEXT NOT NULL,
	price      REAL NOT NULL,
	quantity   INTEGER NOT NULL,
	buyer      TEXT NOT NULL,
	seller     TEXT NOT NULL,
	taker_side INTEGER NOT NULL
);
`

// TickRecord is what the journal keeps per processed tick.
type TickRecord struct {
	RunID      string
	Timestamp  int64
	TraderData string
	Orders     int
}

// FillRecord is a trade booked during a run, stamped with the tick it
// happened on.
type FillRecord struct {
	RunID     string
	Timestamp int64
	Trade     common.Trade
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and makes sure the
// schema exists. ":memory:" gives a throwaway journal.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun registers a new run and returns its id.
func (s *Store) CreateRun(ctx context.Context, name string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

func (s *Store) SaveTick(ctx context.Context, rec TickRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ticks (run_id, timestamp, trader_data, orders) VALUES (?, ?, ?, ?)`,
		rec.RunID, rec.Timestamp, rec.TraderData, rec.Orders)
	if err != nil {
		return fmt.Errorf("save tick %d: %w", rec.Timestamp, err)
	}
	return nil
}

func (s *Store) SaveFill(ctx context.Context, runID string, timestamp int64, trade common.Trade) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fills (run_id, timestamp, symbol, price, quantity, buyer, seller, taker_side)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, timestamp, trade.Symbol, trade.Price, int64(trade.Quantity),
		trade.Buyer, trade.Seller, int(trade.TakerSide))
	if err != nil {
		return fmt.Errorf("save fill: %w", err)
	}
	return nil
}

// LatestTraderData returns the trader data of the run's last journaled tick,
// or an empty string when nothing was journaled yet.
func (s *Store) LatestTraderData(ctx context.Context, runID string) (string, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT trader_data FROM ticks WHERE run_id = ? ORDER BY timestamp DESC LIMIT 1`,
		runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest trader data: %w", err)
	}
	return data, nil
}

// Ticks lists the run's journaled ticks in timestamp order.
func (s *Store) Ticks(ctx context.Context, runID string) ([]TickRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, trader_data, orders FROM ticks WHERE run_id = ? ORDER BY timestamp`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("list ticks: %w", err)
	}
	defer rows.Close()

	var out []TickRecord
	for rows.Next() {
		rec := TickRecord{RunID: runID}
		if err := rows.Scan(&rec.Timestamp, &rec.TraderData, &rec.Orders); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Fills lists the run's fills in booking order.
func (s *Store) Fills(ctx context.Context, runID string) ([]FillRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, symbol, price, quantity, buyer, seller, taker_side
		 FROM fills WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("list fills: %w", err)
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var (
			rec  = FillRecord{RunID: runID}
			qty  int64
			side int
		)
		if err := rows.Scan(&rec.Timestamp, &rec.Trade.Symbol, &rec.Trade.Price, &qty,
			&rec.Trade.Buyer, &rec.Trade.Seller, &side); err != nil {
			return nil, err
		}
		rec.Trade.Quantity = uint64(qty)
		rec.Trade.TakerSide = common.Side(side)
		out = append(out, rec)
	}
	return out, rows.Err()
}
