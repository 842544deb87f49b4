package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when no record exists for the name.
var ErrNotFound = errors.New("price record not found")

const DefaultPath = "~/.local/share/loot-tracker/prices.db"

type DB struct {
	db *sql.DB
}

// PriceRecord is one cached catalog lookup.
type PriceRecord struct {
	Name       string
	ItemID     uint64
	VendorBuy  uint64
	VendorSell uint64
	MarketBuy  uint64
	MarketSell uint64
	FetchedAt  time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS prices (
    name TEXT PRIMARY KEY,
    item_id INTEGER NOT NULL,
    vendor_buy INTEGER NOT NULL,
    vendor_sell INTEGER NOT NULL,
    market_buy INTEGER NOT NULL,
    market_sell INTEGER NOT NULL,
    fetched_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prices_fetched_at ON prices(fetched_at);
`

// New opens (creating if needed) the price cache at path. "~" expands to the home directory.
func New(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = strings.Replace(path, "~", homeDir, 1)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Get returns the cached record for name or ErrNotFound.
func (d *DB) Get(ctx context.Context, name string) (PriceRecord, error) {
	query := `
        SELECT name, item_id, vendor_buy, vendor_sell, market_buy, market_sell, fetched_at
        FROM prices
        WHERE name = ?
    `

	var rec PriceRecord
	var fetchedAt int64
	err := d.db.QueryRowContext(ctx, query, name).Scan(
		&rec.Name, &rec.ItemID, &rec.VendorBuy, &rec.VendorSell,
		&rec.MarketBuy, &rec.MarketSell, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PriceRecord{}, ErrNotFound
	}
	if err != nil {
		return PriceRecord{}, fmt.Errorf("failed to query price: %w", err)
	}
	rec.FetchedAt = time.Unix(fetchedAt, 0)
	return rec, nil
}

// Put inserts or replaces the record for rec.Name.
func (d *DB) Put(ctx context.Context, rec PriceRecord) error {
	query := `
		INSERT INTO prices (
			name, item_id, vendor_buy, vendor_sell, market_buy, market_sell, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			item_id = excluded.item_id,
			vendor_buy = excluded.vendor_buy,
			vendor_sell = excluded.vendor_sell,
			market_buy = excluded.market_buy,
			market_sell = excluded.market_sell,
			fetched_at = excluded.fetched_at
	`

	_, err := d.db.ExecContext(ctx, query,
		rec.Name, rec.ItemID, rec.VendorBuy, rec.VendorSell,
		rec.MarketBuy, rec.MarketSell, rec.FetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}
	return nil
}

// Names lists every cached item name, alphabetically.
func (d *DB) Names(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM prices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RemoveOlderThan deletes records fetched before cutoff and reports how many went.
func (d *DB) RemoveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM prices WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete prices: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted prices: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}
