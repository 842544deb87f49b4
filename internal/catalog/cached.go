package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"loot-tracker/internal/storage"
	"loot-tracker/pkg/core"
)

// PriceStore persists lookups between runs. *storage.DB implements it.
type PriceStore interface {
	Get(ctx context.Context, name string) (storage.PriceRecord, error)
	Put(ctx context.Context, rec storage.PriceRecord) error
	RemoveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cached serves lookups from a PriceStore and falls through to the
// upstream catalog when a record is missing or older than ttl.
type Cached struct {
	upstream Catalog
	store    PriceStore
	ttl      time.Duration
	now      func() time.Time
	log      core.Logger

	mu     sync.Mutex
	misses map[string]time.Time
}

func NewCached(upstream Catalog, store PriceStore, ttl time.Duration, log core.Logger) *Cached {
	return &Cached{
		upstream: upstream,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		log:      log,
		misses:   make(map[string]time.Time),
	}
}

func (c *Cached) Lookup(ctx context.Context, name string) (Item, error) {
	now := c.now()

	rec, err := c.store.Get(ctx, name)
	switch {
	case err == nil && now.Sub(rec.FetchedAt) < c.ttl:
		return fromRecord(rec), nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		c.log.Warn("Price cache read failed", "name", name, "error", err)
	}

	// names the catalog does not know are remembered in memory only
	c.mu.Lock()
	missedAt, missed := c.misses[name]
	c.mu.Unlock()
	if missed && now.Sub(missedAt) < c.ttl {
		return Item{}, &LookupError{Name: name, Err: ErrItemNotFound}
	}

	item, err := c.upstream.Lookup(ctx, name)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			c.mu.Lock()
			c.misses[name] = now
			c.mu.Unlock()
		}
		return Item{}, err
	}

	if err := c.store.Put(ctx, toRecord(item, now)); err != nil {
		c.log.Warn("Price cache write failed", "name", name, "error", err)
	}
	return item, nil
}

// Prune drops records older than ttl from the store.
func (c *Cached) Prune(ctx context.Context) error {
	n, err := c.store.RemoveOlderThan(ctx, c.now().Add(-c.ttl))
	if err != nil {
		return fmt.Errorf("failed to prune price cache: %w", err)
	}
	if n > 0 {
		c.log.Debug("Pruned price cache", "removed", n)
	}
	return nil
}

func toRecord(item Item, at time.Time) storage.PriceRecord {
	return storage.PriceRecord{
		Name:       item.Name,
		ItemID:     item.ID,
		VendorBuy:  item.VendorBuyPrice,
		VendorSell: item.VendorSellPrice,
		MarketBuy:  item.MarketBuyPrice,
		MarketSell: item.MarketSellPrice,
		FetchedAt:  at,
	}
}

func fromRecord(rec storage.PriceRecord) Item {
	return Item{
		ID:              rec.ItemID,
		Name:            rec.Name,
		VendorBuyPrice:  rec.VendorBuy,
		VendorSellPrice: rec.VendorSell,
		MarketBuyPrice:  rec.MarketBuy,
		MarketSellPrice: rec.MarketSell,
	}
}
