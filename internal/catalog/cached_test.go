package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loot-tracker/internal/storage"
	"loot-tracker/pkg/logger"
)

type countingCatalog struct {
	items map[string]Item
	calls map[string]int
}

func (c *countingCatalog) Lookup(_ context.Context, name string) (Item, error) {
	c.calls[name]++
	item, ok := c.items[name]
	if !ok {
		return Item{}, &LookupError{Name: name, Err: ErrItemNotFound}
	}
	return item, nil
}

func newCachedForTest(t *testing.T, upstream Catalog) (*Cached, *time.Time) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "prices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Unix(1_700_000_000, 0)
	c := NewCached(upstream, db, time.Hour, logger.Nop())
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCachedServesFreshRecords(t *testing.T) {
	upstream := &countingCatalog{
		items: map[string]Item{"Flax": {ID: 9, Name: "Flax", VendorSellPrice: 7}},
		calls: map[string]int{},
	}
	c, now := newCachedForTest(t, upstream)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		item, err := c.Lookup(ctx, "Flax")
		require.NoError(t, err)
		assert.EqualValues(t, 7, item.UnitPrice())
	}
	assert.Equal(t, 1, upstream.calls["Flax"])

	*now = now.Add(2 * time.Hour)
	_, err := c.Lookup(ctx, "Flax")
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls["Flax"])
}

func TestCachedRemembersMisses(t *testing.T) {
	upstream := &countingCatalog{items: map[string]Item{}, calls: map[string]int{}}
	c, _ := newCachedForTest(t, upstream)
	ctx := context.Background()

	_, err := c.Lookup(ctx, "Nonexistent")
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = c.Lookup(ctx, "Nonexistent")
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, 1, upstream.calls["Nonexistent"])
}

func TestCachedPrune(t *testing.T) {
	upstream := &countingCatalog{
		items: map[string]Item{"Flax": {ID: 9, Name: "Flax", VendorSellPrice: 7}},
		calls: map[string]int{},
	}
	c, now := newCachedForTest(t, upstream)
	ctx := context.Background()

	_, err := c.Lookup(ctx, "Flax")
	require.NoError(t, err)

	*now = now.Add(3 * time.Hour)
	require.NoError(t, c.Prune(ctx))

	_, err = c.store.Get(ctx, "Flax")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
