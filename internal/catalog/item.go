// Package catalog looks up item ids and unit prices by item name.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"loot-tracker/internal/loot"
)

// ErrItemNotFound is returned when the catalog has no item with that exact name.
var ErrItemNotFound = errors.New("item not found")

// Item is the catalog view of one tradeable item.
type Item struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	VendorBuyPrice  uint64 `json:"vendor_buy_price"`
	VendorSellPrice uint64 `json:"vendor_sell_price"`
	MarketBuyPrice  uint64 `json:"market_buy_price"`
	MarketSellPrice uint64 `json:"market_sell_price"`
}

// UnitPrice prefers the market sell price and falls back to the vendor price.
func (i Item) UnitPrice() loot.Silver {
	if i.MarketSellPrice > 0 {
		return loot.Silver(i.MarketSellPrice)
	}
	return loot.Silver(i.VendorSellPrice)
}

// Catalog resolves an item name to its catalog entry.
type Catalog interface {
	Lookup(ctx context.Context, name string) (Item, error)
}

// LookupError wraps any failure to price a single item.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("catalog lookup %q: %v", e.Name, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
