package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"

	"loot-tracker/pkg/core"
)

const (
	DefaultRegion    = "SEA"
	DefaultSearchURL = "https://apiv2.bdolytics.com/en/{region}/db/query-extended"
	DefaultDetailURL = "https://bdolytics.com/api/trpc/database.getEntity"
	DefaultMarketURL = "https://apiv2.bdolytics.com/market/analytics/{id}"

	maxResponseBytes = 4 << 20
)

// Bdolytics prices items through the public bdolytics database and market API.
type Bdolytics struct {
	client        *http.Client
	region        string
	searchURL     string
	detailURL     string
	marketURL     string
	maxTries      uint
	retryInterval time.Duration
	now           func() time.Time
	log           core.Logger
}

type BdolyticsOption func(*Bdolytics)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) BdolyticsOption {
	return func(b *Bdolytics) { b.client = c }
}

// WithRegion selects the market region, e.g. "SEA", "NA", "EU".
func WithRegion(region string) BdolyticsOption {
	return func(b *Bdolytics) {
		if region != "" {
			b.region = region
		}
	}
}

// WithEndpoints overrides the API endpoints. The search URL may contain
// {region}; the market URL must contain {id}. Empty values keep defaults.
func WithEndpoints(search, detail, market string) BdolyticsOption {
	return func(b *Bdolytics) {
		if search != "" {
			b.searchURL = search
		}
		if detail != "" {
			b.detailURL = detail
		}
		if market != "" {
			b.marketURL = market
		}
	}
}

// WithRetry sets how many attempts a request gets and the first backoff interval.
func WithRetry(maxTries uint, interval time.Duration) BdolyticsOption {
	return func(b *Bdolytics) {
		b.maxTries = maxTries
		b.retryInterval = interval
	}
}

func NewBdolytics(log core.Logger, opts ...BdolyticsOption) *Bdolytics {
	b := &Bdolytics{
		client:        &http.Client{Timeout: 10 * time.Second},
		region:        DefaultRegion,
		searchURL:     DefaultSearchURL,
		detailURL:     DefaultDetailURL,
		marketURL:     DefaultMarketURL,
		maxTries:      3,
		retryInterval: 500 * time.Millisecond,
		now:           time.Now,
		log:           log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Lookup searches the item id, then reads its vendor prices and, when the
// item is tradeable, yesterday's market price.
func (b *Bdolytics) Lookup(ctx context.Context, name string) (Item, error) {
	id, err := b.searchID(ctx, name)
	if err != nil {
		return Item{}, &LookupError{Name: name, Err: fmt.Errorf("failed to search id by name: %w", err)}
	}

	detail, err := b.getJSON(ctx, b.detailRequestURL(id))
	if err != nil {
		return Item{}, &LookupError{Name: name, Err: fmt.Errorf("failed to find item detail: %w", err)}
	}
	if detail.Get("error").Exists() {
		return Item{}, &LookupError{Name: name, Err: fmt.Errorf("item detail request was not successful")}
	}
	data := detail.Get("result.data")

	item := Item{
		ID:              id,
		Name:            name,
		VendorBuyPrice:  data.Get("buy_price").Uint(),
		VendorSellPrice: data.Get("sell_price").Uint(),
	}
	// raw silver is worth exactly its face value
	if name == "Silver" {
		item.VendorSellPrice = 1
	}

	if data.Get("has_market_data").Bool() {
		price, err := b.marketPrice(ctx, id)
		if err != nil {
			return Item{}, &LookupError{Name: name, Err: fmt.Errorf("failed to get item market data: %w", err)}
		}
		item.MarketBuyPrice = price
		item.MarketSellPrice = price
	}

	b.log.Debug("Priced item",
		"name", name,
		"id", id,
		"vendor_sell", item.VendorSellPrice,
		"market_sell", item.MarketSellPrice)
	return item, nil
}

type searchHit struct {
	id    uint64
	grade int64
}

func (b *Bdolytics) searchID(ctx context.Context, name string) (uint64, error) {
	u := strings.ReplaceAll(b.searchURL, "{region}", url.PathEscape(b.region)) +
		"?" + url.Values{"q": {name}}.Encode()
	res, err := b.getJSON(ctx, u)
	if err != nil {
		return 0, err
	}
	if !res.Get("status.success").Bool() {
		return 0, fmt.Errorf("search request was not successful")
	}

	var hits []searchHit
	res.Get("data").ForEach(func(_, v gjson.Result) bool {
		if v.Get("db_type").String() == "item" && v.Get("name").String() == name {
			hits = append(hits, searchHit{id: v.Get("id").Uint(), grade: v.Get("grade_type").Int()})
		}
		return true
	})
	if len(hits) == 0 {
		return 0, ErrItemNotFound
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].id < hits[j].id })

	// graded duplicates share a name; the highest id is the tradeable one
	hit := hits[0]
	if hit.grade != 0 {
		hit = hits[len(hits)-1]
	}
	return hit.id, nil
}

func (b *Bdolytics) detailRequestURL(id uint64) string {
	input := fmt.Sprintf(`{"id":%d,"dbType":"item","region":%q,"language":"en"}`, id, b.region)
	return b.detailURL + "?" + url.Values{"input": {input}}.Encode()
}

func (b *Bdolytics) marketPrice(ctx context.Context, id uint64) (uint64, error) {
	end := b.now()
	start := end.Add(-24 * time.Hour)
	q := url.Values{
		"start_date":        {strconv.FormatInt(start.UnixMilli(), 10)},
		"end_date":          {strconv.FormatInt(end.UnixMilli(), 10)},
		"region":            {b.region},
		"enhancement_level": {"0"},
	}
	u := strings.ReplaceAll(b.marketURL, "{id}", strconv.FormatUint(id, 10)) + "?" + q.Encode()

	res, err := b.getJSON(ctx, u)
	if err != nil {
		return 0, err
	}
	if res.Get("error").Exists() {
		return 0, fmt.Errorf("market request was not successful")
	}
	// each trade is a [id, price, volume, stock] tuple
	price := res.Get("data.0.1")
	if !price.Exists() {
		return 0, fmt.Errorf("no market trades for item %d", id)
	}
	return price.Uint(), nil
}

func (b *Bdolytics) getJSON(ctx context.Context, u string) (gjson.Result, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.retryInterval

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := b.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(b.maxTries))
	if err != nil {
		return gjson.Result{}, err
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("invalid JSON response from %s", u)
	}
	return gjson.ParseBytes(body), nil
}
