package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loot-tracker/pkg/logger"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *Bdolytics {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBdolytics(logger.Nop(),
		WithHTTPClient(srv.Client()),
		WithRegion("SEA"),
		WithEndpoints(srv.URL+"/en/{region}/search", srv.URL+"/detail", srv.URL+"/market/{id}"),
		WithRetry(3, time.Millisecond),
	)
}

func TestBdolyticsLookupMarketItem(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/en/SEA/search":
			assert.Equal(t, "Black Stone", r.URL.Query().Get("q"))
			fmt.Fprint(w, `{"status":{"success":true},"data":[
				{"id":16002,"name":"Black Stone","db_type":"item","grade_type":0},
				{"id":16001,"name":"Black Stone","db_type":"item","grade_type":0},
				{"id":1,"name":"Black Stone","db_type":"npc"}]}`)
		case r.URL.Path == "/detail":
			assert.Contains(t, r.URL.Query().Get("input"), `"id":16001`)
			fmt.Fprint(w, `{"result":{"data":{"buy_price":0,"sell_price":100,"has_market_data":true}}}`)
		case r.URL.Path == "/market/16001":
			assert.Equal(t, "SEA", r.URL.Query().Get("region"))
			assert.Equal(t, "0", r.URL.Query().Get("enhancement_level"))
			fmt.Fprint(w, `{"data":[[1,225000,10,20]]}`)
		default:
			http.NotFound(w, r)
		}
	})

	item, err := client.Lookup(context.Background(), "Black Stone")
	require.NoError(t, err)
	assert.Equal(t, uint64(16001), item.ID)
	assert.Equal(t, uint64(100), item.VendorSellPrice)
	assert.Equal(t, uint64(225000), item.MarketSellPrice)
	assert.EqualValues(t, 225000, item.UnitPrice())
}

func TestBdolyticsGradedItemTakesHighestID(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			fmt.Fprint(w, `{"status":{"success":true},"data":[
				{"id":10,"name":"Ancient Relic Crystal Shard","db_type":"item","grade_type":2},
				{"id":30,"name":"Ancient Relic Crystal Shard","db_type":"item","grade_type":2},
				{"id":20,"name":"Ancient Relic Crystal Shard","db_type":"item","grade_type":2}]}`)
		case r.URL.Path == "/detail":
			assert.Contains(t, r.URL.Query().Get("input"), `"id":30`)
			fmt.Fprint(w, `{"result":{"data":{"buy_price":0,"sell_price":5000,"has_market_data":false}}}`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	})

	item, err := client.Lookup(context.Background(), "Ancient Relic Crystal Shard")
	require.NoError(t, err)
	assert.Equal(t, uint64(30), item.ID)
	assert.EqualValues(t, 5000, item.UnitPrice())
}

func TestBdolyticsSilverIsFaceValue(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			fmt.Fprint(w, `{"status":{"success":true},"data":[{"id":1,"name":"Silver","db_type":"item"}]}`)
		case r.URL.Path == "/detail":
			fmt.Fprint(w, `{"result":{"data":{"buy_price":0,"sell_price":0,"has_market_data":false}}}`)
		}
	})

	item, err := client.Lookup(context.Background(), "Silver")
	require.NoError(t, err)
	assert.EqualValues(t, 1, item.UnitPrice())
}

func TestBdolyticsNotFound(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":{"success":true},"data":[]}`)
	})

	_, err := client.Lookup(context.Background(), "Nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrItemNotFound))

	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "Nonexistent", lookupErr.Name)
}

func TestBdolyticsDetailError(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/search") {
			fmt.Fprint(w, `{"status":{"success":true},"data":[{"id":5,"name":"Trace","db_type":"item"}]}`)
			return
		}
		fmt.Fprint(w, `{"error":{"message":"not found"}}`)
	})

	_, err := client.Lookup(context.Background(), "Trace")
	require.Error(t, err)
}

func TestBdolyticsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/search") {
			fmt.Fprint(w, `{"result":{"data":{"sell_price":7,"has_market_data":false}}}`)
			return
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"status":{"success":true},"data":[{"id":9,"name":"Flax","db_type":"item"}]}`)
	})

	item, err := client.Lookup(context.Background(), "Flax")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.EqualValues(t, 7, item.UnitPrice())
}

func TestBdolyticsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Lookup(context.Background(), "Flax")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
