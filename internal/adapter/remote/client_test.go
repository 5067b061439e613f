package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, routes map[string]string) (*httptest.Server, *atomic.Int32) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestStockClient_Success(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"/stock/5": `{"id":5,"amount":3}`})
	client := NewStockClient(Options{BaseURL: srv.URL + "/"})

	stock, err := client.Stock(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stock.ID)
	assert.Equal(t, 3, stock.Amount)
}

func TestStockClient_Failures(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/stock/1": `{"id":1,"amount":-2}`,
		"/stock/2": `{"id":3,"amount":4}`,
		"/stock/3": `{"id":3`,
		"/stock/4": `{"id":4}`,
	})
	client := NewStockClient(Options{BaseURL: srv.URL})
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3, 4} {
		_, err := client.Stock(ctx, id)
		assert.ErrorIs(t, err, ErrMalformedResponse, "product %d", id)
	}

	_, err := client.Stock(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewStockClient(Options{BaseURL: srv.URL}).Stock(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestStockClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewStockClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := client.Stock(context.Background(), 5)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewStockClient(Options{BaseURL: srv.URL, FailureThreshold: 3, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.Stock(ctx, 5)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	}

	_, err := client.Stock(ctx, 5)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), hits.Load())
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	srv, hits := newTestServer(t, nil)
	client := NewStockClient(Options{BaseURL: srv.URL, FailureThreshold: 2})

	for i := 0; i < 5; i++ {
		_, err := client.Stock(context.Background(), 5)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(5), hits.Load())
}

func TestBreaker_CanceledCallersDoNotTrip(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"/stock/5": `{"id":5,"amount":3}`})
	client := NewStockClient(Options{BaseURL: srv.URL, FailureThreshold: 2, OpenTimeout: time.Minute})

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := client.Stock(canceled, 5)
		assert.ErrorIs(t, err, context.Canceled)
	}

	stock, err := client.Stock(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, stock.Amount)
}

func TestCatalogClient_Success(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/products/5": `{"id":5,"title":"Shoe","price":179.9,"image":"https://img/5.jpg"}`,
		"/products/6": `{"id":6,"title":"Boot","price":100,"imageUrl":"https://img/6.jpg"}`,
	})
	client := NewCatalogClient(Options{BaseURL: srv.URL})
	ctx := context.Background()

	p, err := client.Product(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Shoe", p.Title)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("179.9")))
	assert.Equal(t, "https://img/5.jpg", p.ImageURL)
	assert.Zero(t, p.Amount)

	p, err = client.Product(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, "https://img/6.jpg", p.ImageURL)
}

func TestCatalogClient_Failures(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/products/5": `{"id":6,"title":"Wrong"}`,
		"/products/7": `[]`,
	})
	client := NewCatalogClient(Options{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := client.Product(ctx, 5)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = client.Product(ctx, 7)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = client.Product(ctx, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}
