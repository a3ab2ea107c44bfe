package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPriceFromFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"price": "0.1834"}`))
	}))
	defer srv.Close()

	r, err := NewReader(srv.URL, 0.18, nil)
	require.NoError(t, err)

	quote := r.ReadPrice(context.Background())
	assert.InDelta(t, 0.1834, quote.Price, 1e-9)
	assert.Equal(t, SourceFeed, quote.Source)
	assert.False(t, quote.ObservedAt.IsZero())
}

func TestReadPriceFromCandleList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"close": "0.1790"}, {"close": "0.1812"}]`))
	}))
	defer srv.Close()

	r, err := NewReader(srv.URL, 0.18, nil)
	require.NoError(t, err)

	quote := r.ReadPrice(context.Background())
	assert.InDelta(t, 0.1812, quote.Price, 1e-9, "the most recent close should win")
	assert.Equal(t, SourceFeed, quote.Source)
}

func TestReadPriceFallsBackWhenFeedDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r, err := NewReader(srv.URL, 0.18, nil)
	require.NoError(t, err)

	quote := r.ReadPrice(context.Background())
	assert.InDelta(t, 0.18, quote.Price, 1e-9)
	assert.Equal(t, SourceFallback, quote.Source)
}

func TestReadPriceRejectsNonPositive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"price": "0"}`))
	}))
	defer srv.Close()

	r, err := NewReader(srv.URL, 0.18, nil)
	require.NoError(t, err)

	quote := r.ReadPrice(context.Background())
	assert.Equal(t, SourceFallback, quote.Source)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, err := NewReader(srv.URL, 0.18, nil)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		quote := r.ReadPrice(context.Background())
		assert.Equal(t, SourceFallback, quote.Source)
	}
	// After three consecutive failures the breaker opens and stops
	// hitting the endpoint.
	assert.Equal(t, 3, hits)
}

func TestParsePriceErrors(t *testing.T) {
	for _, body := range []string{"", "[]", "not json", `{"volume": "12"}`} {
		_, err := parsePrice([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}
