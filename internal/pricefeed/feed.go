/*

This file contains the market price reader. The feed endpoint sits behind a
circuit breaker; when it is down or the breaker is open, the reader degrades
to the cached last good price and finally to a configured fallback. A price
is always returned, so a feed outage never stalls the monitoring loop.

*/

package pricefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/types"
)

// Quote sources, recorded on every PriceQuote for the decision log.
const (
	SourceFeed     = "feed"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

const (
	requestTimeout = 8 * time.Second
	cacheKey       = "aegis:last_price"
	cacheTTL       = 24 * time.Hour
	maxBodyBytes   = 1 << 20
)

// Reader fetches the current pool price.
type Reader struct {
	logger   zerolog.Logger
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	cache    *redis.Client
	url      string
	fallback float64
}

// NewReader creates a price reader. The redis client is optional; without it
// the reader degrades straight from feed to fallback.
func NewReader(feedURL string, fallback float64, cache *redis.Client) (*Reader, error) {
	if feedURL == "" {
		return nil, errors.New("pricefeed: feed URL is required")
	}
	if fallback <= 0 {
		return nil, errors.New("pricefeed: fallback price must be positive")
	}

	lg := logger.GetForComponent("price_feed")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "price_feed",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Price feed breaker state changed")
		},
	})

	return &Reader{
		logger:   lg,
		http:     &http.Client{Timeout: requestTimeout},
		breaker:  breaker,
		cache:    cache,
		url:      feedURL,
		fallback: fallback,
	}, nil
}

// ReadPrice returns the freshest price available, never an error: feed,
// then cached last good price, then the configured fallback.
func (r *Reader) ReadPrice(ctx context.Context) types.PriceQuote {
	now := time.Now().UTC()

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.fetch(ctx)
	})
	if err == nil {
		price := result.(float64)
		r.storeLastGood(ctx, price)
		return types.PriceQuote{Price: price, ObservedAt: now, Source: SourceFeed}
	}
	r.logger.Warn().Err(err).Str("url", r.url).Msg("Price feed unavailable")

	if price, ok := r.lastGood(ctx); ok {
		return types.PriceQuote{Price: price, ObservedAt: now, Source: SourceCache}
	}

	r.logger.Warn().Float64("fallback", r.fallback).Msg("No cached price, using fallback")
	return types.PriceQuote{Price: r.fallback, ObservedAt: now, Source: SourceFallback}
}

func (r *Reader) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("query price feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, fmt.Errorf("read feed response: %w", err)
	}

	price, err := parsePrice(body)
	if err != nil {
		return 0, err
	}
	return price, nil
}

// feedQuote matches both feed shapes in the wild: candle endpoints report
// "close", spot endpoints report "price".
type feedQuote struct {
	Price decimal.Decimal `json:"price"`
	Close decimal.Decimal `json:"close"`
}

// parsePrice accepts either a single quote object or a list of candles, in
// which case the most recent close wins.
func parsePrice(body []byte) (float64, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return 0, errors.New("empty feed response")
	}

	var quote feedQuote
	if trimmed[0] == '[' {
		var candles []feedQuote
		if err := json.Unmarshal(trimmed, &candles); err != nil {
			return 0, fmt.Errorf("parse candle list: %w", err)
		}
		if len(candles) == 0 {
			return 0, errors.New("feed returned no candles")
		}
		quote = candles[len(candles)-1]
	} else {
		if err := json.Unmarshal(trimmed, &quote); err != nil {
			return 0, fmt.Errorf("parse quote: %w", err)
		}
	}

	value := quote.Price
	if value.IsZero() {
		value = quote.Close
	}
	if value.Sign() <= 0 {
		return 0, fmt.Errorf("feed price %s is not positive", value)
	}
	return value.InexactFloat64(), nil
}

func (r *Reader) storeLastGood(ctx context.Context, price float64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey, price, cacheTTL).Err(); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to cache price")
	}
}

func (r *Reader) lastGood(ctx context.Context) (float64, bool) {
	if r.cache == nil {
		return 0, false
	}
	price, err := r.cache.Get(ctx, cacheKey).Float64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Debug().Err(err).Msg("Failed to read cached price")
		}
		return 0, false
	}
	if price <= 0 {
		return 0, false
	}
	return price, true
}
