/*

This file contains the on-chain position reader. The holding contract keeps
the live range, capital and rebalance count in its global state; a fresh
snapshot is read at the start of every cycle.

Prices are stored in milli units and capital in cents, so the raw values are
scaled back to floats on the way out.

*/

package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/rs/zerolog"

	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/types"
	"github.com/Div1912/Ageis/internal/utils"
)

// Global state keys written by the holding contract.
const (
	keyEntryPrice      = "entry_price"
	keyLowerBound      = "lower_bound"
	keyUpperBound      = "upper_bound"
	keyCapital         = "capital_usdc"
	keyTotalRebalances = "total_rebalances"
	keyOpenTimestamp   = "open_timestamp"
)

// tealTypeUint marks a uint value in the contract's global state encoding.
const tealTypeUint = 2

// DefaultPosition is the snapshot assumed before the first successful chain
// read. It matches the position the holding contract is initialized with.
var DefaultPosition = types.PositionSnapshot{
	EntryPrice: 0.172,
	LowerBound: 0.140,
	UpperBound: 0.220,
	Capital:    5000,
}

// PositionReader reads the position snapshot from the holding contract's
// global state. A failed read falls back to the last good snapshot so a
// transient node outage does not stall the monitoring loop.
type PositionReader struct {
	logger zerolog.Logger
	client *algod.Client
	appID  uint64

	mu       sync.Mutex
	lastGood types.PositionSnapshot
	haveGood bool
}

// NewPositionReader creates a reader for the given holding application.
func NewPositionReader(client *algod.Client, appID uint64) (*PositionReader, error) {
	if client == nil {
		return nil, fmt.Errorf("chain: node client is required")
	}
	if appID == 0 {
		return nil, fmt.Errorf("chain: holding app id is required")
	}
	return &PositionReader{
		logger: logger.GetForComponent("position_reader"),
		client: client,
		appID:  appID,
	}, nil
}

// ReadPosition returns the current snapshot. On a failed or unparsable read
// it returns the last good snapshot, or DefaultPosition if none exists yet.
func (r *PositionReader) ReadPosition(ctx context.Context) (types.PositionSnapshot, error) {
	app, err := r.client.GetApplicationByID(r.appID).Do(ctx)
	if err != nil {
		fallback := r.fallback()
		r.logger.Warn().Err(err).Uint64("app_id", r.appID).
			Msg("Chain read failed, using last known position")
		return fallback, nil
	}

	pos, err := parseGlobalState(app.Params.GlobalState)
	if err != nil {
		fallback := r.fallback()
		r.logger.Warn().Err(err).Uint64("app_id", r.appID).
			Msg("Global state unparsable, using last known position")
		return fallback, nil
	}

	r.mu.Lock()
	r.lastGood = pos
	r.haveGood = true
	r.mu.Unlock()
	return pos, nil
}

func (r *PositionReader) fallback() types.PositionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.haveGood {
		return r.lastGood
	}
	return DefaultPosition
}

// parseGlobalState decodes the holding contract's key-value pairs into a
// snapshot. Missing keys fall back to the defaults so a partially
// initialized contract still yields a usable position.
func parseGlobalState(kvs []models.TealKeyValue) (types.PositionSnapshot, error) {
	pos := DefaultPosition

	for _, kv := range kvs {
		key, err := base64.StdEncoding.DecodeString(kv.Key)
		if err != nil {
			return types.PositionSnapshot{}, fmt.Errorf("decode state key %q: %w", kv.Key, err)
		}
		if kv.Value.Type != tealTypeUint {
			continue
		}
		v := kv.Value.Uint

		switch string(key) {
		case keyEntryPrice:
			pos.EntryPrice = utils.MilliToPrice(v)
		case keyLowerBound:
			pos.LowerBound = utils.MilliToPrice(v)
		case keyUpperBound:
			pos.UpperBound = utils.MilliToPrice(v)
		case keyCapital:
			pos.Capital = utils.CentsToCapital(v)
		case keyTotalRebalances:
			pos.RebalanceCount = v
		case keyOpenTimestamp:
			pos.OpenedAt = time.Unix(int64(v), 0).UTC()
		}
	}

	if err := pos.Validate(); err != nil {
		return types.PositionSnapshot{}, fmt.Errorf("invalid on-chain position: %w", err)
	}
	return pos, nil
}
