package chain

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintKV(key string, v uint64) models.TealKeyValue {
	return models.TealKeyValue{
		Key:   base64.StdEncoding.EncodeToString([]byte(key)),
		Value: models.TealValue{Type: tealTypeUint, Uint: v},
	}
}

func TestParseGlobalState(t *testing.T) {
	opened := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

	pos, err := parseGlobalState([]models.TealKeyValue{
		uintKV(keyEntryPrice, 172),
		uintKV(keyLowerBound, 140),
		uintKV(keyUpperBound, 220),
		uintKV(keyCapital, 500000),
		uintKV(keyTotalRebalances, 3),
		uintKV(keyOpenTimestamp, uint64(opened.Unix())),
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.172, pos.EntryPrice, 1e-9)
	assert.InDelta(t, 0.140, pos.LowerBound, 1e-9)
	assert.InDelta(t, 0.220, pos.UpperBound, 1e-9)
	assert.InDelta(t, 5000.0, pos.Capital, 1e-9)
	assert.Equal(t, uint64(3), pos.RebalanceCount)
	assert.Equal(t, opened, pos.OpenedAt)
}

func TestParseGlobalStateMissingKeysUseDefaults(t *testing.T) {
	pos, err := parseGlobalState([]models.TealKeyValue{
		uintKV(keyCapital, 250000),
	})
	require.NoError(t, err)

	assert.InDelta(t, 2500.0, pos.Capital, 1e-9)
	assert.InDelta(t, DefaultPosition.LowerBound, pos.LowerBound, 1e-9)
	assert.InDelta(t, DefaultPosition.UpperBound, pos.UpperBound, 1e-9)
}

func TestParseGlobalStateIgnoresUnknownAndByteValues(t *testing.T) {
	pos, err := parseGlobalState([]models.TealKeyValue{
		uintKV("manager_version", 7),
		{
			Key:   base64.StdEncoding.EncodeToString([]byte(keyLowerBound)),
			Value: models.TealValue{Type: 1, Bytes: "bm90LWEtcHJpY2U="},
		},
		uintKV(keyUpperBound, 220),
	})
	require.NoError(t, err)

	// The byte-typed lower bound is skipped, leaving the default.
	assert.InDelta(t, DefaultPosition.LowerBound, pos.LowerBound, 1e-9)
	assert.InDelta(t, 0.220, pos.UpperBound, 1e-9)
}

func TestParseGlobalStateRejectsInvertedBounds(t *testing.T) {
	_, err := parseGlobalState([]models.TealKeyValue{
		uintKV(keyLowerBound, 300),
		uintKV(keyUpperBound, 200),
	})
	require.Error(t, err)
}

func TestParseGlobalStateRejectsBadKeyEncoding(t *testing.T) {
	_, err := parseGlobalState([]models.TealKeyValue{
		{Key: "!!not-base64!!", Value: models.TealValue{Type: tealTypeUint, Uint: 1}},
	})
	require.Error(t, err)
}
