package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Div1912/Ageis/internal/agent"
	"github.com/Div1912/Ageis/internal/types"
)

type fakeSource struct {
	status    agent.Status
	decisions []types.DecisionLogEntry
	readErr   error
}

func (f *fakeSource) Status() agent.Status { return f.status }

func (f *fakeSource) CurrentPosition() types.PositionSnapshot { return f.status.Position }

func (f *fakeSource) RecentDecisions(_ context.Context, n int) ([]types.DecisionLogEntry, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if len(f.decisions) > n {
		return f.decisions[len(f.decisions)-n:], nil
	}
	return f.decisions, nil
}

func newTestServer(source *fakeSource) *httptest.Server {
	ws := NewWebServer("0", source)
	return httptest.NewServer(ws.router)
}

func TestHealthEndpoint(t *testing.T) {
	source := &fakeSource{status: agent.Status{
		CycleCount:  3,
		LastCycleAt: time.Now().UTC(),
		LastAction:  types.ActionHold,
	}}
	srv := newTestServer(source)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["cycle_count"])
}

func TestHealthReportsStalledLoop(t *testing.T) {
	source := &fakeSource{status: agent.Status{
		CycleCount:  5,
		LastCycleAt: time.Now().UTC().Add(-30 * time.Minute),
	}}
	srv := newTestServer(source)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatusAndPositionEndpoints(t *testing.T) {
	source := &fakeSource{status: agent.Status{
		CycleCount: 2,
		LastPrice:  0.18,
		LastAction: types.ActionHold,
		Position: types.PositionSnapshot{
			LowerBound: 0.140, UpperBound: 0.220, Capital: 5000,
		},
	}}
	srv := newTestServer(source)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status agent.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.InDelta(t, 0.18, status.LastPrice, 1e-9)

	resp, err = http.Get(srv.URL + "/api/position")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pos types.PositionSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pos))
	assert.InDelta(t, 5000.0, pos.Capital, 1e-9)
}

func TestDecisionsEndpoint(t *testing.T) {
	source := &fakeSource{decisions: []types.DecisionLogEntry{
		{CycleID: "cycle-1", Action: types.ActionHold},
		{CycleID: "cycle-2", Action: types.ActionRebalance, ExecutionID: "TXABC"},
	}}
	srv := newTestServer(source)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/decisions?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count     int                      `json:"count"`
		Decisions []types.DecisionLogEntry `json:"decisions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Decisions, 1)
	assert.Equal(t, "cycle-2", body.Decisions[0].CycleID)
}

func TestDecisionsEndpointRejectsBadLimit(t *testing.T) {
	srv := newTestServer(&fakeSource{})
	defer srv.Close()

	for _, limit := range []string{"0", "-5", "abc", "5000"} {
		resp, err := http.Get(srv.URL + "/api/decisions?limit=" + limit)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit %q", limit)
	}
}
