/*

This file contains the monitoring agent: the single actor that owns the
sense, decide, execute, log cycle. One cycle runs at startup and then on
every poll tick; no two cycles ever overlap.

*/

package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Div1912/Ageis/internal/engine"
	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/metrics"
	"github.com/Div1912/Ageis/internal/types"
)

// readTimeout bounds each data read at the start of a cycle.
const readTimeout = 8 * time.Second

// PositionReader supplies the on-chain position snapshot.
type PositionReader interface {
	ReadPosition(ctx context.Context) (types.PositionSnapshot, error)
}

// PriceReader supplies the current pool price. Implementations degrade to a
// cached or fallback price rather than returning an error.
type PriceReader interface {
	ReadPrice(ctx context.Context) types.PriceQuote
}

// PoolStatsReader supplies the pool parameters used for fee projection.
type PoolStatsReader interface {
	ReadPoolStats(ctx context.Context) (types.PoolStats, error)
}

// RebalanceExecutor plans and runs the atomic rebalance group.
type RebalanceExecutor interface {
	BuildRebalanceGroup(price float64, bounds types.Bounds, pos types.PositionSnapshot) (types.AtomicGroup, error)
	Execute(ctx context.Context, group types.AtomicGroup) (string, error)
}

// DecisionRecorder persists one decision log entry per cycle.
type DecisionRecorder interface {
	Record(ctx context.Context, entry types.DecisionLogEntry) error
	ReadRecent(ctx context.Context, n int) ([]types.DecisionLogEntry, error)
}

// Config holds the dependencies for creating a new Agent instance.
type Config struct {
	Position PositionReader
	Price    PriceReader
	Pool     PoolStatsReader
	Executor RebalanceExecutor
	Recorder DecisionRecorder
	Engine   *engine.Engine

	// DryRun evaluates and logs decisions without touching the chain.
	DryRun bool
}

// Status is a point-in-time view of the agent for the web API.
type Status struct {
	CycleCount      int                    `json:"cycle_count"`
	LastCycleAt     time.Time              `json:"last_cycle_at"`
	LastPrice       float64                `json:"last_price"`
	PriceSource     string                 `json:"price_source"`
	LastAction      types.Action           `json:"last_action"`
	LastReason      string                 `json:"last_reason"`
	LastExecutionID string                 `json:"last_execution_id,omitempty"`
	Position        types.PositionSnapshot `json:"position"`
	DryRun          bool                   `json:"dry_run"`
}

// Agent drives the monitoring loop.
type Agent struct {
	logger   zerolog.Logger
	position PositionReader
	price    PriceReader
	pool     PoolStatsReader
	executor RebalanceExecutor
	recorder DecisionRecorder
	engine   *engine.Engine
	dryRun   bool

	cycleCount int

	mu     sync.Mutex
	status Status
}

// New creates an agent with dependency injection.
func New(cfg Config) (*Agent, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("agent configuration validation failed: %w", err)
	}

	a := &Agent{
		logger:   logger.GetForComponent("agent_core"),
		position: cfg.Position,
		price:    cfg.Price,
		pool:     cfg.Pool,
		executor: cfg.Executor,
		recorder: cfg.Recorder,
		engine:   cfg.Engine,
		dryRun:   cfg.DryRun,
	}
	a.status.DryRun = cfg.DryRun

	a.logger.Info().
		Bool("dryRun", a.dryRun).
		Msg("Agent instance created successfully with dependency injection")
	return a, nil
}

func validateConfig(cfg Config) error {
	if cfg.Position == nil {
		return fmt.Errorf("position reader cannot be nil")
	}
	if cfg.Price == nil {
		return fmt.Errorf("price reader cannot be nil")
	}
	if cfg.Pool == nil {
		return fmt.Errorf("pool stats reader cannot be nil")
	}
	if cfg.Recorder == nil {
		return fmt.Errorf("decision recorder cannot be nil")
	}
	if cfg.Engine == nil {
		return fmt.Errorf("decision engine cannot be nil")
	}
	if cfg.Executor == nil && !cfg.DryRun {
		return fmt.Errorf("executor cannot be nil outside dry-run mode")
	}
	return nil
}

// RunLoop starts the monitoring loop with the specified interval.
func (a *Agent) RunLoop(ctx context.Context, interval time.Duration) {
	a.logger.Info().
		Dur("interval", interval).
		Msg("Starting agent monitoring loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	a.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Agent loop stopped due to context cancellation")
			return
		case <-ticker.C:
			a.RunCycle(ctx)
		}
	}
}

// RunCycle executes one complete sense, decide, execute, log cycle. A panic
// in any phase is recovered so a single bad cycle cannot kill the loop.
func (a *Agent) RunCycle(ctx context.Context) {
	cycleStartTime := time.Now()
	a.cycleCount++

	// Unique cycle ID for tracing logs across the entire cycle
	cycleID := uuid.New().String()
	cycleLogger := a.logger.With().Str("cycle_id", cycleID).Int("cycle", a.cycleCount).Logger()

	// Every cycle records exactly one decision log entry, aborted ones
	// included; recorded flips once the entry is written.
	recorded := false
	lastPrice := 0.0

	defer func() {
		if r := recover(); r != nil {
			cycleLogger.Error().Interface("panic", r).Msg("Cycle aborted: recovered from panic")
			if !recorded {
				a.recordAbort(context.WithoutCancel(ctx), cycleLogger, cycleID, cycleStartTime, lastPrice,
					fmt.Sprintf("cycle aborted: panic: %v", r))
			}
		}
		metrics.CyclesTotal.Inc()
		metrics.CycleDuration.Observe(time.Since(cycleStartTime).Seconds())
	}()

	cycleLogger.Info().Msg("--- Starting monitoring cycle ---")

	// --- Step 1: Sense ---
	readCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	pos, err := a.position.ReadPosition(readCtx)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: failed to read position")
		a.recordAbort(context.WithoutCancel(ctx), cycleLogger, cycleID, cycleStartTime, lastPrice,
			fmt.Sprintf("cycle aborted: position read failed: %v", err))
		recorded = true
		return
	}

	quote := a.price.ReadPrice(readCtx)
	lastPrice = quote.Price
	metrics.CurrentPrice.Set(quote.Price)
	metrics.SetPriceSource(quote.Source)

	pool, err := a.pool.ReadPoolStats(readCtx)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: failed to read pool stats")
		a.recordAbort(context.WithoutCancel(ctx), cycleLogger, cycleID, cycleStartTime, lastPrice,
			fmt.Sprintf("cycle aborted: pool stats read failed: %v", err))
		recorded = true
		return
	}

	cycleLogger.Info().
		Float64("price", quote.Price).
		Str("priceSource", quote.Source).
		Float64("lowerBound", pos.LowerBound).
		Float64("upperBound", pos.UpperBound).
		Float64("capital", pos.Capital).
		Msg("Step 1: Market state read")

	// --- Step 2: Decide ---
	decision := a.engine.Evaluate(quote.Price, pos, pool)
	metrics.DecisionsTotal.WithLabelValues(string(decision.Action)).Inc()

	cycleLogger.Info().
		Str("action", string(decision.Action)).
		Str("reason", decision.Reason).
		Float64("confidence", decision.Confidence).
		Msg("Step 2: Decision made")

	// --- Step 3: Execute ---
	// The execute and log phases run detached from the loop context so a
	// shutdown cannot cancel an in-flight submission mid-group.
	execCtx := context.WithoutCancel(ctx)
	executionID := ""

	if decision.Action == types.ActionRebalance {
		if a.dryRun {
			cycleLogger.Info().Msg("Step 3: Dry-run mode, skipping execution")
		} else {
			executionID, err = a.executeRebalance(execCtx, cycleLogger, quote.Price, decision, pos)
			if err != nil {
				cycleLogger.Error().Err(err).Msg("Step 3: Rebalance execution failed, position unchanged")
				metrics.SubmissionFailures.Inc()
				decision.Action = types.ActionSkip
				decision.Reason = decision.Reason + " (reverted)"
			} else {
				metrics.RebalancesSubmitted.Inc()
			}
		}
	}

	// --- Step 4: Log ---
	entry := types.DecisionLogEntry{
		Timestamp:           cycleStartTime.UTC(),
		CycleID:             cycleID,
		Price:               quote.Price,
		Action:              decision.Action,
		Reason:              decision.Reason,
		FeeProjectionWeekly: decision.FeeProjectionWeekly,
		SwapCost:            decision.SwapCost,
		HoursInRange:        decision.HoursInRange,
		Confidence:          decision.Confidence,
		ExecutionID:         executionID,
	}
	if err := a.recorder.Record(execCtx, entry); err != nil {
		cycleLogger.Error().Err(err).Msg("Step 4: Failed to record decision")
	}
	recorded = true

	a.updateStatus(cycleStartTime, quote, decision, executionID, pos)
	cycleLogger.Info().Msg("--- Monitoring cycle completed ---")
}

// recordAbort writes the single log entry of a cycle that ended before a
// decision could be made, so a stalled or failing feed stays visible in the
// decision history.
func (a *Agent) recordAbort(ctx context.Context, cycleLogger zerolog.Logger, cycleID string, cycleStartTime time.Time, price float64, reason string) {
	entry := types.DecisionLogEntry{
		Timestamp: cycleStartTime.UTC(),
		CycleID:   cycleID,
		Price:     price,
		Action:    types.ActionSkip,
		Reason:    reason,
	}
	metrics.DecisionsTotal.WithLabelValues(string(types.ActionSkip)).Inc()
	if err := a.recorder.Record(ctx, entry); err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to record aborted cycle")
	}
}

// executeRebalance plans, signs and submits the atomic group for a
// REBALANCE decision.
func (a *Agent) executeRebalance(ctx context.Context, cycleLogger zerolog.Logger, price float64, decision types.Decision, pos types.PositionSnapshot) (string, error) {
	if decision.NewBounds == nil {
		return "", fmt.Errorf("rebalance decision carries no new bounds")
	}

	group, err := a.executor.BuildRebalanceGroup(price, *decision.NewBounds, pos)
	if err != nil {
		return "", fmt.Errorf("build rebalance group: %w", err)
	}
	cycleLogger.Info().
		Str("group_id", group.GroupID).
		Float64("newLower", decision.NewBounds.Lower).
		Float64("newUpper", decision.NewBounds.Upper).
		Msg("Step 3: Executing atomic rebalance group")

	return a.executor.Execute(ctx, group)
}

func (a *Agent) updateStatus(cycleStartTime time.Time, quote types.PriceQuote, decision types.Decision, executionID string, pos types.PositionSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = Status{
		CycleCount:      a.cycleCount,
		LastCycleAt:     cycleStartTime.UTC(),
		LastPrice:       quote.Price,
		PriceSource:     quote.Source,
		LastAction:      decision.Action,
		LastReason:      decision.Reason,
		LastExecutionID: executionID,
		Position:        pos,
		DryRun:          a.dryRun,
	}
}

// Status returns a copy of the most recent cycle's outcome.
func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// CurrentPosition returns the position observed in the most recent cycle.
func (a *Agent) CurrentPosition() types.PositionSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status.Position
}

// RecentDecisions returns the most recent decision log entries.
func (a *Agent) RecentDecisions(ctx context.Context, n int) ([]types.DecisionLogEntry, error) {
	return a.recorder.ReadRecent(ctx, n)
}
