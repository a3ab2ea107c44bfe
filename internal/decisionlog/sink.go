/*

This file contains the decision log sink contract and the recorder that fans
one entry per cycle out to every configured sink.

The file sink is the durable record: a failure there is a cycle failure.
Mirrors (database, message bus) are best effort and only logged.

*/

package decisionlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/types"
)

// Appender accepts decision log entries.
type Appender interface {
	Append(ctx context.Context, entry types.DecisionLogEntry) error
}

// Sink is an appender whose history can be read back.
type Sink interface {
	Appender
	ReadRecent(ctx context.Context, n int) ([]types.DecisionLogEntry, error)
}

// Recorder writes each entry to the primary sink and mirrors it to the
// secondaries. A secondary failure never fails the cycle.
type Recorder struct {
	logger      zerolog.Logger
	primary     Sink
	secondaries []Appender
}

// NewRecorder wires the primary sink and any number of mirrors.
func NewRecorder(primary Sink, secondaries ...Appender) (*Recorder, error) {
	if primary == nil {
		return nil, errors.New("decisionlog: primary sink is required")
	}
	return &Recorder{
		logger:      logger.GetForComponent("decision_log"),
		primary:     primary,
		secondaries: secondaries,
	}, nil
}

// Record appends the entry to the primary sink, then mirrors it.
func (r *Recorder) Record(ctx context.Context, entry types.DecisionLogEntry) error {
	if err := r.primary.Append(ctx, entry); err != nil {
		return fmt.Errorf("append decision %s: %w", entry.CycleID, err)
	}

	for _, mirror := range r.secondaries {
		if err := mirror.Append(ctx, entry); err != nil {
			r.logger.Warn().Err(err).
				Str("cycle_id", entry.CycleID).
				Msg("Decision mirror failed")
		}
	}
	return nil
}

// ReadRecent returns the most recent entries from the primary sink.
func (r *Recorder) ReadRecent(ctx context.Context, n int) ([]types.DecisionLogEntry, error) {
	return r.primary.ReadRecent(ctx, n)
}
