package decisionlog

import (
	"context"

	"github.com/Div1912/Ageis/internal/state"
	"github.com/Div1912/Ageis/internal/types"
)

// PostgresMirror mirrors decision entries into the database for ad-hoc
// querying. It is always a secondary sink.
type PostgresMirror struct{}

// NewPostgresMirror returns a mirror backed by the global database pool.
func NewPostgresMirror() *PostgresMirror {
	return &PostgresMirror{}
}

// Append writes the entry to the decisions table.
func (m *PostgresMirror) Append(_ context.Context, entry types.DecisionLogEntry) error {
	_, err := state.SaveDecision(entry)
	return err
}
