// ./internal/state/decision_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Div1912/Ageis/internal/types"
)

// SaveDecision persists one decision log entry to the database.
func SaveDecision(entry types.DecisionLogEntry) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO decisions (
			decided_at, cycle_id, price, action, reason,
			fee_projection_weekly, swap_cost, hours_in_range, confidence, execution_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING decision_id;
	`

	executionID := sql.NullString{String: entry.ExecutionID, Valid: entry.ExecutionID != ""}

	var decisionID int64
	err := DB.QueryRow(
		query,
		entry.Timestamp, entry.CycleID, entry.Price, string(entry.Action), entry.Reason,
		entry.FeeProjectionWeekly, entry.SwapCost, entry.HoursInRange, entry.Confidence, executionID,
	).Scan(&decisionID)

	if err != nil {
		return 0, fmt.Errorf("failed to save decision: %w", err)
	}

	log.Debug().
		Int64("decision_id", decisionID).
		Str("cycle_id", entry.CycleID).
		Str("action", string(entry.Action)).
		Msg("Decision mirrored to database")

	return decisionID, nil
}

// GetRecentDecisions returns the most recent decisions, newest first.
func GetRecentDecisions(limit int) ([]types.DecisionLogEntry, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT decided_at, cycle_id, price, action, reason,
		       fee_projection_weekly, swap_cost, hours_in_range, confidence, execution_id
		FROM decisions
		ORDER BY decided_at DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var entries []types.DecisionLogEntry
	for rows.Next() {
		var entry types.DecisionLogEntry
		var action string
		var executionID sql.NullString

		err := rows.Scan(
			&entry.Timestamp, &entry.CycleID, &entry.Price, &action, &entry.Reason,
			&entry.FeeProjectionWeekly, &entry.SwapCost, &entry.HoursInRange, &entry.Confidence, &executionID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision row: %w", err)
		}

		entry.Action = types.Action(action)
		entry.ExecutionID = executionID.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decision rows: %w", err)
	}
	return entries, nil
}

// CountDecisionsByAction returns the total decision count per action.
func CountDecisionsByAction() (map[types.Action]int64, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(`SELECT action, COUNT(*) FROM decisions GROUP BY action;`)
	if err != nil {
		return nil, fmt.Errorf("failed to count decisions: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Action]int64)
	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[types.Action(action)] = count
	}
	return counts, rows.Err()
}
