/*

This file contains the submitter: it broadcasts a signed group and waits a
bounded number of rounds for the commit. A group the ledger rejects and a
group that simply has not landed yet are reported as distinct errors, since
only the former is a definitive outcome.

*/

package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/rs/zerolog"

	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/types"
)

// ErrRejected means the ledger definitively refused the group.
var ErrRejected = errors.New("chain: group rejected by ledger")

// ErrConfirmationTimeout means the group was not observed in a committed
// round within the wait budget. Its fate is unknown to the caller.
var ErrConfirmationTimeout = errors.New("chain: confirmation wait exceeded")

// AlgodSubmitter broadcasts signed groups through the node's REST API.
type AlgodSubmitter struct {
	logger zerolog.Logger
	client *algod.Client
}

// NewSubmitter creates a submitter bound to the given node client.
func NewSubmitter(client *algod.Client) (*AlgodSubmitter, error) {
	if client == nil {
		return nil, errors.New("chain: node client is required")
	}
	return &AlgodSubmitter{
		logger: logger.GetForComponent("submitter"),
		client: client,
	}, nil
}

// Submit broadcasts the group as one payload. The returned execution id is
// the id of the group's first transaction, which the node indexes the whole
// group under.
func (s *AlgodSubmitter) Submit(ctx context.Context, group types.SignedGroup) (string, error) {
	if len(group.Raw) == 0 {
		return "", errors.New("chain: nothing to submit")
	}

	var payload []byte
	for _, stx := range group.Raw {
		payload = append(payload, stx...)
	}

	txid, err := s.client.SendRawTransaction(payload).Do(ctx)
	if err != nil {
		return "", fmt.Errorf("broadcast group %s: %w", group.GroupID, err)
	}
	return txid, nil
}

// Confirm waits up to maxWaitRounds rounds for the execution to commit.
func (s *AlgodSubmitter) Confirm(ctx context.Context, executionID string, maxWaitRounds uint64) (types.Confirmation, error) {
	status, err := s.client.Status().Do(ctx)
	if err != nil {
		return types.Confirmation{}, fmt.Errorf("query node status: %w", err)
	}

	startRound := status.LastRound
	round := startRound

	for round <= startRound+maxWaitRounds {
		if err := ctx.Err(); err != nil {
			return types.Confirmation{}, err
		}

		pending, _, err := s.client.PendingTransactionInformation(executionID).Do(ctx)
		if err != nil {
			return types.Confirmation{}, fmt.Errorf("query pending transaction %s: %w", executionID, err)
		}
		if pending.PoolError != "" {
			s.logger.Error().
				Str("execution_id", executionID).
				Str("pool_error", pending.PoolError).
				Msg("Ledger rejected the group")
			return types.Confirmation{}, fmt.Errorf("%w: %s", ErrRejected, pending.PoolError)
		}
		if pending.ConfirmedRound > 0 {
			return types.Confirmation{Round: pending.ConfirmedRound}, nil
		}

		// Block until the next round lands, then check again.
		if _, err := s.client.StatusAfterBlock(round).Do(ctx); err != nil {
			return types.Confirmation{}, fmt.Errorf("wait for round %d: %w", round+1, err)
		}
		round++
	}

	return types.Confirmation{}, fmt.Errorf("%w: %s not committed within %d rounds",
		ErrConfirmationTimeout, executionID, maxWaitRounds)
}
