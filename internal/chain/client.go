/*

This file contains the node client constructor shared by the chain-facing
components. One client is created at startup and passed to the position
reader, the signer and the submitter.

*/

package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
)

// NewAlgodClient connects to the node's REST API. The token may be empty for
// public endpoints that authenticate by other means.
func NewAlgodClient(nodeURL, apiToken string) (*algod.Client, error) {
	if nodeURL == "" {
		return nil, errors.New("chain: node URL is required")
	}
	client, err := algod.MakeClient(nodeURL, apiToken)
	if err != nil {
		return nil, fmt.Errorf("create node client for %s: %w", nodeURL, err)
	}
	return client, nil
}

// CurrentRound returns the node's last committed round. Used at startup to
// verify connectivity before the monitoring loop begins.
func CurrentRound(ctx context.Context, client *algod.Client) (uint64, error) {
	status, err := client.Status().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("query node status: %w", err)
	}
	return status.LastRound, nil
}
