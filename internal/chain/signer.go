/*

This file contains the delegated signer. The agent holds the delegated
rebalance key for the holding contract; it can move liquidity between ranges
but cannot withdraw funds to any other address.

*/

package chain

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog"

	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/types"
)

// flatFeeMicro is the per-transaction flat fee in micro units.
const flatFeeMicro = 1000

// DelegatedSigner signs atomic groups with the agent's delegated key.
type DelegatedSigner struct {
	logger  zerolog.Logger
	client  *algod.Client
	key     ed25519.PrivateKey
	account crypto.Account
}

// NewDelegatedSigner derives the signing account from the agent mnemonic.
func NewDelegatedSigner(client *algod.Client, agentMnemonic string) (*DelegatedSigner, error) {
	if client == nil {
		return nil, errors.New("chain: node client is required")
	}
	if agentMnemonic == "" {
		return nil, errors.New("chain: agent mnemonic is required")
	}

	key, err := mnemonic.ToPrivateKey(agentMnemonic)
	if err != nil {
		return nil, fmt.Errorf("derive key from mnemonic: %w", err)
	}
	account, err := crypto.AccountFromPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("derive account from key: %w", err)
	}

	return &DelegatedSigner{
		logger:  logger.GetForComponent("signer"),
		client:  client,
		key:     key,
		account: account,
	}, nil
}

// Address returns the agent's signing address.
func (s *DelegatedSigner) Address() string {
	return s.account.Address.String()
}

// SignGroup converts the operations to transactions in order, binds them
// under one group digest and signs each with the delegated key.
func (s *DelegatedSigner) SignGroup(ctx context.Context, group types.AtomicGroup) (types.SignedGroup, error) {
	if len(group.Operations) == 0 {
		return types.SignedGroup{}, errors.New("chain: empty group")
	}

	sp, err := s.client.SuggestedParams().Do(ctx)
	if err != nil {
		return types.SignedGroup{}, fmt.Errorf("fetch suggested params: %w", err)
	}
	sp.FlatFee = true
	sp.Fee = flatFeeMicro

	txns := make([]sdktypes.Transaction, 0, len(group.Operations))
	for _, op := range group.Operations {
		txn, err := s.buildTransaction(op, sp)
		if err != nil {
			return types.SignedGroup{}, fmt.Errorf("build %s transaction: %w", op.Kind, err)
		}
		txns = append(txns, txn)
	}

	gid, err := crypto.ComputeGroupID(txns)
	if err != nil {
		return types.SignedGroup{}, fmt.Errorf("compute group id: %w", err)
	}

	raw := make([][]byte, 0, len(txns))
	for i := range txns {
		txns[i].Group = gid
		_, stx, err := crypto.SignTransaction(s.key, txns[i])
		if err != nil {
			return types.SignedGroup{}, fmt.Errorf("sign %s transaction: %w", group.Operations[i].Kind, err)
		}
		raw = append(raw, stx)
	}

	s.logger.Debug().
		Str("group_id", group.GroupID).
		Int("transactions", len(raw)).
		Msg("Atomic group signed")

	return types.SignedGroup{
		GroupID: base64.StdEncoding.EncodeToString(gid[:]),
		Raw:     raw,
	}, nil
}

func (s *DelegatedSigner) buildTransaction(op types.Operation, sp sdktypes.SuggestedParams) (sdktypes.Transaction, error) {
	sender := s.account.Address

	if op.Kind == types.OpSwapTransfer {
		return transaction.MakePaymentTxn(
			sender.String(), op.Receiver, op.AmountMicro,
			[]byte(op.Note), "", sp,
		)
	}

	return transaction.MakeApplicationNoOpTx(
		op.AppID, op.AppArgs, op.Accounts, nil, op.ForeignAssets,
		sp, sender, []byte(op.Note),
		sdktypes.Digest{}, [32]byte{}, sdktypes.Address{},
	)
}
