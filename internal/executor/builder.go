/*

This file contains the atomic-group planner and the execution pipeline that
turns a REBALANCE decision into a confirmed on-chain commit.

The group is all-or-nothing: if any operation fails validation on the ledger,
the whole group is rejected and the position is left untouched.

*/

package executor

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/types"
	"github.com/Div1912/Ageis/internal/utils"
)

// rebalanceMethod is the ABI method the holding contract exposes for
// committing a new range. The selector is the first four bytes of the
// sha512/256 digest of the signature.
const rebalanceMethod = "trigger_rebalance(uint64,uint64)void"


// Signer produces the submittable encoding of an atomic group.
type Signer interface {
	SignGroup(ctx context.Context, group types.AtomicGroup) (types.SignedGroup, error)
}

// Submitter sends a signed group to the network and waits for its commit.
type Submitter interface {
	Submit(ctx context.Context, group types.SignedGroup) (string, error)
	Confirm(ctx context.Context, executionID string, maxWaitRounds uint64) (types.Confirmation, error)
}

// Config holds the chain identifiers the planner bakes into each group.
type Config struct {
	HoldingAppID        uint64
	ExchangeAppID       uint64
	ExchangePoolAddress string
	USDCAssetID         uint64
	SwapInputMicro      uint64
	MaxSlippagePct      float64
	MaxWaitRounds       uint64
}

// Builder plans and executes rebalance groups.
type Builder struct {
	logger    zerolog.Logger
	cfg       Config
	signer    Signer
	submitter Submitter
}

// NewBuilder validates the configuration and wires the signing and
// submission backends.
func NewBuilder(cfg Config, signer Signer, submitter Submitter) (*Builder, error) {
	if cfg.HoldingAppID == 0 {
		return nil, errors.New("executor: holding app id is required")
	}
	if cfg.ExchangeAppID == 0 {
		return nil, errors.New("executor: exchange app id is required")
	}
	if cfg.ExchangePoolAddress == "" {
		return nil, errors.New("executor: exchange pool address is required")
	}
	if cfg.SwapInputMicro == 0 {
		return nil, errors.New("executor: swap input amount is required")
	}
	if cfg.MaxSlippagePct < 0 || cfg.MaxSlippagePct >= 100 {
		return nil, errors.New("executor: max slippage must be in [0, 100)")
	}
	if cfg.MaxWaitRounds == 0 {
		return nil, errors.New("executor: max wait rounds is required")
	}
	if signer == nil || submitter == nil {
		return nil, errors.New("executor: signer and submitter are required")
	}
	return &Builder{
		logger:    logger.GetForComponent("executor"),
		cfg:       cfg,
		signer:    signer,
		submitter: submitter,
	}, nil
}

// BuildRebalanceGroup plans the five-operation sequence that moves the
// position to the given bounds. The operation order is fixed; the group id
// is derived from the full sequence, so the same plan yields the same id.
func (b *Builder) BuildRebalanceGroup(price float64, bounds types.Bounds, pos types.PositionSnapshot) (types.AtomicGroup, error) {
	if price <= 0 {
		return types.AtomicGroup{}, fmt.Errorf("executor: invalid price %f", price)
	}
	if bounds.Lower <= 0 || bounds.Lower >= bounds.Upper {
		return types.AtomicGroup{}, fmt.Errorf("executor: invalid bounds [%f, %f]", bounds.Lower, bounds.Upper)
	}

	lowerMilli, err := utils.PriceToMilli(bounds.Lower)
	if err != nil {
		return types.AtomicGroup{}, fmt.Errorf("executor: encode lower bound: %w", err)
	}
	upperMilli, err := utils.PriceToMilli(bounds.Upper)
	if err != nil {
		return types.AtomicGroup{}, fmt.Errorf("executor: encode upper bound: %w", err)
	}
	capitalCents, err := utils.CapitalToCents(pos.Capital)
	if err != nil {
		return types.AtomicGroup{}, fmt.Errorf("executor: encode capital: %w", err)
	}

	minOut := b.minSwapOutput(price)

	ops := []types.Operation{
		{
			Kind:  types.OpWithdrawLiquidity,
			Note:  "aegis:withdraw_liquidity",
			AppID: b.cfg.HoldingAppID,
			AppArgs: [][]byte{
				[]byte("withdraw"),
				itob(capitalCents),
			},
		},
		{
			Kind:        types.OpSwapTransfer,
			Note:        "aegis:swap_input",
			AmountMicro: b.cfg.SwapInputMicro,
			Receiver:    b.cfg.ExchangePoolAddress,
		},
		{
			Kind:  types.OpSwapExecute,
			Note:  "aegis:swap_execute",
			AppID: b.cfg.ExchangeAppID,
			AppArgs: [][]byte{
				[]byte("swap"),
				[]byte("fixed-input"),
				itob(minOut),
			},
			ForeignAssets: []uint64{b.cfg.USDCAssetID},
			Accounts:      []string{b.cfg.ExchangePoolAddress},
		},
		{
			Kind:  types.OpDepositLiquidity,
			Note:  "aegis:deposit_new_range",
			AppID: b.cfg.HoldingAppID,
			AppArgs: [][]byte{
				[]byte("deposit"),
				itob(lowerMilli),
				itob(upperMilli),
			},
		},
		{
			Kind:  types.OpCommitRange,
			Note:  "aegis:commit_range",
			AppID: b.cfg.HoldingAppID,
			AppArgs: [][]byte{
				methodSelector(rebalanceMethod),
				itob(lowerMilli),
				itob(upperMilli),
			},
		},
	}

	return types.AtomicGroup{
		GroupID:    GroupID(ops),
		Operations: ops,
	}, nil
}

// Execute signs, submits and waits for the group. There are no retries: a
// rejected or unconfirmed group surfaces as an error and the caller records
// the cycle as not executed.
func (b *Builder) Execute(ctx context.Context, group types.AtomicGroup) (string, error) {
	if len(group.Operations) == 0 {
		return "", errors.New("executor: empty group")
	}

	signed, err := b.signer.SignGroup(ctx, group)
	if err != nil {
		return "", fmt.Errorf("sign group %s: %w", group.GroupID, err)
	}

	executionID, err := b.submitter.Submit(ctx, signed)
	if err != nil {
		return "", fmt.Errorf("submit group %s: %w", group.GroupID, err)
	}
	b.logger.Info().
		Str("group_id", group.GroupID).
		Str("execution_id", executionID).
		Int("operations", len(group.Operations)).
		Msg("Atomic group submitted, awaiting confirmation")

	conf, err := b.submitter.Confirm(ctx, executionID, b.cfg.MaxWaitRounds)
	if err != nil {
		return "", fmt.Errorf("confirm group %s: %w", group.GroupID, err)
	}
	b.logger.Info().
		Str("execution_id", executionID).
		Uint64("round", conf.Round).
		Msg("Atomic group confirmed")

	return executionID, nil
}

// minSwapOutput converts the slippage cap into the minimum acceptable output
// of the probe swap, in micro units of the output asset.
func (b *Builder) minSwapOutput(price float64) uint64 {
	expected := float64(b.cfg.SwapInputMicro) * price
	return uint64(expected * (1 - b.cfg.MaxSlippagePct/100))
}

// GroupID derives a deterministic identifier from the operation sequence.
// Any change to an operation or to the order produces a different id.
func GroupID(ops []types.Operation) string {
	h := sha256.New()
	for _, op := range ops {
		h.Write([]byte(op.Kind))
		h.Write([]byte{0})
		h.Write([]byte(op.Note))
		h.Write([]byte{0})
		h.Write(itob(op.AmountMicro))
		h.Write([]byte(op.Receiver))
		h.Write([]byte{0})
		h.Write(itob(op.AppID))
		for _, arg := range op.AppArgs {
			h.Write(itob(uint64(len(arg))))
			h.Write(arg)
		}
		for _, asset := range op.ForeignAssets {
			h.Write(itob(asset))
		}
		for _, acct := range op.Accounts {
			h.Write([]byte(acct))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// methodSelector computes the four-byte ABI selector of a method signature.
func methodSelector(signature string) []byte {
	digest := sha512.Sum512_256([]byte(signature))
	return digest[:4]
}

func itob(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
