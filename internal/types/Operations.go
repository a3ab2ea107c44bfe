/*

This file contains the chain-operation types forming one atomic commit unit.
The ledger either confirms every operation in a group or none of them.

*/

package types

// OperationKind identifies one step of the rebalance sequence.
type OperationKind string

const (
	OpWithdrawLiquidity OperationKind = "WITHDRAW_LIQUIDITY"
	OpSwapTransfer      OperationKind = "SWAP_TRANSFER"
	OpSwapExecute       OperationKind = "SWAP_EXECUTE"
	OpDepositLiquidity  OperationKind = "DEPOSIT_LIQUIDITY"
	OpCommitRange       OperationKind = "COMMIT_RANGE"
)

// Operation is a single chain operation within an atomic group. Payment-style
// operations carry AmountMicro/Receiver; application calls carry AppID,
// AppArgs and the related accounts and assets.
type Operation struct {
	Kind OperationKind `json:"kind"`
	Note string        `json:"note"`

	AmountMicro uint64 `json:"amount_micro,omitempty"`
	Receiver    string `json:"receiver,omitempty"`

	AppID         uint64   `json:"app_id,omitempty"`
	AppArgs       [][]byte `json:"app_args,omitempty"`
	ForeignAssets []uint64 `json:"foreign_assets,omitempty"`
	Accounts      []string `json:"accounts,omitempty"`
}

// AtomicGroup is an ordered list of operations sharing one group identifier.
// The identifier is derived deterministically from the operation sequence, so
// the same plan always yields the same group id.
type AtomicGroup struct {
	GroupID    string      `json:"group_id"`
	Operations []Operation `json:"operations"`
}

// SignedGroup holds the signed, submittable encoding of an atomic group. Raw
// preserves the operation order of the group it was signed from.
type SignedGroup struct {
	GroupID string   `json:"group_id"` // ledger-assigned group digest
	Raw     [][]byte `json:"-"`
}

// Confirmation reports the ledger round in which a group was committed.
type Confirmation struct {
	Round uint64 `json:"round"`
}
