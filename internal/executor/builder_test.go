package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Div1912/Ageis/internal/types"
)

type fakeSigner struct {
	calls int
	err   error
}

func (s *fakeSigner) SignGroup(_ context.Context, group types.AtomicGroup) (types.SignedGroup, error) {
	s.calls++
	if s.err != nil {
		return types.SignedGroup{}, s.err
	}
	raw := make([][]byte, len(group.Operations))
	for i, op := range group.Operations {
		raw[i] = []byte(op.Note)
	}
	return types.SignedGroup{GroupID: group.GroupID, Raw: raw}, nil
}

type fakeSubmitter struct {
	submitCalls  int
	confirmCalls int
	submitErr    error
	confirmErr   error
	lastGroup    types.SignedGroup
}

func (s *fakeSubmitter) Submit(_ context.Context, group types.SignedGroup) (string, error) {
	s.submitCalls++
	s.lastGroup = group
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return "TXID" + group.GroupID[:8], nil
}

func (s *fakeSubmitter) Confirm(_ context.Context, executionID string, _ uint64) (types.Confirmation, error) {
	s.confirmCalls++
	if s.confirmErr != nil {
		return types.Confirmation{}, s.confirmErr
	}
	return types.Confirmation{Round: 41022000}, nil
}

func testConfig() Config {
	return Config{
		HoldingAppID:        755777633,
		ExchangeAppID:       148607000,
		ExchangePoolAddress: "UDFWT5DW3X5RZQYXKQEMZ6MRWAEYHWYP7YUAPZKPW6WJK3JH3OZPL7PO2Y",
		USDCAssetID:         10458941,
		SwapInputMicro:      10000,
		MaxSlippagePct:      2.0,
		MaxWaitRounds:       4,
	}
}

func newTestBuilder(t *testing.T, signer Signer, submitter Submitter) *Builder {
	t.Helper()
	b, err := NewBuilder(testConfig(), signer, submitter)
	require.NoError(t, err)
	return b
}

func TestNewBuilderValidation(t *testing.T) {
	signer := &fakeSigner{}
	submitter := &fakeSubmitter{}

	cfg := testConfig()
	cfg.HoldingAppID = 0
	_, err := NewBuilder(cfg, signer, submitter)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.MaxSlippagePct = 100
	_, err = NewBuilder(cfg, signer, submitter)
	assert.Error(t, err)

	_, err = NewBuilder(testConfig(), nil, submitter)
	assert.Error(t, err)
}

func TestBuildRebalanceGroupOperationOrder(t *testing.T) {
	b := newTestBuilder(t, &fakeSigner{}, &fakeSubmitter{})

	group, err := b.BuildRebalanceGroup(0.25, types.Bounds{Lower: 0.205, Upper: 0.305}, types.PositionSnapshot{Capital: 5000})
	require.NoError(t, err)
	require.Len(t, group.Operations, 5)

	kinds := make([]types.OperationKind, 0, len(group.Operations))
	for _, op := range group.Operations {
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []types.OperationKind{
		types.OpWithdrawLiquidity,
		types.OpSwapTransfer,
		types.OpSwapExecute,
		types.OpDepositLiquidity,
		types.OpCommitRange,
	}, kinds)

	withdraw := group.Operations[0]
	assert.Equal(t, uint64(755777633), withdraw.AppID)
	require.Len(t, withdraw.AppArgs, 2)
	assert.Equal(t, itob(500000), withdraw.AppArgs[1], "capital is passed in cents")

	swap := group.Operations[1]
	assert.Equal(t, uint64(10000), swap.AmountMicro)
	assert.Equal(t, testConfig().ExchangePoolAddress, swap.Receiver)

	exec := group.Operations[2]
	assert.Equal(t, uint64(148607000), exec.AppID)
	require.Len(t, exec.AppArgs, 3)
	assert.Equal(t, []byte("swap"), exec.AppArgs[0])
	assert.Equal(t, []byte("fixed-input"), exec.AppArgs[1])
	// 10000 * 0.25 * 0.98 = 2450 micro units minimum output.
	assert.Equal(t, itob(2450), exec.AppArgs[2])

	commit := group.Operations[4]
	assert.Equal(t, uint64(755777633), commit.AppID)
	require.Len(t, commit.AppArgs, 3)
	assert.Equal(t, methodSelector(rebalanceMethod), commit.AppArgs[0])
	assert.Equal(t, itob(205), commit.AppArgs[1])
	assert.Equal(t, itob(305), commit.AppArgs[2])
}

func TestBuildRebalanceGroupRejectsBadInput(t *testing.T) {
	b := newTestBuilder(t, &fakeSigner{}, &fakeSubmitter{})

	_, err := b.BuildRebalanceGroup(0, types.Bounds{Lower: 0.205, Upper: 0.305}, types.PositionSnapshot{})
	assert.Error(t, err)

	_, err = b.BuildRebalanceGroup(0.25, types.Bounds{Lower: 0.305, Upper: 0.205}, types.PositionSnapshot{})
	assert.Error(t, err)
}

func TestGroupIDDeterministic(t *testing.T) {
	b := newTestBuilder(t, &fakeSigner{}, &fakeSubmitter{})

	bounds := types.Bounds{Lower: 0.205, Upper: 0.305}
	g1, err := b.BuildRebalanceGroup(0.25, bounds, types.PositionSnapshot{Capital: 5000})
	require.NoError(t, err)
	g2, err := b.BuildRebalanceGroup(0.25, bounds, types.PositionSnapshot{Capital: 5000})
	require.NoError(t, err)

	assert.Equal(t, g1.GroupID, g2.GroupID)

	g3, err := b.BuildRebalanceGroup(0.25, types.Bounds{Lower: 0.206, Upper: 0.305}, types.PositionSnapshot{Capital: 5000})
	require.NoError(t, err)
	assert.NotEqual(t, g1.GroupID, g3.GroupID)
}

func TestGroupIDOrderSensitive(t *testing.T) {
	b := newTestBuilder(t, &fakeSigner{}, &fakeSubmitter{})

	group, err := b.BuildRebalanceGroup(0.25, types.Bounds{Lower: 0.205, Upper: 0.305}, types.PositionSnapshot{})
	require.NoError(t, err)

	reversed := make([]types.Operation, len(group.Operations))
	for i, op := range group.Operations {
		reversed[len(group.Operations)-1-i] = op
	}
	assert.NotEqual(t, GroupID(group.Operations), GroupID(reversed))
}

func TestExecuteHappyPath(t *testing.T) {
	signer := &fakeSigner{}
	submitter := &fakeSubmitter{}
	b := newTestBuilder(t, signer, submitter)

	group, err := b.BuildRebalanceGroup(0.25, types.Bounds{Lower: 0.205, Upper: 0.305}, types.PositionSnapshot{})
	require.NoError(t, err)

	executionID, err := b.Execute(context.Background(), group)
	require.NoError(t, err)
	assert.NotEmpty(t, executionID)
	assert.Equal(t, 1, signer.calls)
	assert.Equal(t, 1, submitter.submitCalls)
	assert.Equal(t, 1, submitter.confirmCalls)
	assert.Len(t, submitter.lastGroup.Raw, 5)
}

func TestExecuteSignFailureSkipsSubmit(t *testing.T) {
	signer := &fakeSigner{err: errors.New("no key material")}
	submitter := &fakeSubmitter{}
	b := newTestBuilder(t, signer, submitter)

	group, err := b.BuildRebalanceGroup(0.25, types.Bounds{Lower: 0.205, Upper: 0.305}, types.PositionSnapshot{})
	require.NoError(t, err)

	executionID, err := b.Execute(context.Background(), group)
	require.Error(t, err)
	assert.Empty(t, executionID)
	assert.Equal(t, 0, submitter.submitCalls)
}

func TestExecuteRejectedGroupReturnsNoID(t *testing.T) {
	submitter := &fakeSubmitter{confirmErr: errors.New("transaction rejected by pool")}
	b := newTestBuilder(t, &fakeSigner{}, submitter)

	group, err := b.BuildRebalanceGroup(0.25, types.Bounds{Lower: 0.205, Upper: 0.305}, types.PositionSnapshot{})
	require.NoError(t, err)

	executionID, err := b.Execute(context.Background(), group)
	require.Error(t, err)
	assert.Empty(t, executionID)
	assert.Equal(t, 1, submitter.submitCalls)
	assert.Equal(t, 1, submitter.confirmCalls)
}
