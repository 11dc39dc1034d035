package simulator

import (
	"context"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-bridge/internal/adapters/out/memory"
	usecase "solana-bridge/internal/application/usecase"
	bridgedom "solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/program"
)

var _ usecase.BridgeExecutor = (*Simulator)(nil)
var _ usecase.DevFunder = (*Simulator)(nil)
var _ usecase.HoldingReader = (*Simulator)(nil)

func newStack(t *testing.T) (*Simulator, *usecase.BridgeUsecase) {
	t.Helper()
	sim := New(program.DefaultProgramID)
	backend := types.NewAccount().PublicKey
	uc, err := usecase.NewBridgeUsecase(sim, memory.NewRequestJournalMem(), nil, program.DefaultProgramID, backend, 7)
	require.NoError(t, err)
	uc.WithDevFunder(sim).WithHoldingReader(sim)
	return sim, uc
}

func TestCustodyAndReleaseThroughUsecase(t *testing.T) {
	ctx := context.Background()
	_, uc := newStack(t)

	_, err := uc.Initialize(ctx)
	require.NoError(t, err)

	user := types.NewAccount().PublicKey
	funded, err := uc.FundDevHolding(ctx, usecase.FundHoldingInput{Owner: user.ToBase58(), Amount: 3, Allowance: 3})
	require.NoError(t, err)
	assert.Equal(t, uc.BridgeAddress().ToBase58(), funded.Delegate)

	out, err := uc.SubmitRequest(ctx, usecase.SubmitRequestInput{
		Mint:        funded.Mint,
		UserHolding: funded.Holding,
		RequestID:   "req-1",
	})
	require.NoError(t, err)

	userBal, err := uc.Balance(ctx, funded.Holding)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), userBal.Amount)
	custody, err := uc.Balance(ctx, out.BridgeHolding)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), custody.Amount)

	_, err = uc.BurnToken(ctx, usecase.BurnTokenInput{Mint: funded.Mint})
	require.NoError(t, err)
	custody, err = uc.Balance(ctx, out.BridgeHolding)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), custody.Amount)

	recs, err := uc.Journal(ctx, bridgedom.JournalFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, bridgedom.OperationRelease, recs[0].Operation)
	assert.Equal(t, bridgedom.OperationCustody, recs[1].Operation)
}

func TestIssuanceThroughUsecase(t *testing.T) {
	ctx := context.Background()
	_, uc := newStack(t)
	_, err := uc.Initialize(ctx)
	require.NoError(t, err)

	recipient := types.NewAccount().PublicKey
	out, err := uc.CreateNFT(ctx, usecase.CreateNFTInput{
		Recipient: recipient.ToBase58(),
		ID:        1,
		SeedP1:    "x",
		SeedP2:    "y",
		Name:      "Art#1",
		Symbol:    "ART",
		URI:       "ipfs://abc",
		RequestID: "nft-1",
	})
	require.NoError(t, err)

	bal, err := uc.Balance(ctx, out.Holding)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bal.Amount)

	_, err = uc.CreateNFT(ctx, usecase.CreateNFTInput{Recipient: recipient.ToBase58(), ID: 1, SeedP1: "x", SeedP2: "y", RequestID: "nft-2"})
	assert.Error(t, err)
}

func TestFundHolding_ForeignMint(t *testing.T) {
	ctx := context.Background()
	sim := New(program.DefaultProgramID)
	owner := types.NewAccount().PublicKey

	mint, holding, err := sim.FundHolding(ctx, owner, common.PublicKey{}, 2, common.PublicKey{}, 0)
	require.NoError(t, err)

	// 同じ mint への追加発行は可
	_, again, err := sim.FundHolding(ctx, owner, mint, 3, common.PublicKey{}, 0)
	require.NoError(t, err)
	assert.Equal(t, holding, again)
	bal, err := sim.Balance(ctx, holding)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), bal)

	_, _, err = sim.FundHolding(ctx, owner, types.NewAccount().PublicKey, 1, common.PublicKey{}, 0)
	assert.Error(t, err)

	_, _, err = sim.FundHolding(ctx, common.PublicKey{}, common.PublicKey{}, 1, common.PublicKey{}, 0)
	assert.ErrorIs(t, err, bridgedom.ErrInvalidPublicKey)

	_, err = sim.Balance(ctx, types.NewAccount().PublicKey)
	assert.ErrorIs(t, err, bridgedom.ErrHoldingNotFound)
}
