package program

import (
	"context"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/require"

	"solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/ledger"
	"solana-bridge/internal/ledger/metaprog"
	"solana-bridge/internal/ledger/tokenprog"
	"solana-bridge/internal/program/pda"
)

type fixture struct {
	t         *testing.T
	ctx       context.Context
	ledger    *ledger.Ledger
	tokens    *tokenprog.Program
	meta      *metaprog.Program
	prog      *Program
	authority common.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, func(m MetadataService) MetadataService { return m })
}

// newFixtureWith lets a test wrap the metadata collaborator.
func newFixtureWith(t *testing.T, wrap func(MetadataService) MetadataService) *fixture {
	t.Helper()
	l := ledger.New()
	tokens := tokenprog.New()
	meta := metaprog.New(tokens)
	return &fixture{
		t:         t,
		ctx:       context.Background(),
		ledger:    l,
		tokens:    tokens,
		meta:      meta,
		prog:      New(DefaultProgramID, l, tokens, wrap(meta)),
		authority: newKey(),
	}
}

func newKey() common.PublicKey {
	return types.NewAccount().PublicKey
}

func (f *fixture) initBridge(seed uint64) common.PublicKey {
	f.t.Helper()
	res, err := f.prog.InitializeBridge(f.ctx, bridge.InitializeParams{Signer: f.authority, Seed: seed})
	require.NoError(f.t, err)
	return res.Bridge
}

// fundUser creates a fungible mint and a holding of owner with balance,
// approving delegate to move up to allowance units.
func (f *fixture) fundUser(owner common.PublicKey, balance uint64, delegate common.PublicKey, allowance uint64) (mint, holding common.PublicKey) {
	f.t.Helper()
	mintAuth := newKey()
	mint = newKey()
	_, err := f.ledger.Atomic(f.ctx, ledger.Invocation{
		Program: common.TokenProgramID,
		Signers: []common.PublicKey{owner, mintAuth},
	}, func(tx *ledger.Tx) error {
		if err := f.tokens.InitializeMint(tx, owner, mint, 6, mintAuth, nil); err != nil {
			return err
		}
		h, err := f.tokens.CreateAssociatedHolding(tx, owner, owner, mint)
		if err != nil {
			return err
		}
		holding = h
		if balance > 0 {
			if err := f.tokens.MintTo(tx, h, mint, ledger.Signer(mintAuth), balance); err != nil {
				return err
			}
		}
		return f.tokens.Approve(tx, h, delegate, ledger.Signer(owner), allowance)
	})
	require.NoError(f.t, err)
	return mint, holding
}

func (f *fixture) balance(holding common.PublicKey) uint64 {
	f.t.Helper()
	h, err := f.tokens.HoldingOf(f.ledger, holding)
	require.NoError(f.t, err)
	return h.Amount
}

func (f *fixture) supply(mint common.PublicKey) uint64 {
	f.t.Helper()
	m, err := f.tokens.MintOf(f.ledger, mint)
	require.NoError(f.t, err)
	return m.Supply
}

func (f *fixture) exists(addr common.PublicKey) bool {
	_, ok := f.ledger.Account(addr)
	return ok
}

func (f *fixture) custodyHolding(bridgeAddr, mint common.PublicKey) common.PublicKey {
	f.t.Helper()
	h, err := pda.AssociatedHolding(bridgeAddr, mint)
	require.NoError(f.t, err)
	return h
}

func (f *fixture) issueParams(bridgeAddr, recipient common.PublicKey, id uint64, requestID string) bridge.IssueParams {
	return bridge.IssueParams{
		Bridge:    bridgeAddr,
		Backend:   f.authority,
		Recipient: recipient,
		ID:        id,
		SeedP1:    "x",
		SeedP2:    "y",
		Name:      "Art#1",
		Symbol:    "ART",
		URI:       "ipfs://abc",
		RequestID: requestID,
	}
}
