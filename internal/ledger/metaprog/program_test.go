package metaprog

import (
	"context"
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-bridge/internal/ledger"
	"solana-bridge/internal/ledger/tokenprog"
	"solana-bridge/internal/program/pda"
)

func newKey() common.PublicKey { return types.NewAccount().PublicKey }

type env struct {
	t      *testing.T
	ledger *ledger.Ledger
	tokens *tokenprog.Program
	meta   *Program
	mint   common.PublicKey
	auth   common.PublicKey
}

// newEnv prepares a zero-decimal mint with supply minted units.
func newEnv(t *testing.T, supply uint64) *env {
	t.Helper()
	tokens := tokenprog.New()
	e := &env{t: t, ledger: ledger.New(), tokens: tokens, meta: New(tokens), mint: newKey(), auth: newKey()}
	_, err := e.try(func(tx *ledger.Tx) error {
		if err := tokens.InitializeMint(tx, e.auth, e.mint, 0, e.auth, &e.auth); err != nil {
			return err
		}
		h, err := tokens.CreateAssociatedHolding(tx, e.auth, newKey(), e.mint)
		if err != nil {
			return err
		}
		if supply == 0 {
			return nil
		}
		return tokens.MintTo(tx, h, e.mint, ledger.Signer(e.auth), supply)
	})
	require.NoError(t, err)
	return e
}

func (e *env) try(fn func(tx *ledger.Tx) error) (ledger.Receipt, error) {
	return e.ledger.Atomic(context.Background(), ledger.Invocation{
		Program: e.meta.ID(),
		Signers: []common.PublicKey{e.auth},
	}, fn)
}

func (e *env) createMetadata(data token_metadata.DataV2) error {
	_, err := e.try(func(tx *ledger.Tx) error {
		_, err := e.meta.CreateMetadata(tx, e.mint, e.auth, ledger.Signer(e.auth), data, true)
		return err
	})
	return err
}

func (e *env) createEdition(max *uint64) error {
	_, err := e.try(func(tx *ledger.Tx) error {
		_, err := e.meta.CreateEditionMarker(tx, e.mint, e.auth, ledger.Signer(e.auth), max)
		return err
	})
	return err
}

func TestCreateMetadata_Limits(t *testing.T) {
	cases := []struct {
		name string
		data token_metadata.DataV2
		err  error
	}{
		{name: "ok", data: token_metadata.DataV2{Name: "Art#1", Symbol: "ART", Uri: "ipfs://abc"}},
		{name: "name", data: token_metadata.DataV2{Name: strings.Repeat("n", 33)}, err: ErrNameTooLong},
		{name: "symbol", data: token_metadata.DataV2{Symbol: strings.Repeat("s", 11)}, err: ErrSymbolTooLong},
		{name: "uri", data: token_metadata.DataV2{Uri: strings.Repeat("u", 201)}, err: ErrURITooLong},
		{name: "fee", data: token_metadata.DataV2{SellerFeeBasisPoints: 10001}, err: ErrInvalidSellerFee},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, 1)
			err := e.createMetadata(tc.data)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				_, err := e.meta.MetadataOf(e.ledger, e.mint)
				require.ErrorIs(t, err, ErrMetadataNotFound)
				return
			}
			require.NoError(t, err)
			md, err := e.meta.MetadataOf(e.ledger, e.mint)
			require.NoError(t, err)
			assert.Equal(t, "Art#1", md.Name)
			assert.Equal(t, e.auth, md.UpdateAuthority)
		})
	}
}

func TestCreateMetadata_RequiresMintAuthority(t *testing.T) {
	e := newEnv(t, 1)
	_, err := e.try(func(tx *ledger.Tx) error {
		_, err := e.meta.CreateMetadata(tx, e.mint, e.auth, ledger.Signer(newKey()), token_metadata.DataV2{}, true)
		return err
	})
	require.ErrorIs(t, err, ledger.ErrAuthorityMismatch)
}

func TestCreateEditionMarker_FixesSupply(t *testing.T) {
	e := newEnv(t, 1)
	require.NoError(t, e.createMetadata(token_metadata.DataV2{Name: "n"}))

	one := uint64(1)
	require.NoError(t, e.createEdition(&one))

	ed, err := e.meta.EditionOf(e.ledger, e.mint)
	require.NoError(t, err)
	assert.True(t, ed.HasMaxSupply)
	assert.Equal(t, uint64(1), ed.MaxSupply)

	m, err := e.tokens.MintOf(e.ledger, e.mint)
	require.NoError(t, err)
	edition, err := pda.EditionAddress(e.mint)
	require.NoError(t, err)
	require.NotNil(t, m.MintAuthority)
	assert.Equal(t, edition, *m.MintAuthority)
	require.NotNil(t, m.FreezeAuthority)
	assert.Equal(t, *m.MintAuthority, *m.FreezeAuthority)

	assert.Error(t, e.createEdition(&one), "edition can only be created once")
}

func TestCreateEditionMarker_Preconditions(t *testing.T) {
	t.Run("metadata missing", func(t *testing.T) {
		e := newEnv(t, 1)
		require.ErrorIs(t, e.createEdition(nil), ErrMetadataNotFound)
	})
	t.Run("supply not one", func(t *testing.T) {
		e := newEnv(t, 2)
		require.NoError(t, e.createMetadata(token_metadata.DataV2{}))
		require.ErrorIs(t, e.createEdition(nil), ErrEditionNeedsOneToken)
	})
	t.Run("nothing minted", func(t *testing.T) {
		e := newEnv(t, 0)
		require.NoError(t, e.createMetadata(token_metadata.DataV2{}))
		require.ErrorIs(t, e.createEdition(nil), ErrEditionNeedsOneToken)
	})
}
