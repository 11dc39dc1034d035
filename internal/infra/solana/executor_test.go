package solana

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgedom "solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/program"
)

func TestMapProgramError(t *testing.T) {
	cases := []struct {
		name string
		ix   string
		msg  string
		want error
	}{
		{"not backend", IxNewRequest, "Transaction simulation failed: custom program error: 0x1770", bridgedom.ErrNotBridgeBackend},
		{"reinit", IxInitializeBridge, "Allocate: account Address { .. } already in use", bridgedom.ErrDuplicateInitialization},
		{"missing bridge", IxBurnToken, "custom program error: 0xbc4", bridgedom.ErrBridgeNotFound},
		{"seeds", IxCreateNFT, "custom program error: 0x7d6", bridgedom.ErrDerivationMismatch},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.ErrorIs(t, mapProgramError(c.ix, errors.New(c.msg)), c.want)
		})
	}

	var ce *bridgedom.CollaboratorError
	assert.ErrorAs(t, mapProgramError(IxNewRequest, errors.New("custom program error: 0x1")), &ce)
	assert.ErrorAs(t, mapProgramError(IxCreateNFT, errors.New("account already in use")), &ce)

	// 配備済みプログラムでは custody holding が init のため、同一 mint の 2 回目は collaborator failure
	second := mapProgramError(IxNewRequest, errors.New("Allocate: account Address { .. } already in use"))
	assert.ErrorAs(t, second, &ce)
	assert.NotErrorIs(t, second, bridgedom.ErrDuplicateInitialization)
	assert.Equal(t, "collaborator_failure", bridgedom.ReasonCode(second))
	assert.Equal(t, "internal", bridgedom.ReasonCode(mapProgramError(IxBurnToken, errors.New("rpc down"))))
	assert.NoError(t, mapProgramError(IxBurnToken, nil))
}

func TestExecutor_RejectsForeignSigner(t *testing.T) {
	auth := types.NewAccount()
	e := NewExecutor("http://127.0.0.1:1", program.DefaultProgramID, auth)

	_, err := e.SubmitRequest(context.Background(), bridgedom.RequestParams{Backend: key()})
	assert.ErrorIs(t, err, ErrSignerUnavailable)

	var nilExec *Executor
	_, err = nilExec.BurnToken(context.Background(), bridgedom.BurnParams{})
	assert.ErrorIs(t, err, ErrExecutorNotConfigured)
}

func TestExecutor_IssueAccountsMatchDerivation(t *testing.T) {
	e := NewExecutor("http://127.0.0.1:1", program.DefaultProgramID, types.NewAccount())
	in := bridgedom.IssueParams{Bridge: key(), Backend: key(), Recipient: key(), ID: 1, SeedP1: "x", SeedP2: "y"}

	a, err := e.issueAccounts(in)
	require.NoError(t, err)
	b, err := e.issueAccounts(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Mint, a.Holding)

	in.ID = 2
	c, err := e.issueAccounts(in)
	require.NoError(t, err)
	assert.NotEqual(t, a.Mint, c.Mint)
}

func TestKeypairJSON_RoundTrip(t *testing.T) {
	acc := types.NewAccount()
	raw, err := EncodeKeypairJSON(acc)
	require.NoError(t, err)

	got, err := AccountFromKeypairJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, got.PublicKey)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	fromFile, err := LoadAuthorityFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, fromFile.PublicKey)
}

func TestDecodeKeypairJSON_Rejects(t *testing.T) {
	for _, in := range []string{`[1,2,3]`, `"AAAA"`, `{}`, `[` + strings.Repeat("256,", 63) + `256]`} {
		_, err := decodeKeypairJSON([]byte(in))
		assert.Error(t, err, in)
	}
}
