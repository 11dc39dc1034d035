package bridge

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeAccountLayout(t *testing.T) {
	authority := types.NewAccount().PublicKey
	b, err := New(authority, 7, 254)
	require.NoError(t, err)

	raw, err := b.MarshalAccount()
	require.NoError(t, err)
	require.Len(t, raw, BridgeAccountSpace)
	assert.Equal(t, 49, BridgeAccountSpace)

	sum := sha256.Sum256([]byte("account:Bridge"))
	assert.Equal(t, sum[:8], raw[:8])
	assert.Equal(t, authority.Bytes(), raw[8:40])
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(raw[40:48]))
	assert.Equal(t, byte(254), raw[48])

	got, err := UnmarshalAccount(raw)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestUnmarshalAccount_Rejects(t *testing.T) {
	raw, err := Bridge{Authority: types.NewAccount().PublicKey, Seed: 1, Bump: 1}.MarshalAccount()
	require.NoError(t, err)

	_, err = UnmarshalAccount(raw[:20])
	require.ErrorIs(t, err, ErrInvalidAccountData)

	bad := append([]byte(nil), raw...)
	bad[0] ^= 0xff
	_, err = UnmarshalAccount(bad)
	require.ErrorIs(t, err, ErrInvalidAccountData)
}

func TestNew_RequiresAuthority(t *testing.T) {
	_, err := New(common.PublicKey{}, 1, 1)
	require.ErrorIs(t, err, ErrInvalidAuthority)
}

func TestInstructionDiscriminator(t *testing.T) {
	sum := sha256.Sum256([]byte("global:initialize_bridge"))
	d := InstructionDiscriminator("initialize_bridge")
	assert.Equal(t, sum[:8], d[:])
}
