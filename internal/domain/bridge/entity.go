// internal/domain/bridge/entity.go
package bridge

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

// Bridge is the registry record of one bridge instance.
// Authority/Seed/Bump are fixed at creation; there is no rotation path.
type Bridge struct {
	Authority common.PublicKey // backend allowed to invoke privileged operations
	Seed      uint64           // derivation seed
	Bump      uint8            // derivation proof byte
}

// Seeds / layout
const (
	BridgeSeedTag = "bridge"
	MintSeedTag   = "mint"

	// MaxSeedLen is the platform limit for a single derivation seed.
	MaxSeedLen = 32

	// BridgeAccountName is the Anchor account type name ("account:Bridge").
	BridgeAccountName = "Bridge"

	// BridgeAccountSpace = discriminator + backend + seed + bump
	BridgeAccountSpace = DiscriminatorLen + 32 + 8 + 1
)

var (
	ErrInvalidAccountData = errors.New("bridge: invalid registry account data")
	ErrInvalidAuthority   = errors.New("bridge: invalid authority")
)

// on-chain field order of the Anchor account (backend, seed, bump)
type bridgeAccount struct {
	Backend common.PublicKey
	Seed    uint64
	Bump    uint8
}

func New(authority common.PublicKey, seed uint64, bump uint8) (Bridge, error) {
	b := Bridge{Authority: authority, Seed: seed, Bump: bump}
	if err := b.validate(); err != nil {
		return Bridge{}, err
	}
	return b, nil
}

func (b Bridge) validate() error {
	if b.Authority == (common.PublicKey{}) {
		return ErrInvalidAuthority
	}
	return nil
}

// IsAuthority reports whether caller is the registry's stored authority.
func (b Bridge) IsAuthority(caller common.PublicKey) bool {
	return b.Authority == caller
}

// MarshalAccount encodes the registry as Anchor account data.
func (b Bridge) MarshalAccount() ([]byte, error) {
	body, err := borsh.Serialize(bridgeAccount{
		Backend: b.Authority,
		Seed:    b.Seed,
		Bump:    b.Bump,
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: serialize account: %w", err)
	}
	disc := AccountDiscriminator(BridgeAccountName)
	out := make([]byte, 0, BridgeAccountSpace)
	out = append(out, disc[:]...)
	out = append(out, body...)
	return out, nil
}

// UnmarshalAccount decodes Anchor account data into a Bridge.
func UnmarshalAccount(data []byte) (Bridge, error) {
	if len(data) < BridgeAccountSpace {
		return Bridge{}, ErrInvalidAccountData
	}
	disc := AccountDiscriminator(BridgeAccountName)
	if !bytes.Equal(data[:DiscriminatorLen], disc[:]) {
		return Bridge{}, ErrInvalidAccountData
	}
	var acc bridgeAccount
	if err := borsh.Deserialize(&acc, data[DiscriminatorLen:BridgeAccountSpace]); err != nil {
		return Bridge{}, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return Bridge{Authority: acc.Backend, Seed: acc.Seed, Bump: acc.Bump}, nil
}
