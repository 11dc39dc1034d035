// internal/program/pda/capability.go
package pda

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"solana-bridge/internal/domain/bridge"
)

// Capability lets a program present a derived address as a signer.
// It can only be obtained through Sign, which proves the seed sequence
// reproduces the address. The zero value never verifies.
type Capability struct {
	programID common.PublicKey
	address   common.PublicKey
	seeds     [][]byte
}

// Sign builds a capability for expected from the full seed sequence
// (proof byte included). Any other sequence fails closed.
func Sign(programID, expected common.PublicKey, seeds ...[]byte) (Capability, error) {
	addr, err := common.CreateProgramAddress(seeds, programID)
	if err != nil {
		return Capability{}, fmt.Errorf("%w: %v", bridge.ErrDerivationMismatch, err)
	}
	if addr != expected {
		return Capability{}, fmt.Errorf("%w: got %s want %s",
			bridge.ErrDerivationMismatch, bridge.Short(addr), bridge.Short(expected))
	}
	return Capability{
		programID: programID,
		address:   expected,
		seeds:     cloneSeeds(seeds),
	}, nil
}

func cloneSeeds(seeds [][]byte) [][]byte {
	out := make([][]byte, len(seeds))
	for i, s := range seeds {
		out[i] = append([]byte(nil), s...)
	}
	return out
}

// BridgeSigner rebuilds the registry's signing capability from its stored state.
func BridgeSigner(programID, address common.PublicKey, b bridge.Bridge) (Capability, error) {
	return Sign(programID, address, WithBump(BridgeSeeds(b.Seed), b.Bump)...)
}

func (c Capability) Address() common.PublicKey   { return c.address }
func (c Capability) ProgramID() common.PublicKey { return c.programID }

// Verify re-derives the address from the held seeds.
func (c Capability) Verify() error {
	if len(c.seeds) == 0 {
		return fmt.Errorf("%w: empty capability", bridge.ErrDerivationMismatch)
	}
	addr, err := common.CreateProgramAddress(c.seeds, c.programID)
	if err != nil || addr != c.address {
		return bridge.ErrDerivationMismatch
	}
	return nil
}
