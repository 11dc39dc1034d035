// internal/program/pda/derivation.go
package pda

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"solana-bridge/internal/domain/bridge"
)

const (
	metadataSeedTag = "metadata"
	editionSeedTag  = "edition"
)

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// BridgeSeeds = ["bridge", le64(seed)]
func BridgeSeeds(seed uint64) [][]byte {
	return [][]byte{[]byte(bridge.BridgeSeedTag), le64(seed)}
}

// MintSeeds = ["mint", seedP1, seedP2, le64(id)]
func MintSeeds(seedP1, seedP2 string, id uint64) ([][]byte, error) {
	if len(seedP1) > bridge.MaxSeedLen || len(seedP2) > bridge.MaxSeedLen {
		return nil, fmt.Errorf("%w: sub-seed longer than %d bytes", bridge.ErrInvalidSeed, bridge.MaxSeedLen)
	}
	return [][]byte{[]byte(bridge.MintSeedTag), []byte(seedP1), []byte(seedP2), le64(id)}, nil
}

// WithBump returns seeds followed by the proof byte, without touching seeds.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	for _, s := range seeds {
		out = append(out, append([]byte(nil), s...))
	}
	return append(out, []byte{bump})
}

// FindBridge derives the registry address and its proof byte.
func FindBridge(programID common.PublicKey, seed uint64) (common.PublicKey, uint8, error) {
	addr, bump, err := common.FindProgramAddress(BridgeSeeds(seed), programID)
	if err != nil {
		return common.PublicKey{}, 0, fmt.Errorf("pda: find bridge: %w", err)
	}
	return addr, bump, nil
}

// FindMint derives the per-asset mint address.
func FindMint(programID common.PublicKey, seedP1, seedP2 string, id uint64) (common.PublicKey, uint8, error) {
	seeds, err := MintSeeds(seedP1, seedP2, id)
	if err != nil {
		return common.PublicKey{}, 0, err
	}
	addr, bump, err := common.FindProgramAddress(seeds, programID)
	if err != nil {
		return common.PublicKey{}, 0, fmt.Errorf("pda: find mint: %w", err)
	}
	return addr, bump, nil
}

// MetadataAddress = PDA(["metadata", metadataProgram, mint], metadataProgram)
func MetadataAddress(mint common.PublicKey) (common.PublicKey, error) {
	addr, _, err := common.FindProgramAddress([][]byte{
		[]byte(metadataSeedTag),
		common.MetaplexTokenMetaProgramID.Bytes(),
		mint.Bytes(),
	}, common.MetaplexTokenMetaProgramID)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("pda: metadata address: %w", err)
	}
	return addr, nil
}

// EditionAddress = PDA(["metadata", metadataProgram, mint, "edition"], metadataProgram)
func EditionAddress(mint common.PublicKey) (common.PublicKey, error) {
	addr, _, err := common.FindProgramAddress([][]byte{
		[]byte(metadataSeedTag),
		common.MetaplexTokenMetaProgramID.Bytes(),
		mint.Bytes(),
		[]byte(editionSeedTag),
	}, common.MetaplexTokenMetaProgramID)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("pda: edition address: %w", err)
	}
	return addr, nil
}

// AssociatedHolding derives the associated token account of owner for mint.
func AssociatedHolding(owner, mint common.PublicKey) (common.PublicKey, error) {
	addr, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("pda: associated holding: %w", err)
	}
	return addr, nil
}
