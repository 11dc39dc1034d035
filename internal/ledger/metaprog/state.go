// internal/ledger/metaprog/state.go
package metaprog

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

// account keys (first byte of every metadata-program account)
const (
	keyMasterEditionV2 uint8 = 6
	keyMetadataV1      uint8 = 4
)

// Metadata is the descriptive record anchored to a mint.
type Metadata struct {
	Key                  uint8
	UpdateAuthority      common.PublicKey
	Mint                 common.PublicKey
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	HasCreators          bool
	HasCollection        bool
	HasUses              bool
	PrimarySaleHappened  bool
	IsMutable            bool
}

// MasterEdition fixes how many copies of a mint may ever exist.
type MasterEdition struct {
	Key          uint8
	Supply       uint64
	HasMaxSupply bool
	MaxSupply    uint64
}

func (m Metadata) encode() ([]byte, error) { return borsh.Serialize(m) }

func (e MasterEdition) encode() ([]byte, error) { return borsh.Serialize(e) }

func DecodeMetadata(b []byte) (Metadata, error) {
	var m Metadata
	if err := borsh.Deserialize(&m, b); err != nil {
		return Metadata{}, fmt.Errorf("metadata: decode: %w", err)
	}
	if m.Key != keyMetadataV1 {
		return Metadata{}, fmt.Errorf("metadata: unexpected key %d", m.Key)
	}
	return m, nil
}

func DecodeMasterEdition(b []byte) (MasterEdition, error) {
	var e MasterEdition
	if err := borsh.Deserialize(&e, b); err != nil {
		return MasterEdition{}, fmt.Errorf("metadata: decode edition: %w", err)
	}
	if e.Key != keyMasterEditionV2 {
		return MasterEdition{}, fmt.Errorf("metadata: unexpected edition key %d", e.Key)
	}
	return e, nil
}
