// internal/ledger/authority.go
package ledger

import (
	"github.com/blocto/solana-go-sdk/common"

	"solana-bridge/internal/program/pda"
)

// Authority is who a collaborator call acts as: a transaction signer or a
// program-derived address presented through its capability.
type Authority struct {
	key     common.PublicKey
	derived *pda.Capability
}

func Signer(key common.PublicKey) Authority {
	return Authority{key: key}
}

func Derived(c pda.Capability) Authority {
	return Authority{key: c.Address(), derived: &c}
}

func (a Authority) Address() common.PublicKey { return a.key }
