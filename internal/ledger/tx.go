// internal/ledger/tx.go
package ledger

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
)

// Tx is the pending view of one transaction. It is only valid inside the
// Atomic callback that received it.
type Tx struct {
	ledger  *Ledger
	program common.PublicKey
	signers map[common.PublicKey]struct{}
	dirty   map[common.PublicKey]Account
	logs    []string
}

func newTx(l *Ledger, inv Invocation) *Tx {
	signers := make(map[common.PublicKey]struct{}, len(inv.Signers))
	for _, s := range inv.Signers {
		signers[s] = struct{}{}
	}
	return &Tx{
		ledger:  l,
		program: inv.Program,
		signers: signers,
		dirty:   make(map[common.PublicKey]Account),
	}
}

// Program is the invoking program of the transaction.
func (tx *Tx) Program() common.PublicKey { return tx.program }

func (tx *Tx) IsSigner(pk common.PublicKey) bool {
	_, ok := tx.signers[pk]
	return ok
}

// RequireSigner fails unless pk signed the transaction.
func (tx *Tx) RequireSigner(pk common.PublicKey) error {
	if !tx.IsSigner(pk) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, pk.ToBase58())
	}
	return nil
}

// Account reads pending state first, then committed state.
func (tx *Tx) Account(addr common.PublicKey) (Account, bool) {
	if acc, ok := tx.dirty[addr]; ok {
		return acc.clone(), true
	}
	acc, ok := tx.ledger.accounts[addr]
	if !ok {
		return Account{}, false
	}
	return acc.clone(), true
}

func (tx *Tx) Exists(addr common.PublicKey) bool {
	_, ok := tx.Account(addr)
	return ok
}

// Create allocates addr for owner. Existing addresses are rejected.
func (tx *Tx) Create(owner, addr common.PublicKey, data []byte) error {
	if tx.Exists(addr) {
		return fmt.Errorf("%w: %s", ErrAccountInUse, addr.ToBase58())
	}
	tx.dirty[addr] = Account{Owner: owner, Data: append([]byte(nil), data...)}
	return nil
}

// Write replaces the data of an account owned by owner.
func (tx *Tx) Write(owner, addr common.PublicKey, data []byte) error {
	acc, ok := tx.Account(addr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, addr.ToBase58())
	}
	if acc.Owner != owner {
		return fmt.Errorf("%w: %s", ErrIllegalOwner, addr.ToBase58())
	}
	tx.dirty[addr] = Account{Owner: owner, Data: append([]byte(nil), data...)}
	return nil
}

// Logf appends a "Program log:" line.
func (tx *Tx) Logf(format string, args ...any) {
	tx.logs = append(tx.logs, "Program log: "+fmt.Sprintf(format, args...))
}

// LogRaw appends a raw log line (used for event data).
func (tx *Tx) LogRaw(line string) {
	tx.logs = append(tx.logs, line)
}

// Authorize checks that a is want and that the transaction may act as it:
// a key must have signed; a derived address must belong to the invoking
// program and re-verify its seeds.
func (tx *Tx) Authorize(a Authority, want common.PublicKey) error {
	if a.Address() != want {
		return fmt.Errorf("%w: %s is not %s", ErrAuthorityMismatch, a.Address().ToBase58(), want.ToBase58())
	}
	if a.derived != nil {
		if a.derived.ProgramID() != tx.program {
			return fmt.Errorf("%w: %s is derived from another program", ErrMissingSignature, want.ToBase58())
		}
		return a.derived.Verify()
	}
	return tx.RequireSigner(a.key)
}
