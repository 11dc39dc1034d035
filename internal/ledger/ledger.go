// internal/ledger/ledger.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/google/uuid"
)

// Errors
var (
	ErrAccountInUse      = errors.New("ledger: account already in use")
	ErrAccountNotFound   = errors.New("ledger: account not found")
	ErrIllegalOwner      = errors.New("ledger: account not owned by program")
	ErrMissingSignature  = errors.New("ledger: missing required signature")
	ErrAuthorityMismatch = errors.New("ledger: authority mismatch")
)

// Account is one address worth of state.
type Account struct {
	Owner common.PublicKey // owning program
	Data  []byte
}

func (a Account) clone() Account {
	return Account{Owner: a.Owner, Data: append([]byte(nil), a.Data...)}
}

// Reader is satisfied by both *Ledger (committed view) and *Tx (pending view).
type Reader interface {
	Account(addr common.PublicKey) (Account, bool)
}

// Invocation describes the outer transaction: the program being run and
// the keys that signed it.
type Invocation struct {
	Program common.PublicKey
	Signers []common.PublicKey
}

// Receipt of a committed transaction.
type Receipt struct {
	Signature string
	Program   common.PublicKey
	Logs      []string
}

// Ledger is an in-process account store with all-or-nothing transactions.
// Transactions are serialized.
type Ledger struct {
	mu       sync.Mutex
	accounts map[common.PublicKey]Account
	receipts []Receipt
}

func New() *Ledger {
	return &Ledger{accounts: make(map[common.PublicKey]Account)}
}

// Account returns a copy of the committed account at addr.
func (l *Ledger) Account(addr common.PublicKey) (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return Account{}, false
	}
	return acc.clone(), true
}

// Receipts returns committed receipts in commit order.
func (l *Ledger) Receipts() []Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Receipt, len(l.receipts))
	copy(out, l.receipts)
	return out
}

// Atomic runs fn inside one transaction. Writes and logs become visible
// only if fn returns nil; any error discards everything.
func (l *Ledger) Atomic(ctx context.Context, inv Invocation, fn func(tx *Tx) error) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := newTx(l, inv)
	tx.logs = append(tx.logs, fmt.Sprintf("Program %s invoke [1]", inv.Program.ToBase58()))
	if err := fn(tx); err != nil {
		return Receipt{}, err
	}
	tx.logs = append(tx.logs, fmt.Sprintf("Program %s success", inv.Program.ToBase58()))

	for addr, acc := range tx.dirty {
		l.accounts[addr] = acc
	}
	r := Receipt{
		Signature: "sim-" + uuid.NewString(),
		Program:   inv.Program,
		Logs:      tx.logs,
	}
	l.receipts = append(l.receipts, r)
	return r, nil
}
