// internal/ledger/tokenprog/program.go
package tokenprog

import (
	"errors"
	"fmt"
	"math"

	"github.com/blocto/solana-go-sdk/common"

	"solana-bridge/internal/ledger"
	"solana-bridge/internal/program/pda"
)

// Errors
var (
	ErrInvalidAccount    = errors.New("token: invalid account data")
	ErrInsufficientFunds = errors.New("token: insufficient funds")
	ErrMintMismatch      = errors.New("token: account not associated with this mint")
	ErrOwnerMismatch     = errors.New("token: owner does not match")
	ErrFixedSupply       = errors.New("token: the token supply has no mint authority")
	ErrAccountFrozen     = errors.New("token: account is frozen")
	ErrOverflow          = errors.New("token: operation overflowed")
)

// AuthorityType selects which mint authority SetAuthority replaces.
type AuthorityType uint8

const (
	AuthorityMintTokens AuthorityType = iota
	AuthorityFreezeAccount
)

// Program is the fungible-token service: SPL token semantics over the ledger.
type Program struct {
	id common.PublicKey
}

func New() *Program {
	return &Program{id: common.TokenProgramID}
}

func (p *Program) ID() common.PublicKey { return p.id }

// ========================================
// 読み取り
// ========================================

// MintOf decodes the mint at addr from r.
func (p *Program) MintOf(r ledger.Reader, addr common.PublicKey) (Mint, error) {
	acc, ok := r.Account(addr)
	if !ok {
		return Mint{}, fmt.Errorf("%w: mint %s", ledger.ErrAccountNotFound, addr.ToBase58())
	}
	if acc.Owner != p.id {
		return Mint{}, fmt.Errorf("%w: mint %s", ledger.ErrIllegalOwner, addr.ToBase58())
	}
	return DecodeMint(acc.Data)
}

// HoldingOf decodes the holding at addr from r.
func (p *Program) HoldingOf(r ledger.Reader, addr common.PublicKey) (Holding, error) {
	acc, ok := r.Account(addr)
	if !ok {
		return Holding{}, fmt.Errorf("%w: holding %s", ledger.ErrAccountNotFound, addr.ToBase58())
	}
	if acc.Owner != p.id {
		return Holding{}, fmt.Errorf("%w: holding %s", ledger.ErrIllegalOwner, addr.ToBase58())
	}
	return DecodeHolding(acc.Data)
}

// ========================================
// 命令
// ========================================

// InitializeMint creates a mint account at mint.
func (p *Program) InitializeMint(
	tx *ledger.Tx,
	payer, mint common.PublicKey,
	decimals uint8,
	authority common.PublicKey,
	freeze *common.PublicKey,
) error {
	if err := tx.RequireSigner(payer); err != nil {
		return err
	}
	m := Mint{
		MintAuthority:   &authority,
		Decimals:        decimals,
		IsInitialized:   true,
		FreezeAuthority: freeze,
	}
	if err := tx.Create(p.id, mint, m.Encode()); err != nil {
		return err
	}
	tx.Logf("Instruction: InitializeMint")
	return nil
}

// CreateAssociatedHolding returns the associated holding of owner for mint,
// creating it when absent. An existing holding is reused as is.
func (p *Program) CreateAssociatedHolding(tx *ledger.Tx, payer, owner, mint common.PublicKey) (common.PublicKey, error) {
	addr, err := pda.AssociatedHolding(owner, mint)
	if err != nil {
		return common.PublicKey{}, err
	}
	if tx.Exists(addr) {
		h, err := p.HoldingOf(tx, addr)
		if err != nil {
			return common.PublicKey{}, err
		}
		if h.Mint != mint || h.Owner != owner {
			return common.PublicKey{}, fmt.Errorf("%w: %s", ErrMintMismatch, addr.ToBase58())
		}
		return addr, nil
	}

	if err := tx.RequireSigner(payer); err != nil {
		return common.PublicKey{}, err
	}
	if _, err := p.MintOf(tx, mint); err != nil {
		return common.PublicKey{}, err
	}
	h := Holding{Mint: mint, Owner: owner, State: HoldingInitialized}
	if err := tx.Create(p.id, addr, h.Encode()); err != nil {
		return common.PublicKey{}, err
	}
	tx.Logf("Create associated holding %s", addr.ToBase58())
	return addr, nil
}

// Approve lets delegate move up to amount out of holding.
func (p *Program) Approve(tx *ledger.Tx, holding, delegate common.PublicKey, owner ledger.Authority, amount uint64) error {
	h, err := p.HoldingOf(tx, holding)
	if err != nil {
		return err
	}
	if h.State == HoldingFrozen {
		return ErrAccountFrozen
	}
	if err := tx.Authorize(owner, h.Owner); err != nil {
		return err
	}
	h.Delegate = &delegate
	h.DelegatedAmount = amount
	if err := tx.Write(p.id, holding, h.Encode()); err != nil {
		return err
	}
	tx.Logf("Instruction: Approve")
	return nil
}

// Transfer moves amount from one holding to another of the same mint.
// authority is the holding owner or its delegate.
func (p *Program) Transfer(tx *ledger.Tx, from, to common.PublicKey, authority ledger.Authority, amount uint64) error {
	src, err := p.HoldingOf(tx, from)
	if err != nil {
		return err
	}
	dst, err := p.HoldingOf(tx, to)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if src.State == HoldingFrozen || dst.State == HoldingFrozen {
		return ErrAccountFrozen
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	if err := authorizeSpend(tx, &src, authority, amount); err != nil {
		return err
	}

	tx.Logf("Instruction: Transfer")
	if from == to {
		return tx.Write(p.id, from, src.Encode())
	}
	if dst.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := tx.Write(p.id, from, src.Encode()); err != nil {
		return err
	}
	return tx.Write(p.id, to, dst.Encode())
}

// MintTo creates amount new units in holding to.
func (p *Program) MintTo(tx *ledger.Tx, to, mint common.PublicKey, authority ledger.Authority, amount uint64) error {
	m, err := p.MintOf(tx, mint)
	if err != nil {
		return err
	}
	h, err := p.HoldingOf(tx, to)
	if err != nil {
		return err
	}
	if h.Mint != mint {
		return ErrMintMismatch
	}
	if h.State == HoldingFrozen {
		return ErrAccountFrozen
	}
	if m.MintAuthority == nil {
		return ErrFixedSupply
	}
	if err := tx.Authorize(authority, *m.MintAuthority); err != nil {
		return err
	}
	if m.Supply > math.MaxUint64-amount {
		return ErrOverflow
	}
	m.Supply += amount
	h.Amount += amount

	tx.Logf("Instruction: MintTo")
	if err := tx.Write(p.id, mint, m.Encode()); err != nil {
		return err
	}
	return tx.Write(p.id, to, h.Encode())
}

// Burn destroys amount units held in from.
func (p *Program) Burn(tx *ledger.Tx, mint, from common.PublicKey, authority ledger.Authority, amount uint64) error {
	m, err := p.MintOf(tx, mint)
	if err != nil {
		return err
	}
	h, err := p.HoldingOf(tx, from)
	if err != nil {
		return err
	}
	if h.Mint != mint {
		return ErrMintMismatch
	}
	if h.State == HoldingFrozen {
		return ErrAccountFrozen
	}
	if h.Amount < amount {
		return ErrInsufficientFunds
	}
	if err := authorizeSpend(tx, &h, authority, amount); err != nil {
		return err
	}
	h.Amount -= amount
	m.Supply -= amount

	tx.Logf("Instruction: Burn")
	if err := tx.Write(p.id, from, h.Encode()); err != nil {
		return err
	}
	return tx.Write(p.id, mint, m.Encode())
}

// SetAuthority replaces one of the mint's authorities. nil disables it.
func (p *Program) SetAuthority(tx *ledger.Tx, mint common.PublicKey, kind AuthorityType, current ledger.Authority, next *common.PublicKey) error {
	m, err := p.MintOf(tx, mint)
	if err != nil {
		return err
	}
	var slot **common.PublicKey
	switch kind {
	case AuthorityMintTokens:
		slot = &m.MintAuthority
	case AuthorityFreezeAccount:
		slot = &m.FreezeAuthority
	default:
		return fmt.Errorf("token: unknown authority type %d", kind)
	}
	if *slot == nil {
		return ErrFixedSupply
	}
	if err := tx.Authorize(current, **slot); err != nil {
		return err
	}
	*slot = next

	tx.Logf("Instruction: SetAuthority")
	return tx.Write(p.id, mint, m.Encode())
}

// authorizeSpend accepts the owner, or a delegate within its allowance.
func authorizeSpend(tx *ledger.Tx, h *Holding, authority ledger.Authority, amount uint64) error {
	switch {
	case authority.Address() == h.Owner:
		return tx.Authorize(authority, h.Owner)
	case h.Delegate != nil && authority.Address() == *h.Delegate:
		if err := tx.Authorize(authority, *h.Delegate); err != nil {
			return err
		}
		if h.DelegatedAmount < amount {
			return ErrInsufficientFunds
		}
		h.DelegatedAmount -= amount
		if h.DelegatedAmount == 0 {
			h.Delegate = nil
		}
		return nil
	default:
		return ErrOwnerMismatch
	}
}
