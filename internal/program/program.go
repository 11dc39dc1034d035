// internal/program/program.go
package program

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"

	"solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/ledger"
	"solana-bridge/internal/ledger/metaprog"
	"solana-bridge/internal/ledger/tokenprog"
)

// DefaultProgramID is the deployed bridge program.
var DefaultProgramID = common.PublicKeyFromString("2ysHAVbpzL1tMPEvx2EvMqvzyVFWHFVRRWVhSpgtkxyt")

// TokenService is the fungible-token collaborator.
type TokenService interface {
	InitializeMint(tx *ledger.Tx, payer, mint common.PublicKey, decimals uint8, authority common.PublicKey, freeze *common.PublicKey) error
	CreateAssociatedHolding(tx *ledger.Tx, payer, owner, mint common.PublicKey) (common.PublicKey, error)
	Transfer(tx *ledger.Tx, from, to common.PublicKey, authority ledger.Authority, amount uint64) error
	MintTo(tx *ledger.Tx, to, mint common.PublicKey, authority ledger.Authority, amount uint64) error
	Burn(tx *ledger.Tx, mint, from common.PublicKey, authority ledger.Authority, amount uint64) error
}

// MetadataService is the metadata/edition collaborator.
type MetadataService interface {
	CreateMetadata(tx *ledger.Tx, mint, payer common.PublicKey, authority ledger.Authority, data token_metadata.DataV2, isMutable bool) (common.PublicKey, error)
	CreateEditionMarker(tx *ledger.Tx, mint, payer common.PublicKey, authority ledger.Authority, maxSupply *uint64) (common.PublicKey, error)
}

var (
	_ TokenService    = (*tokenprog.Program)(nil)
	_ MetadataService = (*metaprog.Program)(nil)
)

// Program is the bridge custody/authority program running on a ledger.
type Program struct {
	id       common.PublicKey
	ledger   *ledger.Ledger
	tokens   TokenService
	metadata MetadataService
}

func New(id common.PublicKey, l *ledger.Ledger, tokens TokenService, metadata MetadataService) *Program {
	return &Program{id: id, ledger: l, tokens: tokens, metadata: metadata}
}

func (p *Program) ID() common.PublicKey { return p.id }

func (p *Program) Ledger() *ledger.Ledger { return p.ledger }

// FetchBridge reads the committed registry at addr.
func (p *Program) FetchBridge(_ context.Context, addr common.PublicKey) (bridge.Bridge, error) {
	acc, ok := p.ledger.Account(addr)
	if !ok || acc.Owner != p.id {
		return bridge.Bridge{}, bridge.ErrBridgeNotFound
	}
	return bridge.UnmarshalAccount(acc.Data)
}

func (p *Program) invocation(signer common.PublicKey) ledger.Invocation {
	return ledger.Invocation{Program: p.id, Signers: []common.PublicKey{signer}}
}

// loadBridge reads the registry inside tx.
func (p *Program) loadBridge(tx *ledger.Tx, addr common.PublicKey) (bridge.Bridge, error) {
	acc, ok := tx.Account(addr)
	if !ok || acc.Owner != p.id {
		return bridge.Bridge{}, fmt.Errorf("%w: %s", bridge.ErrBridgeNotFound, addr.ToBase58())
	}
	return bridge.UnmarshalAccount(acc.Data)
}

// authorize is the entry guard of every privileged operation.
func authorize(tx *ledger.Tx, b bridge.Bridge, caller common.PublicKey) error {
	if !b.IsAuthority(caller) || !tx.IsSigner(caller) {
		return bridge.ErrNotBridgeBackend
	}
	return nil
}

func emit(tx *ledger.Tx, ev bridge.Event) error {
	line, err := ev.LogLine()
	if err != nil {
		return err
	}
	tx.LogRaw(line)
	return nil
}

func toReceipt(r ledger.Receipt) (bridge.Receipt, error) {
	events, err := bridge.DecodeEventLogs(r.Logs)
	if err != nil {
		return bridge.Receipt{}, err
	}
	return bridge.Receipt{Signature: r.Signature, Logs: r.Logs, Events: events}, nil
}
