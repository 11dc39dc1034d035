// internal/program/initialize.go
package program

import (
	"context"
	"errors"
	"log"

	"solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/ledger"
	"solana-bridge/internal/program/pda"
)

// InitializeBridge creates the registry for in.Seed with the signer as authority.
// A second call for the same seed fails with ErrDuplicateInitialization.
func (p *Program) InitializeBridge(ctx context.Context, in bridge.InitializeParams) (bridge.InitializeResult, error) {
	addr, bump, err := pda.FindBridge(p.id, in.Seed)
	if err != nil {
		return bridge.InitializeResult{}, err
	}
	b, err := bridge.New(in.Signer, in.Seed, bump)
	if err != nil {
		return bridge.InitializeResult{}, err
	}
	data, err := b.MarshalAccount()
	if err != nil {
		return bridge.InitializeResult{}, err
	}

	rcpt, err := p.ledger.Atomic(ctx, p.invocation(in.Signer), func(tx *ledger.Tx) error {
		tx.Logf("Instruction: InitializeBridge")
		if err := tx.RequireSigner(in.Signer); err != nil {
			return err
		}
		if err := tx.Create(p.id, addr, data); err != nil {
			if errors.Is(err, ledger.ErrAccountInUse) {
				return bridge.ErrDuplicateInitialization
			}
			return err
		}
		return nil
	})
	if err != nil {
		return bridge.InitializeResult{}, err
	}
	receipt, err := toReceipt(rcpt)
	if err != nil {
		return bridge.InitializeResult{}, err
	}

	log.Printf("[bridge] initialized bridge=%s seed=%d bump=%d authority=%s",
		bridge.Short(addr), in.Seed, bump, bridge.Short(in.Signer))
	return bridge.InitializeResult{Bridge: addr, Bump: bump, Receipt: receipt}, nil
}
