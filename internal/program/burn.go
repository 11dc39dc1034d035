// internal/program/burn.go
package program

import (
	"context"
	"log"

	"github.com/blocto/solana-go-sdk/common"

	"solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/ledger"
	"solana-bridge/internal/program/pda"
)

// BurnToken destroys one custodied unit of in.Mint. No event is emitted.
func (p *Program) BurnToken(ctx context.Context, in bridge.BurnParams) (bridge.BurnResult, error) {
	holding := in.BridgeHolding
	if holding == (common.PublicKey{}) {
		h, err := pda.AssociatedHolding(in.Bridge, in.Mint)
		if err != nil {
			return bridge.BurnResult{}, err
		}
		holding = h
	}

	rcpt, err := p.ledger.Atomic(ctx, p.invocation(in.Backend), func(tx *ledger.Tx) error {
		tx.Logf("Instruction: BurnToken")

		b, err := p.loadBridge(tx, in.Bridge)
		if err != nil {
			return err
		}
		if err := authorize(tx, b, in.Backend); err != nil {
			return err
		}
		signer, err := pda.BridgeSigner(p.id, in.Bridge, b)
		if err != nil {
			return err
		}
		if err := p.tokens.Burn(tx, in.Mint, holding, ledger.Derived(signer), 1); err != nil {
			return bridge.Collaborator("burn", err)
		}
		return nil
	})
	if err != nil {
		return bridge.BurnResult{}, err
	}
	receipt, err := toReceipt(rcpt)
	if err != nil {
		return bridge.BurnResult{}, err
	}

	log.Printf("[bridge] released mint=%s holding=%s", bridge.Short(in.Mint), bridge.Short(holding))
	return bridge.BurnResult{BridgeHolding: holding, Receipt: receipt}, nil
}
