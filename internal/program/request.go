// internal/program/request.go
package program

import (
	"context"
	"log"

	"github.com/blocto/solana-go-sdk/common"

	"solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/ledger"
	"solana-bridge/internal/program/pda"
)

// SubmitRequest takes one unit of in.Mint from the user holding into the
// bridge's custody holding and emits RequestSubmitted.
func (p *Program) SubmitRequest(ctx context.Context, in bridge.RequestParams) (bridge.RequestResult, error) {
	var holding common.PublicKey

	rcpt, err := p.ledger.Atomic(ctx, p.invocation(in.Backend), func(tx *ledger.Tx) error {
		tx.Logf("Instruction: NewRequest")

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

		// 1) 受け取り側（ブリッジ所有）のホールディング。初回のみ作成
		holding, err = p.tokens.CreateAssociatedHolding(tx, in.Backend, in.Bridge, in.Mint)
		if err != nil {
			return bridge.Collaborator("create custody holding", err)
		}
		if holding == in.UserHolding {
			return bridge.ErrInvalidHolding
		}

		// 2) 1 単位をブリッジの署名で移動
		if err := p.tokens.Transfer(tx, in.UserHolding, holding, ledger.Derived(signer), 1); err != nil {
			return bridge.Collaborator("transfer", err)
		}

		return emit(tx, bridge.Event{
			Kind:      bridge.EventRequestSubmitted,
			Mint:      in.Mint,
			Holding:   holding,
			RequestID: in.RequestID,
		})
	})
	if err != nil {
		return bridge.RequestResult{}, err
	}
	receipt, err := toReceipt(rcpt)
	if err != nil {
		return bridge.RequestResult{}, err
	}

	log.Printf("[bridge] custody mint=%s from=%s to=%s requestId=%q",
		bridge.Short(in.Mint), bridge.Short(in.UserHolding), bridge.Short(holding), in.RequestID)
	return bridge.RequestResult{
		BridgeHolding: holding,
		Event:         receipt.Events[0],
		Receipt:       receipt,
	}, nil
}
