// internal/program/create_nft.go
package program

import (
	"context"
	"log"

	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"

	"solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/ledger"
	"solana-bridge/internal/program/pda"
)

// uniqueSupply: the edition marker allows exactly one copy.
const uniqueSupply uint64 = 1

// CreateNFT issues a unique asset to in.Recipient and emits AssetIssued.
//
// The mint lives at the per-asset derived address, which is also its mint and
// freeze authority; every delegated step is signed by that address. All steps
// share one transaction, so a failure anywhere leaves nothing behind.
func (p *Program) CreateNFT(ctx context.Context, in bridge.IssueParams) (bridge.IssueResult, error) {
	seeds, err := pda.MintSeeds(in.SeedP1, in.SeedP2, in.ID)
	if err != nil {
		return bridge.IssueResult{}, err
	}
	mint, bump, err := pda.FindMint(p.id, in.SeedP1, in.SeedP2, in.ID)
	if err != nil {
		return bridge.IssueResult{}, err
	}

	var out bridge.IssueResult
	rcpt, err := p.ledger.Atomic(ctx, p.invocation(in.Backend), func(tx *ledger.Tx) error {
		tx.Logf("Instruction: CreateNft")

		b, err := p.loadBridge(tx, in.Bridge)
		if err != nil {
			return err
		}
		if err := authorize(tx, b, in.Backend); err != nil {
			return err
		}
		signer, err := pda.Sign(p.id, mint, pda.WithBump(seeds, bump)...)
		if err != nil {
			return err
		}
		authority := ledger.Derived(signer)

		// 0) mint 口座の作成（decimals=0）と受取人ホールディング
		if err := p.tokens.InitializeMint(tx, in.Backend, mint, 0, mint, &mint); err != nil {
			return bridge.Collaborator("initialize mint", err)
		}
		holding, err := p.tokens.CreateAssociatedHolding(tx, in.Backend, in.Recipient, mint)
		if err != nil {
			return bridge.Collaborator("create recipient holding", err)
		}

		// 1) 1 枚だけミント
		if err := p.tokens.MintTo(tx, holding, mint, authority, 1); err != nil {
			return bridge.Collaborator("mint", err)
		}

		// 2) メタデータ（ロイヤリティなし / creators・collection・uses なし / mutable）
		metadata, err := p.metadata.CreateMetadata(tx, mint, in.Backend, authority, token_metadata.DataV2{
			Name:                 in.Name,
			Symbol:               in.Symbol,
			Uri:                  in.URI,
			SellerFeeBasisPoints: 0,
		}, true)
		if err != nil {
			return bridge.Collaborator("create metadata", err)
		}

		// 3) MasterEdition（MaxSupply = 1）
		maxSupply := uniqueSupply
		edition, err := p.metadata.CreateEditionMarker(tx, mint, in.Backend, authority, &maxSupply)
		if err != nil {
			return bridge.Collaborator("create edition", err)
		}

		out = bridge.IssueResult{Mint: mint, Holding: holding, Metadata: metadata, Edition: edition}
		return emit(tx, bridge.Event{
			Kind:      bridge.EventAssetIssued,
			Mint:      mint,
			Holding:   holding,
			RequestID: in.RequestID,
		})
	})
	if err != nil {
		return bridge.IssueResult{}, err
	}
	receipt, err := toReceipt(rcpt)
	if err != nil {
		return bridge.IssueResult{}, err
	}
	out.Receipt = receipt
	out.Event = receipt.Events[0]

	log.Printf("[bridge] issued mint=%s recipient=%s id=%d requestId=%q",
		bridge.Short(mint), bridge.Short(in.Recipient), in.ID, in.RequestID)
	return out, nil
}
