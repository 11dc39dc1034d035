// internal/infra/solana/dev_funding.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"

	bridgedom "solana-bridge/internal/domain/bridge"
)

const ixDevFund = "dev_fund_holding"

var ErrDevOwnerMismatch = errors.New("bridge_executor: dev funding requires owner == authority")

// FundHolding は devnet 用のテスト資産を用意します。
//  1. mint が空なら新規 mint (decimals 0, mint authority = backend) を作成
//  2. owner の ATA を冪等に作成
//  3. amount をミント
//  4. delegate に allowance を approve
//
// approve には owner の署名が要るため owner は backend authority に限る。
func (e *Executor) FundHolding(
	ctx context.Context,
	owner, mint common.PublicKey,
	amount uint64,
	delegate common.PublicKey,
	allowance uint64,
) (common.PublicKey, common.PublicKey, error) {
	if e == nil || e.RPC == nil {
		return common.PublicKey{}, common.PublicKey{}, ErrExecutorNotConfigured
	}
	if owner != e.Authority.PublicKey {
		return common.PublicKey{}, common.PublicKey{}, ErrDevOwnerMismatch
	}

	var (
		ixs   []types.Instruction
		extra []types.Account
	)
	if mint == (common.PublicKey{}) {
		rent, err := e.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
		if err != nil {
			return common.PublicKey{}, common.PublicKey{}, fmt.Errorf("bridge_executor: GetMinimumBalanceForRentExemption: %w", err)
		}
		acc := types.NewAccount()
		mint = acc.PublicKey
		extra = append(extra, acc)
		ixs = append(ixs, newMintIxs(e.Authority.PublicKey, mint, rent)...)
	}

	holding, ataIxs, err := fundHoldingIxs(e.Authority.PublicKey, owner, mint, amount, delegate, allowance)
	if err != nil {
		return common.PublicKey{}, common.PublicKey{}, err
	}
	ixs = append(ixs, ataIxs...)

	rc, err := e.submitAll(ctx, ixDevFund, ixs, extra...)
	if err != nil {
		return common.PublicKey{}, common.PublicKey{}, err
	}

	log.Printf("[bridge_executor] dev funded mint=%s holding=%s amount=%d tx=%s",
		bridgedom.Short(mint), bridgedom.Short(holding), amount, maskShort(rc.Signature))
	return mint, holding, nil
}

// newMintIxs creates a zero-decimal mint whose authority is auth.
func newMintIxs(auth, mint common.PublicKey, rent uint64) []types.Instruction {
	return []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     auth,
			New:      mint,
			Owner:    common.TokenProgramID,
			Lamports: rent,
			Space:    token.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals: 0,
			Mint:     mint,
			MintAuth: auth,
		}),
	}
}

func fundHoldingIxs(
	auth, owner, mint common.PublicKey,
	amount uint64,
	delegate common.PublicKey,
	allowance uint64,
) (common.PublicKey, []types.Instruction, error) {
	holding, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return common.PublicKey{}, nil, fmt.Errorf("bridge_executor: FindAssociatedTokenAddress: %w", err)
	}

	ixs := []types.Instruction{
		associated_token_account.CreateIdempotent(associated_token_account.CreateIdempotentParam{
			Funder:                 auth,
			Owner:                  owner,
			Mint:                   mint,
			AssociatedTokenAccount: holding,
		}),
	}
	if amount > 0 {
		ixs = append(ixs, token.MintTo(token.MintToParam{
			Mint:   mint,
			To:     holding,
			Auth:   auth,
			Amount: amount,
		}))
	}
	if delegate != (common.PublicKey{}) {
		ixs = append(ixs, token.Approve(token.ApproveParam{
			From:   holding,
			To:     delegate,
			Auth:   owner,
			Amount: allowance,
		}))
	}
	return holding, ixs, nil
}
