// internal/infra/simulator/simulator.go
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	bridgedom "solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/ledger"
	"solana-bridge/internal/ledger/metaprog"
	"solana-bridge/internal/ledger/tokenprog"
	"solana-bridge/internal/program"
)

var ErrForeignMint = errors.New("simulator: mint is not controlled by the dev mint authority")

// Simulator runs the bridge program against an in-process ledger.
// Program の命令はそのまま usecase.BridgeExecutor として使える。
type Simulator struct {
	*program.Program

	tokens  *tokenprog.Program
	devMint common.PublicKey // fund 用の mint authority
}

func New(programID common.PublicKey) *Simulator {
	l := ledger.New()
	tokens := tokenprog.New()
	meta := metaprog.New(tokens)
	return &Simulator{
		Program: program.New(programID, l, tokens, meta),
		tokens:  tokens,
		devMint: types.NewAccount().PublicKey,
	}
}

// FundHolding gives owner amount units of mint in its associated holding and
// approves delegate for allowance. A zero mint creates a fresh one (decimals 0).
func (s *Simulator) FundHolding(
	ctx context.Context,
	owner, mint common.PublicKey,
	amount uint64,
	delegate common.PublicKey,
	allowance uint64,
) (common.PublicKey, common.PublicKey, error) {
	if owner == (common.PublicKey{}) {
		return common.PublicKey{}, common.PublicKey{}, bridgedom.ErrInvalidPublicKey
	}

	fresh := mint == (common.PublicKey{})
	if fresh {
		mint = types.NewAccount().PublicKey
	} else {
		m, err := s.tokens.MintOf(s.Ledger(), mint)
		if err != nil {
			return common.PublicKey{}, common.PublicKey{}, err
		}
		if m.MintAuthority == nil || *m.MintAuthority != s.devMint {
			return common.PublicKey{}, common.PublicKey{}, bridgedom.Collaborator("fund_holding", ErrForeignMint)
		}
	}

	var holding common.PublicKey
	_, err := s.Ledger().Atomic(ctx, ledger.Invocation{
		Program: s.tokens.ID(),
		Signers: []common.PublicKey{owner, s.devMint},
	}, func(tx *ledger.Tx) error {
		if fresh {
			if err := s.tokens.InitializeMint(tx, owner, mint, 0, s.devMint, nil); err != nil {
				return err
			}
		}
		h, err := s.tokens.CreateAssociatedHolding(tx, owner, owner, mint)
		if err != nil {
			return err
		}
		holding = h
		if amount > 0 {
			if err := s.tokens.MintTo(tx, h, mint, ledger.Signer(s.devMint), amount); err != nil {
				return err
			}
		}
		if delegate != (common.PublicKey{}) {
			return s.tokens.Approve(tx, h, delegate, ledger.Signer(owner), allowance)
		}
		return nil
	})
	if err != nil {
		return common.PublicKey{}, common.PublicKey{}, fmt.Errorf("simulator: fund holding: %w", err)
	}

	log.Printf("[simulator] funded owner=%s mint=%s holding=%s amount=%d",
		bridgedom.Short(owner), bridgedom.Short(mint), bridgedom.Short(holding), amount)
	return mint, holding, nil
}

// Balance returns the amount in holding.
func (s *Simulator) Balance(_ context.Context, holding common.PublicKey) (uint64, error) {
	h, err := s.tokens.HoldingOf(s.Ledger(), holding)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) || errors.Is(err, ledger.ErrIllegalOwner) {
			return 0, fmt.Errorf("%w: %v", bridgedom.ErrHoldingNotFound, err)
		}
		return 0, err
	}
	return h.Amount, nil
}
