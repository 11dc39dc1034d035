// internal/infra/solana/executor.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"

	bridgedom "solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/ledger/tokenprog"
	"solana-bridge/internal/program/pda"
)

var (
	ErrExecutorNotConfigured = errors.New("bridge_executor: not configured")
	ErrSignerUnavailable     = errors.New("bridge_executor: signer key is not held by this executor")
	ErrConfirmTimeout        = errors.New("bridge_executor: transaction not confirmed in time")
)

// Executor submits bridge instructions to a Solana cluster,
// signing with the backend authority account.
type Executor struct {
	RPC       *client.Client
	ProgramID common.PublicKey
	Authority types.Account

	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// NewExecutor constructs executor.
// RPC URL resolves from SOLANA_RPC_URL if url is empty.
func NewExecutor(rpcURL string, programID common.PublicKey, authority types.Account) *Executor {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = strings.TrimSpace(os.Getenv("SOLANA_RPC_URL"))
	}
	if u == "" {
		u = rpc.DevnetRPCEndpoint
	}
	return &Executor{
		RPC:            client.NewClient(u),
		ProgramID:      programID,
		Authority:      authority,
		ConfirmTimeout: 60 * time.Second,
		PollInterval:   time.Second,
	}
}

// ------------------------------------------------------------
// usecase.BridgeExecutor
// ------------------------------------------------------------

func (e *Executor) InitializeBridge(ctx context.Context, in bridgedom.InitializeParams) (bridgedom.InitializeResult, error) {
	if err := e.ready(in.Signer); err != nil {
		return bridgedom.InitializeResult{}, err
	}

	addr, bump, err := pda.FindBridge(e.ProgramID, in.Seed)
	if err != nil {
		return bridgedom.InitializeResult{}, err
	}
	ix, err := InitializeBridgeIx(e.ProgramID, addr, in.Signer, in.Seed)
	if err != nil {
		return bridgedom.InitializeResult{}, err
	}

	rc, err := e.submit(ctx, IxInitializeBridge, ix)
	if err != nil {
		return bridgedom.InitializeResult{}, err
	}
	return bridgedom.InitializeResult{Bridge: addr, Bump: bump, Receipt: rc}, nil
}

func (e *Executor) SubmitRequest(ctx context.Context, in bridgedom.RequestParams) (bridgedom.RequestResult, error) {
	if err := e.ready(in.Backend); err != nil {
		return bridgedom.RequestResult{}, err
	}

	holding, err := pda.AssociatedHolding(in.Bridge, in.Mint)
	if err != nil {
		return bridgedom.RequestResult{}, err
	}
	if holding == in.UserHolding {
		return bridgedom.RequestResult{}, bridgedom.ErrInvalidHolding
	}

	ix, err := NewRequestIx(e.ProgramID, NewRequestAccounts{
		Bridge:        in.Bridge,
		Mint:          in.Mint,
		UserHolding:   in.UserHolding,
		BridgeHolding: holding,
		Backend:       in.Backend,
	}, in.RequestID)
	if err != nil {
		return bridgedom.RequestResult{}, err
	}

	rc, err := e.submit(ctx, IxNewRequest, ix)
	if err != nil {
		return bridgedom.RequestResult{}, err
	}
	ev, _ := findEvent(rc.Events, bridgedom.EventRequestSubmitted)
	return bridgedom.RequestResult{BridgeHolding: holding, Event: ev, Receipt: rc}, nil
}

func (e *Executor) BurnToken(ctx context.Context, in bridgedom.BurnParams) (bridgedom.BurnResult, error) {
	if err := e.ready(in.Backend); err != nil {
		return bridgedom.BurnResult{}, err
	}

	holding := in.BridgeHolding
	if holding == (common.PublicKey{}) {
		var err error
		if holding, err = pda.AssociatedHolding(in.Bridge, in.Mint); err != nil {
			return bridgedom.BurnResult{}, err
		}
	}

	ix, err := BurnTokenIx(e.ProgramID, BurnTokenAccounts{
		Bridge:        in.Bridge,
		Mint:          in.Mint,
		BridgeHolding: holding,
		Backend:       in.Backend,
	})
	if err != nil {
		return bridgedom.BurnResult{}, err
	}

	rc, err := e.submit(ctx, IxBurnToken, ix)
	if err != nil {
		return bridgedom.BurnResult{}, err
	}
	return bridgedom.BurnResult{BridgeHolding: holding, Receipt: rc}, nil
}

func (e *Executor) CreateNFT(ctx context.Context, in bridgedom.IssueParams) (bridgedom.IssueResult, error) {
	if err := e.ready(in.Backend); err != nil {
		return bridgedom.IssueResult{}, err
	}

	accs, err := e.issueAccounts(in)
	if err != nil {
		return bridgedom.IssueResult{}, err
	}

	ix, err := CreateNFTIx(e.ProgramID, accs, CreateNFTArgs{
		ID:        in.ID,
		SeedP1:    in.SeedP1,
		SeedP2:    in.SeedP2,
		Name:      in.Name,
		Symbol:    in.Symbol,
		URI:       in.URI,
		RequestID: in.RequestID,
	})
	if err != nil {
		return bridgedom.IssueResult{}, err
	}

	rc, err := e.submit(ctx, IxCreateNFT, ix)
	if err != nil {
		return bridgedom.IssueResult{}, err
	}
	ev, _ := findEvent(rc.Events, bridgedom.EventAssetIssued)
	return bridgedom.IssueResult{
		Mint:     accs.Mint,
		Holding:  accs.Holding,
		Metadata: accs.Metadata,
		Edition:  accs.Edition,
		Event:    ev,
		Receipt:  rc,
	}, nil
}

// FetchBridge reads and decodes the registry account.
func (e *Executor) FetchBridge(ctx context.Context, addr common.PublicKey) (bridgedom.Bridge, error) {
	if e == nil || e.RPC == nil {
		return bridgedom.Bridge{}, ErrExecutorNotConfigured
	}

	info, err := e.RPC.GetAccountInfo(ctx, addr.ToBase58())
	if err != nil {
		if isAccountMissing(err) {
			return bridgedom.Bridge{}, bridgedom.ErrBridgeNotFound
		}
		return bridgedom.Bridge{}, fmt.Errorf("bridge_executor: GetAccountInfo: %w", err)
	}
	return decodeBridgeAccount(e.ProgramID, addr, info)
}

// Balance reads the amount of an SPL token account.
func (e *Executor) Balance(ctx context.Context, holding common.PublicKey) (uint64, error) {
	if e == nil || e.RPC == nil {
		return 0, ErrExecutorNotConfigured
	}
	info, err := e.RPC.GetAccountInfo(ctx, holding.ToBase58())
	if err != nil {
		if isAccountMissing(err) {
			return 0, bridgedom.ErrHoldingNotFound
		}
		return 0, fmt.Errorf("bridge_executor: GetAccountInfo: %w", err)
	}
	return decodeHoldingAmount(holding, info)
}

// decodeBridgeAccount はプログラム所有の registry だけを受け付けます。
func decodeBridgeAccount(programID, addr common.PublicKey, info client.AccountInfo) (bridgedom.Bridge, error) {
	if len(info.Data) == 0 {
		return bridgedom.Bridge{}, bridgedom.ErrBridgeNotFound
	}
	if info.Owner != programID {
		return bridgedom.Bridge{}, fmt.Errorf("%w: %s owned by %s", bridgedom.ErrBridgeNotFound,
			bridgedom.Short(addr), bridgedom.Short(info.Owner))
	}
	return bridgedom.UnmarshalAccount(info.Data)
}

// decodeHoldingAmount は token program 所有の holding だけを受け付けます。
func decodeHoldingAmount(addr common.PublicKey, info client.AccountInfo) (uint64, error) {
	if len(info.Data) == 0 {
		return 0, bridgedom.ErrHoldingNotFound
	}
	if info.Owner != common.TokenProgramID {
		return 0, fmt.Errorf("%w: %s owned by %s", bridgedom.ErrHoldingNotFound,
			bridgedom.Short(addr), bridgedom.Short(info.Owner))
	}
	h, err := tokenprog.DecodeHolding(info.Data)
	if err != nil {
		return 0, err
	}
	return h.Amount, nil
}

// ------------------------------------------------------------
// internals
// ------------------------------------------------------------

func (e *Executor) ready(signer common.PublicKey) error {
	if e == nil || e.RPC == nil {
		return ErrExecutorNotConfigured
	}
	if signer != e.Authority.PublicKey {
		return fmt.Errorf("%w: %s", ErrSignerUnavailable, bridgedom.Short(signer))
	}
	return nil
}

func (e *Executor) issueAccounts(in bridgedom.IssueParams) (CreateNFTAccounts, error) {
	mint, _, err := pda.FindMint(e.ProgramID, in.SeedP1, in.SeedP2, in.ID)
	if err != nil {
		return CreateNFTAccounts{}, err
	}
	holding, err := pda.AssociatedHolding(in.Recipient, mint)
	if err != nil {
		return CreateNFTAccounts{}, err
	}
	metadata, err := pda.MetadataAddress(mint)
	if err != nil {
		return CreateNFTAccounts{}, err
	}
	edition, err := pda.EditionAddress(mint)
	if err != nil {
		return CreateNFTAccounts{}, err
	}
	return CreateNFTAccounts{
		Bridge:    in.Bridge,
		Backend:   in.Backend,
		Mint:      mint,
		Holding:   holding,
		Recipient: in.Recipient,
		Edition:   edition,
		Metadata:  metadata,
	}, nil
}

// submit signs ix with the authority, sends it, and waits for the logs.
func (e *Executor) submit(ctx context.Context, name string, ix types.Instruction) (bridgedom.Receipt, error) {
	return e.submitAll(ctx, name, []types.Instruction{ix})
}

// submitAll は authority を fee payer として複数命令を 1 トランザクションで送ります。
func (e *Executor) submitAll(
	ctx context.Context,
	name string,
	ixs []types.Instruction,
	extra ...types.Account,
) (bridgedom.Receipt, error) {
	latest, err := e.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return bridgedom.Receipt{}, fmt.Errorf("bridge_executor: GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        e.Authority.PublicKey,
			RecentBlockhash: latest.Blockhash,
			Instructions:    ixs,
		}),
		Signers: append([]types.Account{e.Authority}, extra...),
	})
	if err != nil {
		return bridgedom.Receipt{}, fmt.Errorf("bridge_executor: NewTransaction: %w", err)
	}

	sig, err := e.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return bridgedom.Receipt{}, mapProgramError(name, err)
	}
	log.Printf("[bridge_executor] submitted ix=%s tx=%s", name, maskShort(sig))

	logs, err := e.waitLogs(ctx, sig)
	if err != nil {
		return bridgedom.Receipt{}, mapProgramError(name, err)
	}

	events, err := bridgedom.DecodeEventLogs(logs)
	if err != nil {
		return bridgedom.Receipt{}, err
	}
	return bridgedom.Receipt{Signature: sig, Logs: logs, Events: events}, nil
}

func (e *Executor) waitLogs(ctx context.Context, sig string) ([]string, error) {
	timeout := e.ConfirmTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	interval := e.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		got, err := e.RPC.GetTransaction(ctx, sig)
		if err == nil && got != nil && got.Meta != nil {
			if got.Meta.Err != nil {
				return got.Meta.LogMessages, fmt.Errorf("transaction %s failed: %v: %s",
					sig, got.Meta.Err, strings.Join(got.Meta.LogMessages, "; "))
			}
			return got.Meta.LogMessages, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: tx=%s", ErrConfirmTimeout, sig)
		case <-ticker.C:
		}
	}
}

func findEvent(events []bridgedom.Event, kind bridgedom.EventKind) (bridgedom.Event, bool) {
	for _, ev := range events {
		if ev.Kind == kind {
			return ev, true
		}
	}
	return bridgedom.Event{}, false
}

// mapProgramError は RPC のエラーメッセージからドメインエラーへ変換します。
// - 0x1770 (6000): NotBridgeBackend
// - "already in use": bridge 再初期化
// - 0xbc4 (3012 AccountNotInitialized): bridge 未作成
// - 0x7d6 (2006 ConstraintSeeds): 導出不一致
// - それ以外の custom program error は token / metadata 側の拒否として扱う
func mapProgramError(ix string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, fmt.Sprintf("custom program error: 0x%x", bridgedom.CodeNotBridgeBackend)):
		return fmt.Errorf("%w: %s: %v", bridgedom.ErrNotBridgeBackend, ix, err)
	case strings.Contains(msg, "already in use"):
		if ix == IxInitializeBridge {
			return fmt.Errorf("%w: %v", bridgedom.ErrDuplicateInitialization, err)
		}
		return bridgedom.Collaborator(ix, err)
	case strings.Contains(msg, "custom program error: 0xbc4"):
		return fmt.Errorf("%w: %s: %v", bridgedom.ErrBridgeNotFound, ix, err)
	case strings.Contains(msg, "custom program error: 0x7d6"):
		return fmt.Errorf("%w: %s: %v", bridgedom.ErrDerivationMismatch, ix, err)
	case strings.Contains(msg, "custom program error"):
		return bridgedom.Collaborator(ix, err)
	default:
		return fmt.Errorf("bridge_executor: %s: %w", ix, err)
	}
}

func isAccountMissing(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "account does not exist")
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
