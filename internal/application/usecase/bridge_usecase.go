// internal/application/usecase/bridge_usecase.go
package usecase

/*
責任と機能:
- ブリッジ（custody / release / issuance）の各オペレーションを、
  バックエンド権限キーで executor（オンチェーン or シミュレータ）へ投げる。
- requestId 単位の二重実行を RequestJournal で防ぐ（reserve → 実行 → complete）。
  実行失敗時は reservation を best-effort で取り消す。
- issuance で URI が空かつ descriptor(JSON) が渡された場合は、
  DescriptorStore（GCS）へ保存してその URL を URI とする。
- 外部依存は Port(interface) に閉じ込め、Usecase は手順のみを担う。
*/

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/common"

	bridgedom "solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/program/pda"
)

// ============================================================
// Ports
// ============================================================

// BridgeExecutor runs the four bridge instructions.
// *program.Program (simulator) と infra/solana.Executor が実装する。
type BridgeExecutor interface {
	InitializeBridge(ctx context.Context, in bridgedom.InitializeParams) (bridgedom.InitializeResult, error)
	SubmitRequest(ctx context.Context, in bridgedom.RequestParams) (bridgedom.RequestResult, error)
	BurnToken(ctx context.Context, in bridgedom.BurnParams) (bridgedom.BurnResult, error)
	CreateNFT(ctx context.Context, in bridgedom.IssueParams) (bridgedom.IssueResult, error)
	FetchBridge(ctx context.Context, addr common.PublicKey) (bridgedom.Bridge, error)
}

// DescriptorStore persists the off-chain JSON descriptor of an issued asset
// and returns its public URI.
type DescriptorStore interface {
	PutDescriptor(ctx context.Context, key string, body []byte) (string, error)
}

// HoldingReader reads token balances (custody / user holdings).
type HoldingReader interface {
	Balance(ctx context.Context, holding common.PublicKey) (uint64, error)
}

// DevFunder seeds user holdings. シミュレータ専用。
type DevFunder interface {
	FundHolding(
		ctx context.Context,
		owner, mint common.PublicKey,
		amount uint64,
		delegate common.PublicKey,
		allowance uint64,
	) (common.PublicKey, common.PublicKey, error)
}

// ============================================================
// Usecase
// ============================================================

type BridgeUsecase struct {
	executor    BridgeExecutor
	journal     bridgedom.RequestJournal
	descriptors DescriptorStore
	holdings    HoldingReader
	dev         DevFunder

	programID  common.PublicKey
	backend    common.PublicKey
	seed       uint64
	bridgeAddr common.PublicKey

	now func() time.Time
}

func NewBridgeUsecase(
	executor BridgeExecutor,
	journal bridgedom.RequestJournal,
	descriptors DescriptorStore,
	programID common.PublicKey,
	backend common.PublicKey,
	seed uint64,
) (*BridgeUsecase, error) {
	addr, _, err := pda.FindBridge(programID, seed)
	if err != nil {
		return nil, fmt.Errorf("bridge_uc: derive bridge address: %w", err)
	}
	return &BridgeUsecase{
		executor:    executor,
		journal:     journal,
		descriptors: descriptors,
		programID:   programID,
		backend:     backend,
		seed:        seed,
		bridgeAddr:  addr,
		now:         time.Now,
	}, nil
}

// WithHoldingReader enables Balance.
func (u *BridgeUsecase) WithHoldingReader(r HoldingReader) *BridgeUsecase {
	u.holdings = r
	return u
}

// WithDevFunder enables FundDevHolding.
func (u *BridgeUsecase) WithDevFunder(d DevFunder) *BridgeUsecase {
	u.dev = d
	return u
}

var (
	ErrBridgeNotConfigured      = errors.New("bridge_uc: not configured")
	ErrBridgeInvalidInput       = errors.New("bridge_uc: invalid input")
	ErrBridgeDescriptorStoreNil = errors.New("bridge_uc: descriptor store is not configured")
	ErrBridgeDevDisabled        = errors.New("bridge_uc: dev funding is disabled")
)

// BridgeAddress is the registry this usecase drives.
func (u *BridgeUsecase) BridgeAddress() common.PublicKey { return u.bridgeAddr }

// Backend is the authority key used as signer.
func (u *BridgeUsecase) Backend() common.PublicKey { return u.backend }

// ------------------------------------------------------------
// Initialize / Bridge
// ------------------------------------------------------------

type InitializeOutput struct {
	Bridge    string `json:"bridge"`
	Authority string `json:"authority"`
	Seed      uint64 `json:"seed"`
	Bump      uint8  `json:"bump"`
	Signature string `json:"signature"`
}

func (u *BridgeUsecase) Initialize(ctx context.Context) (InitializeOutput, error) {
	if u == nil || u.executor == nil {
		return InitializeOutput{}, ErrBridgeNotConfigured
	}

	res, err := u.executor.InitializeBridge(ctx, bridgedom.InitializeParams{
		Signer: u.backend,
		Seed:   u.seed,
	})
	if err != nil {
		return InitializeOutput{}, fmt.Errorf("bridge_uc: initialize failed seed=%d: %w", u.seed, err)
	}
	if res.Bridge != u.bridgeAddr {
		log.Printf("[bridge_uc] WARN: initialized bridge=%s differs from configured=%s",
			bridgedom.Short(res.Bridge), bridgedom.Short(u.bridgeAddr))
	}

	return InitializeOutput{
		Bridge:    res.Bridge.ToBase58(),
		Authority: u.backend.ToBase58(),
		Seed:      u.seed,
		Bump:      res.Bump,
		Signature: res.Receipt.Signature,
	}, nil
}

type BridgeView struct {
	Address   string `json:"address"`
	Authority string `json:"authority"`
	Seed      uint64 `json:"seed"`
	Bump      uint8  `json:"bump"`
}

func (u *BridgeUsecase) Bridge(ctx context.Context) (BridgeView, error) {
	if u == nil || u.executor == nil {
		return BridgeView{}, ErrBridgeNotConfigured
	}
	b, err := u.executor.FetchBridge(ctx, u.bridgeAddr)
	if err != nil {
		return BridgeView{}, fmt.Errorf("bridge_uc: fetch bridge=%s: %w", bridgedom.Short(u.bridgeAddr), err)
	}
	return BridgeView{
		Address:   u.bridgeAddr.ToBase58(),
		Authority: b.Authority.ToBase58(),
		Seed:      b.Seed,
		Bump:      b.Bump,
	}, nil
}

// ------------------------------------------------------------
// Custody (new_request)
// ------------------------------------------------------------

type SubmitRequestInput struct {
	Mint        string `json:"mint"`
	UserHolding string `json:"userTokenAccount"`
	RequestID   string `json:"requestId"`
}

type SubmitRequestOutput struct {
	BridgeHolding string                  `json:"bridgeTokenAccount"`
	Signature     string                  `json:"signature"`
	Record        bridgedom.RequestRecord `json:"record"`
}

// SubmitRequest does:
// 1) mint / user holding を parse
// 2) (operation=custody, requestId) を reserve
// 3) new_request を実行（1 単位を custody へ）
// 4) journal を completed で確定
func (u *BridgeUsecase) SubmitRequest(ctx context.Context, in SubmitRequestInput) (SubmitRequestOutput, error) {
	if u == nil || u.executor == nil {
		return SubmitRequestOutput{}, ErrBridgeNotConfigured
	}

	// 1) parse
	mint, err := parseKey("mint", in.Mint)
	if err != nil {
		return SubmitRequestOutput{}, err
	}
	userHolding, err := parseKey("userTokenAccount", in.UserHolding)
	if err != nil {
		return SubmitRequestOutput{}, err
	}

	var res bridgedom.RequestResult
	rec, err := u.journaled(ctx, bridgedom.OperationCustody, in.RequestID, func() (bridgedom.RequestRecord, error) {
		// 3) execute
		res, err = u.executor.SubmitRequest(ctx, bridgedom.RequestParams{
			Bridge:      u.bridgeAddr,
			Backend:     u.backend,
			Mint:        mint,
			UserHolding: userHolding,
			RequestID:   in.RequestID,
		})
		if err != nil {
			return bridgedom.RequestRecord{}, fmt.Errorf(
				"bridge_uc: new_request failed mint=%s request=%s: %w",
				bridgedom.Short(mint), _maskShort(in.RequestID), err,
			)
		}
		return bridgedom.RequestRecord{
			Mint:      mint.ToBase58(),
			Holding:   res.BridgeHolding.ToBase58(),
			Signature: res.Receipt.Signature,
		}, nil
	})
	if err != nil {
		return SubmitRequestOutput{}, err
	}

	return SubmitRequestOutput{
		BridgeHolding: res.BridgeHolding.ToBase58(),
		Signature:     res.Receipt.Signature,
		Record:        rec,
	}, nil
}

// ------------------------------------------------------------
// Release (burn_token)
// ------------------------------------------------------------

type BurnTokenInput struct {
	Mint          string `json:"mint"`
	BridgeHolding string `json:"bridgeTokenAccount,omitempty"` // 空なら ATA
	RequestID     string `json:"requestId,omitempty"`
}

type BurnTokenOutput struct {
	BridgeHolding string                  `json:"bridgeTokenAccount"`
	Signature     string                  `json:"signature"`
	Record        bridgedom.RequestRecord `json:"record"`
}

func (u *BridgeUsecase) BurnToken(ctx context.Context, in BurnTokenInput) (BurnTokenOutput, error) {
	if u == nil || u.executor == nil {
		return BurnTokenOutput{}, ErrBridgeNotConfigured
	}

	mint, err := parseKey("mint", in.Mint)
	if err != nil {
		return BurnTokenOutput{}, err
	}
	var holding common.PublicKey
	if strings.TrimSpace(in.BridgeHolding) != "" {
		if holding, err = parseKey("bridgeTokenAccount", in.BridgeHolding); err != nil {
			return BurnTokenOutput{}, err
		}
	}

	var res bridgedom.BurnResult
	rec, err := u.journaled(ctx, bridgedom.OperationRelease, in.RequestID, func() (bridgedom.RequestRecord, error) {
		res, err = u.executor.BurnToken(ctx, bridgedom.BurnParams{
			Bridge:        u.bridgeAddr,
			Backend:       u.backend,
			Mint:          mint,
			BridgeHolding: holding,
		})
		if err != nil {
			return bridgedom.RequestRecord{}, fmt.Errorf("bridge_uc: burn_token failed mint=%s: %w", bridgedom.Short(mint), err)
		}
		return bridgedom.RequestRecord{
			Mint:      mint.ToBase58(),
			Holding:   res.BridgeHolding.ToBase58(),
			Signature: res.Receipt.Signature,
		}, nil
	})
	if err != nil {
		return BurnTokenOutput{}, err
	}

	return BurnTokenOutput{
		BridgeHolding: res.BridgeHolding.ToBase58(),
		Signature:     res.Receipt.Signature,
		Record:        rec,
	}, nil
}

// ------------------------------------------------------------
// Issuance (create_nft)
// ------------------------------------------------------------

type CreateNFTInput struct {
	Recipient string `json:"recipient"`
	ID        uint64 `json:"id"`
	SeedP1    string `json:"seedP1"`
	SeedP2    string `json:"seedP2"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	URI       string `json:"uri,omitempty"`
	RequestID string `json:"requestId"`

	// URI が空のときのみ使用（GCS へ保存）
	Descriptor json.RawMessage `json:"descriptor,omitempty"`
}

type CreateNFTOutput struct {
	Mint      string                  `json:"mint"`
	Holding   string                  `json:"destinationTokenAccount"`
	Metadata  string                  `json:"metadata"`
	Edition   string                  `json:"masterEdition"`
	URI       string                  `json:"uri"`
	Signature string                  `json:"signature"`
	Record    bridgedom.RequestRecord `json:"record"`
}

// CreateNFT does:
// 1) recipient を parse、descriptor の JSON を検証
// 2) (operation=issuance, requestId) を reserve
// 3) URI が空なら descriptor を保存して URI を得る
// 4) create_nft を実行
// 5) journal を completed で確定
func (u *BridgeUsecase) CreateNFT(ctx context.Context, in CreateNFTInput) (CreateNFTOutput, error) {
	if u == nil || u.executor == nil {
		return CreateNFTOutput{}, ErrBridgeNotConfigured
	}

	// 1) validate
	recipient, err := parseKey("recipient", in.Recipient)
	if err != nil {
		return CreateNFTOutput{}, err
	}
	uri := strings.TrimSpace(in.URI)
	upload := uri == "" && len(in.Descriptor) > 0
	if upload {
		if !json.Valid(in.Descriptor) {
			return CreateNFTOutput{}, fmt.Errorf("%w: descriptor is not valid JSON", ErrBridgeInvalidInput)
		}
		if u.descriptors == nil {
			return CreateNFTOutput{}, ErrBridgeDescriptorStoreNil
		}
	}

	var res bridgedom.IssueResult
	rec, err := u.journaled(ctx, bridgedom.OperationIssuance, in.RequestID, func() (bridgedom.RequestRecord, error) {
		// 3) descriptor
		// 4) が失敗しても object は消さない。key は (p1, p2, id) で決まり、
		// 同じ seeds の既発行資産の metadata uri を指している可能性がある。
		// 失敗後の再試行は同じ key を上書きする。
		if upload {
			key := DescriptorKey(in.SeedP1, in.SeedP2, in.ID)
			uri, err = u.descriptors.PutDescriptor(ctx, key, in.Descriptor)
			if err != nil {
				return bridgedom.RequestRecord{}, fmt.Errorf("bridge_uc: put descriptor key=%s: %w", key, err)
			}
		}

		// 4) execute
		res, err = u.executor.CreateNFT(ctx, bridgedom.IssueParams{
			Bridge:    u.bridgeAddr,
			Backend:   u.backend,
			Recipient: recipient,
			ID:        in.ID,
			SeedP1:    in.SeedP1,
			SeedP2:    in.SeedP2,
			Name:      in.Name,
			Symbol:    in.Symbol,
			URI:       uri,
			RequestID: in.RequestID,
		})
		if err != nil {
			return bridgedom.RequestRecord{}, fmt.Errorf(
				"bridge_uc: create_nft failed id=%d recipient=%s request=%s: %w",
				in.ID, bridgedom.Short(recipient), _maskShort(in.RequestID), err,
			)
		}
		return bridgedom.RequestRecord{
			Mint:      res.Mint.ToBase58(),
			Holding:   res.Holding.ToBase58(),
			Signature: res.Receipt.Signature,
		}, nil
	})
	if err != nil {
		return CreateNFTOutput{}, err
	}

	return CreateNFTOutput{
		Mint:      res.Mint.ToBase58(),
		Holding:   res.Holding.ToBase58(),
		Metadata:  res.Metadata.ToBase58(),
		Edition:   res.Edition.ToBase58(),
		URI:       uri,
		Signature: res.Receipt.Signature,
		Record:    rec,
	}, nil
}

// DescriptorKey is the object path of an asset descriptor.
func DescriptorKey(seedP1, seedP2 string, id uint64) string {
	return fmt.Sprintf("descriptors/%s/%s/%d.json", url.PathEscape(seedP1), url.PathEscape(seedP2), id)
}

// ------------------------------------------------------------
// Journal
// ------------------------------------------------------------

func (u *BridgeUsecase) Journal(ctx context.Context, filter bridgedom.JournalFilter) ([]bridgedom.RequestRecord, error) {
	if u == nil || u.journal == nil {
		return nil, ErrBridgeNotConfigured
	}
	recs, err := u.journal.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("bridge_uc: list journal: %w", err)
	}
	return recs, nil
}

// ------------------------------------------------------------
// Holdings
// ------------------------------------------------------------

type HoldingView struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

func (u *BridgeUsecase) Balance(ctx context.Context, holding string) (HoldingView, error) {
	if u == nil || u.holdings == nil {
		return HoldingView{}, ErrBridgeNotConfigured
	}
	pk, err := parseKey("holding", holding)
	if err != nil {
		return HoldingView{}, err
	}
	amount, err := u.holdings.Balance(ctx, pk)
	if err != nil {
		return HoldingView{}, fmt.Errorf("bridge_uc: balance holding=%s: %w", bridgedom.Short(pk), err)
	}
	return HoldingView{Address: pk.ToBase58(), Amount: amount}, nil
}

type FundHoldingInput struct {
	Owner  string `json:"owner"`
	Mint   string `json:"mint,omitempty"` // 空なら新規 mint
	Amount uint64 `json:"amount"`
	// bridge への委任量（custody 前に必要）
	Allowance uint64 `json:"allowance"`
}

type FundHoldingOutput struct {
	Mint     string `json:"mint"`
	Holding  string `json:"userTokenAccount"`
	Delegate string `json:"delegate"`
}

// FundDevHolding mints test units to owner and approves the bridge as delegate.
func (u *BridgeUsecase) FundDevHolding(ctx context.Context, in FundHoldingInput) (FundHoldingOutput, error) {
	if u == nil || u.dev == nil {
		return FundHoldingOutput{}, ErrBridgeDevDisabled
	}
	owner, err := parseKey("owner", in.Owner)
	if err != nil {
		return FundHoldingOutput{}, err
	}
	var mint common.PublicKey
	if strings.TrimSpace(in.Mint) != "" {
		if mint, err = parseKey("mint", in.Mint); err != nil {
			return FundHoldingOutput{}, err
		}
	}

	mint, holding, err := u.dev.FundHolding(ctx, owner, mint, in.Amount, u.bridgeAddr, in.Allowance)
	if err != nil {
		return FundHoldingOutput{}, fmt.Errorf("bridge_uc: fund holding owner=%s: %w", bridgedom.Short(owner), err)
	}
	return FundHoldingOutput{
		Mint:     mint.ToBase58(),
		Holding:  holding.ToBase58(),
		Delegate: u.bridgeAddr.ToBase58(),
	}, nil
}

// journaled wraps run with reserve / abandon / complete.
// run の成功後に complete が失敗しても操作自体は確定済みなので、
// エラーにはせず WARN を出して reservation を残す。
func (u *BridgeUsecase) journaled(
	ctx context.Context,
	op bridgedom.Operation,
	requestID string,
	run func() (bridgedom.RequestRecord, error),
) (bridgedom.RequestRecord, error) {
	if u.journal == nil {
		rec, err := run()
		if err != nil {
			return bridgedom.RequestRecord{}, err
		}
		return u.fill(rec, op, requestID), nil
	}

	// 2) reserve
	if err := u.journal.Reserve(ctx, op, requestID); err != nil {
		return bridgedom.RequestRecord{}, fmt.Errorf("bridge_uc: reserve op=%s request=%s: %w", op, _maskShort(requestID), err)
	}

	reserved := true
	defer func() {
		// 失敗時に best-effort abandon
		if reserved {
			if aerr := u.journal.Abandon(context.Background(), op, requestID); aerr != nil {
				log.Printf("[bridge_uc] WARN: abandon failed op=%s request=%s err=%v", op, _maskShort(requestID), aerr)
			}
		}
	}()

	rec, err := run()
	if err != nil {
		return bridgedom.RequestRecord{}, err
	}
	reserved = false

	rec = u.fill(rec, op, requestID)
	stored, err := u.journal.Complete(ctx, rec)
	if err != nil {
		log.Printf("[bridge_uc] WARN: complete failed op=%s request=%s sig=%s err=%v",
			op, _maskShort(requestID), _maskShort(rec.Signature), err)
		return rec, nil
	}
	return stored, nil
}

func (u *BridgeUsecase) fill(rec bridgedom.RequestRecord, op bridgedom.Operation, requestID string) bridgedom.RequestRecord {
	now := u.now().UTC()
	rec.Operation = op
	rec.RequestID = requestID
	rec.Status = bridgedom.StatusCompleted
	rec.Bridge = u.bridgeAddr.ToBase58()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return rec
}

// ============================================================
// helpers
// ============================================================

func parseKey(field, s string) (common.PublicKey, error) {
	pk, err := bridgedom.ParsePublicKey(strings.TrimSpace(s))
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("%w: %s: %w", ErrBridgeInvalidInput, field, err)
	}
	return pk, nil
}

func _maskShort(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 10 {
		return s
	}
	return s[:4] + "..." + s[len(s)-4:]
}
