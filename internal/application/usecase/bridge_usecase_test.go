package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-bridge/internal/adapters/out/memory"
	bridgedom "solana-bridge/internal/domain/bridge"
	"solana-bridge/internal/program"
	"solana-bridge/internal/program/pda"
)

// ------------------------------------------------------------
// fakes
// ------------------------------------------------------------

type fakeExecutor struct {
	requests []bridgedom.RequestParams
	burns    []bridgedom.BurnParams
	issues   []bridgedom.IssueParams

	err    error
	bridge bridgedom.Bridge
}

func (f *fakeExecutor) InitializeBridge(_ context.Context, in bridgedom.InitializeParams) (bridgedom.InitializeResult, error) {
	if f.err != nil {
		return bridgedom.InitializeResult{}, f.err
	}
	addr, bump, _ := pda.FindBridge(program.DefaultProgramID, in.Seed)
	return bridgedom.InitializeResult{Bridge: addr, Bump: bump, Receipt: bridgedom.Receipt{Signature: "sig-init"}}, nil
}

func (f *fakeExecutor) SubmitRequest(_ context.Context, in bridgedom.RequestParams) (bridgedom.RequestResult, error) {
	f.requests = append(f.requests, in)
	if f.err != nil {
		return bridgedom.RequestResult{}, f.err
	}
	return bridgedom.RequestResult{
		BridgeHolding: newKey(),
		Receipt:       bridgedom.Receipt{Signature: "sig-req"},
	}, nil
}

func (f *fakeExecutor) BurnToken(_ context.Context, in bridgedom.BurnParams) (bridgedom.BurnResult, error) {
	f.burns = append(f.burns, in)
	if f.err != nil {
		return bridgedom.BurnResult{}, f.err
	}
	return bridgedom.BurnResult{BridgeHolding: newKey(), Receipt: bridgedom.Receipt{Signature: "sig-burn"}}, nil
}

func (f *fakeExecutor) CreateNFT(_ context.Context, in bridgedom.IssueParams) (bridgedom.IssueResult, error) {
	f.issues = append(f.issues, in)
	if f.err != nil {
		return bridgedom.IssueResult{}, f.err
	}
	return bridgedom.IssueResult{
		Mint:     newKey(),
		Holding:  newKey(),
		Metadata: newKey(),
		Edition:  newKey(),
		Receipt:  bridgedom.Receipt{Signature: "sig-nft"},
	}, nil
}

func (f *fakeExecutor) FetchBridge(_ context.Context, _ common.PublicKey) (bridgedom.Bridge, error) {
	if f.err != nil {
		return bridgedom.Bridge{}, f.err
	}
	return f.bridge, nil
}

type fakeDescriptors struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (f *fakeDescriptors) PutDescriptor(_ context.Context, key string, body []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, body)
	return "https://storage.googleapis.com/bucket/" + key, nil
}

type completeFailJournal struct {
	*memory.RequestJournalMem
}

func (j completeFailJournal) Complete(context.Context, bridgedom.RequestRecord) (bridgedom.RequestRecord, error) {
	return bridgedom.RequestRecord{}, errors.New("firestore unavailable")
}

func newKey() common.PublicKey { return types.NewAccount().PublicKey }

type ucFixture struct {
	uc      *BridgeUsecase
	exec    *fakeExecutor
	journal *memory.RequestJournalMem
	store   *fakeDescriptors
	backend common.PublicKey
}

func newUC(t *testing.T) ucFixture {
	t.Helper()
	f := ucFixture{
		exec:    &fakeExecutor{},
		journal: memory.NewRequestJournalMem(),
		store:   &fakeDescriptors{},
		backend: newKey(),
	}
	uc, err := NewBridgeUsecase(f.exec, f.journal, f.store, program.DefaultProgramID, f.backend, 7)
	require.NoError(t, err)
	uc.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	f.uc = uc
	return f
}

// ------------------------------------------------------------
// tests
// ------------------------------------------------------------

func TestInitialize_UsesBackendAndSeed(t *testing.T) {
	f := newUC(t)

	out, err := f.uc.Initialize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, f.uc.BridgeAddress().ToBase58(), out.Bridge)
	assert.Equal(t, f.backend.ToBase58(), out.Authority)
	assert.Equal(t, uint64(7), out.Seed)
	assert.Equal(t, "sig-init", out.Signature)
}

func TestBridge_NotFoundPropagates(t *testing.T) {
	f := newUC(t)
	f.exec.err = bridgedom.ErrBridgeNotFound

	_, err := f.uc.Bridge(context.Background())
	assert.ErrorIs(t, err, bridgedom.ErrBridgeNotFound)
}

func TestSubmitRequest_JournalsAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	f := newUC(t)
	in := SubmitRequestInput{
		Mint:        newKey().ToBase58(),
		UserHolding: newKey().ToBase58(),
		RequestID:   "req-1",
	}

	out, err := f.uc.SubmitRequest(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "sig-req", out.Signature)
	assert.Equal(t, bridgedom.StatusCompleted, out.Record.Status)
	assert.Equal(t, bridgedom.OperationCustody, out.Record.Operation)
	assert.Equal(t, in.Mint, out.Record.Mint)

	require.Len(t, f.exec.requests, 1)
	assert.Equal(t, f.backend, f.exec.requests[0].Backend)
	assert.Equal(t, f.uc.BridgeAddress(), f.exec.requests[0].Bridge)
	assert.Equal(t, "req-1", f.exec.requests[0].RequestID)

	_, err = f.uc.SubmitRequest(ctx, in)
	assert.ErrorIs(t, err, bridgedom.ErrDuplicateRequest)
	assert.Len(t, f.exec.requests, 1)
}

func TestSubmitRequest_FailureAbandonsReservation(t *testing.T) {
	ctx := context.Background()
	f := newUC(t)
	f.exec.err = bridgedom.ErrNotBridgeBackend
	in := SubmitRequestInput{Mint: newKey().ToBase58(), UserHolding: newKey().ToBase58(), RequestID: "r"}

	_, err := f.uc.SubmitRequest(ctx, in)
	assert.ErrorIs(t, err, bridgedom.ErrNotBridgeBackend)

	recs, err := f.journal.List(ctx, bridgedom.JournalFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)

	// 取り消し済みなので再試行できる
	f.exec.err = nil
	_, err = f.uc.SubmitRequest(ctx, in)
	require.NoError(t, err)
}

func TestSubmitRequest_InvalidKey(t *testing.T) {
	f := newUC(t)

	_, err := f.uc.SubmitRequest(context.Background(), SubmitRequestInput{Mint: "not-a-key", UserHolding: newKey().ToBase58()})
	assert.ErrorIs(t, err, ErrBridgeInvalidInput)
	assert.ErrorIs(t, err, bridgedom.ErrInvalidPublicKey)
	assert.Empty(t, f.exec.requests)
}

func TestSubmitRequest_CompleteFailureStillSucceeds(t *testing.T) {
	exec := &fakeExecutor{}
	j := completeFailJournal{memory.NewRequestJournalMem()}
	uc, err := NewBridgeUsecase(exec, j, nil, program.DefaultProgramID, newKey(), 1)
	require.NoError(t, err)

	out, err := uc.SubmitRequest(context.Background(), SubmitRequestInput{
		Mint: newKey().ToBase58(), UserHolding: newKey().ToBase58(), RequestID: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "sig-req", out.Signature)

	// reservation は残り、再送は弾かれる
	_, err = uc.SubmitRequest(context.Background(), SubmitRequestInput{
		Mint: newKey().ToBase58(), UserHolding: newKey().ToBase58(), RequestID: "x",
	})
	assert.ErrorIs(t, err, bridgedom.ErrDuplicateRequest)
}

func TestBurnToken_OptionalHolding(t *testing.T) {
	ctx := context.Background()
	f := newUC(t)
	mint := newKey()

	_, err := f.uc.BurnToken(ctx, BurnTokenInput{Mint: mint.ToBase58()})
	require.NoError(t, err)
	require.Len(t, f.exec.burns, 1)
	assert.Equal(t, common.PublicKey{}, f.exec.burns[0].BridgeHolding)

	holding := newKey()
	out, err := f.uc.BurnToken(ctx, BurnTokenInput{Mint: mint.ToBase58(), BridgeHolding: holding.ToBase58()})
	require.NoError(t, err)
	assert.Equal(t, holding, f.exec.burns[1].BridgeHolding)
	assert.Equal(t, bridgedom.OperationRelease, out.Record.Operation)

	// requestId なしは重複扱いしない
	recs, err := f.journal.List(ctx, bridgedom.JournalFilter{Operations: []bridgedom.Operation{bridgedom.OperationRelease}})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestCreateNFT_UploadsDescriptorWhenURIEmpty(t *testing.T) {
	f := newUC(t)
	desc := json.RawMessage(`{"name":"Art#1","image":"ipfs://img"}`)

	out, err := f.uc.CreateNFT(context.Background(), CreateNFTInput{
		Recipient:  newKey().ToBase58(),
		ID:         3,
		SeedP1:     "x",
		SeedP2:     "y z",
		Name:       "Art#1",
		Symbol:     "ART",
		RequestID:  "nft-1",
		Descriptor: desc,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"descriptors/x/y%20z/3.json"}, f.store.keys)
	assert.JSONEq(t, string(desc), string(f.store.bodies[0]))
	assert.Equal(t, "https://storage.googleapis.com/bucket/descriptors/x/y%20z/3.json", out.URI)
	require.Len(t, f.exec.issues, 1)
	assert.Equal(t, out.URI, f.exec.issues[0].URI)
	assert.Equal(t, "nft-1", f.exec.issues[0].RequestID)
}

func TestCreateNFT_RetryAfterFailureReusesDescriptorKey(t *testing.T) {
	f := newUC(t)
	in := CreateNFTInput{
		Recipient:  newKey().ToBase58(),
		ID:         9,
		SeedP1:     "a",
		SeedP2:     "b",
		Name:       "Art#9",
		RequestID:  "nft-9",
		Descriptor: json.RawMessage(`{"name":"Art#9"}`),
	}

	f.exec.err = bridgedom.Collaborator("create_nft", errors.New("rpc timeout"))
	_, err := f.uc.CreateNFT(context.Background(), in)
	require.Error(t, err)
	require.Equal(t, []string{"descriptors/a/b/9.json"}, f.store.keys)

	f.exec.err = nil
	out, err := f.uc.CreateNFT(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"descriptors/a/b/9.json", "descriptors/a/b/9.json"}, f.store.keys)
	assert.Equal(t, "https://storage.googleapis.com/bucket/descriptors/a/b/9.json", out.URI)
	require.Len(t, f.exec.issues, 2)
	assert.Equal(t, out.URI, f.exec.issues[1].URI)
}

func TestCreateNFT_ExplicitURISkipsUpload(t *testing.T) {
	f := newUC(t)

	out, err := f.uc.CreateNFT(context.Background(), CreateNFTInput{
		Recipient:  newKey().ToBase58(),
		URI:        "ipfs://abc",
		Descriptor: json.RawMessage(`{"ignored":true}`),
	})
	require.NoError(t, err)
	assert.Empty(t, f.store.keys)
	assert.Equal(t, "ipfs://abc", out.URI)
}

func TestCreateNFT_DescriptorValidation(t *testing.T) {
	f := newUC(t)

	_, err := f.uc.CreateNFT(context.Background(), CreateNFTInput{
		Recipient:  newKey().ToBase58(),
		Descriptor: json.RawMessage(`{broken`),
	})
	assert.ErrorIs(t, err, ErrBridgeInvalidInput)

	uc, err := NewBridgeUsecase(f.exec, f.journal, nil, program.DefaultProgramID, f.backend, 7)
	require.NoError(t, err)
	_, err = uc.CreateNFT(context.Background(), CreateNFTInput{
		Recipient:  newKey().ToBase58(),
		Descriptor: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, ErrBridgeDescriptorStoreNil)
	assert.Empty(t, f.exec.issues)
}

func TestCreateNFT_UploadFailureAbandons(t *testing.T) {
	ctx := context.Background()
	f := newUC(t)
	f.store.err = errors.New("gcs down")
	in := CreateNFTInput{Recipient: newKey().ToBase58(), RequestID: "n", Descriptor: json.RawMessage(`{}`)}

	_, err := f.uc.CreateNFT(ctx, in)
	require.Error(t, err)
	assert.Empty(t, f.exec.issues)

	f.store.err = nil
	_, err = f.uc.CreateNFT(ctx, in)
	require.NoError(t, err)
}

func TestNotConfigured(t *testing.T) {
	var uc *BridgeUsecase
	_, err := uc.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrBridgeNotConfigured)
	_, err = uc.Journal(context.Background(), bridgedom.JournalFilter{})
	assert.ErrorIs(t, err, ErrBridgeNotConfigured)
}
