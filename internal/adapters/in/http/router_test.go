package httpin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-bridge/internal/adapters/in/http/middleware"
	"solana-bridge/internal/adapters/out/memory"
	usecase "solana-bridge/internal/application/usecase"
	"solana-bridge/internal/infra/simulator"
	"solana-bridge/internal/program"
)

type verifierFunc func(ctx context.Context, token string) (*fbauth.Token, error)

func (f verifierFunc) VerifyIDToken(ctx context.Context, token string) (*fbauth.Token, error) {
	return f(ctx, token)
}

func newUsecase(t *testing.T) *usecase.BridgeUsecase {
	t.Helper()
	sim := simulator.New(program.DefaultProgramID)
	uc, err := usecase.NewBridgeUsecase(sim, memory.NewRequestJournalMem(), nil,
		program.DefaultProgramID, types.NewAccount().PublicKey, 3)
	require.NoError(t, err)
	return uc.WithHoldingReader(sim)
}

func TestRouter_Healthz(t *testing.T) {
	h := NewRouter(RouterDeps{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bridge", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AuthGuardsBridgeRoutes(t *testing.T) {
	verifier := verifierFunc(func(_ context.Context, token string) (*fbauth.Token, error) {
		if token == "good" {
			return &fbauth.Token{UID: "ops"}, nil
		}
		return nil, errors.New("invalid")
	})
	h := NewRouter(RouterDeps{
		BridgeUC:   newUsecase(t),
		Auth:       middleware.NewOperatorAuth(verifier, []string{"ops"}),
		CORSOrigin: "https://ops.example.com",
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bridge/initialize", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodPost, "/bridge/initialize", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// healthz は認証なし
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
