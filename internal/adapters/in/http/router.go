// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"solana-bridge/internal/adapters/in/http/handlers"
	"solana-bridge/internal/adapters/in/http/middleware"
	usecase "solana-bridge/internal/application/usecase"
)

// RouterDeps collects dependencies injected from main.go.
type RouterDeps struct {
	BridgeUC *usecase.BridgeUsecase

	// nil なら認証なし（ローカル / simulator 用）
	Auth *middleware.OperatorAuth

	CORSOrigin string
	DevEnabled bool
}

// NewRouter sets up HTTP routing for the bridge endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS を最外周、その内側で Recover
	r.Use(middleware.CORS(deps.CORSOrigin))
	r.Use(middleware.Recover)

	// Health check (always on)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Usecase が存在する場合のみマウントする
	if deps.BridgeUC != nil {
		h := handlers.NewBridgeHandler(deps.BridgeUC, deps.DevEnabled)
		r.Route("/bridge", func(r chi.Router) {
			if deps.Auth != nil {
				r.Use(deps.Auth.Handler)
			}
			h.Register(r)
		})
	}

	return r
}
