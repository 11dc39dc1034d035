// internal/adapters/in/http/handlers/bridge_handler.go
package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	usecase "solana-bridge/internal/application/usecase"
	bridgedom "solana-bridge/internal/domain/bridge"
)

// BridgeHandler exposes BridgeUsecase over HTTP.
//
//	POST /bridge/initialize
//	GET  /bridge
//	POST /bridge/requests        custody   (new_request)
//	POST /bridge/burns           release   (burn_token)
//	POST /bridge/nfts            issuance  (create_nft)
//	GET  /bridge/journal?operation=a,b&requestId=&limit=
//	GET  /bridge/holdings/{address}
//	POST /bridge/dev/holdings    simulator のみ
type BridgeHandler struct {
	uc         *usecase.BridgeUsecase
	devEnabled bool
}

func NewBridgeHandler(uc *usecase.BridgeUsecase, devEnabled bool) *BridgeHandler {
	return &BridgeHandler{uc: uc, devEnabled: devEnabled}
}

// Register mounts the routes on r (relative to /bridge).
func (h *BridgeHandler) Register(r chi.Router) {
	r.Get("/", h.getBridge)
	r.Post("/initialize", h.initialize)
	r.Post("/requests", h.submitRequest)
	r.Post("/burns", h.burnToken)
	r.Post("/nfts", h.createNFT)
	r.Get("/journal", h.listJournal)
	r.Get("/holdings/{address}", h.getHolding)
	if h.devEnabled {
		r.Post("/dev/holdings", h.fundDevHolding)
	}
}

// ------------------------------------------------------------
// registry
// ------------------------------------------------------------

func (h *BridgeHandler) initialize(w http.ResponseWriter, r *http.Request) {
	out, err := h.uc.Initialize(r.Context())
	if err != nil {
		log.Printf("[bridge_handler] initialize failed: %v", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *BridgeHandler) getBridge(w http.ResponseWriter, r *http.Request) {
	out, err := h.uc.Bridge(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------------------------------------
// operations
// ------------------------------------------------------------

func (h *BridgeHandler) submitRequest(w http.ResponseWriter, r *http.Request) {
	var in usecase.SubmitRequestInput
	if !decodeBody(w, r, &in) {
		return
	}

	out, err := h.uc.SubmitRequest(r.Context(), in)
	if err != nil {
		log.Printf("[bridge_handler] new_request failed request=%q: %v", in.RequestID, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BridgeHandler) burnToken(w http.ResponseWriter, r *http.Request) {
	var in usecase.BurnTokenInput
	if !decodeBody(w, r, &in) {
		return
	}

	out, err := h.uc.BurnToken(r.Context(), in)
	if err != nil {
		log.Printf("[bridge_handler] burn_token failed mint=%s: %v", in.Mint, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BridgeHandler) createNFT(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateNFTInput
	if !decodeBody(w, r, &in) {
		return
	}

	out, err := h.uc.CreateNFT(r.Context(), in)
	if err != nil {
		log.Printf("[bridge_handler] create_nft failed id=%d request=%q: %v", in.ID, in.RequestID, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// ------------------------------------------------------------
// queries
// ------------------------------------------------------------

func (h *BridgeHandler) listJournal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var ops []bridgedom.Operation
	for _, s := range splitCSV(q.Get("operation")) {
		op, ok := bridgedom.ParseOperation(strings.ToLower(s))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_argument", fmt.Errorf("unknown operation %q", s))
			return
		}
		ops = append(ops, op)
	}

	filter := bridgedom.JournalFilter{
		Operations: ops,
		RequestID:  q.Get("requestId"),
		Limit:      parseIntDefault(q.Get("limit"), bridgedom.DefaultJournalLimit),
	}
	items, err := h.uc.Journal(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *BridgeHandler) getHolding(w http.ResponseWriter, r *http.Request) {
	out, err := h.uc.Balance(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------------------------------------
// dev
// ------------------------------------------------------------

func (h *BridgeHandler) fundDevHolding(w http.ResponseWriter, r *http.Request) {
	var in usecase.FundHoldingInput
	if !decodeBody(w, r, &in) {
		return
	}

	out, err := h.uc.FundDevHolding(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}
