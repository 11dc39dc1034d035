// internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	usecase "solana-bridge/internal/application/usecase"
	bridgedom "solana-bridge/internal/domain/bridge"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	body := map[string]string{"error": code}
	if err != nil {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}

// writeDomainError maps usecase / domain errors to HTTP status + reason code.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrBridgeInvalidInput):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, usecase.ErrBridgeNotConfigured),
		errors.Is(err, usecase.ErrBridgeDescriptorStoreNil),
		errors.Is(err, usecase.ErrBridgeDevDisabled):
		return http.StatusServiceUnavailable, "not_configured"
	}

	code := bridgedom.ReasonCode(err)
	switch code {
	case "not_bridge_backend":
		return http.StatusForbidden, code
	case "duplicate_initialization", "duplicate_request":
		return http.StatusConflict, code
	case "bridge_not_found", "holding_not_found":
		return http.StatusNotFound, code
	case "invalid_argument":
		return http.StatusBadRequest, code
	case "collaborator_failure":
		return http.StatusUnprocessableEntity, code
	default:
		// derivation_mismatch / internal
		return http.StatusInternalServerError, code
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return false
	}
	return true
}

func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// splitCSV parses "a,b,c" / "a, b, c" into []string (empty trimmed items are removed).
func splitCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
