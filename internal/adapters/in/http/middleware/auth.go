// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// TokenVerifier は *fbauth.Client が満たす最小 IF。
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

var _ TokenVerifier = (*fbauth.Client)(nil)

// context key は独自型を使用（SA1029 対策）
type ctxKey struct{ name string }

var ctxKeyUID = ctxKey{name: "uid"}

// OperatorAuth は
//
//   - Authorization: Bearer <ID_TOKEN>
//
// を検証し、uid が operator 集合に含まれる場合のみ次のハンドラへ渡す。
// Operators が空なら全員 403。
type OperatorAuth struct {
	Verifier  TokenVerifier
	Operators map[string]struct{}
}

func NewOperatorAuth(v TokenVerifier, uids []string) *OperatorAuth {
	ops := make(map[string]struct{}, len(uids))
	for _, u := range uids {
		if u = strings.TrimSpace(u); u != "" {
			ops[u] = struct{}{}
		}
	}
	return &OperatorAuth{Verifier: v, Operators: ops}
}

func (m *OperatorAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.Verifier == nil {
			writeAuthError(w, http.StatusServiceUnavailable, "auth_not_configured", "auth middleware not initialized")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "empty bearer token")
			return
		}

		token, err := m.Verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "invalid uid in token")
			return
		}

		if _, ok := m.Operators[uid]; !ok {
			log.Printf("[auth] forbidden uid=%s path=%s", uid, r.URL.Path)
			writeAuthError(w, http.StatusForbidden, "forbidden", "not an operator")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUID, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUID returns the verified uid, if any.
func CurrentUID(r *http.Request) (string, bool) {
	v, ok := r.Context().Value(ctxKeyUID).(string)
	return v, ok && v != ""
}

func writeAuthError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "detail": detail})
}
