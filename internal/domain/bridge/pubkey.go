// internal/domain/bridge/pubkey.go
package bridge

import (
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// ParsePublicKey decodes a base58 address and rejects anything not 32 bytes.
func ParsePublicKey(s string) (common.PublicKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.PublicKey{}, ErrInvalidPublicKey
	}
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 32 {
		return common.PublicKey{}, ErrInvalidPublicKey
	}
	return common.PublicKeyFromBytes(raw), nil
}

// Short renders a key as "abcd...wxyz" for logs.
func Short(pk common.PublicKey) string {
	s := pk.ToBase58()
	if len(s) <= 10 {
		return s
	}
	return s[:4] + "..." + s[len(s)-4:]
}
