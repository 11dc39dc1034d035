// internal/infra/solana/authority.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
)

// LoadAuthorityFromSecret は Secret Version のフルパス
//
//	"projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"
//
// から solana-keygen の keypair(JSON配列 [u8;64]) を復元して、バックエンド権限アカウントを返します。
func LoadAuthorityFromSecret(ctx context.Context, secretName string) (types.Account, error) {
	secretName = strings.TrimSpace(secretName)
	if secretName == "" {
		return types.Account{}, fmt.Errorf("solana: authority secret name is empty")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return types.Account{}, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return types.Account{}, fmt.Errorf("AccessSecretVersion: %w", err)
	}

	acc, err := AccountFromKeypairJSON(resp.Payload.Data)
	if err != nil {
		return types.Account{}, err
	}

	log.Printf("[bridge-authority] loaded from Secret Manager: secret=%s pubkey=%s", secretName, acc.PublicKey.ToBase58())
	return acc, nil
}

// LoadAuthorityFromFile reads a solana-keygen keypair file.
func LoadAuthorityFromFile(path string) (types.Account, error) {
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return types.Account{}, fmt.Errorf("solana: read keypair file: %w", err)
	}
	acc, err := AccountFromKeypairJSON(data)
	if err != nil {
		return types.Account{}, err
	}
	log.Printf("[bridge-authority] loaded from file pubkey=%s", acc.PublicKey.ToBase58())
	return acc, nil
}

// AccountFromKeypairJSON restores an account from keypair JSON.
func AccountFromKeypairJSON(data []byte) (types.Account, error) {
	keyBytes, err := decodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, err
	}
	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, fmt.Errorf("AccountFromBytes: %w", err)
	}
	return acc, nil
}

// EncodeKeypairJSON renders an account in solana-keygen format ([u8;64] as ints).
func EncodeKeypairJSON(acc types.Account) ([]byte, error) {
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// decodeKeypairJSON は keypair JSON から 64 バイトの鍵配列を復元します。
// - [int,...]（solana-keygen 形式）
// - 互換: base64 文字列（[]byte の JSON 表現）
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err == nil {
		if len(ints) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
		}
		keyBytes := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("keypair byte out of range at %d: %d", i, v)
			}
			keyBytes[i] = byte(v)
		}
		return keyBytes, nil
	}

	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(keyBytes), ed25519.PrivateKeySize)
	}
	return keyBytes, nil
}
