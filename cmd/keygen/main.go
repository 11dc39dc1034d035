// cmd/keygen/main.go
//
// ブリッジ backend authority 用の Solana keypair を生成する小さなツールです。
// - Solana 互換の ed25519 keypair を生成
// - 公開鍵を base58 文字列として表示（これが bridge の authority）
// - 秘密鍵を Solana CLI 互換の JSON 配列としてファイルに保存します。
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	solanainfra "solana-bridge/internal/infra/solana"
)

func main() {
	out := flag.String("out", "bridge-authority.json", "keypair output path")
	force := flag.Bool("force", false, "overwrite an existing file")
	flag.Parse()

	// 上書き防止
	if _, err := os.Stat(*out); err == nil && !*force {
		log.Fatalf("%s already exists (use -force to overwrite)", *out)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("stat %s: %v", *out, err)
	}

	// 1. ed25519 keypair を生成
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Fatalf("failed to generate ed25519 keypair: %v", err)
	}
	acc, err := types.AccountFromBytes(priv)
	if err != nil {
		log.Fatalf("failed to build account: %v", err)
	}

	// 2. Solana CLI 互換の JSON 配列
	data, err := solanainfra.EncodeKeypairJSON(acc)
	if err != nil {
		log.Fatalf("failed to marshal secret key json: %v", err)
	}

	// 3. ファイルとして保存
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		log.Fatalf("failed to write %s: %v", *out, err)
	}

	fmt.Println("============================================")
	fmt.Println("Bridge backend authority generated")
	fmt.Println("============================================")
	fmt.Printf("Public Key (authority):\n  %s\n\n", base58.Encode(acc.PublicKey.Bytes()))
	fmt.Printf("Secret key file (Solana-compatible JSON):\n  %s\n\n", *out)
	fmt.Println("IMPORTANT:")
	fmt.Println("  - この JSON ファイルは Git に絶対にコミットしないでください。")
	fmt.Println("  - GCP Secret Manager に登録し BRIDGE_AUTHORITY_SECRET に設定してください。")
}
