// internal/infra/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	ExecutorSimulator = "simulator"
	ExecutorSolana    = "solana"

	JournalMemory    = "memory"
	JournalFirestore = "firestore"
	JournalPostgres  = "postgres"
)

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// ベースとなる GCP プロジェクト ID
	GCPProjectID             string `env:"GCP_PROJECT_ID" envDefault:"solana-bridge-dev"`
	FirestoreProjectID       string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentialsFile string `env:"FIRESTORE_CREDENTIALS_FILE"`
	FirebaseProjectID        string `env:"FIREBASE_PROJECT_ID"`

	// descriptor JSON の保存先（空なら既定バケット）
	GCSBucket string `env:"GCS_BUCKET"`

	// Solana
	SolanaRPCURL    string `env:"SOLANA_RPC_URL"`
	BridgeProgramID string `env:"BRIDGE_PROGRAM_ID"`
	BridgeSeed      uint64 `env:"BRIDGE_SEED" envDefault:"1"`

	// simulator | solana
	Executor string `env:"BRIDGE_EXECUTOR" envDefault:"simulator"`
	// memory | firestore | postgres
	Journal     string `env:"BRIDGE_JOURNAL" envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`

	// backend authority: Secret Manager のリソース名 or keypair JSON のパス
	AuthoritySecret  string `env:"BRIDGE_AUTHORITY_SECRET"`
	AuthorityKeypair string `env:"BRIDGE_AUTHORITY_KEYPAIR"`

	RequireAuth       bool     `env:"BRIDGE_REQUIRE_AUTH" envDefault:"false"`
	OperatorUIDs      []string `env:"BRIDGE_OPERATOR_UIDS" envSeparator:","`
	CORSAllowedOrigin string   `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
}

// Load は環境変数を読み込み Config を返します。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Executor = strings.ToLower(strings.TrimSpace(c.Executor))
	c.Journal = strings.ToLower(strings.TrimSpace(c.Journal))

	// 未指定なら GCP のデフォルトを使う
	if strings.TrimSpace(c.FirestoreProjectID) == "" {
		c.FirestoreProjectID = c.GCPProjectID
	}
	if strings.TrimSpace(c.FirebaseProjectID) == "" {
		c.FirebaseProjectID = c.GCPProjectID
	}

	uids := make([]string, 0, len(c.OperatorUIDs))
	for _, u := range c.OperatorUIDs {
		if u = strings.TrimSpace(u); u != "" {
			uids = append(uids, u)
		}
	}
	c.OperatorUIDs = uids
}

// Validate checks the enum-like settings and their dependencies.
func (c *Config) Validate() error {
	switch c.Executor {
	case ExecutorSimulator:
	case ExecutorSolana:
		if strings.TrimSpace(c.AuthoritySecret) == "" && strings.TrimSpace(c.AuthorityKeypair) == "" {
			return fmt.Errorf("config: BRIDGE_EXECUTOR=solana requires BRIDGE_AUTHORITY_SECRET or BRIDGE_AUTHORITY_KEYPAIR")
		}
		// 実鍵で署名するため /bridge は operator 限定
		if !c.RequireAuth {
			return fmt.Errorf("config: BRIDGE_EXECUTOR=solana requires BRIDGE_REQUIRE_AUTH=true")
		}
	default:
		return fmt.Errorf("config: unknown BRIDGE_EXECUTOR %q", c.Executor)
	}

	if c.RequireAuth && len(c.OperatorUIDs) == 0 {
		return fmt.Errorf("config: BRIDGE_REQUIRE_AUTH=true requires BRIDGE_OPERATOR_UIDS")
	}

	switch c.Journal {
	case JournalMemory, JournalFirestore:
	case JournalPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("config: BRIDGE_JOURNAL=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown BRIDGE_JOURNAL %q", c.Journal)
	}
	return nil
}

// GetFirestoreProjectID は Firestore/GCP プロジェクト ID を返します。
func (c *Config) GetFirestoreProjectID() string {
	return c.FirestoreProjectID
}

func (c *Config) GetFirebaseProjectID() string {
	return c.FirebaseProjectID
}

// NeedsGCP reports whether any GCP client must be created at boot.
func (c *Config) NeedsGCP() bool {
	return c.Journal == JournalFirestore || c.RequireAuth || strings.TrimSpace(c.GCSBucket) != ""
}
