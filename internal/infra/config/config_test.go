package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GCP_PROJECT_ID", "proj-x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ExecutorSimulator, cfg.Executor)
	assert.Equal(t, JournalMemory, cfg.Journal)
	assert.Equal(t, uint64(1), cfg.BridgeSeed)
	assert.Equal(t, "proj-x", cfg.GetFirestoreProjectID())
	assert.Equal(t, "proj-x", cfg.GetFirebaseProjectID())
	assert.Equal(t, "*", cfg.CORSAllowedOrigin)
	assert.False(t, cfg.RequireAuth)
	assert.Empty(t, cfg.OperatorUIDs)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BRIDGE_SEED", "42")
	t.Setenv("BRIDGE_EXECUTOR", " Solana ")
	t.Setenv("BRIDGE_AUTHORITY_KEYPAIR", "/tmp/id.json")
	t.Setenv("BRIDGE_JOURNAL", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("BRIDGE_REQUIRE_AUTH", "true")
	t.Setenv("BRIDGE_OPERATOR_UIDS", "uid-a, ,uid-b")
	t.Setenv("FIRESTORE_PROJECT_ID", "fs-proj")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, uint64(42), cfg.BridgeSeed)
	assert.Equal(t, ExecutorSolana, cfg.Executor)
	assert.Equal(t, JournalPostgres, cfg.Journal)
	assert.True(t, cfg.RequireAuth)
	assert.Equal(t, []string{"uid-a", "uid-b"}, cfg.OperatorUIDs)
	assert.Equal(t, "fs-proj", cfg.FirestoreProjectID)
	assert.True(t, cfg.NeedsGCP())
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown executor", map[string]string{"BRIDGE_EXECUTOR": "evm"}},
		{"solana without key", map[string]string{"BRIDGE_EXECUTOR": "solana"}},
		{"solana without auth", map[string]string{
			"BRIDGE_EXECUTOR":          "solana",
			"BRIDGE_AUTHORITY_KEYPAIR": "/tmp/id.json",
		}},
		{"solana with auth but no operators", map[string]string{
			"BRIDGE_EXECUTOR":          "solana",
			"BRIDGE_AUTHORITY_KEYPAIR": "/tmp/id.json",
			"BRIDGE_REQUIRE_AUTH":      "true",
		}},
		{"auth without operators", map[string]string{"BRIDGE_REQUIRE_AUTH": "true"}},
		{"unknown journal", map[string]string{"BRIDGE_JOURNAL": "redis"}},
		{"postgres without dsn", map[string]string{"BRIDGE_JOURNAL": "postgres"}},
		{"bad seed", map[string]string{"BRIDGE_SEED": "-1"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
