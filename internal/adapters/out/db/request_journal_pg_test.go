package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgedom "solana-bridge/internal/domain/bridge"
)

func TestBuildJournalWhere(t *testing.T) {
	where, args := buildJournalWhere(bridgedom.JournalFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildJournalWhere(bridgedom.JournalFilter{
		Operations: []bridgedom.Operation{bridgedom.OperationCustody, bridgedom.OperationIssuance},
		RequestID:  "req-1",
	})
	require.Len(t, args, 2)
	assert.Equal(t, []string{"operation = ANY($1)", "request_id = $2"}, where)
	assert.Equal(t, pq.Array([]string{"custody", "issuance"}), args[0])
	assert.Equal(t, "req-1", args[1])
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
