// internal/domain/bridge/repository_port.go
package bridge

import (
	"context"
	"errors"
	"time"
)

// ========================================
// リクエストジャーナル（オフチェーンの冪等性管理）
// ========================================

// Operation identifies which bridge entry point a journal record belongs to.
type Operation string

const (
	OperationCustody  Operation = "custody"
	OperationRelease  Operation = "release"
	OperationIssuance Operation = "issuance"
)

// RecordStatus of a journal entry.
type RecordStatus string

const (
	StatusReserved  RecordStatus = "reserved"
	StatusCompleted RecordStatus = "completed"
)

// RequestRecord is the driver-side trace of one operation.
type RequestRecord struct {
	ID        string       `json:"id"`
	Operation Operation    `json:"operation"`
	RequestID string       `json:"requestId"`
	Status    RecordStatus `json:"status"`
	Bridge    string       `json:"bridge"`
	Mint      string       `json:"mint,omitempty"`
	Holding   string       `json:"holding,omitempty"`
	Signature string       `json:"signature,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type JournalFilter struct {
	Operations []Operation // 空なら全件
	RequestID  string
	Limit      int
}

// DefaultJournalLimit / MaxJournalLimit bound List.
const (
	DefaultJournalLimit = 50
	MaxJournalLimit     = 200
)

// NormalizedLimit clamps Limit to (0, MaxJournalLimit].
func (f JournalFilter) NormalizedLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultJournalLimit
	case f.Limit > MaxJournalLimit:
		return MaxJournalLimit
	default:
		return f.Limit
	}
}

// Matches reports whether rec passes the operation / requestId filters.
func (f JournalFilter) Matches(rec RequestRecord) bool {
	if f.RequestID != "" && rec.RequestID != f.RequestID {
		return false
	}
	if len(f.Operations) == 0 {
		return true
	}
	for _, op := range f.Operations {
		if op == rec.Operation {
			return true
		}
	}
	return false
}

// ParseOperation accepts the wire names of Operation.
func ParseOperation(s string) (Operation, bool) {
	switch op := Operation(s); op {
	case OperationCustody, OperationRelease, OperationIssuance:
		return op, true
	}
	return "", false
}

var ErrRecordNotFound = errors.New("bridge: journal record not found")

// RequestJournal enforces at-most-once per (operation, requestId).
//
// Reserve fails with ErrDuplicateRequest if the pair was already reserved or
// completed. Complete stores the outcome; for an empty requestId it appends a
// fresh record instead. Abandon drops a reservation after a failed submission.
type RequestJournal interface {
	Reserve(ctx context.Context, op Operation, requestID string) error
	Complete(ctx context.Context, rec RequestRecord) (RequestRecord, error)
	Abandon(ctx context.Context, op Operation, requestID string) error
	List(ctx context.Context, filter JournalFilter) ([]RequestRecord, error)
}

// JournalKey is the stable identity of a reservation.
func JournalKey(op Operation, requestID string) string {
	return string(op) + ":" + requestID
}

// JournalTableDDL is the Postgres schema of the request journal.
const JournalTableDDL = `
CREATE TABLE IF NOT EXISTS bridge_request_journal (
  id          TEXT PRIMARY KEY,
  operation   TEXT NOT NULL,
  request_id  TEXT NOT NULL,
  status      TEXT NOT NULL,
  bridge      TEXT NOT NULL DEFAULT '',
  mint        TEXT NOT NULL DEFAULT '',
  holding     TEXT NOT NULL DEFAULT '',
  signature   TEXT NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS bridge_request_journal_op_req
  ON bridge_request_journal (operation, request_id)
  WHERE request_id <> '';
`
