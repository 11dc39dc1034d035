// internal/adapters/out/db/request_journal_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	bridgedom "solana-bridge/internal/domain/bridge"
)

// RequestJournalPG implements bridge.RequestJournal with PostgreSQL.
type RequestJournalPG struct {
	DB *sql.DB
}

var _ bridgedom.RequestJournal = (*RequestJournalPG)(nil)

func NewRequestJournalPG(db *sql.DB) *RequestJournalPG {
	return &RequestJournalPG{DB: db}
}

// EnsureSchema creates the journal table if missing.
func (r *RequestJournalPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, bridgedom.JournalTableDDL); err != nil {
		return fmt.Errorf("request_journal_pg: ensure schema: %w", err)
	}
	return nil
}

// ===============================
// RequestJournal impl
// ===============================

func (r *RequestJournalPG) Reserve(ctx context.Context, op bridgedom.Operation, requestID string) error {
	if requestID == "" {
		return nil
	}

	now := time.Now().UTC()
	const q = `
INSERT INTO bridge_request_journal (id, operation, request_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`
	_, err := r.DB.ExecContext(ctx, q,
		bridgedom.JournalKey(op, requestID), string(op), requestID, string(bridgedom.StatusReserved), now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return bridgedom.ErrDuplicateRequest
		}
		return err
	}
	return nil
}

func (r *RequestJournalPG) Complete(ctx context.Context, rec bridgedom.RequestRecord) (bridgedom.RequestRecord, error) {
	now := time.Now().UTC()

	id := uuid.NewString()
	if rec.RequestID != "" {
		id = bridgedom.JournalKey(rec.Operation, rec.RequestID)
	}

	const q = `
INSERT INTO bridge_request_journal (
  id, operation, request_id, status,
  bridge, mint, holding, signature,
  created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (operation, request_id) WHERE request_id <> '' DO UPDATE SET
  status     = EXCLUDED.status,
  bridge     = EXCLUDED.bridge,
  mint       = EXCLUDED.mint,
  holding    = EXCLUDED.holding,
  signature  = EXCLUDED.signature,
  updated_at = EXCLUDED.updated_at
RETURNING
  id, operation, request_id, status,
  bridge, mint, holding, signature,
  created_at, updated_at`

	row := r.DB.QueryRowContext(ctx, q,
		id,
		string(rec.Operation),
		rec.RequestID,
		string(bridgedom.StatusCompleted),
		rec.Bridge,
		rec.Mint,
		rec.Holding,
		rec.Signature,
		now,
	)
	out, err := scanRecord(row)
	if err != nil {
		return bridgedom.RequestRecord{}, err
	}
	return out, nil
}

func (r *RequestJournalPG) Abandon(ctx context.Context, op bridgedom.Operation, requestID string) error {
	if requestID == "" {
		return nil
	}

	const del = `
DELETE FROM bridge_request_journal
WHERE operation = $1 AND request_id = $2 AND status = $3`
	res, err := r.DB.ExecContext(ctx, del, string(op), requestID, string(bridgedom.StatusReserved))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	// 完了済みなら何もしない / 無ければ NotFound
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM bridge_request_journal WHERE operation = $1 AND request_id = $2)`
	if err := r.DB.QueryRowContext(ctx, q, string(op), requestID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return bridgedom.ErrRecordNotFound
	}
	return nil
}

func (r *RequestJournalPG) List(ctx context.Context, filter bridgedom.JournalFilter) ([]bridgedom.RequestRecord, error) {
	where, args := buildJournalWhere(filter)
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	q := fmt.Sprintf(`
SELECT
  id, operation, request_id, status,
  bridge, mint, holding, signature,
  created_at, updated_at
FROM bridge_request_journal
%s
ORDER BY created_at DESC, id DESC
LIMIT $%d`, whereSQL, len(args)+1)
	args = append(args, filter.NormalizedLimit())

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]bridgedom.RequestRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ===============================
// helpers
// ===============================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (bridgedom.RequestRecord, error) {
	var (
		rec       bridgedom.RequestRecord
		op, st    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := s.Scan(
		&rec.ID, &op, &rec.RequestID, &st,
		&rec.Bridge, &rec.Mint, &rec.Holding, &rec.Signature,
		&createdAt, &updatedAt,
	); err != nil {
		return bridgedom.RequestRecord{}, err
	}
	rec.Operation = bridgedom.Operation(op)
	rec.Status = bridgedom.RecordStatus(st)
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updatedAt.UTC()
	return rec, nil
}

func buildJournalWhere(f bridgedom.JournalFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if len(f.Operations) > 0 {
		ops := make([]string, 0, len(f.Operations))
		for _, op := range f.Operations {
			ops = append(ops, string(op))
		}
		args = append(args, pq.Array(ops))
		where = append(where, fmt.Sprintf("operation = ANY($%d)", len(args)))
	}
	if f.RequestID != "" {
		args = append(args, f.RequestID)
		where = append(where, fmt.Sprintf("request_id = $%d", len(args)))
	}
	return where, args
}

// isUniqueViolation は pgx / lib/pq どちらのドライバでも 23505 を検知する。
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
