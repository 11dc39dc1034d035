// internal/adapters/out/firestore/request_journal_fs.go
package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	bridgedom "solana-bridge/internal/domain/bridge"
)

// ============================================================
// RequestJournalFS (Firestore)
// - bridge_requests/{operation}_{sha256(requestId)}
// - requestId が空の完了レコードは自動 ID
// ============================================================

var ErrJournalNotConfigured = errors.New("request_journal_fs: not configured")

const defaultJournalCollection = "bridge_requests"

type RequestJournalFS struct {
	Client *firestore.Client

	// Collection defaults to "bridge_requests"
	Collection string
}

var _ bridgedom.RequestJournal = (*RequestJournalFS)(nil)

func NewRequestJournalFS(client *firestore.Client) *RequestJournalFS {
	return &RequestJournalFS{Client: client}
}

func (r *RequestJournalFS) col() *firestore.CollectionRef {
	col := strings.TrimSpace(r.Collection)
	if col == "" {
		col = strings.TrimSpace(os.Getenv("BRIDGE_JOURNAL_COLLECTION"))
	}
	if col == "" {
		col = defaultJournalCollection
	}
	return r.Client.Collection(col)
}

// JournalDocID is deterministic so that Create enforces uniqueness.
// requestId は任意の UTF-8 なのでハッシュ化して doc ID に使う。
func JournalDocID(op bridgedom.Operation, requestID string) string {
	sum := sha256.Sum256([]byte(requestID))
	return string(op) + "_" + hex.EncodeToString(sum[:])
}

// ------------------------------------------------------------
// bridgedom.RequestJournal
// ------------------------------------------------------------

func (r *RequestJournalFS) Reserve(ctx context.Context, op bridgedom.Operation, requestID string) error {
	if r == nil || r.Client == nil {
		return ErrJournalNotConfigured
	}
	if requestID == "" {
		return nil
	}

	now := time.Now().UTC()
	ref := r.col().Doc(JournalDocID(op, requestID))
	data := map[string]any{
		"operation": string(op),
		"requestId": requestID,
		"status":    string(bridgedom.StatusReserved),
		"createdAt": now,
		"updatedAt": now,
	}
	if _, err := ref.Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return bridgedom.ErrDuplicateRequest
		}
		return err
	}
	return nil
}

func (r *RequestJournalFS) Complete(ctx context.Context, rec bridgedom.RequestRecord) (bridgedom.RequestRecord, error) {
	if r == nil || r.Client == nil {
		return bridgedom.RequestRecord{}, ErrJournalNotConfigured
	}

	now := time.Now().UTC()
	rec.Status = bridgedom.StatusCompleted
	rec.UpdatedAt = now
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	var ref *firestore.DocumentRef
	if rec.RequestID == "" {
		ref = r.col().Doc(uuid.NewString())
	} else {
		ref = r.col().Doc(JournalDocID(rec.Operation, rec.RequestID))
	}
	rec.ID = ref.ID

	data := recordToDoc(rec)
	// reservation 時の createdAt を維持する
	if rec.RequestID != "" {
		delete(data, "createdAt")
	}
	if _, err := ref.Set(ctx, data, firestore.MergeAll); err != nil {
		return bridgedom.RequestRecord{}, err
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return bridgedom.RequestRecord{}, err
	}
	return docToRecord(snap), nil
}

// Abandon deletes a reservation that never completed.
func (r *RequestJournalFS) Abandon(ctx context.Context, op bridgedom.Operation, requestID string) error {
	if r == nil || r.Client == nil {
		return ErrJournalNotConfigured
	}
	if requestID == "" {
		return nil
	}

	ref := r.col().Doc(JournalDocID(op, requestID))
	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return bridgedom.ErrRecordNotFound
			}
			return err
		}
		if snap == nil || !snap.Exists() {
			return bridgedom.ErrRecordNotFound
		}

		// 完了済みは残す
		if st, _ := snap.Data()["status"].(string); st != string(bridgedom.StatusReserved) {
			return nil
		}
		if err := tx.Delete(ref); err != nil {
			return err
		}

		log.Printf("[request_journal_fs] reservation abandoned op=%s doc=%s", op, maskShort(ref.ID))
		return nil
	})
}

// List returns newest first.
func (r *RequestJournalFS) List(ctx context.Context, filter bridgedom.JournalFilter) ([]bridgedom.RequestRecord, error) {
	if r == nil || r.Client == nil {
		return nil, ErrJournalNotConfigured
	}

	q := r.col().Query
	if filter.RequestID != "" {
		q = q.Where("requestId", "==", filter.RequestID)
	}
	switch len(filter.Operations) {
	case 0:
	case 1:
		q = q.Where("operation", "==", string(filter.Operations[0]))
	default:
		ops := make([]string, 0, len(filter.Operations))
		for _, op := range filter.Operations {
			ops = append(ops, string(op))
		}
		q = q.Where("operation", "in", ops)
	}
	q = q.OrderBy("createdAt", firestore.Desc).Limit(filter.NormalizedLimit())

	it := q.Documents(ctx)
	defer it.Stop()

	out := make([]bridgedom.RequestRecord, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, docToRecord(snap))
	}
	return out, nil
}

// ------------------------------------------------------------
// mapping
// ------------------------------------------------------------

func recordToDoc(rec bridgedom.RequestRecord) map[string]any {
	return map[string]any{
		"operation": string(rec.Operation),
		"requestId": rec.RequestID,
		"status":    string(rec.Status),
		"bridge":    rec.Bridge,
		"mint":      rec.Mint,
		"holding":   rec.Holding,
		"signature": rec.Signature,
		"createdAt": rec.CreatedAt,
		"updatedAt": rec.UpdatedAt,
	}
}

func docToRecord(snap *firestore.DocumentSnapshot) bridgedom.RequestRecord {
	raw := snap.Data()

	getStr := func(k string) string {
		if v, ok := raw[k].(string); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}
	getTime := func(k string) time.Time {
		if v, ok := raw[k].(time.Time); ok {
			return v.UTC()
		}
		return time.Time{}
	}

	return bridgedom.RequestRecord{
		ID:        snap.Ref.ID,
		Operation: bridgedom.Operation(getStr("operation")),
		// requestId は trim しない（そのまま往復させる）
		RequestID: rawString(raw, "requestId"),
		Status:    bridgedom.RecordStatus(getStr("status")),
		Bridge:    getStr("bridge"),
		Mint:      getStr("mint"),
		Holding:   getStr("holding"),
		Signature: getStr("signature"),
		CreatedAt: getTime("createdAt"),
		UpdatedAt: getTime("updatedAt"),
	}
}

func rawString(raw map[string]any, k string) string {
	if v, ok := raw[k].(string); ok {
		return v
	}
	return ""
}

func maskShort(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 10 {
		return s
	}
	return s[:4] + "..." + s[len(s)-4:]
}
