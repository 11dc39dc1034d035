// internal/adapters/out/memory/request_journal_mem.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bridgedom "solana-bridge/internal/domain/bridge"
)

// RequestJournalMem is a process-local RequestJournal (simulator / tests).
type RequestJournalMem struct {
	mu      sync.Mutex
	keyed   map[string]bridgedom.RequestRecord
	records []string // 挿入順の ID

	byID map[string]bridgedom.RequestRecord

	now func() time.Time
}

var _ bridgedom.RequestJournal = (*RequestJournalMem)(nil)

func NewRequestJournalMem() *RequestJournalMem {
	return &RequestJournalMem{
		keyed: map[string]bridgedom.RequestRecord{},
		byID:  map[string]bridgedom.RequestRecord{},
		now:   time.Now,
	}
}

func (r *RequestJournalMem) Reserve(ctx context.Context, op bridgedom.Operation, requestID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if requestID == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := bridgedom.JournalKey(op, requestID)
	if _, ok := r.keyed[key]; ok {
		return bridgedom.ErrDuplicateRequest
	}

	now := r.now().UTC()
	rec := bridgedom.RequestRecord{
		ID:        key,
		Operation: op,
		RequestID: requestID,
		Status:    bridgedom.StatusReserved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.keyed[key] = rec
	r.byID[rec.ID] = rec
	r.records = append(r.records, rec.ID)
	return nil
}

func (r *RequestJournalMem) Complete(ctx context.Context, rec bridgedom.RequestRecord) (bridgedom.RequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return bridgedom.RequestRecord{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	rec.Status = bridgedom.StatusCompleted
	rec.UpdatedAt = now

	if rec.RequestID == "" {
		rec.ID = uuid.NewString()
		rec.CreatedAt = now
		r.byID[rec.ID] = rec
		r.records = append(r.records, rec.ID)
		return rec, nil
	}

	key := bridgedom.JournalKey(rec.Operation, rec.RequestID)
	prev, ok := r.keyed[key]
	if ok {
		rec.ID = prev.ID
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.ID = key
		rec.CreatedAt = now
		r.records = append(r.records, rec.ID)
	}
	r.keyed[key] = rec
	r.byID[rec.ID] = rec
	return rec, nil
}

func (r *RequestJournalMem) Abandon(ctx context.Context, op bridgedom.Operation, requestID string) error {
	if requestID == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := bridgedom.JournalKey(op, requestID)
	rec, ok := r.keyed[key]
	if !ok {
		return bridgedom.ErrRecordNotFound
	}
	// 完了済みは取り消さない
	if rec.Status != bridgedom.StatusReserved {
		return nil
	}
	delete(r.keyed, key)
	delete(r.byID, rec.ID)
	for i, id := range r.records {
		if id == rec.ID {
			r.records = append(r.records[:i], r.records[i+1:]...)
			break
		}
	}
	return nil
}

// List returns newest first.
func (r *RequestJournalMem) List(ctx context.Context, filter bridgedom.JournalFilter) ([]bridgedom.RequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]bridgedom.RequestRecord, 0, len(r.records))
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.byID[r.records[i]]
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit := filter.NormalizedLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
