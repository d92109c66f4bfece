package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/pwa"
)

type memoryEntry struct {
	rec *entities.PWARecord
	seq uint64
}

// MemoryRepository is an in-process PWARepository. Each instance is an
// independent store; records are copied in and out so callers never share
// state with it.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	seq     uint64
	now     func() time.Time
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

var _ PWARepository = (*MemoryRepository)(nil)

func (m *MemoryRepository) Create(ctx context.Context, rec *entities.PWARecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := m.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	m.seq++
	m.records[rec.ID] = memoryEntry{rec: rec.Clone(), seq: m.seq}
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*entities.PWARecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.records[id]
	if !ok {
		return nil, ErrPWANotFound
	}
	return e.rec.Clone(), nil
}

func (m *MemoryRepository) ListByOwner(ctx context.Context, userID string) ([]entities.PWARecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entries := make([]memoryEntry, 0, len(m.records))
	for _, e := range m.records {
		if e.rec.UserID == userID {
			entries = append(entries, e)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(entries, func(a, b memoryEntry) int {
		if c := b.rec.CreatedAt.Compare(a.rec.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	out := make([]entities.PWARecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.rec.Clone())
	}
	return out, nil
}

func (m *MemoryRepository) UpdateOwned(ctx context.Context, id, userID string, patch pwa.Config) (*entities.PWARecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.records[id]
	if !ok || e.rec.UserID != userID {
		return nil, ErrPWANotFound
	}
	updated := e.rec.Clone()
	updated.ApplyPatch(patch)
	updated.UpdatedAt = m.now().UTC()
	m.records[id] = memoryEntry{rec: updated, seq: e.seq}
	return updated.Clone(), nil
}

func (m *MemoryRepository) DeleteOwned(ctx context.Context, id, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.records[id]
	if !ok || e.rec.UserID != userID {
		return 0, nil
	}
	delete(m.records, id)
	return 1, nil
}

func (m *MemoryRepository) CountByOwner(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, e := range m.records {
		if e.rec.UserID == userID {
			n++
		}
	}
	return n, nil
}
