package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/alertrelay/internal/domain"
	"github.com/hamed0406/alertrelay/internal/repo"
)

type Store struct {
	mu      sync.RWMutex
	records []domain.AlertRecord
}

func New() *Store {
	return &Store{records: make([]domain.AlertRecord, 0, 128)}
}

func (m *Store) Append(ctx context.Context, r *domain.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = domain.AlertID(uuid.NewString())
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.records = append(m.records, *r)
	return nil
}

func (m *Store) Recent(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	limit = repo.ClampLimit(limit)

	m.mu.RLock()
	out := make([]domain.AlertRecord, len(m.records))
	for i, r := range m.records {
		out[len(out)-1-i] = r
	}
	m.mu.RUnlock()

	// reversed + stable: equal timestamps keep the latest insert first
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
