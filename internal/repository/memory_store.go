package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/stemsi/exsim-backend/internal/model"
)

// MemoryStore is a process-local snapshot store and report archive. It backs
// `exsim play --ephemeral` and the HTTP tests.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	reports   map[string]model.ExamReport
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string][]byte),
		reports:   make(map[string]model.ExamReport),
	}
}

func (m *MemoryStore) Save(_ context.Context, ownerID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[ownerID] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, ownerID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.snapshots[ownerID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, ownerID)
	return nil
}

func (m *MemoryStore) SaveReport(_ context.Context, report *model.ExamReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reports[report.SessionID]; !exists {
		m.reports[report.SessionID] = *report
	}
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, ownerID, sessionID string) (*model.ExamReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.reports[sessionID]
	if !ok || report.OwnerID != ownerID {
		return nil, ErrReportNotFound
	}
	return &report, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerID string, limit int) ([]model.ExamReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.ExamReport
	for _, r := range m.reports {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
