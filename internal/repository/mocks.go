package repository

import (
	"context"
	"sync"

	"github.com/kitbuilder587/ctxchat/internal/domain"
)

type MockSnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot

	SaveErr error
	LoadErr error

	SaveCalls int
	LoadCalls int
}

func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{
		snapshots: make(map[string]domain.Snapshot),
	}
}

func (m *MockSnapshotRepository) Save(ctx context.Context, slot string, snapshot domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}

	snapshot.History = append([]domain.Entry(nil), snapshot.History...)
	m.snapshots[slot] = snapshot
	return nil
}

func (m *MockSnapshotRepository) Load(ctx context.Context, slot string) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LoadCalls++
	if m.LoadErr != nil {
		return domain.Snapshot{}, m.LoadErr
	}

	s, ok := m.snapshots[slot]
	if !ok {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	s.History = append([]domain.Entry(nil), s.History...)
	return s, nil
}

// Put stores a snapshot as-is, bypassing SaveErr. Used to seed broken data.
func (m *MockSnapshotRepository) Put(slot string, snapshot domain.Snapshot) {
	m.mu.Lock()
	m.snapshots[slot] = snapshot
	m.mu.Unlock()
}

func (m *MockSnapshotRepository) Location(slot string) string {
	return "memory:" + slot
}

func (m *MockSnapshotRepository) Close() error {
	return nil
}

var _ SnapshotRepository = (*MockSnapshotRepository)(nil)
