package events

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errDuplicateID = errors.New("event id already exists")

// MemoryRepo is an in-process Repository for tests and local runs.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]EventEntry
	byUser map[string][]EventEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]EventEntry{}, byUser: map[string][]EventEntry{}}
}

func (m *MemoryRepo) Create(ctx context.Context, e *EventEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[e.ID]; ok {
		return errDuplicateID
	}
	m.byID[e.ID] = *e
	return nil
}

func (m *MemoryRepo) CreateForUser(ctx context.Context, email string, e *EventEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser[email] = append(m.byUser[email], *e)
	return nil
}

func (m *MemoryRepo) RangeByGeohash(ctx context.Context, start, end string) ([]EventEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []EventEntry{}
	for _, e := range m.byID {
		if e.LocationHash >= start && e.LocationHash <= end {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocationHash == out[j].LocationHash {
			return out[i].ID < out[j].ID
		}
		return out[i].LocationHash < out[j].LocationHash
	})
	return out, nil
}

func (m *MemoryRepo) RecentForUser(ctx context.Context, email string, limit int) ([]EventEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]EventEntry{}, m.byUser[email]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ts.After(out[j].Ts) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
