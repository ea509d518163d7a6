package users

import (
	"context"
	"sync"
	"time"

	"github.com/will-chou/capstone-community/internal/models"
)

// MemoryUserRepository is an in-process UserRepository for tests and local runs.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	store map[string]models.UserMetadata
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{store: make(map[string]models.UserMetadata)}
}

func (m *MemoryUserRepository) Upsert(ctx context.Context, u *models.UserMetadata) (*models.UserMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	cur, ok := m.store[u.Email]
	if !ok {
		cur = models.UserMetadata{Email: u.Email, EventEntries: []string{}, CreatedAt: now}
	}
	cur.Phone, cur.Name, cur.Picture, cur.UpdatedAt = u.Phone, u.Name, u.Picture, now
	m.store[u.Email] = cur
	return clone(cur), nil
}

func (m *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[email]
	if !ok {
		return nil, nil
	}
	return clone(u), nil
}

func (m *MemoryUserRepository) AppendEventEntry(ctx context.Context, email, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[email]
	if !ok {
		return nil
	}
	for _, id := range u.EventEntries {
		if id == eventID {
			return nil
		}
	}
	u.EventEntries = append(u.EventEntries, eventID)
	u.UpdatedAt = time.Now().UTC()
	m.store[email] = u
	return nil
}

func clone(u models.UserMetadata) *models.UserMetadata {
	u.EventEntries = append([]string{}, u.EventEntries...)
	return &u
}
