package users

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/twitteroauth/auth-service/internal/models"
)

// MemoryRepository is an in-memory Repository used for unit tests and local
// development without MongoDB. It enforces the same unique constraints as
// the Mongo indexes.
type MemoryRepository struct {
	mu    sync.RWMutex
	seq   int
	store map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*models.User)}
}

func (m *MemoryRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.store {
		if other.Email == u.Email {
			return nil, ErrDuplicate
		}
		if u.RefreshToken != "" && other.RefreshToken == u.RefreshToken {
			return nil, ErrDuplicate
		}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.ID == "" {
		m.seq++
		u.ID = "user_" + strconv.Itoa(m.seq)
	}
	cp := *u
	m.store[u.ID] = &cp
	return u, nil
}

func (m *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *MemoryRepository) FindByTwitterID(ctx context.Context, twitterID string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Twitter != "" && u.Twitter == twitterID })
}

func (m *MemoryRepository) FindByRefreshTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.RefreshToken != "" && u.RefreshToken == hash })
}

func (m *MemoryRepository) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) UpdateByID(ctx context.Context, id string, p Patch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	if p.TwitterTokens != nil {
		tt := *p.TwitterTokens
		u.TwitterTokens = &tt
	}
	if p.RefreshTokenHash != nil {
		u.RefreshToken = *p.RefreshTokenHash
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

// Count reports the number of stored users; test helper.
func (m *MemoryRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}
