package users

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps users in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	byTGID map[int64]User
	nextID int64
	now    func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byTGID: make(map[int64]User), now: time.Now}
}

func (m *MemoryStore) FindByTelegramID(_ context.Context, telegramID int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byTGID[telegramID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) Create(_ context.Context, telegramID int64, name, region string) (User, error) {
	name, region, err := validate(telegramID, name, region)
	if err != nil {
		return User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byTGID[telegramID]; ok {
		u.Name, u.Region = name, region
		m.byTGID[telegramID] = u
		return u, nil
	}
	m.nextID++
	u := User{
		ID:         m.nextID,
		TelegramID: telegramID,
		Name:       name,
		Region:     region,
		CreatedAt:  m.now().UTC(),
	}
	m.byTGID[telegramID] = u
	return u, nil
}

func (m *MemoryStore) List(context.Context) ([]User, error) {
	m.mu.RLock()
	out := make([]User, 0, len(m.byTGID))
	for _, u := range m.byTGID {
		out = append(out, u)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
