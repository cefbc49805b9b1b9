package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/audit"
	"github.com/xela07ax/vizitka-api/internal/cache"
	"github.com/xela07ax/vizitka-api/internal/domain"
)

// memStore — in-memory реализация всех стор-интерфейсов сервисного слоя.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	cards map[uuid.UUID]*domain.Card
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[uuid.UUID]*domain.User),
		cards: make(map[uuid.UUID]*domain.Card),
	}
}

func (m *memStore) FindUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memStore) AdminExists(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Role == domain.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *memStore) ListUsers(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) ListUserRefs(_ context.Context) ([]domain.UserRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.UserRef, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Ref())
	}
	return out, nil
}

func (m *memStore) UpdateUser(_ context.Context, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.Email = req.Email
	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.UpdatedAt = time.Now()
	return u, nil
}

func (m *memStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memStore) FindCardByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cards[id], nil
}

func (m *memStore) ListCards(_ context.Context, filter domain.CardFilter) ([]*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Card, 0, len(m.cards))
	for _, c := range m.cards {
		if filter.AssignedTo != nil && c.AssignedTo != *filter.AssignedTo {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) CreateCard(_ context.Context, c *domain.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.CreatedAt = time.Now()
	c.LastUpdatedAt = c.CreatedAt
	c.HasProfilePicture = len(c.ProfilePicture) > 0
	m.cards[c.ID] = c
	return nil
}

func (m *memStore) UpdateCard(_ context.Context, c *domain.Card, replacePicture bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.cards[c.ID]
	if !ok {
		return nil
	}
	if !replacePicture {
		c.ProfilePicture = existing.ProfilePicture
		c.ProfilePictureMime = existing.ProfilePictureMime
	}
	c.CreatedAt = existing.CreatedAt
	c.LastUpdatedAt = time.Now()
	c.HasProfilePicture = len(c.ProfilePicture) > 0
	m.cards[c.ID] = c
	return nil
}

func (m *memStore) DeleteCard(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cards, id)
	return nil
}

func (m *memStore) GetCardImage(_ context.Context, id uuid.UUID) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, "", nil
	}
	return c.ProfilePicture, c.ProfilePictureMime, nil
}

// capturingTrail запоминает все события аудита для проверок.
type capturingTrail struct {
	mu     sync.Mutex
	events []audit.Event
}

func (t *capturingTrail) Log(e audit.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func (t *capturingTrail) denials() []audit.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []audit.Event
	for _, e := range t.events {
		if !e.Allowed {
			out = append(out, e)
		}
	}
	return out
}

// testImageCache смотрит на недоступный Redis: все обращения деградируют
// в промах, что для сервисных тестов эквивалентно отключенному кэшу.
func testImageCache() *cache.ImageCache {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
	return cache.NewImageCache(rdb, time.Minute, zap.NewNop())
}

func seedUser(store *memStore, role domain.Role) *domain.User {
	u := &domain.User{
		ID:        uuid.New(),
		Email:     uuid.New().String() + "@example.com",
		Role:      role,
		FirstName: "Test",
		LastName:  "User",
	}
	store.users[u.ID] = u
	return u
}

func seedCard(store *memStore, assignedTo, createdBy uuid.UUID) *domain.Card {
	c := &domain.Card{
		ID:          uuid.New(),
		FullName:    "Ivan Petrov",
		Title:       "Engineer",
		Location:    "Moscow",
		CompanyName: "Acme",
		Description: "Business card",
		Contact:     domain.Contact{Email: "ivan@acme.example"},
		AssignedTo:  assignedTo,
		CreatedBy:   createdBy,
	}
	store.cards[c.ID] = c
	return c
}
