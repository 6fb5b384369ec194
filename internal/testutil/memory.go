// Package testutil provides in-memory repositories and provider fakes for tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/repository"
)

// MemoryUsers is an in-memory repository.UserRepository.
type MemoryUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
	Err   error
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]domain.User)}
}

var _ repository.UserRepository = (*MemoryUsers)(nil)

func (m *MemoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	m.users[user.ID] = *user
	return nil
}

// Put stores user as-is, overwriting any existing record with the same id.
func (m *MemoryUsers) Put(user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MemoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (m *MemoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *MemoryUsers) UpdateUsername(_ context.Context, id, username string) (*domain.User, error) {
	return m.update(id, func(u *domain.User) { u.Username = username })
}

func (m *MemoryUsers) UpdateProfilePicture(_ context.Context, id, url string) (*domain.User, error) {
	return m.update(id, func(u *domain.User) { u.ProfilePictureURL = url })
}

func (m *MemoryUsers) update(id string, apply func(*domain.User)) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	apply(&u)
	m.users[id] = u
	return &u, nil
}

func (m *MemoryUsers) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	term := strings.ToLower(strings.TrimSpace(filter.SearchTerm))
	out := []domain.User{}
	for _, u := range m.users {
		if term != "" && !strings.Contains(strings.ToLower(u.Username), term) && !strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, filter.Offset, filter.Limit), nil
}

func (m *MemoryUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), m.Err
}

func (m *MemoryUsers) SignupTimeline(_ context.Context, since time.Time) ([]domain.DailySignups, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	counts := map[string]int64{}
	for _, u := range m.users {
		if u.CreatedAt.Before(since) {
			continue
		}
		counts[u.CreatedAt.UTC().Format("2006-01-02")]++
	}
	out := make([]domain.DailySignups, 0, len(counts))
	for day, n := range counts {
		out = append(out, domain.DailySignups{Date: day, Users: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// MemoryPlants is an in-memory repository.PlantRepository.
type MemoryPlants struct {
	mu     sync.Mutex
	plants map[string]domain.GardenPlant
	clock  time.Time
	Err    error
}

func NewMemoryPlants() *MemoryPlants {
	return &MemoryPlants{plants: make(map[string]domain.GardenPlant), clock: time.Now().UTC()}
}

var _ repository.PlantRepository = (*MemoryPlants)(nil)

func (m *MemoryPlants) Create(_ context.Context, plant *domain.GardenPlant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	plant.ID = uuid.NewString()
	// strictly increasing so newest-first ordering is deterministic
	m.clock = m.clock.Add(time.Second)
	plant.SavedAt = m.clock
	m.plants[plant.ID] = *plant
	return nil
}

func (m *MemoryPlants) ListByUser(_ context.Context, userID string) ([]domain.GardenPlant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []domain.GardenPlant{}
	for _, p := range m.plants {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

func (m *MemoryPlants) DeleteForUser(_ context.Context, id, userID string) (*domain.GardenPlant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.plants[id]
	if !ok || p.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	delete(m.plants, id)
	return &p, nil
}

func (m *MemoryPlants) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.plants)), m.Err
}

func (m *MemoryPlants) Popular(_ context.Context, limit int) ([]domain.PlantPopularity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	counts := map[string]int64{}
	for _, p := range m.plants {
		counts[p.CommonName]++
	}
	out := make([]domain.PlantPopularity, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.PlantPopularity{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return page(out, 0, limit), nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset > len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
