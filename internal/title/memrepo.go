package title

import (
	"context"
	"sort"
	"sync"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

type memrepo struct {
	mu       sync.RWMutex
	titles   map[string]*domain.Title // by category
	custom   map[int64]*domain.CustomTitle
	nextID   int64
	nextCust int64
}

func NewMemoryRepository() Repository {
	return &memrepo{
		titles: make(map[string]*domain.Title),
		custom: make(map[int64]*domain.CustomTitle),
	}
}

func (m *memrepo) ByCategory(ctx context.Context, category string) (*domain.Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.titles[category]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memrepo) ByPlayer(ctx context.Context, playerID int64) ([]*domain.Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Title
	for _, t := range m.titles {
		if t.PlayerID == playerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *memrepo) List(ctx context.Context) ([]*domain.Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Title, 0, len(m.titles))
	for _, t := range m.titles {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *memrepo) Upsert(ctx context.Context, t *domain.Title) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.titles[t.Category]; ok {
		t.ID = existing.ID
	} else {
		m.nextID++
		t.ID = m.nextID
	}
	cp := *t
	m.titles[t.Category] = &cp
	return nil
}

func (m *memrepo) CustomTitles(ctx context.Context, playerID int64) ([]*domain.CustomTitle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.CustomTitle
	for _, ct := range m.custom {
		if ct.PlayerID == playerID {
			cp := *ct
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memrepo) AddCustomTitle(ctx context.Context, playerID int64, text string) (*domain.CustomTitle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCust++
	ct := &domain.CustomTitle{ID: m.nextCust, PlayerID: playerID, Text: text}
	m.custom[ct.ID] = ct
	cp := *ct
	return &cp, nil
}

func (m *memrepo) RemoveCustomTitle(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.custom[id]; !ok {
		return ErrTitleNotFound
	}
	delete(m.custom, id)
	return nil
}
