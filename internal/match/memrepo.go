package match

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

// memrepo keeps players and matches in memory. Tests use it so the whole
// submission and rebuild path runs without Postgres.
type memrepo struct {
	mu       sync.RWMutex
	players  map[int64]*domain.Player
	byHandle map[string]int64
	matches  map[int64]*domain.Match

	nextPlayer      int64
	nextMatch       int64
	nextParticipant int64
}

func NewMemoryRepository() Repository {
	return &memrepo{
		players:  make(map[int64]*domain.Player),
		byHandle: make(map[string]int64),
		matches:  make(map[int64]*domain.Match),
	}
}

func (m *memrepo) GetOrCreatePlayer(ctx context.Context, handle string) (*domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byHandle[handle]; ok {
		p := *m.players[id]
		return &p, nil
	}
	m.nextPlayer++
	p := &domain.Player{ID: m.nextPlayer, Handle: handle, CreatedAt: time.Now().UTC()}
	m.players[p.ID] = p
	m.byHandle[handle] = p.ID
	out := *p
	return &out, nil
}

func (m *memrepo) PlayerByID(ctx context.Context, id int64) (*domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (m *memrepo) PlayerByHandle(ctx context.Context, handle string) (*domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byHandle[handle]
	if !ok {
		return nil, nil
	}
	out := *m.players[id]
	return &out, nil
}

func (m *memrepo) PlayerByChatID(ctx context.Context, chatID string) (*domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.players {
		if p.ChatID == chatID {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memrepo) LinkChatID(ctx context.Context, playerID int64, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.ChatID = chatID
	return nil
}

func (m *memrepo) ListPlayers(ctx context.Context) ([]*domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Player, 0, len(m.players))
	for _, p := range m.players {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memrepo) InsertMatch(ctx context.Context, match *domain.Match) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMatch++
	match.ID = m.nextMatch
	if match.Timestamp.IsZero() {
		match.Timestamp = time.Now().UTC()
	}
	for i := range match.Participants {
		m.nextParticipant++
		match.Participants[i].ID = m.nextParticipant
		match.Participants[i].MatchID = match.ID
	}
	m.matches[match.ID] = copyMatch(match)
	return match.ID, nil
}

func (m *memrepo) GetMatch(ctx context.Context, id int64) (*domain.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[id]
	if !ok {
		return nil, nil
	}
	return copyMatch(match), nil
}

func (m *memrepo) DeleteMatch(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.matches[id]; !ok {
		return false, nil
	}
	delete(m.matches, id)
	return true, nil
}

func (m *memrepo) ListMatches(ctx context.Context) ([]*domain.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Match, 0, len(m.matches))
	for _, match := range m.matches {
		out = append(out, copyMatch(match))
	}
	sortChronological(out)
	return out, nil
}

func (m *memrepo) ListMatchesByPlayer(ctx context.Context, playerID int64) ([]*domain.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Match
	for _, match := range m.matches {
		for i := range match.Participants {
			if match.Participants[i].PlayerID == playerID {
				out = append(out, copyMatch(match))
				break
			}
		}
	}
	sortChronological(out)
	return out, nil
}

func sortChronological(matches []*domain.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Timestamp.Equal(matches[j].Timestamp) {
			return matches[i].Timestamp.Before(matches[j].Timestamp)
		}
		return matches[i].ID < matches[j].ID
	})
}

func copyMatch(m *domain.Match) *domain.Match {
	cp := *m
	cp.Participants = make([]domain.Participant, len(m.Participants))
	copy(cp.Participants, m.Participants)
	return &cp
}
