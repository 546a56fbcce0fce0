package rating

import (
	"context"
	"sort"
	"sync"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

// memrepo is an in-memory ledger used in tests and when no DB is configured.
type memrepo struct {
	mu   sync.RWMutex
	rows map[domain.SubjectKey]*domain.RatingRow
}

func NewMemoryRepository() Repository {
	return &memrepo{rows: make(map[domain.SubjectKey]*domain.RatingRow)}
}

func (m *memrepo) ApplyDeltas(ctx context.Context, deltas []domain.RatingDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range deltas {
		row, ok := m.rows[d.Subject]
		if !ok {
			row = &domain.RatingRow{Subject: d.Subject}
			m.rows[d.Subject] = row
		}
		d.ApplyTo(row)
	}
	return nil
}

func (m *memrepo) ResetAll(ctx context.Context) error {
	m.mu.Lock()
	m.rows = make(map[domain.SubjectKey]*domain.RatingRow)
	m.mu.Unlock()
	return nil
}

func (m *memrepo) ResetPlayer(ctx context.Context, playerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.rows {
		if key.Kind.PlayerScoped() && key.PlayerID == playerID {
			delete(m.rows, key)
		}
	}
	return nil
}

func (m *memrepo) Row(ctx context.Context, key domain.SubjectKey) (*domain.RatingRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[key]
	if !ok {
		return nil, nil
	}
	copy := *row
	return &copy, nil
}

func (m *memrepo) collect(filter func(domain.SubjectKey) bool) []domain.RatingRow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.RatingRow
	for key, row := range m.rows {
		if filter(key) {
			out = append(out, *row)
		}
	}
	return out
}

// sortRanked orders by rating desc with ascending subject ids as tie-break,
// matching the SQL repository.
func sortRanked(rows []domain.RatingRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		a, b := rows[i].Subject, rows[j].Subject
		if a.PlayerID != b.PlayerID {
			return a.PlayerID < b.PlayerID
		}
		if a.CharacterID != b.CharacterID {
			return a.CharacterID < b.CharacterID
		}
		return a.FactionID < b.FactionID
	})
}

func clip(rows []domain.RatingRow, limit int) []domain.RatingRow {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func (m *memrepo) TopPlayers(ctx context.Context, limit, offset int) ([]domain.RatingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows := m.collect(func(k domain.SubjectKey) bool { return k.Kind == domain.SubjectPlayerOverall })
	sortRanked(rows)
	if offset > 0 {
		if offset >= len(rows) {
			return nil, nil
		}
		rows = rows[offset:]
	}
	return clip(rows, limit), nil
}

func (m *memrepo) TopPlayersByCharacter(ctx context.Context, characterID int64, limit int) ([]domain.RatingRow, error) {
	rows := m.collect(func(k domain.SubjectKey) bool {
		return k.Kind == domain.SubjectPlayerCharacter && k.CharacterID == characterID
	})
	sortRanked(rows)
	return clip(rows, limit), nil
}

func (m *memrepo) TopPlayersByFaction(ctx context.Context, factionID int64, limit int) ([]domain.RatingRow, error) {
	rows := m.collect(func(k domain.SubjectKey) bool {
		return k.Kind == domain.SubjectPlayerFaction && k.FactionID == factionID
	})
	sortRanked(rows)
	return clip(rows, limit), nil
}

func (m *memrepo) TopCharacters(ctx context.Context, limit int) ([]domain.RatingRow, error) {
	rows := m.collect(func(k domain.SubjectKey) bool { return k.Kind == domain.SubjectCharacter })
	sortRanked(rows)
	return clip(rows, limit), nil
}

func (m *memrepo) TopFactions(ctx context.Context, limit int) ([]domain.RatingRow, error) {
	rows := m.collect(func(k domain.SubjectKey) bool { return k.Kind == domain.SubjectFaction })
	sortRanked(rows)
	return clip(rows, limit), nil
}

func (m *memrepo) PlayerCharacterRatings(ctx context.Context, playerID int64) ([]domain.RatingRow, error) {
	rows := m.collect(func(k domain.SubjectKey) bool {
		return k.Kind == domain.SubjectPlayerCharacter && k.PlayerID == playerID
	})
	sortRanked(rows)
	return rows, nil
}

func (m *memrepo) PlayerFactionRatings(ctx context.Context, playerID int64) ([]domain.RatingRow, error) {
	rows := m.collect(func(k domain.SubjectKey) bool {
		return k.Kind == domain.SubjectPlayerFaction && k.PlayerID == playerID
	})
	sortRanked(rows)
	return rows, nil
}

func (m *memrepo) OverallPosition(ctx context.Context, playerID int64) (int, int, error) {
	rows := m.collect(func(k domain.SubjectKey) bool { return k.Kind == domain.SubjectPlayerOverall })
	sortRanked(rows)
	for i, row := range rows {
		if row.Subject.PlayerID == playerID {
			return i + 1, len(rows), nil
		}
	}
	return 0, len(rows), nil
}

func (m *memrepo) WinTypeTotals(ctx context.Context) (domain.WinTypeCounts, error) {
	var wt domain.WinTypeCounts
	for _, row := range m.collect(func(k domain.SubjectKey) bool { return k.Kind == domain.SubjectPlayerOverall }) {
		wt.Prestige += row.WinTypes.Prestige
		wt.Elimination += row.WinTypes.Elimination
		wt.Attrition += row.WinTypes.Attrition
		wt.Artifact += row.WinTypes.Artifact
	}
	return wt, nil
}
