// Package roster holds the static catalog of factions and characters and the
// free-text lookup used when parsing match reports. The roster is fixed by the
// game itself, so it lives in code rather than in the database.
package roster

import (
	"errors"
	"strings"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

var ErrNotFound = errors.New("roster: not found")

var factions = []domain.Faction{
	{ID: 1, Slug: "wolf", Name: "Wolf Clan", Alias: "Клан Волков"},
	{ID: 2, Slug: "rabbit", Name: "Rabbit Clan", Alias: "Клан Кроликов"},
	{ID: 3, Slug: "rat", Name: "Rat Clan", Alias: "Клан Крыс"},
	{ID: 4, Slug: "bear", Name: "Bear Clan", Alias: "Клан Медведей"},
	{ID: 5, Slug: "bandit", Name: "Bandit Clan", Alias: "Клан Разбойников"},
	{ID: 6, Slug: "dragon", Name: "Dragon Clan", Alias: "Клан Драконов"},
}

var characters = []domain.Character{
	{ID: 1, FactionID: 1, Name: "Thane", Alias: "Тейн"},
	{ID: 2, FactionID: 1, Name: "River", Alias: "Ривер"},
	{ID: 3, FactionID: 1, Name: "Fang", Alias: "Фанг"},
	{ID: 4, FactionID: 1, Name: "Magna", Alias: "Магна"},
	{ID: 5, FactionID: 2, Name: "Amber", Alias: "Эмбер"},
	{ID: 6, FactionID: 2, Name: "Barnaby", Alias: "Барнаби"},
	{ID: 7, FactionID: 2, Name: "Hargrave", Alias: "Харгрейв"},
	{ID: 8, FactionID: 2, Name: "Elyssia", Alias: "Элиссия"},
	{ID: 9, FactionID: 3, Name: "Mercurio", Alias: "Меркурио"},
	{ID: 10, FactionID: 3, Name: "Zosha", Alias: "Зоша"},
	{ID: 11, FactionID: 3, Name: "Griotte", Alias: "Гриот"},
	{ID: 12, FactionID: 3, Name: "Sargon", Alias: "Саргон"},
	{ID: 13, FactionID: 4, Name: "Sana", Alias: "Сана"},
	{ID: 14, FactionID: 4, Name: "Brun", Alias: "Брун"},
	{ID: 15, FactionID: 4, Name: "Ghor", Alias: "Гор"},
	{ID: 16, FactionID: 4, Name: "Yordana", Alias: "Йордана"},
	{ID: 17, FactionID: 5, Name: "Twiss", Alias: "Твисс"},
	{ID: 18, FactionID: 5, Name: "Horace", Alias: "Хорас"},
	{ID: 19, FactionID: 5, Name: "Scarlet", Alias: "Скарлет"},
	{ID: 20, FactionID: 5, Name: "Sylas", Alias: "Сайлас"},
	{ID: 21, FactionID: 6, Name: "Volodar", Alias: "Володар"},
	{ID: 22, FactionID: 6, Name: "Agniya", Alias: "Агния"},
	{ID: 23, FactionID: 6, Name: "Oxana", Alias: "Оксана"},
	{ID: 24, FactionID: 6, Name: "Nazar", Alias: "Назар"},
}

var (
	charByID    = make(map[int64]domain.Character, len(characters))
	factionByID = make(map[int64]domain.Faction, len(factions))
	bySlug      = make(map[string]domain.Faction, len(factions))
)

func init() {
	for _, c := range characters {
		charByID[c.ID] = c
	}
	for _, f := range factions {
		factionByID[f.ID] = f
		bySlug[f.Slug] = f
	}
}

// Factions returns all factions in catalog order.
func Factions() []domain.Faction {
	out := make([]domain.Faction, len(factions))
	copy(out, factions)
	return out
}

// Characters returns all characters in catalog order.
func Characters() []domain.Character {
	out := make([]domain.Character, len(characters))
	copy(out, characters)
	return out
}

func CharacterByID(id int64) (domain.Character, bool) {
	c, ok := charByID[id]
	return c, ok
}

func FactionByID(id int64) (domain.Faction, bool) {
	f, ok := factionByID[id]
	return f, ok
}

func FactionBySlug(slug string) (domain.Faction, bool) {
	f, ok := bySlug[strings.ToLower(strings.TrimSpace(slug))]
	return f, ok
}

// FactionOf resolves the faction a character belongs to.
func FactionOf(characterID int64) (domain.Faction, bool) {
	c, ok := charByID[characterID]
	if !ok {
		return domain.Faction{}, false
	}
	return FactionByID(c.FactionID)
}

// FactionCharacters returns the four characters of a faction.
func FactionCharacters(factionID int64) []domain.Character {
	out := make([]domain.Character, 0, 4)
	for _, c := range characters {
		if c.FactionID == factionID {
			out = append(out, c)
		}
	}
	return out
}

// fuzzyCutoff mirrors the original lookup's 0.6 similarity threshold.
const fuzzyCutoff = 0.6

// FindCharacter resolves free text to a character: exact name, then alias,
// then closest fuzzy match above the cutoff.
func FindCharacter(query string) (domain.Character, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.Character{}, ErrNotFound
	}
	for _, c := range characters {
		if strings.ToLower(c.Name) == q || strings.ToLower(c.Alias) == q {
			return c, nil
		}
	}
	best, score := domain.Character{}, 0.0
	for _, c := range characters {
		for _, cand := range []string{c.Name, c.Alias} {
			if s := similarity(q, strings.ToLower(cand)); s > score {
				best, score = c, s
			}
		}
	}
	if score >= fuzzyCutoff {
		return best, nil
	}
	return domain.Character{}, ErrNotFound
}

// FindFaction resolves free text to a faction by slug, name, alias or fuzzy match.
func FindFaction(query string) (domain.Faction, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.Faction{}, ErrNotFound
	}
	if f, ok := bySlug[q]; ok {
		return f, nil
	}
	for _, f := range factions {
		if strings.ToLower(f.Name) == q || strings.ToLower(f.Alias) == q {
			return f, nil
		}
	}
	best, score := domain.Faction{}, 0.0
	for _, f := range factions {
		for _, cand := range []string{f.Slug, f.Name, f.Alias} {
			if s := similarity(q, strings.ToLower(cand)); s > score {
				best, score = f, s
			}
		}
	}
	if score >= fuzzyCutoff {
		return best, nil
	}
	return domain.Faction{}, ErrNotFound
}

// similarity is 1 - editDistance/maxLen over runes.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 || lb == 0 {
		return 0
	}
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	dist := prev[lb]
	max := la
	if lb > max {
		max = lb
	}
	return 1 - float64(dist)/float64(max)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
