package title

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/roster"
)

// Standings is the slice of the rating ledger the engine reads.
type Standings interface {
	TopPlayers(ctx context.Context, limit, offset int) ([]domain.RatingRow, error)
	TopPlayersByFaction(ctx context.Context, factionID int64, limit int) ([]domain.RatingRow, error)
}

// Engine keeps ranked titles pointing at the current category leaders. Titles
// are created lazily with a default text the first time a category is
// refreshed; the text survives holder changes and revocations.
type Engine struct {
	repo   Standings
	titles Repository
	log    *zap.Logger
}

func NewEngine(standings Standings, titles Repository, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{repo: standings, titles: titles, log: log}
}

// Categories lists every ranked title category: the overall title plus one per
// faction, keyed by faction slug.
func Categories() []string {
	out := []string{domain.TitleOverall}
	for _, f := range roster.Factions() {
		out = append(out, f.Slug)
	}
	return out
}

// defaultTexts are the seed texts of each ranked category; admins and holders
// can replace them later.
var defaultTexts = map[string]string{
	domain.TitleOverall: "Best player of the community",
	"wolf":              "Leader of the Wolf Pack",
	"rabbit":            "Archmage of the Rabbits",
	"rat":               "Commander of the Rats",
	"bear":              "Elder of the Bears",
	"bandit":            "Chief of the Bandits",
	"dragon":            "Lord of the Dragons",
}

func defaultText(category string) string {
	if t, ok := defaultTexts[category]; ok {
		return t
	}
	return "Best player"
}

// RefreshAll re-evaluates every category. A failing category is logged and
// skipped so one bad category never blocks the rest of the batch.
func (e *Engine) RefreshAll(ctx context.Context) {
	for _, category := range Categories() {
		if _, err := e.Refresh(ctx, category); err != nil {
			e.log.Error("title refresh failed",
				zap.String("category", category), zap.Error(err))
		}
	}
}

// Refresh points the category's title at the current leader, creating the
// title row with its default text on first use. When the category has no
// rated players the title is revoked but keeps its text. Returns the title
// after the update.
func (e *Engine) Refresh(ctx context.Context, category string) (*domain.Title, error) {
	leader, err := e.leader(ctx, category)
	if err != nil {
		return nil, err
	}

	t, err := e.titles.ByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = &domain.Title{Category: category, Text: defaultText(category), Default: true}
	}
	if t.PlayerID == leader {
		return t, nil
	}
	previous := t.PlayerID
	t.PlayerID = leader
	if err := e.titles.Upsert(ctx, t); err != nil {
		return nil, err
	}
	e.log.Info("title reassigned",
		zap.String("category", category),
		zap.Int64("from", previous),
		zap.Int64("to", leader))
	return t, nil
}

// leader returns the id of the top-ranked player of a category, or 0 when the
// category has no rated players.
func (e *Engine) leader(ctx context.Context, category string) (int64, error) {
	var rows []domain.RatingRow
	var err error
	if category == domain.TitleOverall {
		rows, err = e.repo.TopPlayers(ctx, 1, 0)
	} else {
		f, ok := roster.FactionBySlug(category)
		if !ok {
			return 0, fmt.Errorf("unknown title category %q", category)
		}
		rows, err = e.repo.TopPlayersByFaction(ctx, f.ID, 1)
	}
	if err != nil {
		return 0, fmt.Errorf("standings for %q: %w", category, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Subject.PlayerID, nil
}

// SetText replaces a category's title text. An edited title stops being
// "default", which readers use to tell customized titles apart. The holder is
// untouched.
func (e *Engine) SetText(ctx context.Context, category, text string) (*domain.Title, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("title text must not be empty")
	}
	t, err := e.titles.ByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if t == nil {
		if _, ok := roster.FactionBySlug(category); !ok && category != domain.TitleOverall {
			return nil, fmt.Errorf("unknown title category %q", category)
		}
		t = &domain.Title{Category: category}
	}
	t.Text = text
	t.Default = false
	if err := e.titles.Upsert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// PlayerTitles returns the ranked and custom titles a player currently holds.
func (e *Engine) PlayerTitles(ctx context.Context, playerID int64) ([]*domain.Title, []*domain.CustomTitle, error) {
	ranked, err := e.titles.ByPlayer(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	custom, err := e.titles.CustomTitles(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	return ranked, custom, nil
}

// Grant adds a custom title to a player.
func (e *Engine) Grant(ctx context.Context, playerID int64, text string) (*domain.CustomTitle, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("title text must not be empty")
	}
	ct, err := e.titles.AddCustomTitle(ctx, playerID, text)
	if err != nil {
		return nil, err
	}
	e.log.Info("custom title granted",
		zap.Int64("player_id", playerID), zap.String("text", text))
	return ct, nil
}

// Revoke removes a custom title by id.
func (e *Engine) Revoke(ctx context.Context, id int64) error {
	return e.titles.RemoveCustomTitle(ctx, id)
}
