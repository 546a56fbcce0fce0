// Package stats assembles read-only views over the rating ledger and match
// store for display: leaderboards, player profiles and community aggregates.
package stats

import (
	"context"
	"fmt"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/match"
	"github.com/mkovalev/armello-stats-bot/internal/rating"
	"github.com/mkovalev/armello-stats-bot/internal/roster"
	"github.com/mkovalev/armello-stats-bot/internal/title"
)

// RankedPlayer is one leaderboard line with the handle resolved.
type RankedPlayer struct {
	Player *domain.Player
	Row    domain.RatingRow
}

// Profile is everything shown for one player.
type Profile struct {
	Player     *domain.Player
	Overall    *domain.RatingRow // nil when the player has no rated games
	Position   int               // 1-based, 0 when unrated
	TotalRated int
	Characters []domain.RatingRow
	Factions   []domain.RatingRow
	Titles     []*domain.Title
	Custom     []*domain.CustomTitle
}

type Service struct {
	ledger  rating.Repository
	players match.Repository
	titles  title.Repository
}

func NewService(ledger rating.Repository, players match.Repository, titles title.Repository) *Service {
	return &Service{ledger: ledger, players: players, titles: titles}
}

// TopPlayers returns the overall leaderboard page.
func (s *Service) TopPlayers(ctx context.Context, limit, offset int) ([]RankedPlayer, error) {
	rows, err := s.ledger.TopPlayers(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, rows)
}

// TopPlayersByCharacter ranks players on one character.
func (s *Service) TopPlayersByCharacter(ctx context.Context, characterID int64, limit int) ([]RankedPlayer, error) {
	if _, ok := roster.CharacterByID(characterID); !ok {
		return nil, fmt.Errorf("unknown character %d", characterID)
	}
	rows, err := s.ledger.TopPlayersByCharacter(ctx, characterID, limit)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, rows)
}

// TopPlayersByFaction ranks players on one faction.
func (s *Service) TopPlayersByFaction(ctx context.Context, factionID int64, limit int) ([]RankedPlayer, error) {
	if _, ok := roster.FactionByID(factionID); !ok {
		return nil, fmt.Errorf("unknown faction %d", factionID)
	}
	rows, err := s.ledger.TopPlayersByFaction(ctx, factionID, limit)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, rows)
}

// TopCharacters ranks characters across the whole community.
func (s *Service) TopCharacters(ctx context.Context, limit int) ([]domain.RatingRow, error) {
	return s.ledger.TopCharacters(ctx, limit)
}

// TopFactions ranks factions across the whole community.
func (s *Service) TopFactions(ctx context.Context, limit int) ([]domain.RatingRow, error) {
	return s.ledger.TopFactions(ctx, limit)
}

// WinTypeTotals aggregates how the community's matches were won.
func (s *Service) WinTypeTotals(ctx context.Context) (domain.WinTypeCounts, error) {
	return s.ledger.WinTypeTotals(ctx)
}

// ProfileByHandle builds a full profile, or match.ErrPlayerNotFound.
func (s *Service) ProfileByHandle(ctx context.Context, handle string) (*Profile, error) {
	player, err := s.players.PlayerByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, match.ErrPlayerNotFound
	}
	return s.profile(ctx, player)
}

// ProfileByID builds a full profile, or match.ErrPlayerNotFound.
func (s *Service) ProfileByID(ctx context.Context, playerID int64) (*Profile, error) {
	player, err := s.players.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, match.ErrPlayerNotFound
	}
	return s.profile(ctx, player)
}

func (s *Service) profile(ctx context.Context, player *domain.Player) (*Profile, error) {
	p := &Profile{Player: player}
	var err error
	if p.Overall, err = s.ledger.Row(ctx, domain.PlayerOverallKey(player.ID)); err != nil {
		return nil, err
	}
	if p.Position, p.TotalRated, err = s.ledger.OverallPosition(ctx, player.ID); err != nil {
		return nil, err
	}
	if p.Characters, err = s.ledger.PlayerCharacterRatings(ctx, player.ID); err != nil {
		return nil, err
	}
	if p.Factions, err = s.ledger.PlayerFactionRatings(ctx, player.ID); err != nil {
		return nil, err
	}
	if s.titles != nil {
		if p.Titles, err = s.titles.ByPlayer(ctx, player.ID); err != nil {
			return nil, err
		}
		if p.Custom, err = s.titles.CustomTitles(ctx, player.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *Service) resolve(ctx context.Context, rows []domain.RatingRow) ([]RankedPlayer, error) {
	out := make([]RankedPlayer, 0, len(rows))
	for _, row := range rows {
		player, err := s.players.PlayerByID(ctx, row.Subject.PlayerID)
		if err != nil {
			return nil, err
		}
		if player == nil {
			// ledger row for a deleted player, keep the line with id only
			player = &domain.Player{ID: row.Subject.PlayerID, Handle: fmt.Sprintf("player#%d", row.Subject.PlayerID)}
		}
		out = append(out, RankedPlayer{Player: player, Row: row})
	}
	return out, nil
}
