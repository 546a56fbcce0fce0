package match

import (
	"context"
	"errors"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrPlayerNotFound = errors.New("player not found")
)

// Repository is the durable store of players, matches and participants.
// Matches are immutable once inserted; the only mutation is full deletion,
// which cascades participants and deliberately leaves the rating ledger alone.
type Repository interface {
	GetOrCreatePlayer(ctx context.Context, handle string) (*domain.Player, error)
	PlayerByID(ctx context.Context, id int64) (*domain.Player, error)
	PlayerByHandle(ctx context.Context, handle string) (*domain.Player, error)
	PlayerByChatID(ctx context.Context, chatID string) (*domain.Player, error)
	// LinkChatID attaches a gateway account to a player created from mentions.
	LinkChatID(ctx context.Context, playerID int64, chatID string) error
	ListPlayers(ctx context.Context) ([]*domain.Player, error)

	// InsertMatch persists the match and its four participants in one
	// transaction and returns the new match id.
	InsertMatch(ctx context.Context, m *domain.Match) (int64, error)
	GetMatch(ctx context.Context, id int64) (*domain.Match, error)
	// DeleteMatch reports whether a match existed.
	DeleteMatch(ctx context.Context, id int64) (bool, error)
	ListMatches(ctx context.Context) ([]*domain.Match, error)
	ListMatchesByPlayer(ctx context.Context, playerID int64) ([]*domain.Match, error)
}
