package rating

import (
	"context"
	"errors"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

var ErrPlayerNotFound = errors.New("rating: player not found")

// Repository is the rating ledger: five counter tables mutated exclusively
// through ApplyDeltas. All deltas passed to one ApplyDeltas call commit
// together or not at all; a match is never left half-applied.
//
// Ranked queries order by rating descending with player id ascending as the
// tie-break, so leaderboards and title assignment always agree.
type Repository interface {
	ApplyDeltas(ctx context.Context, deltas []domain.RatingDelta) error

	// ResetAll clears every row of all five kinds.
	ResetAll(ctx context.Context) error
	// ResetPlayer clears only the three player-scoped kinds for one player.
	ResetPlayer(ctx context.Context, playerID int64) error

	// Row returns the row for a subject, or nil when it has never been written.
	Row(ctx context.Context, key domain.SubjectKey) (*domain.RatingRow, error)

	TopPlayers(ctx context.Context, limit, offset int) ([]domain.RatingRow, error)
	TopPlayersByCharacter(ctx context.Context, characterID int64, limit int) ([]domain.RatingRow, error)
	TopPlayersByFaction(ctx context.Context, factionID int64, limit int) ([]domain.RatingRow, error)
	TopCharacters(ctx context.Context, limit int) ([]domain.RatingRow, error)
	TopFactions(ctx context.Context, limit int) ([]domain.RatingRow, error)

	PlayerCharacterRatings(ctx context.Context, playerID int64) ([]domain.RatingRow, error)
	PlayerFactionRatings(ctx context.Context, playerID int64) ([]domain.RatingRow, error)

	// OverallPosition returns the player's 1-based rank among overall rows and
	// the total row count; (0, total) when the player has no overall row.
	OverallPosition(ctx context.Context, playerID int64) (position int, total int, err error)

	// WinTypeTotals aggregates win-type counters across all overall rows.
	WinTypeTotals(ctx context.Context) (domain.WinTypeCounts, error)
}
