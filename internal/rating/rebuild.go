package rating

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

// MatchSource is the slice of the match store the rebuilder needs.
type MatchSource interface {
	// ListMatches returns all matches ordered by timestamp ascending.
	ListMatches(ctx context.Context) ([]*domain.Match, error)
	// ListMatchesByPlayer returns a player's matches ordered by timestamp ascending.
	ListMatchesByPlayer(ctx context.Context, playerID int64) ([]*domain.Match, error)
	// PlayerByID returns nil when the player does not exist.
	PlayerByID(ctx context.Context, id int64) (*domain.Player, error)
}

// Summary reports the outcome of a rebuild.
type Summary struct {
	Processed int
	Failed    int
	Total     int
}

// Rebuilder recomputes ledger rows from match history. It is a maintenance
// operation: callers are expected to run it while no match submissions are in
// flight (operational convention, not enforced here).
type Rebuilder struct {
	ledger  Repository
	matches MatchSource
	proc    *Processor
	log     *zap.Logger
}

func NewRebuilder(ledger Repository, matches MatchSource, proc *Processor, log *zap.Logger) *Rebuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Rebuilder{ledger: ledger, matches: matches, proc: proc, log: log}
}

// RebuildAll clears all five rating tables and replays the full match history
// chronologically. One corrupt match does not abort the batch; failures are
// logged and tallied in the summary. Final totals are order-independent, the
// chronological replay exists for readable progress logs.
func (r *Rebuilder) RebuildAll(ctx context.Context) (Summary, error) {
	r.log.Info("rating rebuild started")
	if err := r.ledger.ResetAll(ctx); err != nil {
		return Summary{}, fmt.Errorf("rebuild: %w", err)
	}
	matches, err := r.matches.ListMatches(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("rebuild: list matches: %w", err)
	}
	sum := Summary{Total: len(matches)}
	for _, m := range matches {
		if err := r.proc.Apply(ctx, m); err != nil {
			sum.Failed++
			r.log.Error("rebuild: match skipped", zap.Int64("match_id", m.ID), zap.Error(err))
			continue
		}
		sum.Processed++
		if sum.Processed%10 == 0 {
			r.log.Info("rebuild progress", zap.Int("processed", sum.Processed), zap.Int("total", sum.Total))
		}
	}
	r.log.Info("rating rebuild complete",
		zap.Int("processed", sum.Processed),
		zap.Int("failed", sum.Failed),
		zap.Int("total", sum.Total))
	return sum, nil
}

// RebuildPlayer clears one player's three player-scoped rating rows and
// replays that player's matches through the player-scoped processor variant.
// Global character/faction rows are left untouched: they were never reset, so
// replaying them would double-count. Returns ErrPlayerNotFound for unknown ids.
func (r *Rebuilder) RebuildPlayer(ctx context.Context, playerID int64) (Summary, error) {
	player, err := r.matches.PlayerByID(ctx, playerID)
	if err != nil {
		return Summary{}, fmt.Errorf("rebuild player %d: %w", playerID, err)
	}
	if player == nil {
		return Summary{}, ErrPlayerNotFound
	}
	r.log.Info("player rating rebuild started",
		zap.Int64("player_id", playerID),
		zap.String("handle", player.Handle))
	if err := r.ledger.ResetPlayer(ctx, playerID); err != nil {
		return Summary{}, fmt.Errorf("rebuild player %d: %w", playerID, err)
	}
	matches, err := r.matches.ListMatchesByPlayer(ctx, playerID)
	if err != nil {
		return Summary{}, fmt.Errorf("rebuild player %d: list matches: %w", playerID, err)
	}
	sum := Summary{Total: len(matches)}
	for _, m := range matches {
		if err := r.proc.ApplyForPlayer(ctx, m, playerID); err != nil {
			sum.Failed++
			r.log.Error("player rebuild: match skipped",
				zap.Int64("match_id", m.ID),
				zap.Int64("player_id", playerID),
				zap.Error(err))
			continue
		}
		sum.Processed++
	}
	r.log.Info("player rating rebuild complete",
		zap.Int64("player_id", playerID),
		zap.Int("processed", sum.Processed),
		zap.Int("failed", sum.Failed))
	return sum, nil
}
