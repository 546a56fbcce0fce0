package rating

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/roster"
)

// Processor converts a confirmed match into ledger deltas and applies them.
//
// Apply is deliberately not idempotent: applying the same match twice doubles
// its impact. Callers must never re-apply a match without an intervening reset;
// after a failed Apply the whole match may be retried once because the ledger
// commits all rows of a match in one transaction.
type Processor struct {
	ledger Repository
	log    *zap.Logger
}

func NewProcessor(ledger Repository, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{ledger: ledger, log: log}
}

// Apply folds one match into all five rating tables: 5 rows per participant,
// 20 rows total, committed together. The match is assumed structurally valid
// (see domain.Match.Validate); callers submitting malformed matches are a
// defect upstream of the processor.
func (p *Processor) Apply(ctx context.Context, m *domain.Match) error {
	deltas, err := MatchDeltas(m)
	if err != nil {
		return err
	}
	if err := p.ledger.ApplyDeltas(ctx, deltas); err != nil {
		return fmt.Errorf("apply match %d: %w", m.ID, err)
	}
	p.log.Info("match applied",
		zap.Int64("match_id", m.ID),
		zap.String("win_type", string(m.WinType)),
		zap.Int("deltas", len(deltas)))
	return nil
}

// ApplyForPlayer folds one match into the three player-scoped tables of a
// single player, leaving the global character/faction rows untouched. Used by
// the per-player rebuild, which must not double-count global aggregates for
// the other three participants of each replayed match.
func (p *Processor) ApplyForPlayer(ctx context.Context, m *domain.Match, playerID int64) error {
	deltas, err := PlayerDeltas(m, playerID)
	if err != nil {
		return err
	}
	if len(deltas) == 0 {
		p.log.Warn("player not in match",
			zap.Int64("match_id", m.ID),
			zap.Int64("player_id", playerID))
		return nil
	}
	if err := p.ledger.ApplyDeltas(ctx, deltas); err != nil {
		return fmt.Errorf("apply match %d for player %d: %w", m.ID, playerID, err)
	}
	return nil
}

// MatchDeltas computes the five deltas of every participant.
func MatchDeltas(m *domain.Match) ([]domain.RatingDelta, error) {
	deltas := make([]domain.RatingDelta, 0, len(m.Participants)*5)
	for i := range m.Participants {
		part, err := participantDeltas(m, &m.Participants[i], true)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, part...)
	}
	return deltas, nil
}

// PlayerDeltas computes the three player-scoped deltas of one participant, or
// nothing when the player did not take part in the match.
func PlayerDeltas(m *domain.Match, playerID int64) ([]domain.RatingDelta, error) {
	for i := range m.Participants {
		if m.Participants[i].PlayerID == playerID {
			return participantDeltas(m, &m.Participants[i], false)
		}
	}
	return nil, nil
}

func participantDeltas(m *domain.Match, p *domain.Participant, includeGlobal bool) ([]domain.RatingDelta, error) {
	faction, ok := roster.FactionOf(p.CharacterID)
	if !ok {
		return nil, fmt.Errorf("match %d: unknown character %d", m.ID, p.CharacterID)
	}
	keys := []domain.SubjectKey{
		domain.PlayerOverallKey(p.PlayerID),
		domain.PlayerCharacterKey(p.PlayerID, p.CharacterID),
		domain.PlayerFactionKey(p.PlayerID, faction.ID),
	}
	if includeGlobal {
		keys = append(keys,
			domain.CharacterKey(p.CharacterID),
			domain.FactionKey(faction.ID),
		)
	}
	out := make([]domain.RatingDelta, 0, len(keys))
	for _, key := range keys {
		out = append(out, domain.RatingDelta{
			Subject: key,
			Points:  p.Score,
			Win:     p.IsWinner,
			WinType: m.WinType,
		})
	}
	return out, nil
}
