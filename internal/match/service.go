package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/rating"
	"github.com/mkovalev/armello-stats-bot/internal/roster"
)

// Seat is one confirmed seat of a submitted match.
type Seat struct {
	Handle      string
	CharacterID int64
}

// SubmitRequest is a fully confirmed match report. WinnerHandle must match one
// of the four seats.
type SubmitRequest struct {
	Screenshot   string
	WinType      domain.WinType
	WinnerHandle string
	Seats        [domain.MatchSize]Seat
}

// Service turns confirmed reports into stored matches and ledger updates.
// Persisting the record and folding it into the ledger are two separate
// commits: if the fold fails the match stays recorded and a rebuild
// reconciles the ledger.
type Service struct {
	repo Repository
	proc *rating.Processor
	log  *zap.Logger
}

func NewService(repo Repository, proc *rating.Processor, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, proc: proc, log: log}
}

// Submit validates the report, resolves or creates the four players, stores
// the match and applies its rating deltas. Returns the stored match.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*domain.Match, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	m := &domain.Match{
		Timestamp:  time.Now().UTC(),
		Screenshot: req.Screenshot,
		WinType:    req.WinType,
	}
	for _, seat := range req.Seats {
		player, err := s.repo.GetOrCreatePlayer(ctx, seat.Handle)
		if err != nil {
			return nil, fmt.Errorf("submit: %w", err)
		}
		p := domain.Participant{
			PlayerID:    player.ID,
			CharacterID: seat.CharacterID,
			Score:       domain.LoserPoints,
		}
		if seat.Handle == req.WinnerHandle {
			p.IsWinner = true
			p.WinType = req.WinType
			p.Score = domain.WinnerPoints
		}
		m.Participants = append(m.Participants, p)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	id, err := s.repo.InsertMatch(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	s.log.Info("match recorded",
		zap.Int64("match_id", id),
		zap.String("winner", req.WinnerHandle),
		zap.String("win_type", string(req.WinType)))

	if err := s.proc.Apply(ctx, m); err != nil {
		// record survives, ratings catch up on the next rebuild
		s.log.Error("match recorded but ratings not applied",
			zap.Int64("match_id", id), zap.Error(err))
		return nil, fmt.Errorf("submit: ratings for match %d: %w", id, err)
	}
	return m, nil
}

// Get returns a stored match or ErrMatchNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Match, error) {
	m, err := s.repo.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// Remove deletes a match record. It does not reverse the match's rating
// deltas; run a rebuild afterwards to make the ledger consistent again.
func (s *Service) Remove(ctx context.Context, id int64) error {
	existed, err := s.repo.DeleteMatch(ctx, id)
	if err != nil {
		return fmt.Errorf("remove match %d: %w", id, err)
	}
	if !existed {
		return ErrMatchNotFound
	}
	s.log.Info("match removed", zap.Int64("match_id", id))
	return nil
}

func validateRequest(req *SubmitRequest) error {
	if !req.WinType.Valid() {
		return fmt.Errorf("invalid win type %q", req.WinType)
	}
	winnerSeated := false
	handles := make(map[string]bool, domain.MatchSize)
	characters := make(map[int64]bool, domain.MatchSize)
	for i := range req.Seats {
		seat := &req.Seats[i]
		seat.Handle = strings.TrimSpace(seat.Handle)
		if seat.Handle == "" {
			return fmt.Errorf("seat %d has an empty handle", i+1)
		}
		if handles[seat.Handle] {
			return fmt.Errorf("handle %q appears twice", seat.Handle)
		}
		handles[seat.Handle] = true
		if _, ok := roster.CharacterByID(seat.CharacterID); !ok {
			return fmt.Errorf("seat %d: unknown character %d", i+1, seat.CharacterID)
		}
		if characters[seat.CharacterID] {
			return fmt.Errorf("character %d appears twice", seat.CharacterID)
		}
		characters[seat.CharacterID] = true
		if seat.Handle == req.WinnerHandle {
			winnerSeated = true
		}
	}
	if !winnerSeated {
		return fmt.Errorf("winner %q is not one of the seats", req.WinnerHandle)
	}
	return nil
}
