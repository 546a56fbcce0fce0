package report

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/match"
	"github.com/mkovalev/armello-stats-bot/internal/roster"
)

// Manager drives report sessions. Each Input call consumes one chat message
// and moves the session forward; when the reporter confirms, the finished
// submission is returned and the session is gone.
type Manager struct {
	store *Store
	log   *zap.Logger
}

func NewManager(store *Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, log: log}
}

// Start opens a session for one reporter in one room. The screenshot
// reference comes with the opening command; seats are collected next.
func (m *Manager) Start(ctx context.Context, room, owner, screenshot string) (*Session, error) {
	existing, err := m.store.Load(ctx, room, owner)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSessionExists
	}
	sess := &Session{
		ID:         uuid.NewString(),
		Room:       room,
		Owner:      owner,
		Step:       StepHandles,
		CreatedAt:  time.Now().UTC(),
		Screenshot: strings.TrimSpace(screenshot),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	m.log.Info("report started",
		zap.String("report_id", sess.ID),
		zap.String("room", room),
		zap.String("owner", owner))
	return sess, nil
}

// Session returns the reporter's current session, or ErrNoSession.
func (m *Manager) Session(ctx context.Context, room, owner string) (*Session, error) {
	sess, err := m.store.Load(ctx, room, owner)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Cancel discards the reporter's session if any.
func (m *Manager) Cancel(ctx context.Context, room, owner string) error {
	sess, err := m.store.Load(ctx, room, owner)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNoSession
	}
	return m.store.Delete(ctx, room, owner)
}

// Input feeds one message into the session. The returned session reflects the
// new step; the submission is non-nil exactly once, when the reporter has
// confirmed, and the session is deleted in the same call.
func (m *Manager) Input(ctx context.Context, room, owner, text string) (*Session, *match.SubmitRequest, error) {
	sess, err := m.store.Load(ctx, room, owner)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, ErrNoSession
	}
	text = strings.TrimSpace(text)

	switch sess.Step {
	case StepHandles:
		err = consumeHandle(sess, text)
	case StepWinner:
		err = consumeWinner(sess, text)
	case StepWinType:
		err = consumeWinType(sess, text)
	case StepCharacters:
		err = consumeCharacter(sess, text)
	case StepConfirm:
		return m.consumeConfirm(ctx, sess, text)
	default:
		return nil, nil, ErrNoSession
	}
	if err != nil {
		return sess, nil, err
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, nil, err
	}
	return sess, nil, nil
}

// consumeHandle accepts one handle per message, or several separated by
// spaces, until all four seats are named.
func consumeHandle(sess *Session, text string) error {
	for _, h := range strings.Fields(text) {
		h = strings.TrimPrefix(h, "@")
		if h == "" {
			continue
		}
		for _, seen := range sess.Handles {
			if strings.EqualFold(seen, h) {
				return ErrHandleTaken
			}
		}
		if len(sess.Handles) >= domain.MatchSize {
			break
		}
		sess.Handles = append(sess.Handles, h)
	}
	if len(sess.Handles) == domain.MatchSize {
		sess.Step = StepWinner
	}
	return nil
}

func consumeWinner(sess *Session, text string) error {
	h := strings.TrimPrefix(text, "@")
	for _, seen := range sess.Handles {
		if strings.EqualFold(seen, h) {
			sess.Winner = seen
			sess.Step = StepWinType
			return nil
		}
	}
	return ErrUnknownHandle
}

func consumeWinType(sess *Session, text string) error {
	wt, err := domain.ParseWinType(text)
	if err != nil {
		return ErrUnknownWinType
	}
	sess.WinType = wt
	sess.Step = StepCharacters
	return nil
}

// consumeCharacter resolves one character per message, assigned to seats in
// the order the handles were given.
func consumeCharacter(sess *Session, text string) error {
	c, err := roster.FindCharacter(text)
	if err != nil {
		return ErrUnknownCharacter
	}
	for _, id := range sess.CharacterIDs {
		if id == c.ID {
			return ErrCharacterTaken
		}
	}
	sess.CharacterIDs = append(sess.CharacterIDs, c.ID)
	if len(sess.CharacterIDs) == domain.MatchSize {
		sess.Step = StepConfirm
	}
	return nil
}

func (m *Manager) consumeConfirm(ctx context.Context, sess *Session, text string) (*Session, *match.SubmitRequest, error) {
	switch strings.ToLower(text) {
	case "yes", "y", "да":
		req := buildRequest(sess)
		if err := m.store.Delete(ctx, sess.Room, sess.Owner); err != nil {
			return sess, nil, err
		}
		m.log.Info("report confirmed",
			zap.String("report_id", sess.ID),
			zap.String("room", sess.Room),
			zap.String("owner", sess.Owner),
			zap.String("winner", req.WinnerHandle))
		return sess, req, nil
	case "no", "n", "нет":
		if err := m.store.Delete(ctx, sess.Room, sess.Owner); err != nil {
			return sess, nil, err
		}
		return sess, nil, ErrNotConfirmed
	}
	// anything else keeps the session waiting for a clear answer
	return sess, nil, nil
}

func buildRequest(sess *Session) *match.SubmitRequest {
	req := &match.SubmitRequest{
		Screenshot:   sess.Screenshot,
		WinType:      sess.WinType,
		WinnerHandle: sess.Winner,
	}
	for i := 0; i < domain.MatchSize; i++ {
		req.Seats[i] = match.Seat{
			Handle:      sess.Handles[i],
			CharacterID: sess.CharacterIDs[i],
		}
	}
	return req
}
