package report

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/match"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewManager(NewStore(rdb, DefaultTTL), nil), mr
}

// walk drives a full report to the confirmation step.
func walk(t *testing.T, m *Manager, room, owner string) {
	t.Helper()
	ctx := context.Background()
	if _, err := m.Start(ctx, room, owner, "shot.png"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, msg := range []string{
		"@alice @bob", "carol", "dave",
		"alice",
		"prestige",
		"Thane", "Amber", "Mercurio", "Sana",
	} {
		if _, _, err := m.Input(ctx, room, owner, msg); err != nil {
			t.Fatalf("input %q: %v", msg, err)
		}
	}
}

func TestFullDialogueProducesSubmission(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	walk(t, m, "room1", "u1")

	sess, req, err := m.Input(ctx, "room1", "u1", "yes")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if req == nil {
		t.Fatal("no submission produced")
	}
	if sess.Step != StepConfirm {
		t.Fatalf("step = %v", sess.Step)
	}
	if req.WinnerHandle != "alice" || req.WinType != domain.WinPrestige || req.Screenshot != "shot.png" {
		t.Fatalf("request = %+v", req)
	}
	want := [domain.MatchSize]match.Seat{
		{Handle: "alice", CharacterID: 1},
		{Handle: "bob", CharacterID: 5},
		{Handle: "carol", CharacterID: 9},
		{Handle: "dave", CharacterID: 13},
	}
	if req.Seats != want {
		t.Fatalf("seats = %+v", req.Seats)
	}

	// session consumed by the confirmation
	if _, err := m.Session(ctx, "room1", "u1"); err != ErrNoSession {
		t.Fatalf("session after confirm: %v", err)
	}
}

func TestDecliningDiscardsSession(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	walk(t, m, "room1", "u1")

	if _, _, err := m.Input(ctx, "room1", "u1", "no"); err != ErrNotConfirmed {
		t.Fatalf("decline: %v, want ErrNotConfirmed", err)
	}
	if _, err := m.Session(ctx, "room1", "u1"); err != ErrNoSession {
		t.Fatalf("session after decline: %v", err)
	}
}

func TestStepValidation(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	if _, err := m.Start(ctx, "room1", "u1", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, _, err := m.Input(ctx, "room1", "u1", "alice alice"); err != ErrHandleTaken {
		t.Fatalf("dup handle: %v", err)
	}
	for _, h := range []string{"alice", "bob", "carol", "dave"} {
		if _, _, err := m.Input(ctx, "room1", "u1", h); err != nil {
			t.Fatalf("handle %q: %v", h, err)
		}
	}
	if _, _, err := m.Input(ctx, "room1", "u1", "eve"); err != ErrUnknownHandle {
		t.Fatalf("outsider winner: %v", err)
	}
	if _, _, err := m.Input(ctx, "room1", "u1", "bob"); err != nil {
		t.Fatalf("winner: %v", err)
	}
	if _, _, err := m.Input(ctx, "room1", "u1", "conquest"); err != ErrUnknownWinType {
		t.Fatalf("bad win type: %v", err)
	}
	if _, _, err := m.Input(ctx, "room1", "u1", "elimination"); err != nil {
		t.Fatalf("win type: %v", err)
	}
	if _, _, err := m.Input(ctx, "room1", "u1", "Gandalf"); err != ErrUnknownCharacter {
		t.Fatalf("bad character: %v", err)
	}
	if _, _, err := m.Input(ctx, "room1", "u1", "Thane"); err != nil {
		t.Fatalf("character: %v", err)
	}
	if _, _, err := m.Input(ctx, "room1", "u1", "Thane"); err != ErrCharacterTaken {
		t.Fatalf("dup character: %v", err)
	}
}

// A close-enough character name still resolves, mirroring the fuzzy lookup.
func TestFuzzyCharacterInput(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	walkTo := []string{"alice bob carol dave", "alice", "artifact"}
	if _, err := m.Start(ctx, "room1", "u1", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, msg := range walkTo {
		if _, _, err := m.Input(ctx, "room1", "u1", msg); err != nil {
			t.Fatalf("input %q: %v", msg, err)
		}
	}
	sess, _, err := m.Input(ctx, "room1", "u1", "Tane")
	if err != nil {
		t.Fatalf("fuzzy input: %v", err)
	}
	if len(sess.CharacterIDs) != 1 || sess.CharacterIDs[0] != 1 {
		t.Fatalf("characters = %v, want [1]", sess.CharacterIDs)
	}
}

func TestSingleSessionPerOwner(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	if _, err := m.Start(ctx, "room1", "u1", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.Start(ctx, "room1", "u1", ""); err != ErrSessionExists {
		t.Fatalf("second start: %v, want ErrSessionExists", err)
	}
	// a different room is a separate dialogue
	if _, err := m.Start(ctx, "room2", "u1", ""); err != nil {
		t.Fatalf("other room: %v", err)
	}
	if err := m.Cancel(ctx, "room1", "u1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := m.Cancel(ctx, "room1", "u1"); err != ErrNoSession {
		t.Fatalf("double cancel: %v, want ErrNoSession", err)
	}
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	m, mr := newTestManager(t)
	if _, err := m.Start(ctx, "room1", "u1", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	mr.FastForward(DefaultTTL + time.Second)
	if _, err := m.Session(ctx, "room1", "u1"); err != ErrNoSession {
		t.Fatalf("session after ttl: %v, want ErrNoSession", err)
	}
}
