package match

import (
	"context"
	"testing"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/rating"
)

func newTestService(t *testing.T) (*Service, Repository, rating.Repository) {
	t.Helper()
	repo := NewMemoryRepository()
	ledger := rating.NewMemoryRepository()
	proc := rating.NewProcessor(ledger, nil)
	return NewService(repo, proc, nil), repo, ledger
}

func fourSeats() [domain.MatchSize]Seat {
	return [domain.MatchSize]Seat{
		{Handle: "alice", CharacterID: 1},  // Thane, Wolf
		{Handle: "bob", CharacterID: 5},    // Amber, Rabbit
		{Handle: "carol", CharacterID: 9},  // Mercurio, Rat
		{Handle: "dave", CharacterID: 13},  // Sana, Bear
	}
}

func TestSubmitRecordsMatchAndScores(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledger := newTestService(t)

	m, err := svc.Submit(ctx, SubmitRequest{
		Screenshot:   "shot-1.png",
		WinType:      domain.WinPrestige,
		WinnerHandle: "alice",
		Seats:        fourSeats(),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("match id not assigned")
	}
	winner := m.Winner()
	if winner == nil || winner.Score != domain.WinnerPoints {
		t.Fatalf("winner seat = %+v", winner)
	}
	for _, p := range m.Participants {
		if !p.IsWinner && p.Score != domain.LoserPoints {
			t.Fatalf("loser score = %d, want %d", p.Score, domain.LoserPoints)
		}
	}

	alice, err := repo.PlayerByHandle(ctx, "alice")
	if err != nil || alice == nil {
		t.Fatalf("alice not created: %v", err)
	}
	row, err := ledger.Row(ctx, domain.PlayerOverallKey(alice.ID))
	if err != nil || row == nil {
		t.Fatalf("alice overall row: %v", err)
	}
	if row.Rating != domain.WinnerPoints || row.Wins != 1 || row.Losses != 0 {
		t.Fatalf("alice row = %+v", row)
	}
	if row.WinTypes.Prestige != 1 {
		t.Fatalf("prestige count = %d, want 1", row.WinTypes.Prestige)
	}

	bob, _ := repo.PlayerByHandle(ctx, "bob")
	bobRow, _ := ledger.Row(ctx, domain.PlayerOverallKey(bob.ID))
	if bobRow.Rating != domain.LoserPoints || bobRow.Losses != 1 {
		t.Fatalf("bob row = %+v", bobRow)
	}

	// global rows updated too: Thane and the Wolf Clan carry the win
	charRow, _ := ledger.Row(ctx, domain.CharacterKey(1))
	if charRow == nil || charRow.Rating != domain.WinnerPoints || charRow.Wins != 1 {
		t.Fatalf("character row = %+v", charRow)
	}
	factionRow, _ := ledger.Row(ctx, domain.FactionKey(1))
	if factionRow == nil || factionRow.Rating != domain.WinnerPoints {
		t.Fatalf("faction row = %+v", factionRow)
	}
}

func TestSubmitReusesExistingPlayers(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	if _, err := svc.Submit(ctx, SubmitRequest{
		WinType: domain.WinElimination, WinnerHandle: "alice", Seats: fourSeats(),
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	seats := fourSeats()
	seats[0].CharacterID = 2 // same players, different character
	if _, err := svc.Submit(ctx, SubmitRequest{
		WinType: domain.WinArtifact, WinnerHandle: "bob", Seats: seats,
	}); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	players, err := repo.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(players) != 4 {
		t.Fatalf("player count = %d, want 4", len(players))
	}
}

func TestSubmitRejectsMalformedRequests(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	cases := []struct {
		name string
		mut  func(*SubmitRequest)
	}{
		{"winner not seated", func(r *SubmitRequest) { r.WinnerHandle = "eve" }},
		{"bad win type", func(r *SubmitRequest) { r.WinType = "conquest" }},
		{"duplicate handle", func(r *SubmitRequest) { r.Seats[1].Handle = "alice" }},
		{"duplicate character", func(r *SubmitRequest) { r.Seats[1].CharacterID = 1 }},
		{"unknown character", func(r *SubmitRequest) { r.Seats[2].CharacterID = 99 }},
		{"empty handle", func(r *SubmitRequest) { r.Seats[3].Handle = "  " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := SubmitRequest{
				WinType: domain.WinPrestige, WinnerHandle: "alice", Seats: fourSeats(),
			}
			tc.mut(&req)
			if _, err := svc.Submit(ctx, req); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// Applying the same match twice doubles its impact on the ledger. That is the
// contract: match processing accumulates, deduplication is the caller's job.
func TestReapplyingMatchDoublesRatings(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledger := newTestService(t)

	m, err := svc.Submit(ctx, SubmitRequest{
		WinType: domain.WinAttrition, WinnerHandle: "carol", Seats: fourSeats(),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	proc := rating.NewProcessor(ledger, nil)
	if err := proc.Apply(ctx, m); err != nil {
		t.Fatalf("reapply: %v", err)
	}

	carol, _ := repo.PlayerByHandle(ctx, "carol")
	row, _ := ledger.Row(ctx, domain.PlayerOverallKey(carol.ID))
	if row.Rating != 2*domain.WinnerPoints || row.Wins != 2 {
		t.Fatalf("row after double apply = %+v", row)
	}
	if row.WinTypes.Attrition != 2 {
		t.Fatalf("attrition count = %d, want 2", row.WinTypes.Attrition)
	}
}

// Deleting a match removes the record only. The ledger keeps the points until
// the next rebuild.
func TestRemoveLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledger := newTestService(t)

	m, err := svc.Submit(ctx, SubmitRequest{
		WinType: domain.WinPrestige, WinnerHandle: "alice", Seats: fourSeats(),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Remove(ctx, m.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := svc.Get(ctx, m.ID); err != ErrMatchNotFound {
		t.Fatalf("get after remove: %v, want ErrMatchNotFound", err)
	}

	alice, _ := repo.PlayerByHandle(ctx, "alice")
	row, _ := ledger.Row(ctx, domain.PlayerOverallKey(alice.ID))
	if row == nil || row.Rating != domain.WinnerPoints {
		t.Fatalf("ledger changed by remove: %+v", row)
	}
}

func TestRemoveUnknownMatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.Remove(context.Background(), 4242); err != ErrMatchNotFound {
		t.Fatalf("remove unknown: %v, want ErrMatchNotFound", err)
	}
}

func TestLinkChatIDResolvesPlayer(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	alice, err := repo.GetOrCreatePlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if alice.ChatID != "" {
		t.Fatalf("fresh player already linked: %q", alice.ChatID)
	}
	if p, _ := repo.PlayerByChatID(ctx, "chat-42"); p != nil {
		t.Fatalf("unlinked chat id resolved to %+v", p)
	}

	if err := repo.LinkChatID(ctx, alice.ID, "chat-42"); err != nil {
		t.Fatalf("link: %v", err)
	}
	got, err := repo.PlayerByChatID(ctx, "chat-42")
	if err != nil {
		t.Fatalf("by chat id: %v", err)
	}
	if got == nil || got.ID != alice.ID || got.ChatID != "chat-42" {
		t.Fatalf("linked lookup = %+v", got)
	}

	if err := repo.LinkChatID(ctx, 999, "chat-x"); err != ErrPlayerNotFound {
		t.Fatalf("link unknown player: %v, want ErrPlayerNotFound", err)
	}
}
