package stats

import (
	"context"
	"testing"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/match"
	"github.com/mkovalev/armello-stats-bot/internal/rating"
	"github.com/mkovalev/armello-stats-bot/internal/title"
)

// fixture plays three matches through the real submission path so every table
// the readers touch is populated consistently.
func fixture(t *testing.T) (*Service, match.Repository, rating.Repository) {
	t.Helper()
	ctx := context.Background()
	players := match.NewMemoryRepository()
	ledger := rating.NewMemoryRepository()
	titles := title.NewMemoryRepository()
	svc := match.NewService(players, rating.NewProcessor(ledger, nil), nil)

	seats := [domain.MatchSize]match.Seat{
		{Handle: "alice", CharacterID: 1},
		{Handle: "bob", CharacterID: 5},
		{Handle: "carol", CharacterID: 9},
		{Handle: "dave", CharacterID: 13},
	}
	submit := func(winner string, wt domain.WinType) {
		t.Helper()
		if _, err := svc.Submit(ctx, match.SubmitRequest{
			WinType: wt, WinnerHandle: winner, Seats: seats,
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	submit("alice", domain.WinPrestige)
	submit("alice", domain.WinElimination)
	submit("bob", domain.WinPrestige)

	return NewService(ledger, players, titles), players, ledger
}

func TestTopPlayersOrderAndHandles(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture(t)

	top, err := svc.TopPlayers(ctx, 10, 0)
	if err != nil {
		t.Fatalf("top players: %v", err)
	}
	if len(top) != 4 {
		t.Fatalf("leaderboard size = %d, want 4", len(top))
	}
	// alice: +4+4-1 = 7, bob: -1-1+4 = 2, carol/dave: -3
	if top[0].Player.Handle != "alice" || top[0].Row.Rating != 7 {
		t.Fatalf("first = %s %d", top[0].Player.Handle, top[0].Row.Rating)
	}
	if top[1].Player.Handle != "bob" || top[1].Row.Rating != 2 {
		t.Fatalf("second = %s %d", top[1].Player.Handle, top[1].Row.Rating)
	}
	// carol and dave are tied at -3, lower player id first
	if top[2].Player.Handle != "carol" || top[3].Player.Handle != "dave" {
		t.Fatalf("tie order = %s, %s", top[2].Player.Handle, top[3].Player.Handle)
	}
}

func TestTopPlayersPagination(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture(t)

	page, err := svc.TopPlayers(ctx, 2, 2)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 2 || page[0].Player.Handle != "carol" {
		t.Fatalf("page = %+v", page)
	}

	empty, err := svc.TopPlayers(ctx, 2, 10)
	if err != nil {
		t.Fatalf("empty page: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("past-the-end page has %d rows", len(empty))
	}
}

func TestScopedLeaderboards(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture(t)

	byChar, err := svc.TopPlayersByCharacter(ctx, 1, 5)
	if err != nil {
		t.Fatalf("by character: %v", err)
	}
	if len(byChar) != 1 || byChar[0].Player.Handle != "alice" {
		t.Fatalf("thane board = %+v", byChar)
	}

	byFaction, err := svc.TopPlayersByFaction(ctx, 2, 5)
	if err != nil {
		t.Fatalf("by faction: %v", err)
	}
	if len(byFaction) != 1 || byFaction[0].Player.Handle != "bob" {
		t.Fatalf("rabbit board = %+v", byFaction)
	}

	if _, err := svc.TopPlayersByCharacter(ctx, 404, 5); err == nil {
		t.Fatal("expected error for unknown character")
	}
	if _, err := svc.TopPlayersByFaction(ctx, 404, 5); err == nil {
		t.Fatal("expected error for unknown faction")
	}
}

func TestGlobalAggregates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture(t)

	chars, err := svc.TopCharacters(ctx, 3)
	if err != nil {
		t.Fatalf("top characters: %v", err)
	}
	if len(chars) != 3 || chars[0].Subject.CharacterID != 1 {
		t.Fatalf("top characters = %+v", chars)
	}

	wt, err := svc.WinTypeTotals(ctx)
	if err != nil {
		t.Fatalf("win type totals: %v", err)
	}
	if wt.Prestige != 2 || wt.Elimination != 1 || wt.Attrition != 0 {
		t.Fatalf("totals = %+v", wt)
	}
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture(t)

	p, err := svc.ProfileByHandle(ctx, "alice")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Overall == nil || p.Overall.Rating != 7 || p.Overall.Wins != 2 || p.Overall.Losses != 1 {
		t.Fatalf("overall = %+v", p.Overall)
	}
	if p.Position != 1 || p.TotalRated != 4 {
		t.Fatalf("position = %d/%d", p.Position, p.TotalRated)
	}
	if len(p.Characters) != 1 || p.Characters[0].Subject.CharacterID != 1 {
		t.Fatalf("characters = %+v", p.Characters)
	}
	if len(p.Factions) != 1 || p.Factions[0].Subject.FactionID != 1 {
		t.Fatalf("factions = %+v", p.Factions)
	}
	if got := p.Overall.WinRate(); got < 0.66 || got > 0.67 {
		t.Fatalf("win rate = %v", got)
	}
}

func TestProfileUnknownPlayer(t *testing.T) {
	svc, _, _ := fixture(t)
	if _, err := svc.ProfileByHandle(context.Background(), "eve"); err != match.ErrPlayerNotFound {
		t.Fatalf("err = %v, want ErrPlayerNotFound", err)
	}
}

// A player on record with no rated games still gets a profile, with a zero
// win rate rather than a division by zero.
func TestProfileUnratedPlayer(t *testing.T) {
	ctx := context.Background()
	svc, players, _ := fixture(t)

	if _, err := players.GetOrCreatePlayer(ctx, "frank"); err != nil {
		t.Fatalf("create: %v", err)
	}
	p, err := svc.ProfileByHandle(ctx, "frank")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Overall != nil {
		t.Fatalf("unrated overall = %+v", p.Overall)
	}
	if p.Position != 0 || p.TotalRated != 4 {
		t.Fatalf("position = %d/%d, want 0/4", p.Position, p.TotalRated)
	}
	var zero domain.RatingRow
	if zero.WinRate() != 0 {
		t.Fatalf("zero-row win rate = %v", zero.WinRate())
	}
}
