package title

import (
	"context"
	"testing"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/rating"
)

func seedLedger(t *testing.T, ledger rating.Repository, deltas ...domain.RatingDelta) {
	t.Helper()
	if err := ledger.ApplyDeltas(context.Background(), deltas); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
}

func win(key domain.SubjectKey, points int) domain.RatingDelta {
	return domain.RatingDelta{Subject: key, Points: points, Win: true, WinType: domain.WinPrestige}
}

func TestRefreshAssignsLeaderWithDefaultText(t *testing.T) {
	ctx := context.Background()
	ledger := rating.NewMemoryRepository()
	titles := NewMemoryRepository()
	eng := NewEngine(ledger, titles, nil)

	seedLedger(t, ledger,
		win(domain.PlayerOverallKey(1), 8),
		win(domain.PlayerOverallKey(2), 12),
	)

	got, err := eng.Refresh(ctx, domain.TitleOverall)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got.PlayerID != 2 {
		t.Fatalf("holder = %d, want 2", got.PlayerID)
	}
	if !got.Default || got.Text == "" {
		t.Fatalf("default text not set: %+v", got)
	}
}

func TestDefaultTextsAreFlavoredPerCategory(t *testing.T) {
	ctx := context.Background()
	ledger := rating.NewMemoryRepository()
	titles := NewMemoryRepository()
	eng := NewEngine(ledger, titles, nil)

	want := map[string]string{
		domain.TitleOverall: "Best player of the community",
		"wolf":              "Leader of the Wolf Pack",
		"rabbit":            "Archmage of the Rabbits",
		"rat":               "Commander of the Rats",
		"bear":              "Elder of the Bears",
		"bandit":            "Chief of the Bandits",
		"dragon":            "Lord of the Dragons",
	}
	seen := make(map[string]bool)
	for _, category := range Categories() {
		got, err := eng.Refresh(ctx, category)
		if err != nil {
			t.Fatalf("refresh %s: %v", category, err)
		}
		if got.Text != want[category] {
			t.Errorf("%s default = %q, want %q", category, got.Text, want[category])
		}
		if seen[got.Text] {
			t.Errorf("default text %q reused across categories", got.Text)
		}
		seen[got.Text] = true
	}
}

func TestRefreshTieBreaksOnLowerPlayerID(t *testing.T) {
	ctx := context.Background()
	ledger := rating.NewMemoryRepository()
	eng := NewEngine(ledger, NewMemoryRepository(), nil)

	seedLedger(t, ledger,
		win(domain.PlayerOverallKey(5), 10),
		win(domain.PlayerOverallKey(3), 10),
	)

	got, err := eng.Refresh(ctx, domain.TitleOverall)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got.PlayerID != 3 {
		t.Fatalf("holder = %d, want 3 (lower id wins ties)", got.PlayerID)
	}
}

func TestRefreshFactionCategory(t *testing.T) {
	ctx := context.Background()
	ledger := rating.NewMemoryRepository()
	eng := NewEngine(ledger, NewMemoryRepository(), nil)

	seedLedger(t, ledger,
		win(domain.PlayerFactionKey(1, 1), 4), // wolf
		win(domain.PlayerFactionKey(2, 1), 8), // wolf, leader
		win(domain.PlayerFactionKey(3, 4), 20), // bear, other category
	)

	got, err := eng.Refresh(ctx, "wolf")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got.PlayerID != 2 {
		t.Fatalf("wolf holder = %d, want 2", got.PlayerID)
	}
}

func TestRefreshRevokesWhenNoPlayers(t *testing.T) {
	ctx := context.Background()
	ledger := rating.NewMemoryRepository()
	titles := NewMemoryRepository()
	eng := NewEngine(ledger, titles, nil)

	seedLedger(t, ledger, win(domain.PlayerOverallKey(1), 4))
	if _, err := eng.Refresh(ctx, domain.TitleOverall); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := ledger.ResetAll(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := eng.Refresh(ctx, domain.TitleOverall)
	if err != nil {
		t.Fatalf("refresh after reset: %v", err)
	}
	if got.PlayerID != 0 {
		t.Fatalf("holder = %d, want revoked", got.PlayerID)
	}
	if got.Text == "" {
		t.Fatal("text lost on revocation")
	}
}

func TestSetTextSurvivesReassignment(t *testing.T) {
	ctx := context.Background()
	ledger := rating.NewMemoryRepository()
	titles := NewMemoryRepository()
	eng := NewEngine(ledger, titles, nil)

	seedLedger(t, ledger, win(domain.PlayerOverallKey(1), 4))
	if _, err := eng.Refresh(ctx, domain.TitleOverall); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	edited, err := eng.SetText(ctx, domain.TitleOverall, "Grand Champion")
	if err != nil {
		t.Fatalf("set text: %v", err)
	}
	if edited.Default {
		t.Fatal("edited title still marked default")
	}

	// a new leader takes over, the custom text stays
	seedLedger(t, ledger, win(domain.PlayerOverallKey(2), 50))
	got, err := eng.Refresh(ctx, domain.TitleOverall)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got.PlayerID != 2 || got.Text != "Grand Champion" || got.Default {
		t.Fatalf("title after reassignment = %+v", got)
	}
}

func TestSetTextUnknownCategory(t *testing.T) {
	eng := NewEngine(rating.NewMemoryRepository(), NewMemoryRepository(), nil)
	if _, err := eng.SetText(context.Background(), "lizard", "x"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestRefreshAllCoversAllCategories(t *testing.T) {
	ctx := context.Background()
	ledger := rating.NewMemoryRepository()
	titles := NewMemoryRepository()
	eng := NewEngine(ledger, titles, nil)

	seedLedger(t, ledger,
		win(domain.PlayerOverallKey(1), 4),
		win(domain.PlayerFactionKey(1, 1), 4),
	)
	eng.RefreshAll(ctx)

	all, err := titles.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != len(Categories()) {
		t.Fatalf("title count = %d, want %d", len(all), len(Categories()))
	}
	held := 0
	for _, title := range all {
		if title.PlayerID != 0 {
			held++
		}
	}
	if held != 2 {
		t.Fatalf("held titles = %d, want 2 (overall and wolf)", held)
	}
}

func TestCustomTitles(t *testing.T) {
	ctx := context.Background()
	eng := NewEngine(rating.NewMemoryRepository(), NewMemoryRepository(), nil)

	ct, err := eng.Grant(ctx, 1, "First blood")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := eng.Grant(ctx, 1, "  "); err == nil {
		t.Fatal("expected error for blank text")
	}

	_, custom, err := eng.PlayerTitles(ctx, 1)
	if err != nil {
		t.Fatalf("player titles: %v", err)
	}
	if len(custom) != 1 || custom[0].Text != "First blood" {
		t.Fatalf("custom titles = %+v", custom)
	}

	if err := eng.Revoke(ctx, ct.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := eng.Revoke(ctx, ct.ID); err != ErrTitleNotFound {
		t.Fatalf("double revoke: %v, want ErrTitleNotFound", err)
	}
}
