package presenter

import (
	"strings"
	"testing"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/msgcat"
	"github.com/mkovalev/armello-stats-bot/internal/report"
	"github.com/mkovalev/armello-stats-bot/internal/stats"
)

func newFormatter(t *testing.T) *Formatter {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	return NewFormatter(cat)
}

func TestLeaderboard(t *testing.T) {
	f := newFormatter(t)
	ranked := []stats.RankedPlayer{
		{
			Player: &domain.Player{ID: 1, Handle: "alice"},
			Row:    domain.RatingRow{Subject: domain.PlayerOverallKey(1), Rating: 7, Wins: 2, Losses: 1},
		},
		{
			Player: &domain.Player{ID: 2, Handle: "bob"},
			Row:    domain.RatingRow{Subject: domain.PlayerOverallKey(2), Rating: 2, Wins: 1, Losses: 2},
		},
	}
	out := f.Leaderboard(f.TopHeader(), ranked, 0)
	if !strings.Contains(out, "1. alice") || !strings.Contains(out, "2. bob") {
		t.Fatalf("leaderboard = %q", out)
	}
	if !strings.Contains(out, "7 pts") || !strings.Contains(out, "67%") {
		t.Fatalf("leaderboard = %q", out)
	}
}

func TestLeaderboardOffsetNumbering(t *testing.T) {
	f := newFormatter(t)
	ranked := []stats.RankedPlayer{{
		Player: &domain.Player{ID: 9, Handle: "zed"},
		Row:    domain.RatingRow{Subject: domain.PlayerOverallKey(9), Rating: 1, Wins: 1},
	}}
	out := f.Leaderboard(f.TopHeader(), ranked, 10)
	if !strings.Contains(out, "11. zed") {
		t.Fatalf("offset line = %q", out)
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	f := newFormatter(t)
	out := f.Leaderboard(f.TopHeader(), nil, 0)
	if !strings.Contains(out, "No rated games") {
		t.Fatalf("empty board = %q", out)
	}
}

func TestGlobalBoardResolvesNames(t *testing.T) {
	f := newFormatter(t)
	rows := []domain.RatingRow{
		{Subject: domain.CharacterKey(1), Rating: 8, Wins: 2},
		{Subject: domain.CharacterKey(5), Rating: -1, Losses: 1},
	}
	out := f.GlobalBoard("top.characters_header", rows)
	if !strings.Contains(out, "Thane") || !strings.Contains(out, "Amber") {
		t.Fatalf("character board = %q", out)
	}

	factions := []domain.RatingRow{{Subject: domain.FactionKey(6), Rating: 4, Wins: 1}}
	out = f.GlobalBoard("top.factions_header", factions)
	if !strings.Contains(out, "Dragon Clan") {
		t.Fatalf("faction board = %q", out)
	}
}

func TestProfileRendering(t *testing.T) {
	f := newFormatter(t)
	p := &stats.Profile{
		Player: &domain.Player{ID: 1, Handle: "alice"},
		Overall: &domain.RatingRow{
			Subject: domain.PlayerOverallKey(1),
			Rating:  7, Wins: 2, Losses: 1,
			WinTypes: domain.WinTypeCounts{Prestige: 1, Elimination: 1},
		},
		Position:   1,
		TotalRated: 4,
		Titles:     []*domain.Title{{Category: domain.TitleOverall, Text: "Best player of the community", PlayerID: 1}},
	}
	out := f.Profile(p)
	for _, want := range []string{"alice", "rank 1/4", "2W/1L", "prestige 1", "Best player of the community"} {
		if !strings.Contains(out, want) {
			t.Fatalf("profile missing %q:\n%s", want, out)
		}
	}

	unrated := &stats.Profile{Player: &domain.Player{Handle: "frank"}}
	if out := f.Profile(unrated); !strings.Contains(out, "no rated games") {
		t.Fatalf("unrated profile = %q", out)
	}
}

func TestTitlesBoard(t *testing.T) {
	f := newFormatter(t)
	titles := []*domain.Title{
		{Category: domain.TitleOverall, Text: "Best player of the community", PlayerID: 1},
		{Category: "wolf", Text: "Best player of the Wolf Clan"},
	}
	out := f.Titles(titles, map[int64]string{1: "alice"})
	if !strings.Contains(out, "Overall") || !strings.Contains(out, "alice") {
		t.Fatalf("titles = %q", out)
	}
	if !strings.Contains(out, "Wolf Clan") || !strings.Contains(out, "unclaimed") {
		t.Fatalf("titles = %q", out)
	}
}

func TestPromptsFollowDialogueSteps(t *testing.T) {
	f := newFormatter(t)
	sess := &report.Session{Step: report.StepHandles}
	if out := f.Prompt(sess); !strings.Contains(out, "four players") {
		t.Fatalf("start prompt = %q", out)
	}
	sess.Handles = []string{"alice", "bob"}
	if out := f.Prompt(sess); !strings.Contains(out, "2 of 4") {
		t.Fatalf("handles prompt = %q", out)
	}
	sess.Step = report.StepCharacters
	sess.Handles = []string{"alice", "bob", "carol", "dave"}
	sess.CharacterIDs = []int64{1}
	if out := f.Prompt(sess); !strings.Contains(out, "bob") {
		t.Fatalf("character prompt = %q", out)
	}
	sess.Step = report.StepConfirm
	sess.Winner = "alice"
	sess.WinType = domain.WinPrestige
	sess.CharacterIDs = []int64{1, 5, 9, 13}
	out := f.Prompt(sess)
	if !strings.Contains(out, "alice wins by prestige") || !strings.Contains(out, "bob (Amber)") {
		t.Fatalf("confirm prompt = %q", out)
	}
}

func TestReportErrors(t *testing.T) {
	f := newFormatter(t)
	if out := f.ReportError(report.ErrNoSession); !strings.Contains(out, "No report in progress") {
		t.Fatalf("no session = %q", out)
	}
	if out := f.ReportError(report.ErrUnknownCharacter); !strings.Contains(out, "character") {
		t.Fatalf("unknown character = %q", out)
	}
}
