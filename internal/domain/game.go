package domain

import (
	"fmt"
	"strings"
	"time"
)

// WinType is the in-game condition by which the winner finished the match.
type WinType string

const (
	WinPrestige    WinType = "prestige"
	WinElimination WinType = "elimination"
	WinAttrition   WinType = "attrition"
	WinArtifact    WinType = "artifact"
)

// WinTypes lists the valid win conditions in display order.
var WinTypes = []WinType{WinPrestige, WinElimination, WinAttrition, WinArtifact}

func ParseWinType(s string) (WinType, error) {
	switch WinType(strings.ToLower(strings.TrimSpace(s))) {
	case WinPrestige:
		return WinPrestige, nil
	case WinElimination:
		return WinElimination, nil
	case WinAttrition:
		return WinAttrition, nil
	case WinArtifact:
		return WinArtifact, nil
	}
	return "", fmt.Errorf("unknown win type %q", s)
}

func (w WinType) Valid() bool {
	switch w {
	case WinPrestige, WinElimination, WinAttrition, WinArtifact:
		return true
	}
	return false
}

// Score deltas fixed at participant creation; the ledger accumulates these.
const (
	WinnerPoints = 4
	LoserPoints  = -1
)

// MatchSize is the fixed number of participants per match.
const MatchSize = 4

// Player is a stable identity keyed by a unique handle, optionally linked to a
// chat account.
type Player struct {
	ID        int64
	ChatID    string // gateway user id, empty for players created from mentions only
	Handle    string
	CreatedAt time.Time
}

// Faction is a fixed group of four characters.
type Faction struct {
	ID    int64
	Slug  string // title category key, e.g. "wolf"
	Name  string
	Alias string
}

// Character belongs to exactly one faction; membership never changes.
type Character struct {
	ID        int64
	FactionID int64
	Name      string
	Alias     string
}

// Participant is one of the four seats of a match. Score is the point delta
// this seat contributes to every rating row it touches.
type Participant struct {
	ID          int64
	MatchID     int64
	PlayerID    int64
	CharacterID int64
	IsWinner    bool
	WinType     WinType // set on the winner only, mirrors Match.WinType
	Score       int
}

// Match is immutable once confirmed; it can only be deleted as a whole.
type Match struct {
	ID           int64
	Timestamp    time.Time
	Screenshot   string
	WinType      WinType
	Participants []Participant
}

// Winner returns the winning participant, or nil when the match is malformed.
func (m *Match) Winner() *Participant {
	for i := range m.Participants {
		if m.Participants[i].IsWinner {
			return &m.Participants[i]
		}
	}
	return nil
}

// Validate checks the structural invariants of a confirmed match: exactly four
// participants, distinct players and characters, exactly one winner whose win
// type matches the match.
func (m *Match) Validate() error {
	if len(m.Participants) != MatchSize {
		return fmt.Errorf("match must have %d participants, got %d", MatchSize, len(m.Participants))
	}
	if !m.WinType.Valid() {
		return fmt.Errorf("invalid win type %q", m.WinType)
	}
	players := make(map[int64]bool, MatchSize)
	characters := make(map[int64]bool, MatchSize)
	winners := 0
	for i := range m.Participants {
		p := &m.Participants[i]
		if players[p.PlayerID] {
			return fmt.Errorf("player %d appears twice", p.PlayerID)
		}
		players[p.PlayerID] = true
		if characters[p.CharacterID] {
			return fmt.Errorf("character %d appears twice", p.CharacterID)
		}
		characters[p.CharacterID] = true
		if p.IsWinner {
			winners++
			if p.WinType != m.WinType {
				return fmt.Errorf("winner win type %q does not match match win type %q", p.WinType, m.WinType)
			}
		} else if p.WinType != "" {
			return fmt.Errorf("loser participant carries win type %q", p.WinType)
		}
	}
	if winners != 1 {
		return fmt.Errorf("match must have exactly one winner, got %d", winners)
	}
	return nil
}
