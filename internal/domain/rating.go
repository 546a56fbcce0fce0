package domain

import "fmt"

// SubjectKind names the five rating table variants.
type SubjectKind int

const (
	SubjectPlayerOverall SubjectKind = iota
	SubjectPlayerCharacter
	SubjectPlayerFaction
	SubjectCharacter
	SubjectFaction
)

func (k SubjectKind) String() string {
	switch k {
	case SubjectPlayerOverall:
		return "player_overall"
	case SubjectPlayerCharacter:
		return "player_character"
	case SubjectPlayerFaction:
		return "player_faction"
	case SubjectCharacter:
		return "character"
	case SubjectFaction:
		return "faction"
	}
	return fmt.Sprintf("subject_kind(%d)", int(k))
}

// PlayerScoped reports whether rows of this kind belong to a single player and
// are therefore reset by a per-player rebuild.
func (k SubjectKind) PlayerScoped() bool {
	switch k {
	case SubjectPlayerOverall, SubjectPlayerCharacter, SubjectPlayerFaction:
		return true
	}
	return false
}

// TracksWinTypes reports whether rows of this kind carry per-win-type counters.
// Global character/faction rows do not, matching the ledger's original shape.
func (k SubjectKind) TracksWinTypes() bool { return k.PlayerScoped() }

// SubjectKey identifies one rating row. Unused id fields are zero.
type SubjectKey struct {
	Kind        SubjectKind
	PlayerID    int64
	CharacterID int64
	FactionID   int64
}

func PlayerOverallKey(playerID int64) SubjectKey {
	return SubjectKey{Kind: SubjectPlayerOverall, PlayerID: playerID}
}

func PlayerCharacterKey(playerID, characterID int64) SubjectKey {
	return SubjectKey{Kind: SubjectPlayerCharacter, PlayerID: playerID, CharacterID: characterID}
}

func PlayerFactionKey(playerID, factionID int64) SubjectKey {
	return SubjectKey{Kind: SubjectPlayerFaction, PlayerID: playerID, FactionID: factionID}
}

func CharacterKey(characterID int64) SubjectKey {
	return SubjectKey{Kind: SubjectCharacter, CharacterID: characterID}
}

func FactionKey(factionID int64) SubjectKey {
	return SubjectKey{Kind: SubjectFaction, FactionID: factionID}
}

// WinTypeCounts holds the per-condition win counters of a player-scoped row.
type WinTypeCounts struct {
	Prestige    int
	Elimination int
	Attrition   int
	Artifact    int
}

func (c *WinTypeCounts) Add(w WinType, n int) {
	switch w {
	case WinPrestige:
		c.Prestige += n
	case WinElimination:
		c.Elimination += n
	case WinAttrition:
		c.Attrition += n
	case WinArtifact:
		c.Artifact += n
	}
}

func (c WinTypeCounts) Get(w WinType) int {
	switch w {
	case WinPrestige:
		return c.Prestige
	case WinElimination:
		return c.Elimination
	case WinAttrition:
		return c.Attrition
	case WinArtifact:
		return c.Artifact
	}
	return 0
}

// RatingRow is one materialized counter row of the ledger. Rating always equals
// the sum of applied deltas since the last reset.
type RatingRow struct {
	Subject  SubjectKey
	Rating   int
	Wins     int
	Losses   int
	WinTypes WinTypeCounts
}

// WinRate is wins/(wins+losses), zero when the row has no games.
func (r *RatingRow) WinRate() float64 {
	total := r.Wins + r.Losses
	if total == 0 {
		return 0
	}
	return float64(r.Wins) / float64(total)
}

// Games is the total number of recorded games on the row.
func (r *RatingRow) Games() int { return r.Wins + r.Losses }

// RatingDelta is the unit of ledger mutation produced by the match processor.
// WinType is counted only when Win is true and the subject kind tracks it.
type RatingDelta struct {
	Subject SubjectKey
	Points  int
	Win     bool
	WinType WinType
}

// ApplyTo folds the delta into a row in place.
func (d RatingDelta) ApplyTo(row *RatingRow) {
	row.Rating += d.Points
	if d.Win {
		row.Wins++
		if d.Subject.Kind.TracksWinTypes() {
			row.WinTypes.Add(d.WinType, 1)
		}
	} else {
		row.Losses++
	}
}

// Title category for the community-wide best player.
const TitleOverall = "overall"

// Title points at the player currently ranked first in its category. Text
// persists across reassignment; Default flips to false once an admin edits it.
type Title struct {
	ID       int64
	Category string // TitleOverall or a faction slug
	Text     string
	Default  bool
	PlayerID int64 // 0 when no one currently holds the title
}

// CustomTitle is a free-form distinction granted by an administrator,
// independent of rankings.
type CustomTitle struct {
	ID       int64
	PlayerID int64
	Text     string
}
