// Package report implements the step-by-step match report dialogue. A session
// belongs to one user in one room and expires if it goes quiet; the manager
// walks it through screenshot, seats, winner, win type and character picks
// before handing a finished submission back to the caller.
package report

import (
	"time"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

// Step is the dialogue position: what the next message is expected to carry.
type Step string

const (
	StepHandles    Step = "HANDLES"
	StepWinner     Step = "WINNER"
	StepWinType    Step = "WIN_TYPE"
	StepCharacters Step = "CHARACTERS"
	StepConfirm    Step = "CONFIRM"
)

// Session is stored as JSON in Redis under report:<room>:<user>.
type Session struct {
	ID        string    `json:"id"` // correlates dialogue log lines
	Room      string    `json:"room"`
	Owner     string    `json:"owner"`
	Step      Step      `json:"step"`
	CreatedAt time.Time `json:"created_at"`

	Screenshot string         `json:"screenshot"`
	Handles    []string       `json:"handles"`
	Winner     string         `json:"winner,omitempty"`
	WinType    domain.WinType `json:"win_type,omitempty"`
	// CharacterIDs[i] is the pick of Handles[i]; filled in seat order.
	CharacterIDs []int64 `json:"character_ids"`
}

// Errors
var (
	ErrNoSession        = errf("no report in progress")
	ErrSessionExists    = errf("report already in progress")
	ErrUnknownHandle    = errf("handle not among the reported seats")
	ErrUnknownWinType   = errf("unknown win type")
	ErrUnknownCharacter = errf("unknown character")
	ErrCharacterTaken   = errf("character already picked")
	ErrHandleTaken      = errf("handle already listed")
	ErrNotConfirmed     = errf("report discarded")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
