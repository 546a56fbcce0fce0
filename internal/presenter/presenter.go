package presenter

import (
	"strings"

	"github.com/mkovalev/armello-stats-bot/internal/util"
)

// Presenter delivers formatted text to chat rooms without coupling the
// command layer to the transport.
type Presenter struct {
	sendMessage func(room, message string) error
}

func NewPresenter(sendMessage func(room, message string) error) *Presenter {
	return &Presenter{sendMessage: sendMessage}
}

func (p *Presenter) Text(room, message string) error {
	if p == nil || p.sendMessage == nil {
		return nil
	}
	if strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(room, util.ApplySeeMorePadding(message, ""))
}
