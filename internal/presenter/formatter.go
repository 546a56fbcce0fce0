// Package presenter renders stats and dialogue state into chat text. All
// strings come from the message catalog so deployments can reword the bot
// without a rebuild.
package presenter

import (
	"fmt"
	"strings"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
	"github.com/mkovalev/armello-stats-bot/internal/msgcat"
	"github.com/mkovalev/armello-stats-bot/internal/report"
	"github.com/mkovalev/armello-stats-bot/internal/roster"
	"github.com/mkovalev/armello-stats-bot/internal/stats"
)

type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

func (f *Formatter) render(key string, data any) string {
	s, err := f.cat.Render(key, data)
	if err != nil {
		// a missing template is a deploy defect, show something rather than nothing
		return key
	}
	return s
}

func percent(rate float64) string {
	return fmt.Sprintf("%.0f", rate*100)
}

// Leaderboard renders ranked players under a header.
func (f *Formatter) Leaderboard(header string, ranked []stats.RankedPlayer, offset int) string {
	if len(ranked) == 0 {
		return f.render("top.empty", nil)
	}
	var b strings.Builder
	b.WriteString(header)
	for i, rp := range ranked {
		b.WriteByte('\n')
		b.WriteString(f.render("top.line", map[string]any{
			"Rank":    offset + i + 1,
			"Name":    rp.Player.Handle,
			"Rating":  rp.Row.Rating,
			"Wins":    rp.Row.Wins,
			"Losses":  rp.Row.Losses,
			"WinRate": percent(rp.Row.WinRate()),
		}))
	}
	return b.String()
}

func (f *Formatter) TopHeader() string { return f.render("top.header", nil) }

func (f *Formatter) TopCharacterHeader(c domain.Character) string {
	return f.render("top.header_character", map[string]any{"Name": c.Name})
}

func (f *Formatter) TopFactionHeader(fa domain.Faction) string {
	return f.render("top.header_faction", map[string]any{"Name": fa.Name})
}

// GlobalBoard renders the character or faction standings, resolving subject
// names through the roster.
func (f *Formatter) GlobalBoard(headerKey string, rows []domain.RatingRow) string {
	if len(rows) == 0 {
		return f.render("top.empty", nil)
	}
	var b strings.Builder
	b.WriteString(f.render(headerKey, nil))
	for i, row := range rows {
		name := subjectName(row.Subject)
		b.WriteByte('\n')
		b.WriteString(f.render("top.line", map[string]any{
			"Rank":    i + 1,
			"Name":    name,
			"Rating":  row.Rating,
			"Wins":    row.Wins,
			"Losses":  row.Losses,
			"WinRate": percent(row.WinRate()),
		}))
	}
	return b.String()
}

func subjectName(key domain.SubjectKey) string {
	switch key.Kind {
	case domain.SubjectCharacter:
		if c, ok := roster.CharacterByID(key.CharacterID); ok {
			return c.Name
		}
	case domain.SubjectFaction:
		if fa, ok := roster.FactionByID(key.FactionID); ok {
			return fa.Name
		}
	}
	return fmt.Sprintf("#%d", key.CharacterID+key.FactionID)
}

// Profile renders a player profile block.
func (f *Formatter) Profile(p *stats.Profile) string {
	if p.Overall == nil {
		return f.render("profile.unrated", map[string]any{"Handle": p.Player.Handle})
	}
	var b strings.Builder
	b.WriteString(f.render("profile.header", map[string]any{
		"Handle":   p.Player.Handle,
		"Rating":   p.Overall.Rating,
		"Position": p.Position,
		"Total":    p.TotalRated,
	}))
	b.WriteByte('\n')
	b.WriteString(f.render("profile.record", map[string]any{
		"Wins":    p.Overall.Wins,
		"Losses":  p.Overall.Losses,
		"WinRate": percent(p.Overall.WinRate()),
	}))
	b.WriteByte('\n')
	b.WriteString(f.render("profile.win_types", map[string]any{
		"Prestige":    p.Overall.WinTypes.Prestige,
		"Elimination": p.Overall.WinTypes.Elimination,
		"Attrition":   p.Overall.WinTypes.Attrition,
		"Artifact":    p.Overall.WinTypes.Artifact,
	}))
	if len(p.Titles) > 0 || len(p.Custom) > 0 {
		b.WriteByte('\n')
		b.WriteString(f.render("profile.titles_header", nil))
		for _, t := range p.Titles {
			b.WriteString("\n- " + t.Text)
		}
		for _, ct := range p.Custom {
			b.WriteString("\n- " + ct.Text)
		}
	}
	return b.String()
}

// Titles renders the community title board. holders maps player id to handle.
func (f *Formatter) Titles(titles []*domain.Title, holders map[int64]string) string {
	var b strings.Builder
	b.WriteString(f.render("titles.header", nil))
	for _, t := range titles {
		b.WriteByte('\n')
		name := categoryName(t.Category)
		if t.PlayerID == 0 {
			b.WriteString(f.render("titles.vacant", map[string]any{
				"Category": name, "Text": t.Text,
			}))
			continue
		}
		holder := holders[t.PlayerID]
		if holder == "" {
			holder = fmt.Sprintf("player#%d", t.PlayerID)
		}
		b.WriteString(f.render("titles.line", map[string]any{
			"Category": name, "Text": t.Text, "Holder": holder,
		}))
	}
	return b.String()
}

func categoryName(category string) string {
	if category == domain.TitleOverall {
		return "Overall"
	}
	if fa, ok := roster.FactionBySlug(category); ok {
		return fa.Name
	}
	return category
}

// Prompt renders the next question of a report dialogue.
func (f *Formatter) Prompt(sess *report.Session) string {
	switch sess.Step {
	case report.StepHandles:
		if len(sess.Handles) == 0 {
			return f.render("report.started", nil)
		}
		return f.render("report.need_handles", map[string]any{"Count": len(sess.Handles)})
	case report.StepWinner:
		return f.render("report.ask_winner", nil)
	case report.StepWinType:
		return f.render("report.ask_win_type", map[string]any{"Winner": sess.Winner})
	case report.StepCharacters:
		return f.render("report.ask_characters", map[string]any{
			"Handle": sess.Handles[len(sess.CharacterIDs)],
		})
	case report.StepConfirm:
		return f.render("report.confirm", map[string]any{
			"Winner":  sess.Winner,
			"WinType": string(sess.WinType),
			"Seats":   seatSummary(sess),
		})
	}
	return f.render("common.usage", nil)
}

func seatSummary(sess *report.Session) string {
	parts := make([]string, 0, len(sess.Handles))
	for i, h := range sess.Handles {
		if i < len(sess.CharacterIDs) {
			if c, ok := roster.CharacterByID(sess.CharacterIDs[i]); ok {
				parts = append(parts, h+" ("+c.Name+")")
				continue
			}
		}
		parts = append(parts, h)
	}
	return strings.Join(parts, ", ")
}

// ReportError maps dialogue errors to catalog messages.
func (f *Formatter) ReportError(err error) string {
	switch err {
	case report.ErrNoSession:
		return f.render("report.none_open", nil)
	case report.ErrSessionExists:
		return f.render("report.already_open", nil)
	case report.ErrUnknownHandle:
		return f.render("report.unknown_winner", nil)
	case report.ErrUnknownWinType:
		return f.render("report.unknown_win_type", nil)
	case report.ErrUnknownCharacter:
		return f.render("report.unknown_character", nil)
	case report.ErrCharacterTaken:
		return f.render("report.character_taken", nil)
	case report.ErrHandleTaken:
		return f.render("report.handle_taken", map[string]any{"Handle": ""})
	case report.ErrNotConfirmed:
		return f.render("report.discarded", nil)
	}
	return f.render("common.internal_error", nil)
}

// Saved confirms a recorded match.
func (f *Formatter) Saved(matchID int64) string {
	return f.render("report.saved", map[string]any{"MatchID": matchID})
}

func (f *Formatter) Render(key string, data any) string { return f.render(key, data) }
