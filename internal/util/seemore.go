package util

import "strings"

const (
	SeeMorePadding   = 500
	ZeroWidthSpace   = "\u200b"
	seeMoreThreshold = 400
)

// ApplySeeMorePadding pads a long message with zero-width spaces so the chat
// client collapses it behind a "see more" fold, keeping the room readable.
// Short messages pass through untouched.
func ApplySeeMorePadding(text, instruction string) string {
	if strings.TrimSpace(text) == "" || len(text) < seeMoreThreshold {
		return text
	}

	header := strings.TrimSpace(instruction)

	var builder strings.Builder
	builder.Grow(len(text) + SeeMorePadding + len(header) + 2)
	if header != "" {
		builder.WriteString(header)
	}
	builder.WriteString(strings.Repeat(ZeroWidthSpace, SeeMorePadding))
	if !strings.HasPrefix(text, "\n") {
		builder.WriteByte('\n')
	}
	builder.WriteString(text)
	return builder.String()
}
