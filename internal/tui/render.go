package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// formatTimeAgo returns a human-readable relative time string
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	default:
		return t.Local().Format("Jan 2")
	}
}

// truncate shortens a string to a display width with an ellipsis
func truncate(s string, maxLen int) string {
	if ansi.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return ansi.Truncate(s, maxLen, "")
	}
	return ansi.Truncate(s, maxLen, "...")
}

// padRight pads a string with spaces on the right to reach target width
func padRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// wrapText wraps text at word boundaries to fit within width.
// Leading indentation of each line is kept.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(strings.ReplaceAll(text, "\t", "  "), "\n")

	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}
		if ansi.StringWidth(line) <= width {
			result.WriteString(line)
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
		lineLen := 0
		for _, word := range strings.Fields(line) {
			wordLen := ansi.StringWidth(word)
			if lineLen+wordLen+1 > width && lineLen > 0 {
				result.WriteString("\n")
				lineLen = 0
			}
			if lineLen == 0 && indent != "" && len(indent) < width/2 {
				result.WriteString(indent)
				lineLen = len(indent)
			} else if lineLen > 0 {
				result.WriteString(" ")
				lineLen++
			}
			// Truncate very long words
			if wordLen > width-lineLen {
				word = truncate(word, max(4, width-lineLen))
				wordLen = ansi.StringWidth(word)
			}
			result.WriteString(word)
			lineLen += wordLen
		}
	}

	return result.String()
}
