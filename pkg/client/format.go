// ABOUTME: Formatting utilities for the chat UI
// ABOUTME: Timestamps, truncation and status text shared by views
package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// FormatRelativeTime formats a timestamp relative to now
// Returns strings like "just now", "5m ago", "2h ago", "3d ago"
func FormatRelativeTime(t time.Time) string {
	return formatRelative(time.Now(), t)
}

func formatRelative(now, t time.Time) string {
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	}
	if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
}

// FormatAbsoluteTime shows the clock time for today's messages and
// the date for anything older
func FormatAbsoluteTime(t time.Time) string {
	return formatAbsolute(time.Now(), t)
}

func formatAbsolute(now, t time.Time) string {
	t = t.In(now.Location())
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("15:04")
	}
	if y1 == y2 {
		return t.Format("Jan 2 15:04")
	}
	return t.Format("2006-01-02 15:04")
}

// FormatTimestamp formats t according to the configured timestamp format
func FormatTimestamp(t time.Time, format string) string {
	if t.IsZero() {
		return ""
	}
	if format == "absolute" {
		return FormatAbsoluteTime(t)
	}
	return FormatRelativeTime(t)
}

// Truncate shortens s to fit width terminal cells, adding an ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// FormatError renders an error for the status line
func FormatError(prefix string, err error) string {
	if err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}
