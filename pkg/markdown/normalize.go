// Package markdown prepares ClickUp chat text for a Markdown renderer.
//
// ClickUp stores messages as loosely escaped Markdown: links come back with
// escaped underscores and padded brackets, and single newlines are meant as
// hard breaks. Normalize repairs the links and rewrites line structure so a
// CommonMark renderer shows the text the way ClickUp does, while leaving
// fenced code blocks untouched.
package markdown

import (
	"regexp"
	"strings"
	"unicode"
)

const nbsp = "\u00a0"

// RE2's \s is ASCII only, so Unicode spaces are listed explicitly
var linkPattern = regexp.MustCompile(`\[[\s\p{Zs}]*([^\]]*?)[\s\p{Zs}]*\]\(([^)]+)\)`)

// Normalize repairs links, then separates prose lines with blank lines and
// keeps their indentation as non-breaking spaces. Lines inside ``` or ~~~
// fences are emitted unchanged.
func Normalize(content string) string {
	content = RepairLinks(content)

	lines := splitLines(content)
	var out strings.Builder
	out.Grow(len(content) * 2)

	var fence fenceState
	for i, line := range lines {
		closeAfter := fence.observe(line)

		if fence.open {
			out.WriteString(line)
		} else {
			out.WriteString(normalizeLeadingWhitespace(line))
		}

		if i < len(lines)-1 {
			if fence.open {
				out.WriteString("\n")
			} else {
				out.WriteString("\n\n")
			}
		}

		if closeAfter {
			fence = fenceState{}
		}
	}

	return out.String()
}

// RepairLinks rewrites every [text](url) so the display text is clean:
// escape backslashes are dropped, whitespace is collapsed, and a display
// text that is itself a URL is cut to its first token.
func RepairLinks(content string) string {
	return linkPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := linkPattern.FindStringSubmatch(match)
		display := strings.Join(strings.Fields(stripEscapes(groups[1])), " ")
		if strings.Contains(display, "http") {
			display = strings.Fields(display)[0]
		}
		return "[" + display + "](" + stripEscapes(groups[2]) + ")"
	})
}

func stripEscapes(s string) string {
	s = strings.ReplaceAll(s, `\_`, "_")
	return strings.ReplaceAll(s, `\`, "")
}

type fenceState struct {
	open   bool
	marker rune
	length int
}

// observe updates the state for a line and reports whether the line closes
// the current fence. A closing line still counts as inside the fence.
func (f *fenceState) observe(line string) bool {
	marker, length, ok := fenceMarker(strings.TrimLeftFunc(line, unicode.IsSpace))
	if !ok {
		return false
	}
	if !f.open {
		*f = fenceState{open: true, marker: marker, length: length}
		return false
	}
	return marker == f.marker && length >= f.length
}

// fenceMarker reports a run of at least three backticks or tildes at the
// start of line
func fenceMarker(line string) (rune, int, bool) {
	if line == "" {
		return 0, 0, false
	}
	first := rune(line[0])
	if first != '`' && first != '~' {
		return 0, 0, false
	}

	count := 0
	for _, r := range line {
		if r != first {
			break
		}
		count++
	}
	return first, count, count >= 3
}

func normalizeLeadingWhitespace(line string) string {
	var out strings.Builder
	out.Grow(len(line))

	for i, r := range line {
		switch r {
		case ' ':
			out.WriteString(nbsp)
		case '\t':
			out.WriteString(strings.Repeat(nbsp, 4))
		default:
			out.WriteString(line[i:])
			return out.String()
		}
	}
	return out.String()
}

// splitLines splits on \n and drops the \r of a \r\n pair. A final line
// ending does not start another line and empty input has no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	terminated := strings.HasSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i < len(lines)-1 || terminated {
			lines[i] = strings.TrimSuffix(line, "\r")
		}
	}
	return lines
}
