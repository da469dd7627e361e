// Package sanitize turns a raw model response into text ready for JSON parsing.
//
// Grammar: the response is scanned for fenced blocks (a run of three
// backticks, an optional label ending at the first non-label byte, the content, and the
// next fence or end of input). The first block labeled json wins, then the
// first block of any kind, then the whole response. The chosen segment is
// trimmed. Extracted content never contains a fence, so Sanitize is idempotent.
package sanitize

import "strings"

const fence = "```"

type block struct {
	label   string
	content string
}

// Sanitize returns the JSON-bearing segment of raw.
func Sanitize(raw string) string {
	blocks := scan(raw)
	for _, b := range blocks {
		if strings.EqualFold(b.label, "json") {
			return strings.TrimSpace(b.content)
		}
	}
	if len(blocks) > 0 {
		return strings.TrimSpace(blocks[0].content)
	}
	return strings.TrimSpace(raw)
}

func scan(s string) []block {
	var out []block
	pos := 0
	for {
		i := strings.Index(s[pos:], fence)
		if i < 0 {
			return out
		}
		start := pos + i + len(fence)
		label, bodyStart := readLabel(s, start)

		j := strings.Index(s[bodyStart:], fence)
		if j < 0 {
			// unterminated block runs to end of input
			return append(out, block{label: label, content: s[bodyStart:]})
		}
		out = append(out, block{label: label, content: s[bodyStart : bodyStart+j]})
		pos = bodyStart + j + len(fence)
	}
}

// readLabel reads an info string starting at i. The label ends at the first
// byte that cannot belong to it, so "json[" yields the label json. Text
// directly followed by a closing fence is content, not a label.
func readLabel(s string, i int) (string, int) {
	end := i
	for end < len(s) && isLabelByte(s[end]) {
		end++
	}
	if end == i {
		return "", i
	}
	if strings.HasPrefix(s[end:], fence) {
		return "", i
	}
	return s[i:end], end
}

func isLabelByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-' || c == '+' || c == '.':
		return true
	}
	return false
}
