package tui

import (
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 2000

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware), single printable characters, and
// bracketed paste (bubbletea delivers pasted text wrapped in [ ]).
// Returns the text unchanged for named keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			return appendClamped(text, key)
		}
		if strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]") && len(key) > 2 {
			return appendClamped(text, key[1:len(key)-1])
		}
		return text
	}
}

// appendClamped appends s to text, dropping runes past maxInputLen.
func appendClamped(text, s string) string {
	room := maxInputLen - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	runes := []rune(s)
	if len(runes) > room {
		runes = runes[:room]
	}
	return text + string(runes)
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}
