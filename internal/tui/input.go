package tui

import "unicode/utf8"

// maxInputLen bounds the code field; real codes are much shorter.
const maxInputLen = 64

// editRune processes a keystroke for inline text editing.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
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
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}
