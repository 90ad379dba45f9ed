package domain

import (
	"strings"
	"unicode"
)

// TitleFromFilename derives a display title from an image file name:
// everything after the first dot is dropped, dashes and underscores become
// spaces and every word starts upper case ("my-cool-meme.png" -> "My Cool Meme").
func TitleFromFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}

	var b strings.Builder
	prevWord := false
	for _, r := range name {
		if r == '-' || r == '_' {
			r = ' '
		}
		word := isWordRune(r)
		if word && !prevWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevWord = word
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
