// Package slug derives URL-safe identifiers from free-form titles.
package slug

import (
	"regexp"
	"strings"

	gosimple "github.com/gosimple/slug"
)

// MaxLen bounds every slug Make returns.
const MaxLen = 255

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	validInput = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// cyrillic follows the national Ukrainian romanization, with Russian-only
// letters mapped to their common Latin forms.
var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g", 'д': "d", 'е': "e",
	'є': "ie", 'ж': "zh", 'з': "z", 'и': "y", 'і': "i", 'ї': "i", 'й': "i",
	'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r",
	'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "shch", 'ь': "", 'ю': "iu", 'я': "ia", '\'': "", 'ʼ': "",
	'ё': "e", 'ы': "y", 'э': "e", 'ъ': "",
}

// Make returns the slug for title, at most MaxLen bytes long. It is
// deterministic: the same title always yields the same slug.
func Make(title string) string {
	s := gosimple.SubstituteRune(strings.ToLower(title), cyrillic)
	s = gosimple.Make(s)
	s = strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
	if len(s) > MaxLen {
		s = strings.TrimRight(s[:MaxLen], "-")
	}
	return s
}

// Valid reports whether s is acceptable as a client supplied slug.
func Valid(s string) bool {
	return validInput.MatchString(s)
}
