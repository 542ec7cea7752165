package filename

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxStemRunes bounds the name before the extension.
	MaxStemRunes = 240
	// MaxStemBytes bounds the UTF-8 length of the stem so ".pdf" and a " (N)"
	// collision suffix still fit the 255 byte NAME_MAX of common filesystems.
	MaxStemBytes = 240
	// Extension is appended to every generated name.
	Extension = ".pdf"
	// UnknownAuthor is the sentinel the model uses when no author is printed.
	UnknownAuthor = "Unknown"
)

// invalidReplacer drops characters rejected by common filesystems.
var invalidReplacer = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

// Build composes "Title - Author.pdf", or "Title.pdf" when the author is
// missing or Unknown. The result never contains <>:"/\|?* and its stem is at
// most MaxStemRunes runes.
func Build(title, author string) string {
	name := title
	if a := strings.TrimSpace(author); a != "" && a != UnknownAuthor {
		name = title + " - " + author
	}
	return Sanitize(name) + Extension
}

// Sanitize removes unsafe characters, folds whitespace runs into single
// spaces, and truncates to MaxStemRunes runes and MaxStemBytes bytes without
// splitting a rune. It returns the stem only.
func Sanitize(name string) string {
	name = norm.NFC.String(name)
	name = invalidReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")

	runes := []rune(name)
	if len(runes) > MaxStemRunes {
		name = strings.TrimSpace(string(runes[:MaxStemRunes]))
	}
	if len(name) > MaxStemBytes {
		cut := MaxStemBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = strings.TrimSpace(name[:cut])
	}
	return name
}
