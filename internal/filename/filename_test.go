package filename_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/zsafwan/ocr-rename/internal/filename"
)

func TestBuild(t *testing.T) {
	cases := []struct {
		title  string
		author string
		want   string
	}{
		{"Title", "Unknown", "Title.pdf"},
		{"Title", "Author", "Title - Author.pdf"},
		{"Title", "", "Title.pdf"},
		{"Title", "   ", "Title.pdf"},
		{"What? Why: How*", "A/B", "What Why How - AB.pdf"},
		{"  spaced \t  out\n title ", "Unknown", "spaced out title.pdf"},
		{"", "", ".pdf"},
		{"مقدمة ابن خلدون", "ابن خلدون", "مقدمة ابن خلدون - ابن خلدون.pdf"},
	}
	for _, tc := range cases {
		if got := filename.Build(tc.title, tc.author); got != tc.want {
			t.Fatalf("unexpected name for (%q, %q): got %q want %q", tc.title, tc.author, got, tc.want)
		}
	}
}

func TestBuildNeverEmitsInvalidCharacters(t *testing.T) {
	inputs := []string{
		`<a>b:c"d/e\f|g?h*`,
		strings.Repeat(`x<>:"/\|?*`, 60),
		"ctrl\x00\x07chars",
	}
	for _, in := range inputs {
		got := filename.Build(in, in)
		if strings.ContainsAny(got, `<>:"/\|?*`) {
			t.Fatalf("invalid character survived in %q", got)
		}
		if strings.ContainsRune(got, 0) || strings.ContainsRune(got, 7) {
			t.Fatalf("control character survived in %q", got)
		}
	}
}

func TestBuildTruncatesLongNames(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := filename.Build(long, "Author")
	if n := utf8.RuneCountInString(got); n > filename.MaxStemRunes+len(filename.Extension) {
		t.Fatalf("name too long: %d runes", n)
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("missing extension: %q", got)
	}

	arabic := strings.Repeat("ب", 300)
	got = filename.Build(arabic, "")
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	// two bytes per letter, so the byte cap applies first
	if n := utf8.RuneCountInString(got); n != filename.MaxStemBytes/2+len(filename.Extension) {
		t.Fatalf("unexpected rune count: got %d want %d", n, filename.MaxStemBytes/2+len(filename.Extension))
	}

	got = filename.Build(strings.Repeat("z", 300), "")
	if n := utf8.RuneCountInString(got); n != filename.MaxStemRunes+len(filename.Extension) {
		t.Fatalf("unexpected rune count: got %d want %d", n, filename.MaxStemRunes+len(filename.Extension))
	}
}

func TestBuildCapsMultibyteNames(t *testing.T) {
	got := filename.Build(strings.Repeat("كتاب ", 60), "Unknown")
	stem := strings.TrimSuffix(got, filename.Extension)
	if len(stem) > filename.MaxStemBytes {
		t.Fatalf("unexpected stem length: got %d bytes want <= %d", len(stem), filename.MaxStemBytes)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if strings.HasSuffix(stem, " ") || !strings.HasPrefix(stem, "كتاب كتاب") {
		t.Fatalf("unexpected stem: %q", stem)
	}
}

func TestSanitizeNormalizesComposition(t *testing.T) {
	decomposed := "Cafe\u0301"
	if got := filename.Sanitize(decomposed); got != "Caf\u00e9" {
		t.Fatalf("unexpected normalization: got %q want %q", got, "Caf\u00e9")
	}
}
