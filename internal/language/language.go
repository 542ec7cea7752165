package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2/T
	alt3    string   // ISO 639-2/B where it differs ("fre" vs "fra")
	display string   // English name
	words   []string // word forms, including common native spellings
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"ar", "ara", "", "Arabic", []string{"arabic", "العربية"}},
	{"fa", "fas", "per", "Persian", []string{"persian", "farsi", "فارسی"}},
	{"ur", "urd", "", "Urdu", []string{"urdu", "اردو"}},
	{"tr", "tur", "", "Turkish", []string{"turkish", "türkçe"}},
	{"he", "heb", "", "Hebrew", []string{"hebrew"}},
	{"fr", "fra", "fre", "French", []string{"french", "français"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "español"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"el", "ell", "gre", "Greek", []string{"greek"}},
	{"la", "lat", "", "Latin", []string{"latin"}},
	{"ms", "msa", "may", "Malay", []string{"malay"}},
	{"id", "ind", "", "Indonesian", []string{"indonesian"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"bn", "ben", "", "Bengali", []string{"bengali"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	if e, ok := byCode2[value]; ok {
		return e
	}
	if e, ok := byCode3[value]; ok {
		return e
	}
	if e, ok := byWord[value]; ok {
		return e
	}
	// "en-US", "ar_EG"
	if i := strings.IndexAny(value, "-_"); i == 2 {
		return byCode2[value[:2]]
	}
	return nil
}

// ToISO2 converts a recognized code or word to ISO 639-1. Unknown two-letter
// codes pass through lowercased; anything else unknown yields "".
func ToISO2(value string) string {
	if e := lookup(value); e != nil {
		return e.code2
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if len(value) == 2 {
		return value
	}
	return ""
}

// Normalize returns the ISO 639-1 code for a recognized language and the
// trimmed input otherwise, so nothing the model said is lost.
func Normalize(value string) string {
	if code := ToISO2(value); code != "" {
		return code
	}
	return strings.TrimSpace(value)
}

// DisplayName returns the English name for a recognized code, "Unknown" for
// blank input and the uppercased input otherwise.
func DisplayName(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	if e := lookup(value); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(value))
}
