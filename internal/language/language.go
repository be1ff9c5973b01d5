package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// words covers spellings x/text does not parse.
var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"mandarin":   "zh",
	"cantonese":  "cn",
	"russian":    "ru",
	"hindi":      "hi",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
}

// ToISO2 folds a code, tag, or word to its ISO 639-1 base. Unrecognized
// two-letter input passes through lowercased; anything else yields "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if mapped, ok := words[code]; ok {
		return mapped
	}
	// TMDB uses "cn" for Cantonese, which is not a valid ISO code.
	if code == "cn" {
		return code
	}
	if tag, err := xlang.Parse(code); err == nil {
		base, confidence := tag.Base()
		if confidence != xlang.No {
			if s := base.String(); len(s) == 2 {
				return s
			}
		}
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// Equal reports whether a and b name the same base language.
func Equal(a, b string) bool {
	na, nb := ToISO2(a), ToISO2(b)
	return na != "" && na == nb
}

// DisplayName returns the English name for code, or the uppercased input
// when it is not recognized.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if iso := ToISO2(trimmed); iso != "" {
		if tag, err := xlang.Parse(iso); err == nil {
			if name := display.English.Languages().Name(tag); name != "" {
				return name
			}
		}
	}
	return strings.ToUpper(trimmed)
}
