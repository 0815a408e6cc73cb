package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var wordForms = map[string]string{
	"arabic":     "ar",
	"english":    "en",
	"french":     "fr",
	"german":     "de",
	"spanish":    "es",
	"italian":    "it",
	"portuguese": "pt",
	"turkish":    "tr",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
}

// Normalize reduces any recognized language tag or word to its ISO 639-1 base
// code. Unrecognized input returns the empty string.
func Normalize(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if code, ok := wordForms[raw]; ok {
		return code
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

// Matches reports whether two language values refer to the same language
// after normalization. Values that cannot be normalized only match verbatim.
func Matches(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na != "" && nb != "" {
		return na == nb
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// DisplayName returns the English display name for a language value, used
// when naming subtitle tracks in muxed output. Unrecognized values pass
// through uppercased.
func DisplayName(raw string) string {
	code := Normalize(raw)
	if code == "" {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return "Unknown"
		}
		return strings.ToUpper(trimmed)
	}
	tag := language.MustParse(code)
	return display.English.Languages().Name(tag)
}
