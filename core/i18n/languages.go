package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

const DefaultLanguage = "en"

type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
}

var (
	supported = []Language{
		{Code: "en", Name: "English", NativeName: "English"},
		{Code: "hi", Name: "Hindi", NativeName: "हिंदी"},
		{Code: "mr", Name: "Marathi", NativeName: "मराठी"},
	}

	// matcher tags are in the same order as supported
	matcher = language.NewMatcher([]language.Tag{
		language.English,
		language.Hindi,
		language.Marathi,
	})

	rtlCodes = map[string]bool{"ar": true, "ur": true, "fa": true}
)

// Supported returns a copy of the supported languages, default first.
func Supported() []Language {
	langs := make([]Language, len(supported))
	copy(langs, supported)
	return langs
}

func IsSupported(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Lookup returns the metadata of a supported language.
func Lookup(code string) (Language, bool) {
	for _, lang := range supported {
		if lang.Code == code {
			return lang, true
		}
	}
	return Language{}, false
}

// Normalize maps unsupported codes to DefaultLanguage.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if IsSupported(code) {
		return code
	}
	return DefaultLanguage
}

// Dir is the text direction for code: "rtl" or "ltr".
func Dir(code string) string {
	if rtlCodes[code] {
		return "rtl"
	}
	return "ltr"
}

// Negotiate picks the first supported language from environment preferences.
// Each pref may be an Accept-Language header ("mr-IN,hi;q=0.8") or a POSIX locale ("hi_IN.UTF-8").
func Negotiate(prefs ...string) (string, bool) {
	var tags []language.Tag
	for _, pref := range prefs {
		tags = append(tags, parsePref(pref)...)
	}
	if len(tags) == 0 {
		return "", false
	}

	_, idx, conf := matcher.Match(tags...)
	if conf < language.High {
		return "", false
	}
	return supported[idx].Code, true
}

func parsePref(pref string) []language.Tag {
	pref = strings.TrimSpace(pref)
	if pref == "" || pref == "C" || pref == "POSIX" {
		return nil
	}

	// POSIX locale: lang_REGION.codeset@modifier
	if !strings.ContainsAny(pref, ",;") {
		if i := strings.IndexAny(pref, ".@"); i >= 0 {
			pref = pref[:i]
		}
		pref = strings.ReplaceAll(pref, "_", "-")
	}

	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil {
		return nil
	}
	return tags
}
