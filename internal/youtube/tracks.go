package youtube

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// selectTrack picks the caption track for the first satisfiable language in
// prefs. Uploaded tracks win over auto-generated ones; an exact tag match wins
// over a base-language match ("en" accepts "en-GB" only when there is no "en").
func selectTrack(tracks []captionTrack, prefs []string) (captionTrack, bool) {
	for _, pref := range prefs {
		want, err := language.Parse(pref)
		if err != nil {
			continue
		}
		for _, exact := range []bool{true, false} {
			for _, asr := range []bool{false, true} {
				for _, t := range tracks {
					if (t.Kind == "asr") != asr {
						continue
					}
					if languageMatches(want, t.LanguageCode, exact) {
						return t, true
					}
				}
			}
		}
	}
	return captionTrack{}, false
}

func languageMatches(want language.Tag, code string, exact bool) bool {
	have, err := language.Parse(code)
	if err != nil {
		return false
	}
	if exact {
		return have.String() == want.String()
	}
	wantBase, _ := want.Base()
	haveBase, _ := have.Base()
	return wantBase == haveBase
}

// trackLanguages lists the distinct language codes offered, for error reasons.
func trackLanguages(tracks []captionTrack) []string {
	seen := make(map[string]bool, len(tracks))
	var langs []string
	for _, t := range tracks {
		code := t.LanguageCode
		if t.Kind == "asr" {
			code += " (auto-generated)"
		}
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		langs = append(langs, code)
	}
	sort.Strings(langs)
	if len(langs) == 0 {
		return []string{"none"}
	}
	return langs
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
