package detect

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/codeGROOVE-dev/sociolink/pkg/patterns"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

// contextWindow is the number of characters inspected on each side of a mention.
const contextWindow = 50

// ScanURL matches a single website value against the platform URL patterns.
// The first match in pattern-library order wins.
func ScanURL(value string) (Candidate, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Candidate{}, false
	}
	for _, set := range patterns.URLs {
		for _, re := range set.Patterns {
			m := re.FindStringSubmatch(value)
			if len(m) < 2 || !usable(set, m[1]) {
				continue
			}
			return Candidate{
				Platform:   set.Platform,
				Handle:     m[1],
				Origin:     OriginURL,
				Confidence: ConfidenceURL,
			}, true
		}
	}
	return Candidate{}, false
}

// ScanNotes scans free text with Instagram as the default mention platform.
// Every @token yields a candidate, including the part after an email's '@'.
func ScanNotes(text string) []Candidate {
	return scanNotes(text, platform.Instagram, false)
}

func scanNotes(text string, fallback platform.Platform, skipEmails bool) []Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []Candidate

	// URLs anywhere in the text.
	for _, set := range patterns.URLs {
		for _, re := range set.Patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if len(m) < 2 || !usable(set, m[1]) {
					continue
				}
				out = append(out, Candidate{
					Platform:   set.Platform,
					Handle:     m[1],
					Origin:     OriginText,
					Confidence: ConfidenceURL,
				})
			}
		}
	}

	// Bare @mentions, attributed by nearby keywords.
	for _, loc := range patterns.Mention.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if skipEmails && isEmail(text, start) {
			continue
		}
		handle := strings.TrimRight(text[loc[2]:loc[3]], ".-")
		if handle == "" {
			continue
		}
		p, conf := attribute(window(text, start, end, contextWindow), fallback)
		out = append(out, Candidate{
			Platform:   p,
			Handle:     handle,
			Origin:     OriginText,
			Confidence: conf,
		})
	}
	return out
}

// MapMessaging maps a labelled IM entry to a platform by label substring.
func MapMessaging(im IM) (Candidate, bool) {
	value := strings.TrimSpace(im.Value)
	if value == "" {
		return Candidate{}, false
	}
	label := strings.ToLower(im.Label)
	for _, ml := range patterns.MessagingLabels {
		if strings.Contains(label, strings.ToLower(ml.Label)) {
			return Candidate{
				Platform:   ml.Platform,
				Handle:     value,
				Origin:     OriginMessaging,
				Confidence: ConfidenceMessaging,
			}, true
		}
	}
	return Candidate{}, false
}

func usable(set patterns.URLSet, handle string) bool {
	return handle != "" && !set.Reserved[strings.ToLower(handle)]
}

// attribute picks the platform for a mention from its lower-cased context.
func attribute(context string, fallback platform.Platform) (platform.Platform, float64) {
	for _, kw := range patterns.Keywords {
		for _, w := range kw.Words {
			if strings.Contains(context, w) {
				return kw.Platform, ConfidenceKeyword
			}
		}
	}
	return fallback, ConfidenceDefault
}

// window returns up to n characters before start and after end, lower-cased.
func window(text string, start, end, n int) string {
	lo := start
	for i := 0; i < n && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for i := 0; i < n && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return strings.ToLower(text[lo:hi])
}

// isEmail reports whether the '@' at byte offset at belongs to an email address.
func isEmail(text string, at int) bool {
	if at == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:at])
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
