package language

import (
	"strings"

	"golang.org/x/text/language"
)

// Plex reports stream languages with ISO 639-2 bibliographic codes that the
// BCP 47 parser does not accept. Map them to their ISO 639-1 equivalents.
var bibliographic = map[string]string{
	"alb": "sq",
	"arm": "hy",
	"baq": "eu",
	"bur": "my",
	"chi": "zh",
	"cze": "cs",
	"dut": "nl",
	"fre": "fr",
	"geo": "ka",
	"ger": "de",
	"gre": "el",
	"ice": "is",
	"mac": "mk",
	"may": "ms",
	"per": "fa",
	"rum": "ro",
	"slo": "sk",
	"wel": "cy",
}

// Normalize converts a language identifier (ISO 639-1, 639-2/B, 639-3 or a
// BCP 47 tag) to the two-letter code used by the OpenSubtitles API and by
// this tool's requested-language sets. Unknown codes are truncated to two
// letters rather than dropped, so unexpected Plex metadata still compares
// consistently against itself.
func Normalize(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "" {
		return ""
	}
	if mapped, ok := bibliographic[c]; ok {
		return mapped
	}
	if tag, err := language.Parse(c); err == nil {
		if base, conf := tag.Base(); conf >= language.High {
			return base.String()
		}
	}
	if len(c) > 2 {
		return c[:2]
	}
	return c
}

// NormalizeAll normalizes every code in the slice, dropping empties and
// duplicates while preserving first-seen order.
func NormalizeAll(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		n := Normalize(code)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Valid reports whether the code normalizes to a plausible ISO 639-1 code.
func Valid(code string) bool {
	return len(Normalize(code)) == 2
}
