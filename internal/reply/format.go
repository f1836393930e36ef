package reply

import (
	"strings"
	"unicode/utf8"
)

var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"},
	{"‘", "’"},
	{"「", "」"},
	{"『", "』"},
}

var labels = []string{"reply:", "response:", "answer:", "回复：", "回复:", "回答：", "回答:"}

// FormatResponse reduces a raw completion to a single postable line. An
// empty result means the completion is unusable. maxRunes <= 0 disables
// truncation.
func FormatResponse(raw string, maxRunes int) string {
	s := firstLine(raw)
	s = stripLabel(s)
	// punctuation may sit outside the closing quote: "ok".
	for {
		prev := s
		s = stripQuotes(s)
		s = strings.TrimSpace(strings.TrimRight(s, ".。 \t"))
		if s == prev {
			break
		}
	}

	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxRunes]))
	}
	return s
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func stripLabel(s string) string {
	lower := strings.ToLower(s)
	for _, l := range labels {
		if strings.HasPrefix(lower, l) {
			return strings.TrimSpace(s[len(l):])
		}
	}
	return s
}

func stripQuotes(s string) string {
	for {
		stripped := false
		for _, q := range quotePairs {
			if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
				s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}
