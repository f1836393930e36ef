// Package reply decides what the loop says: it filters channel history down
// to usable lines, builds the completion prompt and cleans up what comes back.
package reply

import (
	"math/rand/v2"
	"strings"

	"replybot/internal/domain"
)

// blocked are substrings that disqualify a message: mention and emoji
// markup, links and questions.
var blocked = []string{"<", "@", "http", "?", "？"}

// Eligible reports whether content may be echoed or used as prompt context.
func Eligible(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	for _, b := range blocked {
		if strings.Contains(content, b) {
			return false
		}
	}
	return true
}

// Candidates returns the contents of eligible messages in history order.
func Candidates(history []domain.ChannelMessage) []string {
	var out []string
	for _, m := range history {
		if Eligible(m.Content) {
			out = append(out, m.Content)
		}
	}
	return out
}

// PickEcho returns a uniformly random eligible message. rng may be nil.
func PickEcho(history []domain.ChannelMessage, rng *rand.Rand) (string, bool) {
	cands := Candidates(history)
	if len(cands) == 0 {
		return "", false
	}
	if rng == nil {
		return cands[rand.IntN(len(cands))], true
	}
	return cands[rng.IntN(len(cands))], true
}
