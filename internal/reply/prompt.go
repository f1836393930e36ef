package reply

import (
	"fmt"
	"strings"

	"replybot/internal/domain"
)

// DefaultContextSize is how many history lines go into a prompt.
const DefaultContextSize = 10

// PromptOptions shape the completion prompt.
type PromptOptions struct {
	SelfID        string
	WaitForOthers bool
	Language      string
	Demand        string
	ContextSize   int
}

// BuildPrompt turns newest-first history into a completion prompt.
// canReply is false when there is nothing to answer, or when WaitForOthers
// is set and the newest message is our own.
func BuildPrompt(history []domain.ChannelMessage, opts PromptOptions) (prompt string, canReply bool) {
	if len(history) == 0 {
		return "", false
	}
	if opts.WaitForOthers && opts.SelfID != "" && history[0].AuthorID == opts.SelfID {
		return "", false
	}

	size := opts.ContextSize
	if size <= 0 {
		size = DefaultContextSize
	}

	var lines []string
	for _, m := range history {
		if len(lines) == size {
			break
		}
		if Eligible(m.Content) {
			lines = append(lines, strings.TrimSpace(m.Content))
		}
	}
	if len(lines) == 0 {
		return "", false
	}

	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = "chinese"
	}

	var sb strings.Builder
	sb.WriteString("You are a regular member of a casual group chat. Recent messages, oldest first:\n\n")
	for i := len(lines) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "- %s\n", lines[i])
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Write one short, natural chat line in %s that fits the conversation. ", lang)
	sb.WriteString("Do not ask questions. Do not mention anyone. No links, no emojis, no quotes. ")
	sb.WriteString("Output only the line itself.")
	if d := strings.TrimSpace(opts.Demand); d != "" {
		sb.WriteString("\n\nAdditional instructions: ")
		sb.WriteString(d)
	}
	return sb.String(), true
}
