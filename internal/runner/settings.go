package runner

import (
	"time"

	"replybot/internal/config"
	"replybot/internal/reply"
)

// FromConfig fills the timing, persona and mode fields of a runner Config.
// The caller still supplies Chat, Provider, Journal and RunID.
func FromConfig(c *config.Config) Config {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return Config{
		Mode:                 c.General.Mode,
		Platform:             c.Chat.Platform,
		Channels:             append([]string(nil), c.Chat.Channels...),
		HistoryLimit:         c.Chat.HistoryLimit,
		MaxLoop:              c.General.MaxLoop,
		MinSleep:             sec(c.General.MinSleepSeconds),
		MaxSleep:             sec(c.General.MaxSleepSeconds),
		FailureSleep:         sec(c.General.FailureSleepSeconds),
		ProviderFailureSleep: sec(c.General.ProviderFailureSleepSeconds),
		WaitSleep:            sec(c.Chat.WaitSeconds),
		Prompt: reply.PromptOptions{
			SelfID:        c.Chat.SelfID,
			WaitForOthers: c.Chat.WaitForOthers,
			Language:      c.Persona.Language,
			Demand:        c.Persona.Demand,
			ContextSize:   c.Persona.ContextSize,
		},
		MaxReplyChars:   c.Persona.MaxReplyChars,
		FallbackContent: c.Echo.FallbackContent,
	}
}
