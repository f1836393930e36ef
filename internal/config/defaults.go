package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			Mode:                        ModeAI,
			LogLevel:                    "info",
			LogFormat:                   "auto",
			ActiveProviders:             []string{"gpt", "deepseek"},
			ShuffleProviders:            true,
			MaxLoop:                     5,
			MinSleepSeconds:             30,
			MaxSleepSeconds:             60,
			FailureSleepSeconds:         30,
			ProviderFailureSleepSeconds: 60,
			HTTPTimeoutSeconds:          60,
			HTTPRetries:                 1,
		},
		Chat: ChatConfig{
			Platform:     PlatformDiscord,
			HistoryLimit: 100,
			WaitSeconds:  300,
		},
		Persona: PersonaConfig{
			Language:      "chinese",
			ContextSize:   10,
			MaxReplyChars: 120,
		},
		Providers: defaultProviders(),
		Journal: JournalConfig{
			Enabled: false,
			DBPath:  "~/.replybot/journal.db",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Addr:     "127.0.0.1:9464",
			Endpoint: "/metrics",
		},
	}
}

func defaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"gpt": {
			Kind:        "openai",
			APIBase:     "https://api.gpt.ge/v1",
			APIKeyEnv:   "GPT_KEY",
			Model:       "gpt-4o",
			Temperature: 1.1,
			MaxTokens:   30,
		},
		"deepseek": {
			Kind:        "openai",
			APIBase:     "https://api.deepseek.com",
			APIKeyEnv:   "DEEPSEEK_KEY",
			Model:       "deepseek-chat",
			Temperature: 1.1,
			MaxTokens:   30,
		},
		"claude": {
			Kind:        "claude",
			APIBase:     "https://api.anthropic.com/v1",
			APIKeyEnv:   "CLAUDE_KEY",
			Model:       "claude-3-5-haiku-20241022",
			Temperature: 1.0,
			MaxTokens:   60,
		},
		"ollama": {
			Kind:        "ollama",
			APIBase:     "http://localhost:11434",
			Model:       "llama3.1:8b",
			Temperature: 1.1,
			MaxTokens:   30,
		},
	}
}
