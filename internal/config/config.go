package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeAI   = "ai"
	ModeEcho = "echo"

	PlatformDiscord = "discord"
	PlatformSlack   = "slack"
)

// Config is the root configuration for replybot.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Chat      ChatConfig                `json:"chat"`
	Persona   PersonaConfig             `json:"persona"`
	Echo      EchoConfig                `json:"echo"`
	Providers map[string]ProviderConfig `json:"providers"`
	Journal   JournalConfig             `json:"journal"`
	Metrics   MetricsConfig             `json:"metrics"`
}

type GeneralConfig struct {
	Mode                        string   `json:"mode"` // "ai" | "echo"
	LogLevel                    string   `json:"logLevel"`
	LogFormat                   string   `json:"logFormat"` // "auto" | "text" | "json"
	ActiveProviders             []string `json:"activeProviders"`
	ShuffleProviders            bool     `json:"shuffleProviders"`
	MaxLoop                     int      `json:"maxLoop"` // successful sends before exit; 0 = forever
	MinSleepSeconds             int      `json:"minSleepSeconds"`
	MaxSleepSeconds             int      `json:"maxSleepSeconds"`
	FailureSleepSeconds         int      `json:"failureSleepSeconds"`
	ProviderFailureSleepSeconds int      `json:"providerFailureSleepSeconds"`
	HTTPTimeoutSeconds          int      `json:"httpTimeoutSeconds"`
	HTTPRetries                 int      `json:"httpRetries"`
}

type ChatConfig struct {
	Platform      string   `json:"platform"` // "discord" | "slack"
	Token         string   `json:"token"`
	Channels      []string `json:"channels"`
	SelfID        string   `json:"selfId,omitempty"`
	HistoryLimit  int      `json:"historyLimit"`
	WaitForOthers bool     `json:"waitForOthers"`
	WaitSeconds   int      `json:"waitSeconds"`
	APIBase       string   `json:"apiBase,omitempty"` // override the platform REST base URL
}

type PersonaConfig struct {
	Language      string `json:"language"`
	Demand        string `json:"demand,omitempty"`
	ContextSize   int    `json:"contextSize"`
	MaxReplyChars int    `json:"maxReplyChars"`
}

type EchoConfig struct {
	FallbackContent string `json:"fallbackContent,omitempty"`
}

type ProviderConfig struct {
	Kind        string  `json:"kind"` // "openai" | "claude" | "ollama"
	APIBase     string  `json:"apiBase,omitempty"`
	APIKey      string  `json:"apiKey,omitempty"`
	APIKeyEnv   string  `json:"apiKeyEnv,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

// ResolvedAPIKey returns APIKey, or the value of APIKeyEnv when APIKey is empty.
func (pc ProviderConfig) ResolvedAPIKey() string {
	if pc.APIKey != "" {
		return pc.APIKey
	}
	if pc.APIKeyEnv != "" {
		return strings.TrimSpace(os.Getenv(pc.APIKeyEnv))
	}
	return ""
}

type JournalConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Endpoint string `json:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.replybot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".replybot"
	}
	return filepath.Join(home, ".replybot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the config file at path (when it exists), applies environment
// overrides and validates the result. A missing file yields defaults plus env.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// MaxHistoryLimit is the largest page a platform's history call returns.
func MaxHistoryLimit(platform string) int {
	if platform == PlatformSlack {
		return 1000
	}
	return 100
}

// Read is Load without validation, for commands that inspect a
// configuration that may still be incomplete.
func Read(path string) (*Config, error) {
	cfg, err := readFile(path, true)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.Journal.DBPath = ExpandPath(cfg.Journal.DBPath)
	return cfg, nil
}

// ReadFile returns defaults overlaid with the file at path, leaving ${VAR}
// references unexpanded and ignoring environment overrides. Use it when the
// result is written back to disk.
func ReadFile(path string) (*Config, error) {
	return readFile(path, false)
}

func readFile(path string, expand bool) (*Config, error) {
	cfg := Defaults()

	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg, expand); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	default:
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	return cfg, nil
}

// decode parses JSON or YAML (by extension) on top of cfg. YAML is routed
// through JSON so both formats share the same camelCase keys. Provider
// entries are merged field by field over the ones already in cfg.
func decode(path string, data []byte, cfg *Config, expand bool) error {
	if expand {
		data = []byte(ExpandEnvVars(string(data)))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
		converted, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("cannot convert config file %s: %w", path, err)
		}
		data = converted
	}

	base := make(map[string]ProviderConfig, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		base[name] = pc
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	// json zeroes map values it decodes into; redo providers on their bases.
	var partial struct {
		Providers map[string]json.RawMessage `json:"providers"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	for name, raw := range partial.Providers {
		pc, ok := base[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &pc); err != nil {
			return fmt.Errorf("cannot parse provider %s in %s: %w", name, path, err)
		}
		cfg.Providers[name] = pc
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		hasDefault := len(groups) >= 3 && groups[2] != ""

		val, exists := os.LookupEnv(groups[1])
		if !exists || val == "" {
			if hasDefault {
				return groups[2]
			}
			return match
		}
		return val
	})
}

// Save writes cfg as indented JSON, or YAML when path ends in .yaml/.yml.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("cannot convert config: %w", err)
		}
		if data, err = yaml.Marshal(raw); err != nil {
			return fmt.Errorf("cannot marshal config: %w", err)
		}
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has usable values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.Mode {
	case ModeAI, ModeEcho:
	default:
		errs = append(errs, "general.mode must be one of: ai, echo")
	}
	switch cfg.General.LogFormat {
	case "", "auto", "text", "json":
	default:
		errs = append(errs, "general.logFormat must be one of: auto, text, json")
	}
	if cfg.General.MaxLoop < 0 {
		errs = append(errs, "general.maxLoop must be >= 0")
	}
	if cfg.General.MinSleepSeconds < 0 {
		errs = append(errs, "general.minSleepSeconds must be >= 0")
	}
	if cfg.General.MaxSleepSeconds < cfg.General.MinSleepSeconds {
		errs = append(errs, "general.maxSleepSeconds must not be less than general.minSleepSeconds")
	}
	if cfg.General.FailureSleepSeconds < 0 || cfg.General.ProviderFailureSleepSeconds < 0 {
		errs = append(errs, "failure sleep durations must be >= 0")
	}
	if cfg.General.HTTPRetries < 0 || cfg.General.HTTPRetries > 5 {
		errs = append(errs, "general.httpRetries must be between 0 and 5")
	}

	switch cfg.Chat.Platform {
	case PlatformDiscord, PlatformSlack:
	default:
		errs = append(errs, "chat.platform must be one of: discord, slack")
	}
	if strings.TrimSpace(cfg.Chat.Token) == "" {
		errs = append(errs, "chat.token is required (DC_TOKEN)")
	}
	if len(cfg.Chat.Channels) == 0 {
		errs = append(errs, "chat.channels needs at least one channel id (CHANNEL_ID)")
	}
	for i, ch := range cfg.Chat.Channels {
		if strings.TrimSpace(ch) == "" {
			errs = append(errs, fmt.Sprintf("chat.channels[%d] is empty", i))
		}
	}
	if limit := MaxHistoryLimit(cfg.Chat.Platform); cfg.Chat.HistoryLimit < 1 || cfg.Chat.HistoryLimit > limit {
		errs = append(errs, fmt.Sprintf("chat.historyLimit must be between 1 and %d", limit))
	}
	if cfg.Chat.WaitSeconds < 0 {
		errs = append(errs, "chat.waitSeconds must be >= 0")
	}

	if cfg.General.Mode == ModeAI {
		if strings.TrimSpace(cfg.Chat.SelfID) == "" {
			errs = append(errs, "chat.selfId is required in ai mode (YOUR_ID)")
		}
		if len(cfg.General.ActiveProviders) == 0 {
			errs = append(errs, "general.activeProviders must name at least one provider in ai mode")
		}
		if cfg.Persona.ContextSize < 1 {
			errs = append(errs, "persona.contextSize must be >= 1")
		}
	}
	if cfg.Persona.MaxReplyChars < 0 {
		errs = append(errs, "persona.maxReplyChars must be >= 0")
	}

	for name, pc := range cfg.Providers {
		switch pc.Kind {
		case "openai", "claude", "ollama":
		default:
			errs = append(errs, fmt.Sprintf("providers.%s.kind must be one of: openai, claude, ollama", name))
		}
		if pc.Kind == "openai" && pc.APIBase == "" {
			errs = append(errs, fmt.Sprintf("providers.%s: apiBase is required for openai-compatible providers", name))
		}
	}

	if cfg.Journal.Enabled && cfg.Journal.DBPath == "" {
		errs = append(errs, "journal.dbPath is required when the journal is enabled")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
