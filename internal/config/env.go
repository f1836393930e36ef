package config

import (
	"fmt"
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays environment variables on cfg. Variable names match
// those used by existing .env deployments.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get("BOT_MODE"); ok {
		cfg.General.Mode = strings.ToLower(v)
	}
	if v, ok := get("CHAT_PLATFORM"); ok {
		cfg.Chat.Platform = strings.ToLower(v)
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.General.LogLevel = strings.ToLower(v)
	}
	if v, ok := get("DC_TOKEN"); ok {
		cfg.Chat.Token = v
	}
	if v, ok := get("CHANNEL_ID"); ok {
		cfg.Chat.Channels = splitList(v, false)
	}
	if v, ok := get("YOUR_ID"); ok {
		cfg.Chat.SelfID = v
	}
	if v, ok := get("AI_PROVIDERS"); ok {
		cfg.General.ActiveProviders = splitList(v, true)
	}
	if v, ok := get("LANGUAGE"); ok {
		cfg.Persona.Language = strings.ToLower(v)
	}
	if v, ok := get("MY_DEMAND"); ok {
		cfg.Persona.Demand = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_LOOP", &cfg.General.MaxLoop},
		{"MIN_SLEEP", &cfg.General.MinSleepSeconds},
		{"MAX_SLEEP", &cfg.General.MaxSleepSeconds},
		{"IS_WAIT_TIME", &cfg.Chat.WaitSeconds},
		{"HISTORY_LIMIT", &cfg.Chat.HistoryLimit},
	}
	for _, it := range ints {
		v, ok := get(it.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", it.key, v)
		}
		*it.dst = n
	}

	if v, ok := get("IS_WAIT"); ok {
		b, err := parseYesNo(v)
		if err != nil {
			return fmt.Errorf("IS_WAIT: %w", err)
		}
		cfg.Chat.WaitForOthers = b
	}
	return nil
}

func splitList(s string, lower bool) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if lower {
			p = strings.ToLower(p)
		}
		out = append(out, p)
	}
	return out
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "1", "on":
		return true, nil
	case "no", "n", "false", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("%q is not yes/no", s)
}
