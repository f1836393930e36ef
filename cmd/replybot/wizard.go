package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"replybot/internal/config"

	"github.com/spf13/cobra"
)

func wizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Interactive setup of platform, token, channels, mode and providers",
		Long:  "Asks for the values replybot needs and writes them to the path used by --config or the default.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.ExpandPath(resolveConfigPath())
			cfg := wizardSeed(cfgPath)
			if err := runWizard(os.Stdin, os.Stdout, cfg); err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			fmt.Printf("\nConfig saved to %s\n", cfgPath)
			fmt.Println("Next: 'replybot check', then 'replybot run --dry-run'.")
			return nil
		},
	}
}

// wizardSeed returns the starting values for the wizard. The file is read
// without env expansion so saved secrets stay as ${VAR} references.
func wizardSeed(path string) *config.Config {
	cfg, err := config.ReadFile(path)
	if err != nil {
		return config.Defaults()
	}
	return cfg
}

// runWizard fills cfg from answers read from in. Empty answers keep the
// shown default.
func runWizard(in io.Reader, out io.Writer, cfg *config.Config) error {
	reader := bufio.NewReader(in)
	ask := func(question, def string) (string, error) {
		if def != "" {
			fmt.Fprintf(out, "%s [%s]: ", question, def)
		} else {
			fmt.Fprintf(out, "%s: ", question)
		}
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return def, nil
			}
			return "", err
		}
		if s := strings.TrimSpace(line); s != "" {
			return s, nil
		}
		return def, nil
	}

	fmt.Fprintln(out, "\n--- Step 1: Chat platform ---")
	platform, err := ask("Platform (discord/slack)", cfg.Chat.Platform)
	if err != nil {
		return err
	}
	cfg.Chat.Platform = strings.ToLower(platform)

	tokenDef := cfg.Chat.Token
	if tokenDef == "" {
		tokenDef = "${DC_TOKEN}"
	}
	token, err := ask("Token (paste it or reference an env var)", tokenDef)
	if err != nil {
		return err
	}
	cfg.Chat.Token = token

	channels, err := ask("Channel ids (comma-separated)", strings.Join(cfg.Chat.Channels, ","))
	if err != nil {
		return err
	}
	cfg.Chat.Channels = splitComma(channels)

	fmt.Fprintln(out, "\n--- Step 2: Mode ---")
	fmt.Fprintln(out, "  ai   - generate replies with an AI provider")
	fmt.Fprintln(out, "  echo - repost a random recent message")
	mode, err := ask("Mode", cfg.General.Mode)
	if err != nil {
		return err
	}
	cfg.General.Mode = strings.ToLower(mode)

	if cfg.General.Mode == config.ModeAI {
		selfID, err := ask("Your own user id (replies wait while you spoke last)", cfg.Chat.SelfID)
		if err != nil {
			return err
		}
		cfg.Chat.SelfID = selfID

		fmt.Fprintln(out, "\n--- Step 3: AI providers ---")
		names := make([]string, 0, len(cfg.Providers))
		for name := range cfg.Providers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := cfg.Providers[name]
			fmt.Fprintf(out, "  %-10s %-8s %s", name, p.Kind, p.Model)
			if p.APIKeyEnv != "" {
				fmt.Fprintf(out, " (key from %s)", p.APIKeyEnv)
			}
			fmt.Fprintln(out)
		}
		active, err := ask("Providers to use, in order", strings.Join(cfg.General.ActiveProviders, ","))
		if err != nil {
			return err
		}
		var chosen []string
		for _, name := range splitComma(strings.ToLower(active)) {
			if _, ok := cfg.Providers[name]; !ok {
				fmt.Fprintf(out, "  skipping unknown provider %q\n", name)
				continue
			}
			if !slices.Contains(chosen, name) {
				chosen = append(chosen, name)
			}
		}
		cfg.General.ActiveProviders = chosen

		lang, err := ask("Reply language", cfg.Persona.Language)
		if err != nil {
			return err
		}
		cfg.Persona.Language = lang
	}
	return nil
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
