package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"replybot/internal/channel"
	"replybot/internal/config"
	"replybot/internal/journal"
	"replybot/internal/provider"

	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify configuration, chat token and AI providers",
		Long: `Validates the configuration, resolves the chat account behind the token
and health-checks every usable AI provider. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.ExpandPath(resolveConfigPath())
			fmt.Printf("replybot check v%s\n\n", version)

			var passed, failed, warned int
			pass := func(check, detail string) { printPass(check, detail); passed++ }
			fail := func(check, detail string) { printFail(check, detail); failed++ }
			warn := func(check, detail string) { printWarn(check, detail); warned++ }

			if _, err := os.Stat(cfgPath); err != nil {
				warn("Config file", fmt.Sprintf("not found at %s, using defaults and environment", cfgPath))
			} else {
				pass("Config file", cfgPath)
			}

			cfg, err := config.Read(cfgPath)
			if err != nil {
				fail("Config load", err.Error())
				return summarize(passed, warned, failed)
			}
			if err := config.Validate(cfg); err != nil {
				fail("Config validation", err.Error())
				return summarize(passed, warned, failed)
			}
			pass("Config validation", fmt.Sprintf("mode=%s platform=%s channels=%d", cfg.General.Mode, cfg.Chat.Platform, len(cfg.Chat.Channels)))

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			chat, err := channel.New(cfg, logger)
			if err != nil {
				fail("Chat client", err.Error())
			} else if id, err := chat.Self(ctx); err != nil {
				fail("Chat token", err.Error())
			} else if cfg.Chat.SelfID != "" && id != cfg.Chat.SelfID {
				warn("Chat token", fmt.Sprintf("token belongs to %s but selfId is %s", id, cfg.Chat.SelfID))
			} else {
				pass("Chat token", fmt.Sprintf("%s account %s", chat.Name(), id))
			}

			if cfg.General.Mode == config.ModeAI {
				providers, err := provider.NewFactory(cfg, logger).Build()
				if errors.Is(err, provider.ErrNoProviders) {
					fail("Providers", err.Error())
				}
				for _, p := range providers {
					if err := p.Healthy(ctx); err != nil {
						warn("Provider: "+p.Name(), err.Error())
					} else {
						pass("Provider: "+p.Name(), "healthy")
					}
				}
			}

			if cfg.Journal.Enabled {
				if j, err := journal.Open(cfg.Journal.DBPath, logger); err != nil {
					fail("Journal", err.Error())
				} else {
					j.Close()
					pass("Journal", cfg.Journal.DBPath)
				}
			}

			if cfg.Metrics.Enabled {
				if err := checkAddr(cfg.Metrics.Addr); err != nil {
					warn("Metrics", fmt.Sprintf("%s may be in use: %v", cfg.Metrics.Addr, err))
				} else {
					pass("Metrics", cfg.Metrics.Addr+cfg.Metrics.Endpoint)
				}
			}

			return summarize(passed, warned, failed)
		},
	}
}

func summarize(passed, warned, failed int) error {
	fmt.Printf("\nResults: %d passed, %d warnings, %d failed\n", passed, warned, failed)
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func checkAddr(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
