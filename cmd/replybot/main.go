package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"replybot/internal/channel"
	"replybot/internal/config"
	"replybot/internal/domain"
	"replybot/internal/journal"
	"replybot/internal/metrics"
	"replybot/internal/provider"
	"replybot/internal/runner"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // --config
	envFile    string // --env-file
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "replybot",
		Short: "Keep a chat channel talking",
		Long: `replybot polls a Discord or Slack channel, picks or generates a short
reply (echoing recent history, or asking an AI provider with fallback) and
posts it, then sleeps and repeats.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file, .json or .yaml (default: ~/.replybot/config.json)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before environment overrides")

	root.AddCommand(runCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(initCmd())
	root.AddCommand(wizardCmd())
	root.AddCommand(serviceCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig loads and validates the config, then rebuilds the global
// logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	l, err := newLogger(os.Stderr, cfg.General.LogLevel, cfg.General.LogFormat, stderrIsTerminal())
	if err != nil {
		return nil, err
	}
	logger = l
	return cfg, nil
}

func runCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the reply loop",
		Long:  "Runs until general.maxLoop replies were posted (0 = forever) or Ctrl+C.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log replies instead of posting them")
	return cmd
}

func runLoop(dryRun bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log := logger.With("run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chat, err := channel.New(cfg, log)
	if err != nil {
		return err
	}

	var prov domain.Provider
	if cfg.General.Mode == config.ModeAI {
		fp, err := provider.NewFactory(cfg, log).Failover()
		if err != nil {
			return err
		}
		log.Info("providers ready", "chain", fp.Name(), "shuffle", cfg.General.ShuffleProviders)
		prov = fp
	}

	var jrnl domain.Journal
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.DBPath, log)
		if err != nil {
			return err
		}
		defer j.Close()
		jrnl = j
	}

	if cfg.Metrics.Enabled {
		srv := startMetricsServer(cfg.Metrics, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	rc := runner.FromConfig(cfg)
	rc.Chat = chat
	rc.Provider = prov
	rc.Journal = jrnl
	rc.DryRun = dryRun
	rc.RunID = runID
	rc.Logger = log

	r, err := runner.New(rc)
	if err != nil {
		return err
	}
	if err := r.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("interrupted, exiting", "sent", r.Sent())
			return nil
		}
		return err
	}
	return nil
}

func startMetricsServer(mc config.MetricsConfig, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(mc.Endpoint, metrics.Collector.Handler())
	srv := &http.Server{
		Addr:              mc.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics listening", "addr", mc.Addr, "endpoint", mc.Endpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "err", err)
		}
	}()
	return srv
}

func historyCmd() *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently posted replies from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(resolveConfigPath())
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Journal.DBPath); errors.Is(err, os.ErrNotExist) {
				fmt.Printf("No journal at %s (enable journal.enabled to record replies).\n", cfg.Journal.DBPath)
				return nil
			}
			j, err := journal.Open(cfg.Journal.DBPath, logger)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				data, _ := json.MarshalIndent(entries, "", "  ")
				fmt.Println(string(data))
				return nil
			}
			if len(entries) == 0 {
				fmt.Println("No replies recorded yet.")
				return nil
			}
			for _, e := range entries {
				via := e.Provider
				if via == "" {
					via = e.Mode
				}
				fmt.Printf("%s  %-8s %-20s %-10s %s\n",
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Platform, e.ChannelID, via, e.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.ExpandPath(resolveConfigPath())
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
			}
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return err
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			fmt.Println("Set DC_TOKEN, CHANNEL_ID and YOUR_ID (or edit the file), then run 'replybot check'.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long:  "Show effective configuration values after file, .env and environment are merged.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. chat.channels or providers.gpt.model)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(config.Sanitize(cfg), args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("replybot", version)
		},
	}
}
