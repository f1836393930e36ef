package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"replybot/internal/config"

	"github.com/spf13/cobra"
)

const (
	launchdLabel = "com.replybot.run"
	systemdUnit  = "replybot.service"
)

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage replybot as a background service (launchd/systemd)",
	}

	var dryRun bool
	install := &cobra.Command{
		Use:   "install",
		Short: "Install a user service that runs 'replybot run' at login",
		RunE: func(cmd *cobra.Command, args []string) error {
			execPath, err := os.Executable()
			if err != nil {
				return fmt.Errorf("cannot determine executable path: %w", err)
			}
			cfgPath, err := filepath.Abs(config.ExpandPath(resolveConfigPath()))
			if err != nil {
				return err
			}
			runArgs := serviceArgs(cfgPath, dryRun)

			switch runtime.GOOS {
			case "darwin":
				return installLaunchd(execPath, runArgs)
			case "linux":
				return installSystemd(execPath, runArgs)
			default:
				return fmt.Errorf("unsupported OS: %s (supported: darwin, linux)", runtime.GOOS)
			}
		},
	}
	install.Flags().BoolVar(&dryRun, "dry-run", false, "install the service in dry-run mode")

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the replybot user service",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := servicePath(runtime.GOOS)
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove service file: %w", err)
			}
			fmt.Printf("Service uninstalled: %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(install, uninstall)
	return cmd
}

// serviceArgs are the arguments the service passes to the binary.
func serviceArgs(cfgPath string, dryRun bool) []string {
	args := []string{"run", "--config", cfgPath}
	if envFile != "" {
		if abs, err := filepath.Abs(envFile); err == nil {
			args = append(args, "--env-file", abs)
		}
	}
	if dryRun {
		args = append(args, "--dry-run")
	}
	return args
}

func servicePath(goos string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "LaunchAgents", launchdLabel+".plist"), nil
	case "linux":
		return filepath.Join(home, ".config", "systemd", "user", systemdUnit), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}

func installLaunchd(execPath string, args []string) error {
	path, err := servicePath("darwin")
	if err != nil {
		return err
	}
	logDir := filepath.Join(config.DefaultConfigDir(), "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}
	plist := renderLaunchd(execPath, args, filepath.Join(logDir, "replybot.log"))
	if err := writeServiceFile(path, plist); err != nil {
		return err
	}
	fmt.Printf("Service installed: %s\n", path)
	fmt.Printf("To start: launchctl load %s\n", path)
	fmt.Printf("To stop:  launchctl unload %s\n", path)
	return nil
}

func installSystemd(execPath string, args []string) error {
	path, err := servicePath("linux")
	if err != nil {
		return err
	}
	if err := writeServiceFile(path, renderSystemd(execPath, args)); err != nil {
		return err
	}
	fmt.Printf("Service installed: %s\n", path)
	fmt.Printf("To start:  systemctl --user start replybot\n")
	fmt.Printf("To enable: systemctl --user enable replybot\n")
	fmt.Printf("Logs:      journalctl --user -u replybot -f\n")
	return nil
}

func writeServiceFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func renderLaunchd(execPath string, args []string, logPath string) string {
	var progArgs strings.Builder
	for _, a := range append([]string{execPath}, args...) {
		fmt.Fprintf(&progArgs, "        <string>%s</string>\n", xmlEscape(a))
	}
	plist := strings.ReplaceAll(launchdTemplate, "{{LABEL}}", launchdLabel)
	plist = strings.ReplaceAll(plist, "{{ARGS}}", strings.TrimRight(progArgs.String(), "\n"))
	plist = strings.ReplaceAll(plist, "{{LOG}}", xmlEscape(logPath))
	return plist
}

func renderSystemd(execPath string, args []string) string {
	parts := []string{systemdQuote(execPath)}
	for _, a := range args {
		parts = append(parts, systemdQuote(a))
	}
	return strings.ReplaceAll(systemdTemplate, "{{EXEC}}", strings.Join(parts, " "))
}

func systemdQuote(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\") {
		return s
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

const launchdTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{LABEL}}</string>
    <key>ProgramArguments</key>
    <array>
{{ARGS}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{LOG}}</string>
    <key>StandardErrorPath</key>
    <string>{{LOG}}</string>
</dict>
</plist>
`

// Restart=on-failure: a clean exit after general.maxLoop sends stays stopped.
const systemdTemplate = `[Unit]
Description=replybot chat reply loop
After=network-online.target

[Service]
Type=simple
ExecStart={{EXEC}}
Restart=on-failure
RestartSec=30

[Install]
WantedBy=default.target
`
