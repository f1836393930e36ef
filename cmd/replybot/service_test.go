package main

import (
	"strings"
	"testing"
)

func TestRenderSystemd_QuotesArguments(t *testing.T) {
	unit := renderSystemd("/usr/local/bin/replybot", []string{"run", "--config", "/home/a b/config.json"})
	want := `ExecStart=/usr/local/bin/replybot run --config "/home/a b/config.json"`
	if !strings.Contains(unit, want) {
		t.Fatalf("expected %q in unit:\n%s", want, unit)
	}
	if !strings.Contains(unit, "Restart=on-failure") {
		t.Fatal("expected restart policy")
	}
}

func TestRenderLaunchd_ListsArguments(t *testing.T) {
	plist := renderLaunchd("/opt/replybot", []string{"run", "--dry-run"}, "/tmp/r&b.log")
	for _, want := range []string{
		"<string>/opt/replybot</string>",
		"<string>run</string>",
		"<string>--dry-run</string>",
		"<string>/tmp/r&amp;b.log</string>",
		"<string>" + launchdLabel + "</string>",
	} {
		if !strings.Contains(plist, want) {
			t.Fatalf("expected %q in plist:\n%s", want, plist)
		}
	}
}

func TestServiceArgs(t *testing.T) {
	old := envFile
	defer func() { envFile = old }()
	envFile = ""

	args := serviceArgs("/etc/replybot.yaml", true)
	if strings.Join(args, " ") != "run --config /etc/replybot.yaml --dry-run" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestServicePath_Unsupported(t *testing.T) {
	if _, err := servicePath("plan9"); err == nil {
		t.Fatal("expected error for unsupported OS")
	}
}
