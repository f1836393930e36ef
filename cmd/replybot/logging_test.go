package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger_AutoPicksJSONWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "info", "auto", false)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hello", "run_id", "abc")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
	if rec["run_id"] != "abc" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNewLogger_AutoPicksTextOnTerminal(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "debug", "auto", true)
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "warn", "text", false)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	var buf bytes.Buffer
	if _, err := newLogger(&buf, "loud", "text", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := newLogger(&buf, "info", "xml", false); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
