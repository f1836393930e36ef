package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"replybot/internal/domain"
)

func TestClaude_ChatSplitsSystemPrompt(t *testing.T) {
	var got claudeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "ak" || r.Header.Get("anthropic-version") != claudeAPIVersion {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"model":"claude-x","content":[{"type":"text","text":"nice "},{"type":"text","text":"one"}],"stop_reason":"end_turn","usage":{"input_tokens":5,"output_tokens":2}}`))
	}))
	defer srv.Close()

	p := NewClaude(ClaudeConfig{APIKey: "ak", APIBase: srv.URL + "/v1", Temperature: 1.1, Logger: testLogger()})
	resp, err := p.Chat(context.Background(), domain.ChatRequest{Messages: []domain.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "nice one" || resp.Provider != "claude" || resp.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got.System != "be brief" || len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 1.0 {
		t.Fatalf("expected temperature clamped to 1.0, got %v", got.Temperature)
	}
	if got.MaxTokens != claudeMaxTokens {
		t.Fatalf("expected default max tokens, got %d", got.MaxTokens)
	}
}

func TestClaude_HealthyNeedsKey(t *testing.T) {
	if err := NewClaude(ClaudeConfig{}).Healthy(context.Background()); err == nil {
		t.Fatal("expected error without key")
	}
	if err := NewClaude(ClaudeConfig{APIKey: "k"}).Healthy(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
