package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"replybot/internal/domain"
)

func TestOpenAI_ChatSendsPromptAndParsesReply(t *testing.T) {
	var got oaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"deepseek-chat","choices":[{"message":{"role":"assistant","content":"sounds good"},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`))
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIConfig{
		Name:        "deepseek",
		APIKey:      "sk-test",
		APIBase:     srv.URL + "/v1/",
		Model:       "deepseek-chat",
		Temperature: 1.1,
		MaxTokens:   30,
		Logger:      testLogger(),
	})

	resp, err := p.Chat(context.Background(), domain.ChatRequest{Messages: domain.UserPrompt("hello")})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "sounds good" || resp.Provider != "deepseek" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("expected usage to be parsed, got %+v", resp.Usage)
	}
	if got.Model != "deepseek-chat" || got.MaxTokens != 30 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 1.1 {
		t.Fatalf("expected temperature 1.1, got %v", got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "hello" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestOpenAI_NoChoicesIsEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIConfig{APIBase: srv.URL, APIKey: "k", Logger: testLogger()})
	_, err := p.Chat(context.Background(), domain.ChatRequest{Messages: domain.UserPrompt("x")})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestOpenAI_UnauthorizedIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIConfig{Name: "gpt", APIBase: srv.URL, APIKey: "k", Logger: testLogger()})
	_, err := p.Chat(context.Background(), domain.ChatRequest{Messages: domain.UserPrompt("x")})
	if err == nil || !strings.Contains(err.Error(), "gpt 401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	defer func(d time.Duration) { retryBaseDelay = d }(retryBaseDelay)
	retryBaseDelay = time.Millisecond

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIConfig{APIBase: srv.URL, APIKey: "k", Retries: 1, Logger: testLogger()})
	resp, err := p.Chat(context.Background(), domain.ChatRequest{Messages: domain.UserPrompt("x")})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "ok" || hits.Load() != 2 {
		t.Fatalf("expected success on second attempt, hits=%d", hits.Load())
	}
}

func TestOpenAI_DoesNotRetryRateLimit(t *testing.T) {
	defer func(d time.Duration) { retryBaseDelay = d }(retryBaseDelay)
	retryBaseDelay = time.Millisecond

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIConfig{APIBase: srv.URL, APIKey: "k", Retries: 3, Logger: testLogger()})
	if _, err := p.Chat(context.Background(), domain.ChatRequest{Messages: domain.UserPrompt("x")}); err == nil {
		t.Fatal("expected error on 429")
	}
	if hits.Load() != 1 {
		t.Fatalf("429 must not be retried, hits=%d", hits.Load())
	}
}

func TestOpenAI_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	if err := NewOpenAI(OpenAIConfig{APIBase: srv.URL, APIKey: "good"}).Healthy(context.Background()); err != nil {
		t.Fatalf("expected healthy: %v", err)
	}
	if err := NewOpenAI(OpenAIConfig{APIBase: srv.URL, APIKey: "bad"}).Healthy(context.Background()); err == nil {
		t.Fatal("expected invalid key error")
	}
}
