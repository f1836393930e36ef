// Package channel holds the chat platform clients the reply loop polls and
// posts through.
package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"replybot/internal/config"
	"replybot/internal/domain"
)

// ErrUnknownPlatform is returned for a chat.platform value with no client.
var ErrUnknownPlatform = errors.New("unknown chat platform")

// New builds the chat client selected by cfg.Chat.Platform.
func New(cfg *config.Config, logger *slog.Logger) (domain.ChatClient, error) {
	hc := &http.Client{Timeout: time.Duration(cfg.General.HTTPTimeoutSeconds) * time.Second}

	switch cfg.Chat.Platform {
	case config.PlatformDiscord:
		return NewDiscord(DiscordConfig{
			Token:   cfg.Chat.Token,
			APIBase: cfg.Chat.APIBase,
			Retries: cfg.General.HTTPRetries,
			Client:  hc,
			Logger:  logger,
		})
	case config.PlatformSlack:
		return NewSlack(SlackConfig{
			Token:   cfg.Chat.Token,
			APIBase: cfg.Chat.APIBase,
			Client:  hc,
			Logger:  logger,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, cfg.Chat.Platform)
	}
}

func clampLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// rebaseTransport rewrites requests under from so they go to to instead.
type rebaseTransport struct {
	from string
	to   *url.URL
	next http.RoundTripper
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u := req.URL.String()
	if !strings.HasPrefix(u, t.from) {
		return t.next.RoundTrip(req)
	}
	rest := strings.TrimPrefix(u, t.from)
	target, err := url.Parse(strings.TrimRight(t.to.String(), "/") + "/" + rest)
	if err != nil {
		return nil, err
	}
	r := req.Clone(req.Context())
	r.URL = target
	r.Host = target.Host
	return t.next.RoundTrip(r)
}

// rebase returns a copy of c whose requests under from are sent to base.
func rebase(c *http.Client, from, base string) (*http.Client, error) {
	to, err := url.Parse(base)
	if err != nil || to.Scheme == "" || to.Host == "" {
		return nil, fmt.Errorf("invalid api base %q", base)
	}
	next := c.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	out := *c
	out.Transport = &rebaseTransport{from: from, to: to, next: next}
	return &out, nil
}
