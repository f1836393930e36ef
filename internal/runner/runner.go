// Package runner drives the poll-think-post loop.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"replybot/internal/config"
	"replybot/internal/domain"
	"replybot/internal/metrics"
	"replybot/internal/reply"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config wires a Runner. Chat is always required, Provider only in AI mode.
type Config struct {
	Mode         string
	Platform     string
	Channels     []string
	HistoryLimit int
	MaxLoop      int // successful sends before Run returns; 0 = forever

	MinSleep             time.Duration
	MaxSleep             time.Duration
	FailureSleep         time.Duration
	ProviderFailureSleep time.Duration
	WaitSleep            time.Duration

	Prompt          reply.PromptOptions
	MaxReplyChars   int
	FallbackContent string

	DryRun bool
	RunID  string

	Chat     domain.ChatClient
	Provider domain.Provider
	Journal  domain.Journal

	Rand   *rand.Rand
	Sleep  SleepFunc
	Logger *slog.Logger
}

// Runner posts replies to chat channels until MaxLoop is reached or its
// context is cancelled.
type Runner struct {
	cfg    Config
	rng    *rand.Rand
	sleep  SleepFunc
	logger *slog.Logger
	sent   int
}

// New validates cfg and returns a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Chat == nil {
		return nil, errors.New("runner: chat client is required")
	}
	if len(cfg.Channels) == 0 {
		return nil, errors.New("runner: at least one channel is required")
	}
	if cfg.Mode == "" {
		cfg.Mode = config.ModeAI
	}
	switch cfg.Mode {
	case config.ModeAI:
		if cfg.Provider == nil {
			return nil, errors.New("runner: ai mode needs a provider")
		}
	case config.ModeEcho:
	default:
		return nil, fmt.Errorf("runner: unknown mode %q", cfg.Mode)
	}
	if cfg.MinSleep < 0 || cfg.MaxSleep < cfg.MinSleep {
		return nil, fmt.Errorf("runner: invalid sleep bounds [%s, %s]", cfg.MinSleep, cfg.MaxSleep)
	}
	if cfg.Platform == "" {
		cfg.Platform = cfg.Chat.Name()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Sleep == nil {
		cfg.Sleep = Sleep
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		rng:    cfg.Rand,
		sleep:  cfg.Sleep,
		logger: cfg.Logger,
	}, nil
}

// Sent returns how many replies were posted (or logged, in dry-run mode).
func (r *Runner) Sent() int { return r.sent }

// Run loops until MaxLoop replies were sent or ctx is cancelled, in which
// case it returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("runner started",
		"mode", r.cfg.Mode,
		"platform", r.cfg.Platform,
		"channels", len(r.cfg.Channels),
		"max_loop", r.cfg.MaxLoop,
		"dry_run", r.cfg.DryRun,
	)

	for r.cfg.MaxLoop == 0 || r.sent < r.cfg.MaxLoop {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait := r.step(ctx)
		if err := r.sleep(ctx, wait); err != nil {
			r.logger.Info("runner stopped", "sent", r.sent, "reason", err)
			return err
		}
	}

	r.logger.Info("runner finished", "sent", r.sent)
	return nil
}

// step runs one iteration and returns how long to sleep afterwards.
func (r *Runner) step(ctx context.Context) (wait time.Duration) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("iteration panic", "panic", p)
			wait = r.cfg.FailureSleep
		}
	}()

	metrics.Iterations.Inc()
	channelID := r.cfg.Channels[r.rng.IntN(len(r.cfg.Channels))]
	logger := r.logger.With("channel_id", channelID)

	history, err := r.cfg.Chat.History(ctx, channelID, r.cfg.HistoryLimit)
	if err != nil || len(history) == 0 {
		metrics.HistoryFailures.Inc()
		if err != nil {
			logger.Warn("fetch history failed", "error", err)
		} else {
			logger.Warn("channel history is empty")
		}
		return r.cfg.FailureSleep
	}

	var content, source, providerName string
	switch r.cfg.Mode {
	case config.ModeAI:
		prompt, ok := reply.BuildPrompt(history, r.cfg.Prompt)
		if !ok {
			metrics.SkippedIterations.Inc()
			logger.Info("nothing to reply to, waiting", "wait", r.cfg.WaitSleep)
			return r.cfg.WaitSleep
		}
		resp, err := r.cfg.Provider.Chat(ctx, domain.ChatRequest{Messages: domain.UserPrompt(prompt)})
		if err == nil {
			content = reply.FormatResponse(resp.Content, r.cfg.MaxReplyChars)
			providerName = resp.Provider
		}
		if err != nil || content == "" {
			logger.Warn("all providers failed", "error", err)
			return r.cfg.ProviderFailureSleep
		}
		source = prompt
	case config.ModeEcho:
		picked, ok := reply.PickEcho(history, r.rng)
		if !ok {
			picked = r.cfg.FallbackContent
		}
		if picked == "" {
			metrics.SkippedIterations.Inc()
			logger.Info("no eligible message to echo")
			return r.cfg.FailureSleep
		}
		content, source = picked, picked
	}

	if r.cfg.DryRun {
		r.sent++
		logger.Info("dry run, reply not posted", "content", content, "provider", providerName, "count", r.sent)
		return r.randomSleep()
	}

	msgID, err := r.cfg.Chat.Post(ctx, channelID, content)
	if err != nil {
		metrics.SendFailures.Inc()
		logger.Error("post reply failed", "error", err)
		return r.randomSleep()
	}

	r.sent++
	metrics.RepliesSent.Inc()
	metrics.LastSendUnix.Set(time.Now().Unix())
	logger.Info("reply posted", "message_id", msgID, "provider", providerName, "count", r.sent)

	if r.cfg.Journal != nil {
		entry := domain.JournalEntry{
			RunID:     r.cfg.RunID,
			Mode:      r.cfg.Mode,
			Platform:  r.cfg.Platform,
			ChannelID: channelID,
			Provider:  providerName,
			Source:    source,
			Content:   content,
			MessageID: msgID,
			CreatedAt: time.Now().UTC(),
		}
		if err := r.cfg.Journal.Record(ctx, entry); err != nil {
			logger.Warn("journal record failed", "error", err)
		}
	}
	return r.randomSleep()
}

// randomSleep picks a duration in [MinSleep, MaxSleep].
func (r *Runner) randomSleep() time.Duration {
	span := r.cfg.MaxSleep - r.cfg.MinSleep
	if span <= 0 {
		return r.cfg.MinSleep
	}
	return r.cfg.MinSleep + time.Duration(r.rng.Int64N(int64(span)+1))
}

// Sleep waits for d, returning early with ctx.Err() when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
