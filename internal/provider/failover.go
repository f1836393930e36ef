package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"replybot/internal/domain"
	"replybot/internal/metrics"
)

// ErrEmptyCompletion is returned when a provider answers without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// FailoverProvider tries its providers one after another until one returns
// non-empty text. With shuffling on, each Chat call uses a fresh random order
// so load spreads across providers.
type FailoverProvider struct {
	providers []domain.Provider
	shuffle   bool
	logger    *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// FailoverConfig configures a failover chain.
type FailoverConfig struct {
	Shuffle bool
	Rand    *rand.Rand // optional, for deterministic ordering in tests
	Logger  *slog.Logger
}

// NewFailoverProvider creates a failover chain from the given providers.
// At least one provider is required.
func NewFailoverProvider(providers []domain.Provider, cfg FailoverConfig) *FailoverProvider {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &FailoverProvider{
		providers: providers,
		shuffle:   cfg.Shuffle,
		logger:    cfg.Logger,
		rng:       cfg.Rand,
	}
}

func (fp *FailoverProvider) Name() string {
	names := make([]string, len(fp.providers))
	for i, p := range fp.providers {
		names[i] = p.Name()
	}
	return "failover(" + strings.Join(names, ",") + ")"
}

// Providers returns the chain members in configured order.
func (fp *FailoverProvider) Providers() []domain.Provider {
	out := make([]domain.Provider, len(fp.providers))
	copy(out, fp.providers)
	return out
}

func (fp *FailoverProvider) Healthy(ctx context.Context) error {
	for _, p := range fp.providers {
		if err := p.Healthy(ctx); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no healthy provider in failover chain")
}

// order returns the providers in the order this call should try them.
func (fp *FailoverProvider) order() []domain.Provider {
	out := fp.Providers()
	if fp.shuffle {
		fp.mu.Lock()
		fp.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		fp.mu.Unlock()
	}
	return out
}

// Chat tries each provider once. Returns the first response with content.
func (fp *FailoverProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if len(fp.providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for i, p := range fp.order() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := p.Chat(ctx, req)
		metrics.LLMLatency.Observe(time.Since(start).Seconds())
		metrics.LLMRequests(p.Name()).Inc()

		if err == nil && strings.TrimSpace(resp.Content) == "" {
			err = ErrEmptyCompletion
		}
		if err == nil {
			if resp.Provider == "" {
				resp.Provider = p.Name()
			}
			if i > 0 {
				fp.logger.Info("failover: used fallback provider",
					"provider", p.Name(),
					"attempt", i+1,
				)
			}
			return resp, nil
		}

		lastErr = err
		metrics.ProviderFailures(p.Name()).Inc()
		fp.logger.Warn("failover: provider failed, trying next",
			"provider", p.Name(),
			"attempt", i+1,
			"error", err,
		)
	}
	return nil, fmt.Errorf("all providers in failover chain failed: %w", lastErr)
}
