package provider

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"replybot/internal/config"
	"replybot/internal/domain"
)

// ErrNoProviders is returned when no configured provider could be built.
var ErrNoProviders = errors.New("no usable AI provider, check AI_PROVIDERS and API keys")

// Settings are the per-provider values a constructor receives.
type Settings struct {
	Name    string
	Config  config.ProviderConfig
	APIKey  string
	Retries int
	Client  *http.Client
	Logger  *slog.Logger
}

// ProviderConstructor creates a provider from resolved settings.
type ProviderConstructor func(s Settings) domain.Provider

// Factory builds completion providers from config by provider kind.
type Factory struct {
	cfg          *config.Config
	logger       *slog.Logger
	client       *http.Client
	constructors map[string]ProviderConstructor
	mu           sync.RWMutex
}

// NewFactory creates a provider factory with the built-in kinds registered.
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	f := &Factory{
		cfg:          cfg,
		logger:       logger,
		client:       SharedHTTPClient(time.Duration(cfg.General.HTTPTimeoutSeconds) * time.Second),
		constructors: make(map[string]ProviderConstructor),
	}
	f.registerDefaults()
	return f
}

// RegisterConstructor adds (or replaces) a constructor for a provider kind.
func (f *Factory) RegisterConstructor(kind string, ctor ProviderConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[kind] = ctor
}

func (f *Factory) registerDefaults() {
	f.constructors["openai"] = func(s Settings) domain.Provider {
		return NewOpenAI(OpenAIConfig{
			Name:        s.Name,
			APIKey:      s.APIKey,
			APIBase:     s.Config.APIBase,
			Model:       s.Config.Model,
			Temperature: s.Config.Temperature,
			MaxTokens:   s.Config.MaxTokens,
			Retries:     s.Retries,
			Client:      s.Client,
			Logger:      s.Logger,
		})
	}
	f.constructors["claude"] = func(s Settings) domain.Provider {
		return NewClaude(ClaudeConfig{
			Name:        s.Name,
			APIKey:      s.APIKey,
			APIBase:     s.Config.APIBase,
			Model:       s.Config.Model,
			Temperature: s.Config.Temperature,
			MaxTokens:   s.Config.MaxTokens,
			Retries:     s.Retries,
			Client:      s.Client,
			Logger:      s.Logger,
		})
	}
	f.constructors["ollama"] = func(s Settings) domain.Provider {
		return NewOllama(OllamaConfig{
			Name:        s.Name,
			APIBase:     s.Config.APIBase,
			Model:       s.Config.Model,
			Temperature: s.Config.Temperature,
			MaxTokens:   s.Config.MaxTokens,
			Retries:     s.Retries,
			Client:      s.Client,
			Logger:      s.Logger,
		})
	}
}

// Get builds the provider configured under name.
func (f *Factory) Get(name string) (domain.Provider, error) {
	pc, ok := f.cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	f.mu.RLock()
	ctor, found := f.constructors[pc.Kind]
	f.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("provider %s: no constructor for kind %q", name, pc.Kind)
	}

	key := pc.ResolvedAPIKey()
	if key == "" && pc.Kind != "ollama" {
		env := pc.APIKeyEnv
		if env == "" {
			env = "apiKey"
		}
		return nil, fmt.Errorf("provider %s: no API key configured (%s)", name, env)
	}

	return ctor(Settings{
		Name:    name,
		Config:  pc,
		APIKey:  key,
		Retries: f.cfg.General.HTTPRetries,
		Client:  f.client,
		Logger:  f.logger,
	}), nil
}

// Build returns every active provider that can be constructed, in
// general.activeProviders order. Unusable entries are skipped with a warning.
func (f *Factory) Build() ([]domain.Provider, error) {
	var out []domain.Provider
	seen := make(map[string]bool)
	for _, name := range f.cfg.General.ActiveProviders {
		if seen[name] {
			continue
		}
		seen[name] = true

		p, err := f.Get(name)
		if err != nil {
			f.logger.Warn("skipping provider", "provider", name, "reason", err)
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrNoProviders
	}
	return out, nil
}

// Failover builds the active providers and wraps them in a failover chain.
func (f *Factory) Failover() (*FailoverProvider, error) {
	providers, err := f.Build()
	if err != nil {
		return nil, err
	}
	return NewFailoverProvider(providers, FailoverConfig{
		Shuffle: f.cfg.General.ShuffleProviders,
		Logger:  f.logger,
	}), nil
}
