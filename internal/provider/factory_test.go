package provider

import (
	"errors"
	"testing"

	"replybot/internal/config"
	"replybot/internal/domain"
)

func factoryConfig(active ...string) *config.Config {
	cfg := config.Defaults()
	cfg.General.ActiveProviders = active
	return cfg
}

func TestFactory_BuildSkipsProvidersWithoutKey(t *testing.T) {
	t.Setenv("GPT_KEY", "")
	t.Setenv("DEEPSEEK_KEY", "sk-deep")

	providers, err := NewFactory(factoryConfig("gpt", "deepseek"), testLogger()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(providers) != 1 || providers[0].Name() != "deepseek" {
		t.Fatalf("expected only deepseek, got %d providers", len(providers))
	}
}

func TestFactory_BuildSkipsUnknownAndDuplicates(t *testing.T) {
	t.Setenv("DEEPSEEK_KEY", "sk-deep")

	providers, err := NewFactory(factoryConfig("mystery", "deepseek", "deepseek"), testLogger()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(providers))
	}
}

func TestFactory_BuildNoneUsable(t *testing.T) {
	t.Setenv("GPT_KEY", "")
	t.Setenv("DEEPSEEK_KEY", "")

	_, err := NewFactory(factoryConfig("gpt", "deepseek"), testLogger()).Build()
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestFactory_OllamaNeedsNoKey(t *testing.T) {
	p, err := NewFactory(factoryConfig("ollama"), testLogger()).Get("ollama")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := p.(*Ollama); !ok {
		t.Fatalf("expected *Ollama, got %T", p)
	}
}

func TestFactory_KindSelectsConstructor(t *testing.T) {
	cfg := factoryConfig("anthropic")
	cfg.Providers["anthropic"] = config.ProviderConfig{Kind: "claude", APIKey: "ak"}

	p, err := NewFactory(cfg, testLogger()).Get("anthropic")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	c, ok := p.(*Claude)
	if !ok {
		t.Fatalf("expected *Claude, got %T", p)
	}
	if c.Name() != "anthropic" {
		t.Fatalf("expected configured name, got %q", c.Name())
	}
}

func TestFactory_RegisterConstructor(t *testing.T) {
	cfg := factoryConfig("fake")
	cfg.Providers["fake"] = config.ProviderConfig{Kind: "fake", APIKey: "x"}

	f := NewFactory(cfg, testLogger())
	f.RegisterConstructor("fake", func(s Settings) domain.Provider {
		return &mockProvider{name: s.Name}
	})

	fp, err := f.Failover()
	if err != nil {
		t.Fatalf("failover: %v", err)
	}
	if fp.Name() != "failover(fake)" {
		t.Fatalf("unexpected chain %q", fp.Name())
	}
}
