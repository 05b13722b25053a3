package config_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/confab/internal/config"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr []string
	}{
		{name: "defaults", mutate: func(*config.Config) {}},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Server.LogLevel = "loud" },
			wantErr: []string{"server.log_level"},
		},
		{
			name:    "no dictionary source",
			mutate:  func(c *config.Config) { c.Dictionary.Path = "" },
			wantErr: []string{"dictionary"},
		},
		{
			name: "postgres only",
			mutate: func(c *config.Config) {
				c.Dictionary.Path = ""
				c.Dictionary.PostgresDSN = "postgres://localhost/confab"
			},
		},
		{
			name:    "no primary converter",
			mutate:  func(c *config.Config) { c.G2P.Primary.Name = "" },
			wantErr: []string{"g2p.primary.name"},
		},
		{
			name: "llm fallback without model",
			mutate: func(c *config.Config) {
				c.G2P.Fallbacks = []config.ProviderEntry{{Name: "openai"}}
			},
			wantErr: []string{"g2p.fallbacks[0].model"},
		},
		{
			name: "openai-compatible without base url",
			mutate: func(c *config.Config) {
				c.G2P.Fallbacks = []config.ProviderEntry{{Name: config.ProviderOpenAICompatible, Model: "qwen2.5"}}
			},
			wantErr: []string{"g2p.fallbacks[0].base_url"},
		},
		{
			name: "postgres converter without dsn",
			mutate: func(c *config.Config) {
				c.G2P.Fallbacks = []config.ProviderEntry{{Name: config.ProviderPostgres}}
			},
			wantErr: []string{"g2p.fallbacks[0]", "postgres_dsn"},
		},
		{
			name: "postgres converter with dsn",
			mutate: func(c *config.Config) {
				c.Dictionary.PostgresDSN = "postgres://localhost/confab"
				c.G2P.Primary = config.ProviderEntry{Name: config.ProviderPostgres}
			},
		},
		{
			name:    "negative cache",
			mutate:  func(c *config.Config) { c.G2P.CacheSize = -1 },
			wantErr: []string{"g2p.cache_size"},
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *config.Config) { c.Search.Strategy = "psychic" },
			wantErr: []string{"search.strategy"},
		},
		{
			name:    "creativity above one",
			mutate:  func(c *config.Config) { c.Search.Creativity = 1.5 },
			wantErr: []string{"search.creativity"},
		},
		{
			name: "every search bound at once",
			mutate: func(c *config.Config) {
				c.Search.Creativity = -0.1
				c.Search.Errors = -1
				c.Search.MaxEdits = -1
				c.Batch.Concurrency = -2
			},
			wantErr: []string{"search.creativity", "search.errors", "search.max_edits", "batch.concurrency"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tt.mutate(cfg)
			err := config.Validate(cfg)
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate: unexpected error %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate: expected error mentioning %v, got nil", tt.wantErr)
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error should mention %q, got: %v", want, err)
				}
			}
		})
	}
}

func TestG2PConfig_EntriesOrder(t *testing.T) {
	t.Parallel()
	g := config.G2PConfig{
		Primary:   config.ProviderEntry{Name: "dictionary"},
		Fallbacks: []config.ProviderEntry{{Name: "ollama"}, {}, {Name: "openai"}},
	}
	got := g.Entries()
	want := []string{"dictionary", "ollama", "openai"}
	if len(got) != len(want) {
		t.Fatalf("Entries = %+v, want names %v", got, want)
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Errorf("Entries[%d].Name = %q, want %q", i, got[i].Name, want[i])
		}
	}
}
