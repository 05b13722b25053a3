package main

import (
	"context"
	"testing"

	"github.com/MrWong99/confab/internal/config"
	"github.com/MrWong99/confab/internal/observe"
)

func TestRegisterBuiltinProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Dictionary.Path = writeDict(t)
	rt, err := buildRuntime(context.Background(), cfg, observe.DefaultMetrics())
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	defer rt.Close()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, rt)

	tests := []struct {
		name    string
		entry   config.ProviderEntry
		wantErr bool
	}{
		{name: "dictionary", entry: config.ProviderEntry{Name: config.ProviderDictionary}},
		{name: "ollama", entry: config.ProviderEntry{Name: "ollama", Model: "llama3", BaseURL: "http://localhost:11434"}},
		{
			name: "openai-compatible",
			entry: config.ProviderEntry{
				Name:    config.ProviderOpenAICompatible,
				Model:   "qwen2.5",
				BaseURL: "http://localhost:8000/v1",
				Options: map[string]any{"timeout": "3s", "temperature": 0.1},
			},
		},
		{
			name: "bad timeout",
			entry: config.ProviderEntry{
				Name:    config.ProviderOpenAICompatible,
				Model:   "qwen2.5",
				BaseURL: "http://localhost:8000/v1",
				Options: map[string]any{"timeout": "soon"},
			},
			wantErr: true,
		},
		{name: "postgres without store", entry: config.ProviderEntry{Name: config.ProviderPostgres}, wantErr: true},
		{name: "unknown", entry: config.ProviderEntry{Name: "espeak"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := reg.CreateG2P(tt.entry)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateG2P: %v", err)
			}
			if conv == nil {
				t.Fatal("nil converter")
			}
		})
	}
}

func TestBuildRuntime_CacheAndChain(t *testing.T) {
	cfg := config.Default()
	cfg.Dictionary.Path = writeDict(t)
	rt, err := buildRuntime(context.Background(), cfg, observe.DefaultMetrics())
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	defer rt.Close()

	if rt.chain.Len() != 1 {
		t.Errorf("chain length = %d, want 1", rt.chain.Len())
	}
	if rt.conv == rt.chain {
		t.Error("converter not wrapped in cache")
	}
	seq, err := rt.conv.Convert(context.Background(), "SCREAM")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if seq.String() != "S K R IY1 M" {
		t.Errorf("SCREAM = %q", seq)
	}
}
