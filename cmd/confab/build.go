package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/confab/internal/confab"
	"github.com/MrWong99/confab/internal/config"
	"github.com/MrWong99/confab/internal/match"
	"github.com/MrWong99/confab/internal/observe"
	"github.com/MrWong99/confab/internal/resilience"
	"github.com/MrWong99/confab/pkg/dictionary"
	"github.com/MrWong99/confab/pkg/dictionary/postgres"
	"github.com/MrWong99/confab/pkg/features"
	"github.com/MrWong99/confab/pkg/provider/g2p"
	"github.com/MrWong99/confab/pkg/provider/g2p/llmg2p"
	"github.com/MrWong99/confab/pkg/provider/llm"
	"github.com/MrWong99/confab/pkg/provider/llm/anyllm"
	"github.com/MrWong99/confab/pkg/provider/llm/openai"
)

// runtime is everything a subcommand needs to confabulate.
type runtime struct {
	dict    *dictionary.Dictionary
	table   *features.Table
	chain   *g2p.Chain
	conv    g2p.Converter
	store   *postgres.Store
	metrics *observe.Metrics
}

// Close releases the dictionary store, if any.
func (rt *runtime) Close() {
	if rt.store != nil {
		rt.store.Close()
	}
}

// buildRuntime loads the dictionary and feature table and assembles the
// converter chain described by cfg.
func buildRuntime(ctx context.Context, cfg *config.Config, metrics *observe.Metrics) (*runtime, error) {
	rt := &runtime{metrics: metrics}

	dict, store, err := openDictionary(ctx, cfg.Dictionary)
	if err != nil {
		return nil, err
	}
	rt.dict, rt.store = dict, store

	rt.table = features.ARPAbet()
	if p := cfg.Features.Path; p != "" {
		if rt.table, err = features.LoadFile(p); err != nil {
			rt.Close()
			return nil, fmt.Errorf("load features: %w", err)
		}
	}

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, rt)

	rt.chain = g2p.NewChain(g2p.ChainConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			OnStateChange: func(name string, from, to resilience.State) {
				slog.Warn("converter circuit changed state", "converter", name, "from", from, "to", to)
			},
		},
		Recorder: metrics,
	})
	for _, entry := range cfg.G2P.Entries() {
		conv, err := reg.CreateG2P(entry)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("create converter %q: %w", entry.Name, err)
		}
		rt.chain.Add(entry.Name, conv)
		slog.Debug("converter created", "name", entry.Name, "model", entry.Model)
	}
	rt.conv = rt.chain

	if n := cfg.G2P.CacheSize; n > 0 {
		cache, err := g2p.NewCache(rt.chain, n, g2p.WithCacheRecorder(metrics))
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("create converter cache: %w", err)
		}
		rt.conv = cache
	}
	return rt, nil
}

// openDictionary loads the dictionary from PostgreSQL when a DSN is
// configured and from the CMU file otherwise. The returned store is nil for
// file dictionaries; callers close it when done.
func openDictionary(ctx context.Context, cfg config.DictionaryConfig) (*dictionary.Dictionary, *postgres.Store, error) {
	var (
		loader dictionary.Loader
		store  *postgres.Store
	)
	if cfg.PostgresDSN != "" {
		var err error
		if store, err = postgres.NewStore(ctx, cfg.PostgresDSN); err != nil {
			return nil, nil, fmt.Errorf("open dictionary store: %w", err)
		}
		loader = store
	} else {
		loader = &dictionary.FileLoader{
			Path:    cfg.Path,
			Options: []dictionary.ParseOption{dictionary.WithVariants(cfg.KeepVariants)},
		}
	}
	dict, err := dictionary.Load(ctx, loader)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, fmt.Errorf("load dictionary: %w", err)
	}
	slog.Info("dictionary loaded", "entries", dict.Len(), "postgres", store != nil)
	return dict, store, nil
}

// confabulator builds a Confabulator for the search settings in s.
func (rt *runtime) confabulator(s config.SearchConfig, b config.BatchConfig) (*confab.Confabulator, error) {
	params := s.MatchParams()
	params.Table = rt.table
	strategy, err := match.New(s.Strategy, params)
	if err != nil {
		return nil, err
	}
	return confab.New(rt.dict, rt.conv, strategy,
		confab.WithForceNovelty(s.Novelty()),
		confab.WithBatchConcurrency(b.Concurrency),
		confab.WithMetrics(rt.metrics),
	)
}

// registerBuiltinProviders registers the dictionary converter, the store
// converter when a database is open, and one LLM-backed converter per any-llm
// backend plus openai-compatible.
func registerBuiltinProviders(reg *config.Registry, rt *runtime) {
	reg.RegisterG2P(config.ProviderDictionary, func(config.ProviderEntry) (g2p.Converter, error) {
		return g2p.NewDictionaryConverter(rt.dict), nil
	})
	reg.RegisterG2P(config.ProviderPostgres, func(config.ProviderEntry) (g2p.Converter, error) {
		if rt.store == nil {
			return nil, fmt.Errorf("converter %q needs dictionary.postgres_dsn", config.ProviderPostgres)
		}
		return g2p.NewStoreConverter(rt.store), nil
	})

	llmConverter := func(entry config.ProviderEntry) (g2p.Converter, error) {
		p, err := reg.CreateLLM(entry)
		if err != nil {
			return nil, err
		}
		var opts []llmg2p.Option
		if t, ok := entry.Options["temperature"].(float64); ok {
			opts = append(opts, llmg2p.WithTemperature(t))
		}
		if prompt, ok := entry.Options["system_prompt"].(string); ok {
			opts = append(opts, llmg2p.WithSystemPrompt(prompt))
		}
		return llmg2p.New(p, rt.table, opts...)
	}

	for _, name := range anyllm.Supported {
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(name, entry.Model, opts...)
		})
		reg.RegisterG2P(name, llmConverter)
	}

	reg.RegisterLLM(config.ProviderOpenAICompatible, func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.APIKey != "" {
			opts = append(opts, openai.WithAPIKey(entry.APIKey))
		}
		if org, ok := entry.Options["organization"].(string); ok {
			opts = append(opts, openai.WithOrganization(org))
		}
		if s, ok := entry.Options["timeout"].(string); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("options.timeout: %w", err)
			}
			opts = append(opts, openai.WithTimeout(d))
		}
		return openai.New(entry.BaseURL, entry.Model, opts...)
	})
	reg.RegisterG2P(config.ProviderOpenAICompatible, llmConverter)
}
