package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/confab/internal/match"
)

// ProviderDictionary is the converter that looks words up in the loaded
// dictionary.
const ProviderDictionary = "dictionary"

// ProviderOpenAICompatible is the LLM converter for self-hosted endpoints
// speaking the OpenAI chat completions API. It requires base_url.
const ProviderOpenAICompatible = "openai-compatible"

// ProviderPostgres is the converter that queries the PostgreSQL dictionary
// store word by word. It requires dictionary.postgres_dsn.
const ProviderPostgres = "postgres"

// ValidProviderNames lists known converter names. Every name other than
// [ProviderDictionary] and [ProviderPostgres] is an LLM backend asked for
// ARPAbet. Used by [Validate] to warn about unrecognised names.
var ValidProviderNames = []string{
	ProviderDictionary, ProviderPostgres, ProviderOpenAICompatible,
	"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over [Default] and validates the result.
// Unknown keys are rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Dictionary.Path == "" && cfg.Dictionary.PostgresDSN == "" {
		errs = append(errs, errors.New("dictionary: one of path or postgres_dsn is required"))
	}

	checkEntry := func(field string, e ProviderEntry) {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", field))
			return
		}
		validateProviderName(field, e.Name)
		switch e.Name {
		case ProviderDictionary:
		case ProviderPostgres:
			if cfg.Dictionary.PostgresDSN == "" {
				errs = append(errs, fmt.Errorf("%s: converter %q needs dictionary.postgres_dsn", field, e.Name))
			}
		default:
			if e.Model == "" {
				errs = append(errs, fmt.Errorf("%s.model is required for LLM converter %q", field, e.Name))
			}
		}
		if e.Name == ProviderOpenAICompatible && e.BaseURL == "" {
			errs = append(errs, fmt.Errorf("%s.base_url is required for %q", field, e.Name))
		}
	}
	checkEntry("g2p.primary", cfg.G2P.Primary)
	for i, e := range cfg.G2P.Fallbacks {
		checkEntry(fmt.Sprintf("g2p.fallbacks[%d]", i), e)
	}
	if cfg.G2P.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("g2p.cache_size %d must not be negative", cfg.G2P.CacheSize))
	}

	s := cfg.Search
	if s.Strategy != "" && !slices.Contains(match.Names(), s.Strategy) {
		errs = append(errs, fmt.Errorf("search.strategy %q is invalid; valid values: %v", s.Strategy, match.Names()))
	}
	if s.Creativity < 0 || s.Creativity > 1 {
		errs = append(errs, fmt.Errorf("search.creativity %.2f is out of range [0, 1]", s.Creativity))
	}
	if s.Errors < 0 {
		errs = append(errs, fmt.Errorf("search.errors %.2f must not be negative", s.Errors))
	}
	if s.MaxEdits < 0 {
		errs = append(errs, fmt.Errorf("search.max_edits %d must not be negative", s.MaxEdits))
	}

	if cfg.Batch.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("batch.concurrency %d must not be negative", cfg.Batch.Concurrency))
	}

	return errors.Join(errs...)
}

// MatchParams returns the strategy parameters configured in s. The feature
// table is left nil for the caller to fill.
func (s SearchConfig) MatchParams() match.Params {
	return match.Params{
		Creativity: s.Creativity,
		Errors:     s.Errors,
		MaxEdits:   s.MaxEdits,
	}
}

// validateProviderName logs a warning if name is not a known converter.
func validateProviderName(field, name string) {
	if name == "" || slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown converter name; may be a typo or a third-party registration",
		"field", field,
		"name", name,
		"known", ValidProviderNames,
	)
}
