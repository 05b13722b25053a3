package config

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/MrWong99/confab/pkg/provider/g2p"
	"github.com/MrWong99/confab/pkg/provider/llm"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to constructor functions for converters and
// the LLM backends they may use. It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	g2p map[string]func(ProviderEntry) (g2p.Converter, error)
	llm map[string]func(ProviderEntry) (llm.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		g2p: make(map[string]func(ProviderEntry) (g2p.Converter, error)),
		llm: make(map[string]func(ProviderEntry) (llm.Provider, error)),
	}
}

// RegisterG2P registers a converter factory under name. Subsequent calls with
// the same name overwrite the previous registration.
func (r *Registry) RegisterG2P(name string, factory func(ProviderEntry) (g2p.Converter, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.g2p[name] = factory
}

// RegisterLLM registers an LLM provider factory under name.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// CreateG2P instantiates the converter registered under entry.Name. Returns
// an error wrapping [ErrProviderNotRegistered] if there is none.
func (r *Registry) CreateG2P(entry ProviderEntry) (g2p.Converter, error) {
	r.mu.RLock()
	factory, ok := r.g2p[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: g2p/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateLLM instantiates the LLM provider registered under entry.Name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// G2PNames returns the registered converter names, sorted.
func (r *Registry) G2PNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.g2p))
	for n := range r.g2p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
