package factory

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

// LoaderFunc builds the provider for a profile.
type LoaderFunc func(profile chain.Profile) (chain.Provider, error)

// LazyProviders is a thread-safe set of named profiles whose providers are built on first
// access and cached afterwards.
type LazyProviders struct {
	mu       sync.RWMutex
	loaded   map[string]chain.Provider
	profiles map[string]chain.Profile
	load     LoaderFunc
	lggr     logger.Logger
}

// NewLazyProviders creates a LazyProviders over the named profiles. A nil load builds providers
// with FromProfile and the given logger.
func NewLazyProviders(profiles map[string]chain.Profile, load LoaderFunc, lggr logger.Logger) *LazyProviders {
	if lggr == nil {
		lggr = logger.Nop()
	}
	if load == nil {
		load = func(p chain.Profile) (chain.Provider, error) {
			return FromProfile(p, WithLogger(lggr))
		}
	}

	return &LazyProviders{
		loaded:   make(map[string]chain.Provider),
		profiles: maps.Clone(profiles),
		load:     load,
		lggr:     lggr,
	}
}

// Get returns the provider of the named profile, building it if not already loaded. A failed
// build is not cached.
func (l *LazyProviders) Get(name string) (chain.Provider, error) {
	l.mu.RLock()
	if p, ok := l.loaded[name]; ok {
		l.mu.RUnlock()
		return p, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring the write lock.
	if p, ok := l.loaded[name]; ok {
		return p, nil
	}

	profile, ok := l.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile not found '%s'", name)
	}

	p, err := l.load(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider for profile %s: %w", name, err)
	}
	l.loaded[name] = p

	l.lggr.Debugw("Provider loaded", "profile", name, "blockchain", profile.Blockchain, "url", profile.URL)

	return p, nil
}

// Exists reports whether a profile with the name is known, loaded or not.
func (l *LazyProviders) Exists(name string) bool {
	_, ok := l.profiles[name]
	return ok
}

// All returns an iterator over the providers sorted by profile name, loading them as they are
// reached. Profiles whose provider fails to load are logged and skipped.
func (l *LazyProviders) All() iter.Seq2[string, chain.Provider] {
	return func(yield func(string, chain.Provider) bool) {
		for _, name := range slices.Sorted(maps.Keys(l.profiles)) {
			p, err := l.Get(name)
			if err != nil {
				l.lggr.Errorw("Failed to load provider during iteration", "profile", name, "error", err)
				continue
			}
			if !yield(name, p) {
				return
			}
		}
	}
}
