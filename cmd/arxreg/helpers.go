package main

import (
	"errors"
	"time"

	"github.com/matsen/arxreg/internal/arxiv"
	"github.com/matsen/arxreg/internal/config"
	"github.com/matsen/arxreg/internal/registry"
	"github.com/matsen/arxreg/internal/resolve"
)

// registryPath resolves the registry location from flags, environment, and
// project directory, exiting on failure.
func registryPath() string {
	path, err := config.RegistryPath(dbFlag, projectDir)
	if err != nil {
		exitWithError(ExitError, "resolving registry path: %v", err)
	}
	return path
}

// mustOpenRegistry opens the registry store and, when requireInit is set,
// exits with a usage error if the schema has never been created.
func mustOpenRegistry(requireInit bool) *registry.Store {
	store, err := registry.Open(registryPath())
	if err != nil {
		exitWithError(ExitError, "opening registry: %v", err)
	}
	if requireInit {
		if err := store.EnsureInitialized(); err != nil {
			store.Close()
			if errors.Is(err, registry.ErrNotInitialized) {
				exitWithError(ExitUsage, "%v", err)
			}
			exitWithError(ExitError, "%v", err)
		}
	}
	return store
}

// requestTimeout resolves the network timeout: --timeout-s flag > global
// config > client default.
func requestTimeout() time.Duration {
	if timeoutS > 0 {
		return time.Duration(timeoutS) * time.Second
	}
	if cfg, err := config.LoadGlobalConfig(); err == nil && cfg.TimeoutS > 0 {
		return time.Duration(cfg.TimeoutS) * time.Second
	}
	return arxiv.DefaultTimeout
}

// newClient builds an arXiv client from flags and global config.
func newClient() *arxiv.Client {
	opts := []arxiv.ClientOption{arxiv.WithTimeout(requestTimeout())}
	if cfg, err := config.LoadGlobalConfig(); err == nil && cfg.UserAgent != "" {
		opts = append(opts, arxiv.WithUserAgent(cfg.UserAgent))
	}
	return arxiv.NewClient(opts...)
}

// newResolver pairs a store with an API client.
func newResolver(store *registry.Store) *resolve.Resolver {
	return &resolve.Resolver{Store: store, Client: newClient()}
}

// sleepBetween pauses between batch requests when --sleep-s is set.
func sleepBetween(sleepS float64) {
	if sleepS > 0 {
		time.Sleep(time.Duration(sleepS * float64(time.Second)))
	}
}

// defaultCacheTTL resolves the search cache freshness window from global
// config, falling back to one day.
func defaultCacheTTL() int {
	if cfg, err := config.LoadGlobalConfig(); err == nil && cfg.CacheTTLS != 0 {
		return cfg.CacheTTLS
	}
	return 86400
}
