// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"

	"github.com/lensflow/lensflow/pkg/cache"
)

// NewCache connects the workflow read cache when a Redis URL is configured.
// An empty URL disables caching and returns nil.
func NewCache(redisURL string) *cache.Store {
	if redisURL == "" {
		return nil
	}

	store, err := cache.NewFromURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to connect to Redis: %w", err))
	}

	return store
}
