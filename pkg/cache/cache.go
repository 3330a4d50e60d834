// Package cache provides a Redis-backed read-through cache for workflows.
// Cached entries are best effort: every miss falls back to persistence, so a
// cold or unavailable cache only costs latency.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/lensflow/lensflow/pkg/models"
)

// ErrCacheMiss indicates the workflow is not in the cache.
var ErrCacheMiss = errors.New("workflow not cached")

const defaultTTL = 5 * time.Minute

// Store caches workflows in Redis under a configurable key prefix.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for cached workflows. Zero disables expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached workflows.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewFromURL creates a Store from a redis:// connection URL.
func NewFromURL(redisURL string, opts ...Option) (*Store, error) {
	options, err := backend.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return NewFromClient(backend.NewClient(options), opts...), nil
}

// NewFromClient creates a Store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "lensflow:workflow:",
		ttl:    defaultTTL,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(workflowID string) string {
	return s.prefix + workflowID
}

// SetWorkflow stores a workflow under its ID.
func (s *Store) SetWorkflow(ctx context.Context, workflow *models.Workflow) error {
	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	if err := s.client.Set(ctx, s.key(workflow.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache workflow: %w", err)
	}

	return nil
}

// GetWorkflow retrieves a cached workflow, or ErrCacheMiss when absent.
func (s *Store) GetWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	val, err := s.client.Get(ctx, s.key(workflowID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrCacheMiss
		}

		return nil, fmt.Errorf("failed to get cached workflow: %w", err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal([]byte(val), &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached workflow: %w", err)
	}

	return &workflow, nil
}

// InvalidateWorkflow drops a workflow from the cache.
func (s *Store) InvalidateWorkflow(ctx context.Context, workflowID string) error {
	return s.client.Del(ctx, s.key(workflowID)).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
