package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture is the index score of outcomes that never expire (2100-01-01).
const farFuture = 4102444800

// Store implements ports.ResultStore using Redis. Each outcome is a JSON
// string; a sorted set per run indexes its record ids by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for outcomes.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "espalier:result:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client { return s.client }

func (s *Store) key(runID, recordID string) string {
	return s.prefix + runID + ":" + recordID
}

func (s *Store) indexKey(runID string) string {
	return s.prefix + runID + ":index"
}

// Save persists the outcome to Redis.
func (s *Store) Save(ctx context.Context, outcome *domain.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(outcome.RunID, outcome.RecordID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(outcome.RunID), backend.Z{
		Score:  score,
		Member: outcome.RecordID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the outcome from Redis.
func (s *Store) Load(ctx context.Context, runID, recordID string) (*domain.Outcome, error) {
	val, err := s.client.Get(ctx, s.key(runID, recordID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var outcome domain.Outcome
	if err := json.Unmarshal([]byte(val), &outcome); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
	}
	return &outcome, nil
}

// Delete removes the outcome.
func (s *Store) Delete(ctx context.Context, runID, recordID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(runID, recordID))
	pipe.ZRem(ctx, s.indexKey(runID), recordID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the record ids of a run, sorted. Expired entries are pruned
// from the index lazily.
func (s *Store) List(ctx context.Context, runID string) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(runID), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired outcomes: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
