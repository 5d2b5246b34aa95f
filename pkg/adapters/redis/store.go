package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/flux/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "flux:session:"

// farFuture scores sessions without TTL in the index (2100-01-01).
const farFuture = 4102444800

// Store implements ports.SnapshotStore using Redis.
// Each session is a hash: slice states are separate fields, so one slice can be
// read on its own with LoadSlice.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
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
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to build a Locker on the same connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Sessions live under their own sub-prefix so no ID can land on the index.
func (s *Store) key(sessionID string) string {
	return s.prefix + "s:" + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Hash fields holding snapshot metadata. Slices live under slicePrefix+key.
const (
	fieldKeys      = "@keys"
	fieldUpdatedAt = "@updated_at"
	slicePrefix    = "slice:"
)

// Save replaces the session hash with one field per slice and indexes the session.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	keys, err := json.Marshal(snap.Keys)
	if err != nil {
		return fmt.Errorf("failed to marshal slice keys: %w", err)
	}

	fields := make(map[string]any, len(snap.Slices)+2)
	fields[fieldKeys] = keys
	fields[fieldUpdatedAt] = snap.UpdatedAt.UTC().Format(time.RFC3339Nano)
	for key, raw := range snap.Slices {
		fields[slicePrefix+key] = []byte(raw)
	}

	// Score = expiry time, so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		// Dropped slices must not survive from the previous save.
		pipe.Del(ctx, s.key(sessionID))
		pipe.HSet(ctx, s.key(sessionID), fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key(sessionID), s.ttl)
		}
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load rebuilds the snapshot from the session hash.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	snap := &domain.Snapshot{
		SessionID: sessionID,
		Slices:    make(map[string]json.RawMessage, len(fields)),
	}
	if err := json.Unmarshal([]byte(fields[fieldKeys]), &snap.Keys); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slice keys: %w", err)
	}
	if ts, ok := fields[fieldUpdatedAt]; ok {
		if snap.UpdatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", fieldUpdatedAt, err)
		}
	}
	for field, value := range fields {
		if key, ok := strings.CutPrefix(field, slicePrefix); ok {
			snap.Slices[key] = json.RawMessage(value)
		}
	}
	return snap, nil
}

// LoadSlice reads a single slice without fetching the rest of the session.
func (s *Store) LoadSlice(ctx context.Context, sessionID, key string) (json.RawMessage, error) {
	val, err := s.client.HGet(ctx, s.key(sessionID), slicePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrSessionNotFound, sessionID, key)
		}
		return nil, fmt.Errorf("failed to get slice from redis: %w", err)
	}
	return val, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns active sessions, pruning expired entries from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
