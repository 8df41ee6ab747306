// Copyright 2026 The Teleroute Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis errors.
var (
	ErrInvalidRedisURL = errors.New("invalid redis connection url")
	ErrRedisNotReady   = errors.New("redis did not answer ping")
)

// DefaultKeyPrefix namespaces snapshot keys in Redis.
const DefaultKeyPrefix = "teleroute:snapshot:"

// RedisStore keeps snapshots in Redis under a key prefix.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	ttl       time.Duration
	scanBatch int64
}

// RedisOption configures a [RedisStore].
type RedisOption func(*RedisStore)

// WithKeyPrefix replaces [DefaultKeyPrefix].
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTTL expires snapshots ttl after they are added. Zero keeps them.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithScanBatch sets the SCAN count used by Clear.
func WithScanBatch(n int64) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.scanBatch = n
		}
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultKeyPrefix, scanBatch: 500}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect parses a redis:// or rediss:// URL, or a bare host:port, and
// pings the server until it answers or ctx is done.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if !strings.Contains(url, "://") {
		url = "redis://" + url
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidRedisURL, err)
	}

	client := redis.NewClient(opts)
	backoff := 100 * time.Millisecond
	for {
		err = client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, errors.Join(ErrRedisNotReady, err, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 2*time.Second)
	}
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

// Add implements [Store].
func (s *RedisStore) Add(ctx context.Context, key string, snap *Snapshot) error {
	if key == "" {
		return ErrEmptyKey
	}
	data, err := Marshal(snap)
	if err != nil {
		return err
	}
	if err = s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot %q: %w", key, err)
	}
	return nil
}

// Get implements [Store].
func (s *RedisStore) Get(ctx context.Context, key string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", key, err)
	}
	return Unmarshal(data)
}

// Delete implements [Store].
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", key, err)
	}
	return nil
}

// Exists implements [Store].
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("check snapshot %q: %w", key, err)
	}
	return n > 0, nil
}

// Clear removes every key under the store's prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", s.scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan snapshots: %w", err)
		}
		if len(keys) > 0 {
			if err = s.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("clear snapshots: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Keys lists stored snapshot keys without the prefix.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var out []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", s.scanBatch).Iterator()
	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	return out, nil
}

var (
	_ Store  = (*RedisStore)(nil)
	_ Lister = (*RedisStore)(nil)
)
