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
	"maps"
	"slices"
	"sync"
	"time"
)

// Store keeps snapshots by key. Add overwrites an existing key.
type Store interface {
	Add(ctx context.Context, key string, s *Snapshot) error
	Get(ctx context.Context, key string) (*Snapshot, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// GetOrTake returns the snapshot under key, or captures one with take and
// stores it. The bool reports whether the snapshot came from the store.
func GetOrTake(ctx context.Context, store Store, key string, take func() (*Snapshot, error)) (*Snapshot, bool, error) {
	s, err := store.Get(ctx, key)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if s, err = take(); err != nil {
		return nil, false, err
	}
	if err = store.Add(ctx, key, s); err != nil {
		return nil, false, err
	}
	return s, false, nil
}

// MemoryStore is an in-process [Store]. Snapshots are stored encoded, so
// callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryOption configures a [MemoryStore].
type MemoryOption func(*MemoryStore)

// WithMemoryTTL expires entries ttl after they are added. Zero keeps them
// forever.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(m *MemoryStore) { m.ttl = ttl }
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add implements [Store].
func (m *MemoryStore) Add(ctx context.Context, key string, s *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}
	data, err := Marshal(s)
	if err != nil {
		return err
	}

	e := memoryEntry{data: data}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) lookup(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expires.Equal(e.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e.data, true
}

// Get implements [Store].
func (m *MemoryStore) Get(ctx context.Context, key string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := m.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	return Unmarshal(data)
}

// Delete implements [Store]. Deleting a missing key is not an error.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Exists implements [Store].
func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := m.lookup(key)
	return ok, nil
}

// Clear implements [Store].
func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
	return nil
}

// Keys returns the live keys in sorted order.
func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	keys := slices.Collect(maps.Keys(m.entries))
	m.mu.RUnlock()

	out := keys[:0]
	for _, k := range keys {
		if _, ok := m.lookup(k); ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out, nil
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Lister = (*MemoryStore)(nil)
)
