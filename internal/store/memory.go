// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"sync"
	"time"
)

type memVersion struct {
	data   []byte
	digest string
	count  int
	ts     time.Time
}

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	data     map[string][]memVersion
	metadata map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string][]memVersion),
		metadata: make(map[string]string),
	}
}

// Get retrieves the newest version of a snapshot.
func (m *Memory) Get(name string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.data[name]
	if len(vs) == 0 {
		return nil, nil
	}
	v := vs[len(vs)-1]
	return Decode(v.data, v.digest)
}

// Put stores a snapshot. Storing content identical to the newest version
// is a no-op.
func (m *Memory) Put(name string, s *Snapshot) error {
	data, digest, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.data[name]
	if len(vs) > 0 && vs[len(vs)-1].digest == digest {
		return nil
	}
	m.data[name] = append(vs, memVersion{data: data, digest: digest, count: len(s.Entries), ts: time.Now()})
	return nil
}

// Delete removes a snapshot and its history.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
	return nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetHistory returns versions newest first; limit <= 0 means all.
func (m *Memory) GetHistory(name string, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.data[name]
	if len(vs) == 0 {
		return nil, nil
	}
	var out []VersionEntry
	for i := len(vs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, VersionEntry{
			Version: i + 1,
			Digest:  vs[i].digest,
			Entries: vs[i].count,
			Ts:      vs[i].ts.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
