// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache keeps recently read raw record values in memory.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// LRU caches raw values by store key. A nil or empty value means the key is absent from the store.
type LRU struct {
	inner *lru.Cache
	stats Stats
}

// NewLRU creates a cache holding at most maxSize values. maxSize must be positive.
func NewLRU(maxSize int) (*LRU, error) {
	inner, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{inner: inner}, nil
}

// GetOrLoad returns the cached value of key, calling load on a miss.
// Failed loads are not cached.
func (l *LRU) GetOrLoad(key string, load func() ([]byte, error)) ([]byte, error) {
	if v, ok := l.inner.Get(key); ok {
		l.stats.hit.Add(1)
		return v.([]byte), nil
	}
	l.stats.miss.Add(1)
	v, err := load()
	if err != nil {
		return nil, err
	}
	l.inner.Add(key, v)
	return v, nil
}

// Set overwrites the cached value of key after a successful write.
func (l *LRU) Set(key string, val []byte) {
	l.inner.Add(key, val)
}

// Purge drops everything, used when a write fails half way.
func (l *LRU) Purge() {
	l.inner.Purge()
}

func (l *LRU) Len() int {
	return l.inner.Len()
}

// Stats returns the lookup counters.
func (l *LRU) Stats() *Stats {
	return &l.stats
}

// Stats counts cache lookups.
type Stats struct {
	hit, miss atomic.Int64
}

func (s *Stats) Hits() int64   { return s.hit.Load() }
func (s *Stats) Misses() int64 { return s.miss.Load() }

// HitRate is hits over lookups, 0 before the first lookup.
func (s *Stats) HitRate() float64 {
	hit, miss := s.Hits(), s.Misses()
	if hit+miss == 0 {
		return 0
	}
	return float64(hit) / float64(hit+miss)
}
