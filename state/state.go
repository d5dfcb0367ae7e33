// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/vechain/gemfarm/cache"
	"github.com/vechain/gemfarm/kv"
	"github.com/vechain/gemfarm/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey string

// State manages the ledger records.
type State struct {
	store kv.Store
	cache *cache.LRU // cache of committed raw values, shared across states
	sm    *stackedmap.StackedMap[storageKey, []byte]
}

// New create state object over the store. The cache is optional.
func New(store kv.Store, cache *cache.LRU) *State {
	state := State{
		store: store,
		cache: cache,
	}
	state.sm = stackedmap.New[storageKey, []byte](state.get)
	return &state
}

// get reads committed values through the cache. Absent keys read as nil.
func (s *State) get(key storageKey) ([]byte, bool, error) {
	if s.cache == nil {
		v, err := s.load(key)
		return v, true, err
	}
	v, err := s.cache.GetOrLoad(string(key), func() ([]byte, error) {
		return s.load(key)
	})
	return v, true, err
}

func (s *State) load(key storageKey) ([]byte, error) {
	raw, err := s.store.Get([]byte(key))
	if err != nil {
		if s.store.IsNotFound(err) {
			return []byte(nil), nil
		}
		return nil, err
	}
	return raw, nil
}

// GetRawStorage returns the raw value stored at key. Absent keys yield nil.
func (s *State) GetRawStorage(key []byte) ([]byte, error) {
	v, _, err := s.sm.Get(storageKey(key))
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// SetRawStorage sets the raw value stored at key. An empty value deletes the key.
func (s *State) SetRawStorage(key []byte, raw []byte) {
	s.sm.Put(storageKey(key), bytes.Clone(raw))
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by Error type.
func (s *State) DecodeStorage(key []byte, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by Error type.
func (s *State) EncodeStorage(key []byte, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(key, raw)
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage object to commit changes.
// Later writes to the same key override earlier ones.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey][]byte)
	var order []storageKey
	s.sm.Journal(func(key storageKey, v []byte) bool {
		if _, ok := changes[key]; !ok {
			order = append(order, key)
		}
		changes[key] = v
		return true
	})
	return &Stage{
		store:   s.store,
		cache:   s.cache,
		changes: changes,
		order:   order,
	}
}
