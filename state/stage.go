// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/vechain/gemfarm/cache"
	"github.com/vechain/gemfarm/kv"
)

// Stage abstracts changes on the store.
type Stage struct {
	store   kv.Store
	cache   *cache.LRU
	changes map[storageKey][]byte
	order   []storageKey
}

// Len returns the number of keys changed.
func (s *Stage) Len() int {
	return len(s.order)
}

// Commit writes all changes in a single bulk.
func (s *Stage) Commit() error {
	if len(s.order) == 0 {
		return nil
	}
	bulk := s.store.Bulk()
	for _, key := range s.order {
		val := s.changes[key]
		var err error
		if len(val) == 0 {
			err = bulk.Delete([]byte(key))
		} else {
			err = bulk.Put([]byte(key), val)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		if s.cache != nil {
			s.cache.Purge()
		}
		return &Error{errors.Wrap(err, "write bulk")}
	}
	if s.cache != nil {
		for _, key := range s.order {
			s.cache.Set(string(key), s.changes[key])
		}
	}
	return nil
}
