// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap layers writes over a read source so they can be reverted level by level.
package stackedmap

// Getter reads the source below every level.
type Getter[K comparable, V any] func(key K) (value V, exist bool, err error)

type entry[K comparable, V any] struct {
	key   K
	value V
}

type level[K comparable, V any] struct {
	values  map[K]V
	journal []entry[K, V]
}

// StackedMap is a stack of maps. A Get sees the newest Put to the key in any level,
// falling back to the source.
type StackedMap[K comparable, V any] struct {
	src    Getter[K, V]
	levels []*level[K, V]
	// depths of the levels holding each key, innermost last
	owners map[K][]int
}

// New returns a map with one level over src.
func New[K comparable, V any](src Getter[K, V]) *StackedMap[K, V] {
	sm := &StackedMap[K, V]{
		src:    src,
		owners: make(map[K][]int),
	}
	sm.Push()
	return sm
}

func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.levels)
}

// Push opens a new level and returns the depth before it, to be passed to PopTo.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, &level[K, V]{values: make(map[K]V)})
	return len(sm.levels) - 1
}

// Pop drops the top level and every Put made in it.
func (sm *StackedMap[K, V]) Pop() {
	top := len(sm.levels) - 1
	for key := range sm.levels[top].values {
		depths := sm.owners[key]
		if len(depths) == 1 {
			delete(sm.owners, key)
		} else {
			sm.owners[key] = depths[:len(depths)-1]
		}
	}
	sm.levels[top] = nil
	sm.levels = sm.levels[:top]
}

// PopTo pops levels until depth remain.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if depths, ok := sm.owners[key]; ok {
		return sm.levels[depths[len(depths)-1]].values[key], true, nil
	}
	return sm.src(key)
}

// Put writes to the top level.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	depth := len(sm.levels) - 1
	top := sm.levels[depth]
	top.values[key] = value
	top.journal = append(top.journal, entry[K, V]{key, value})

	depths := sm.owners[key]
	if len(depths) == 0 || depths[len(depths)-1] != depth {
		sm.owners[key] = append(depths, depth)
	}
}

// Journal replays every live Put from the bottom level up, stopping when cb returns false.
func (sm *StackedMap[K, V]) Journal(cb func(key K, value V) bool) {
	for _, lvl := range sm.levels {
		for _, e := range lvl.journal {
			if !cb(e.key, e.value) {
				return
			}
		}
	}
}
