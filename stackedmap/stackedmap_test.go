// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/gemfarm/stackedmap"
)

func newMap(src map[string]uint64) *stackedmap.StackedMap[string, uint64] {
	return stackedmap.New(func(key string) (uint64, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})
}

func TestStackedMapLevels(t *testing.T) {
	sm := newMap(map[string]uint64{"gems": 100})

	get := func(key string) (uint64, bool) {
		v, ok, err := sm.Get(key)
		require.NoError(t, err)
		return v, ok
	}

	v, ok := get("gems")
	assert.True(t, ok)
	assert.Equal(t, uint64(100), v)
	_, ok = get("points")
	assert.False(t, ok)

	base := sm.Push()
	assert.Equal(t, 1, base)
	sm.Put("gems", 90)
	sm.Put("gems", 110)

	inner := sm.Push()
	sm.Put("gems", 0)
	sm.Put("points", 220)
	assert.Equal(t, 3, sm.Depth())

	v, _ = get("gems")
	assert.Zero(t, v)

	sm.PopTo(inner)
	v, _ = get("gems")
	assert.Equal(t, uint64(110), v)
	_, ok = get("points")
	assert.False(t, ok)

	sm.PopTo(base)
	v, _ = get("gems")
	assert.Equal(t, uint64(100), v)
	assert.Equal(t, 1, sm.Depth())
}

func TestStackedMapJournal(t *testing.T) {
	sm := newMap(nil)

	sm.Put("a", 1)
	rev := sm.Push()
	sm.Put("b", 2)
	sm.Put("a", 3)
	sm.Push()
	sm.Put("c", 4)
	sm.PopTo(rev + 1)

	type kv struct {
		k string
		v uint64
	}
	var got []kv
	sm.Journal(func(k string, v uint64) bool {
		got = append(got, kv{k, v})
		return true
	})
	assert.Equal(t, []kv{{"a", 1}, {"b", 2}, {"a", 3}}, got)

	n := 0
	sm.Journal(func(string, uint64) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}

func TestStackedMapSourceError(t *testing.T) {
	sm := stackedmap.New(func(string) (uint64, bool, error) {
		return 0, false, errors.New("disk")
	})
	_, _, err := sm.Get("gems")
	assert.EqualError(t, err, "disk")

	sm.Put("gems", 1)
	v, ok, err := sm.Get("gems")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), v)
}
