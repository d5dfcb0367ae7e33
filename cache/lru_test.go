// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetOrLoad(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)

	c, err := NewLRU(2)
	require.NoError(t, err)

	loads := 0
	load := func(v string) func() ([]byte, error) {
		return func() ([]byte, error) {
			loads++
			return []byte(v), nil
		}
	}

	v, err := c.GetOrLoad("farm", load("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)

	v, err = c.GetOrLoad("farm", load("ignored"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)
	assert.Equal(t, 1, loads)

	_, err = c.GetOrLoad("farmer", func() ([]byte, error) { return nil, errors.New("boom") })
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, int64(1), c.Stats().Hits())
	assert.Equal(t, int64(2), c.Stats().Misses())
	assert.InDelta(t, 1.0/3, c.Stats().HitRate(), 1e-9)
}

func TestLRUSetAndPurge(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)
	assert.Zero(t, c.Stats().HitRate())

	c.Set("vault", []byte{1})
	c.Set("vault", []byte{2})
	v, err := c.GetOrLoad("vault", func() ([]byte, error) { return nil, errors.New("unexpected load") })
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, v)

	// absent keys are cached as empty values
	c.Set("gone", nil)
	v, err = c.GetOrLoad("gone", func() ([]byte, error) { return nil, errors.New("unexpected load") })
	require.NoError(t, err)
	assert.Empty(t, v)

	c.Purge()
	assert.Zero(t, c.Len())
}
