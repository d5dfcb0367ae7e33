// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/gemfarm/kv"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	persistent, err := Open(filepath.Join(t.TempDir(), "ledger"), Options{})
	require.NoError(t, err)
	defer persistent.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{persistent, mem} {
		require.NoError(t, db.Put(key, value))

		got, err := db.Get(key)
		assert.NoError(t, err)
		assert.Equal(t, value, got)

		has, err := db.Has(key)
		assert.NoError(t, err)
		assert.True(t, has)

		has, err = db.Has(inValidKey)
		assert.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, db.Delete(key))
		_, err = db.Get(key)
		assert.True(t, db.IsNotFound(err))
	}
}

func TestLevelDBBulkAndIterate(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	bulk := db.Bulk()
	require.NoError(t, bulk.Put([]byte("f.a"), []byte("1")))
	require.NoError(t, bulk.Put([]byte("f.b"), []byte("2")))
	require.NoError(t, bulk.Delete([]byte("f.c")))
	require.NoError(t, db.Put([]byte("g.c"), []byte("3")))
	assert.Equal(t, 3, bulk.Len())

	// nothing visible before write
	_, err = db.Get([]byte("f.a"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, bulk.Write())

	iter := db.Iterate(kv.Range{Start: []byte("f."), Limit: []byte("f/")})
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"f.a", "f.b"}, keys)
}

func TestLevelDBReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")

	db, err := Open(path, Options{ReadCacheMB: 1, WriteBufferMB: 1})
	require.NoError(t, err)
	bulk := db.Bulk()
	require.NoError(t, bulk.Put([]byte("seq"), []byte{1}))
	require.NoError(t, bulk.Write())
	assert.Zero(t, bulk.Len())
	require.NoError(t, db.Close())

	_, err = db.Get([]byte("seq"))
	assert.Error(t, err)

	db, err = Open(path, Options{})
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get([]byte("seq"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, got)
}
