// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/gemfarm/cache"
	"github.com/vechain/gemfarm/lvldb"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB, *cache.LRU) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	c, err := cache.NewLRU(16)
	require.NoError(t, err)
	return New(db, c), db, c
}

func TestStateCheckpoint(t *testing.T) {
	st, _, _ := newTestState(t)
	key := []byte("k")

	v, err := st.GetRawStorage(key)
	require.NoError(t, err)
	assert.Nil(t, v)

	st.SetRawStorage(key, []byte("v1"))
	chk := st.NewCheckpoint()
	st.SetRawStorage(key, []byte("v2"))
	st.SetRawStorage(key, []byte("v3"))

	v, err = st.GetRawStorage(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v3"), v)

	st.RevertTo(chk)
	v, err = st.GetRawStorage(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)
}

func TestStageCommit(t *testing.T) {
	st, db, c := newTestState(t)

	st.SetRawStorage([]byte("a"), []byte("1"))
	st.SetRawStorage([]byte("b"), []byte("2"))
	st.SetRawStorage([]byte("a"), []byte("3"))

	// nothing written before commit
	_, err := db.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	require.NoError(t, stage.Commit())

	raw, err := db.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), raw)

	cached, err := c.GetOrLoad("b", func() ([]byte, error) { return nil, errors.New("not cached") })
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), cached)

	// deletion
	st = New(db, c)
	st.SetRawStorage([]byte("a"), nil)
	require.NoError(t, st.Stage().Commit())
	_, err = db.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))

	v, err := New(db, c).GetRawStorage([]byte("a"))
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestStateDecodeError(t *testing.T) {
	st, _, _ := newTestState(t)
	st.SetRawStorage([]byte("x"), []byte{1})

	err := st.DecodeStorage([]byte("x"), func([]byte) error { return errors.New("bad") })
	var stateErr *Error
	require.ErrorAs(t, err, &stateErr)
	assert.EqualError(t, err, "state: bad")

	err = st.EncodeStorage([]byte("y"), func() ([]byte, error) { return nil, errors.New("enc") })
	assert.EqualError(t, err, "state: enc")
}
