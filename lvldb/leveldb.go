// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb is the leveldb backed kv.Store holding the ledger records.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/gemfarm/kv"
	"github.com/vechain/gemfarm/log"
)

var (
	_ kv.StoreCloser = (*LevelDB)(nil)

	logger = log.WithContext("pkg", "lvldb")

	// every commit must survive a crash once Execute returns
	writeOpt = opt.WriteOptions{Sync: true}
	readOpt  = opt.ReadOptions{}
)

// Options tunes the database. Values below the minimum are raised to it.
type Options struct {
	ReadCacheMB            int
	WriteBufferMB          int
	OpenFilesCacheCapacity int
}

const (
	minReadCacheMB   = 8
	minWriteBufferMB = 4
	minOpenFiles     = 16
)

func (o Options) leveldb() *opt.Options {
	return &opt.Options{
		OpenFilesCacheCapacity: max(o.OpenFilesCacheCapacity, minOpenFiles),
		BlockCacheCapacity:     max(o.ReadCacheMB, minReadCacheMB) * opt.MiB,
		WriteBuffer:            max(o.WriteBufferMB, minWriteBufferMB) * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
		// records are small and read by point lookups
		BlockSize: 4 * opt.KiB,
	}
}

// LevelDB wraps a leveldb instance.
type LevelDB struct {
	db *leveldb.DB
}

// Open opens the database at path, creating it when absent.
// A corrupted database is recovered from its table files.
func Open(path string, opts Options) (*LevelDB, error) {
	ldbOpts := opts.leveldb()
	db, err := leveldb.OpenFile(path, ldbOpts)
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		logger.Warn("database corrupted, recovering", "path", path, "err", err)
		db, err = leveldb.RecoverFile(path, ldbOpts)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb [%v]", path)
	}
	return &LevelDB{db}, nil
}

// NewMem creates a database in memory.
func NewMem() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), Options{}.leveldb())
	if err != nil {
		return nil, errors.Wrap(err, "open memory leveldb")
	}
	return &LevelDB{db}, nil
}

func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

// Get returns the value of key, or an error satisfying IsNotFound.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, &readOpt)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, &readOpt)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, &writeOpt)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, &writeOpt)
}

// Close closes the database. Later calls fail.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// Bulk collects writes applied atomically by Write.
func (ldb *LevelDB) Bulk() kv.Bulk {
	return &bulk{ldb.db, new(leveldb.Batch)}
}

// Iterate walks the keys in r in ascending order.
func (ldb *LevelDB) Iterate(r kv.Range) kv.Iterator {
	return ldb.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, &readOpt)
}

type bulk struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *bulk) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *bulk) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *bulk) Len() int {
	return b.batch.Len()
}

// Write applies the collected writes in one synced batch and resets the bulk.
func (b *bulk) Write() error {
	if err := b.db.Write(b.batch, &writeOpt); err != nil {
		return err
	}
	b.batch.Reset()
	return nil
}
