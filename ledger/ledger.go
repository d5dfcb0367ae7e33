// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger is the transaction boundary of the gem farm.
package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/gemfarm/cache"
	"github.com/vechain/gemfarm/co"
	"github.com/vechain/gemfarm/kv"
	"github.com/vechain/gemfarm/log"
	"github.com/vechain/gemfarm/metrics"
	"github.com/vechain/gemfarm/state"
)

var (
	logger = log.WithContext("pkg", "ledger")

	metricCommitChanges = metrics.LazyLoadHistogram("ledger_commit_changes", metrics.BucketChanges)
	metricTxCount       = metrics.LazyLoadCounterVec("ledger_tx_count", []string{"result"})

	seqKey = []byte("ledger-seq")
)

// Commit describes a committed transaction.
type Commit struct {
	Seq     uint64
	Changes int
	Events  []any
}

// Tx is the state a transaction works on.
type Tx struct {
	*state.State
	events []any
}

// Emit queues ev to be published once the transaction commits.
func (tx *Tx) Emit(ev any) {
	tx.events = append(tx.events, ev)
}

// Ledger serializes transactions over a kv store.
// Every transaction runs under one writer lock, so farm wide aggregates never lose updates.
type Ledger struct {
	store kv.Store
	cache *cache.LRU

	lock sync.RWMutex
	seq  uint64

	feed  event.Feed
	scope event.SubscriptionScope
	goes  co.Goes
}

// New creates a ledger over store. cacheSize is the number of raw values kept in memory.
func New(store kv.Store, cacheSize int) (*Ledger, error) {
	var c *cache.LRU
	if cacheSize > 0 {
		var err error
		if c, err = cache.NewLRU(cacheSize); err != nil {
			return nil, err
		}
	}
	l := &Ledger{store: store, cache: c}

	raw, err := store.Get(seqKey)
	if err != nil && !store.IsNotFound(err) {
		return nil, errors.Wrap(err, "load sequence")
	}
	if len(raw) == 8 {
		l.seq = binary.BigEndian.Uint64(raw)
	}
	return l, nil
}

// Seq returns the sequence number of the last commit.
func (l *Ledger) Seq() uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.seq
}

// Store returns the underlying store.
func (l *Ledger) Store() kv.Store {
	return l.store
}

// Execute runs fn as one transaction. Any error from fn reverts everything fn did and
// nothing reaches the store. The context is only checked before the transaction starts.
func (l *Ledger) Execute(ctx context.Context, fn func(tx *Tx) error) (*Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx := &Tx{State: state.New(l.store, l.cache)}
	checkpoint := tx.NewCheckpoint()
	if err := fn(tx); err != nil {
		tx.RevertTo(checkpoint)
		metricTxCount().AddWithLabel(1, map[string]string{"result": "reverted"})
		return nil, err
	}

	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], l.seq+1)
	tx.SetRawStorage(seqKey, seq[:])

	stage := tx.Stage()
	if err := stage.Commit(); err != nil {
		metricTxCount().AddWithLabel(1, map[string]string{"result": "failed"})
		return nil, errors.Wrap(err, "commit")
	}
	l.seq++
	metricTxCount().AddWithLabel(1, map[string]string{"result": "committed"})
	metricCommitChanges().Observe(int64(stage.Len()))

	commit := &Commit{Seq: l.seq, Changes: stage.Len(), Events: tx.events}
	logger.Debug("committed", "seq", commit.Seq, "changes", commit.Changes, "events", len(commit.Events))
	l.goes.Go(func() { l.feed.Send(commit) })
	return commit, nil
}

// View runs fn on a read only view of the committed records. Writes made by fn are dropped.
func (l *Ledger) View(fn func(st *state.State) error) error {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return fn(state.New(l.store, l.cache))
}

// SubscribeCommits delivers every commit made after the call to ch.
func (l *Ledger) SubscribeCommits(ch chan *Commit) event.Subscription {
	return l.scope.Track(l.feed.Subscribe(ch))
}

// Close ends all subscriptions and waits for pending deliveries.
func (l *Ledger) Close() {
	l.scope.Close()
	if n := l.goes.Running(); n > 0 {
		logger.Debug("waiting for commit deliveries", "pending", n)
	}
	l.goes.Wait()
	if l.cache != nil {
		stats := l.cache.Stats()
		logger.Debug("state cache", "hits", stats.Hits(), "misses", stats.Misses(), "rate", fmt.Sprintf("%.3f", stats.HitRate()))
	}
}
