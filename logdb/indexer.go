// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/gemfarm/builtin/farm/flash"
	"github.com/vechain/gemfarm/ledger"
	"github.com/vechain/gemfarm/log"
)

var logger = log.WithContext("pkg", "logdb")

// Indexer copies the flash receipts of ledger commits into db.
// Commits are observed from the moment the indexer is created.
type Indexer struct {
	db  *LogDB
	ch  chan *ledger.Commit
	sub event.Subscription
}

func NewIndexer(db *LogDB, l *ledger.Ledger) *Indexer {
	ch := make(chan *ledger.Commit, 64)
	return &Indexer{
		db:  db,
		ch:  ch,
		sub: l.SubscribeCommits(ch),
	}
}

// Run indexes commits until ctx is done or the ledger is closed.
func (i *Indexer) Run(ctx context.Context) error {
	defer i.sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-i.sub.Err():
			return err
		case commit := <-i.ch:
			if err := i.insert(ctx, commit); err != nil {
				return errors.WithMessagef(err, "index commit %d", commit.Seq)
			}
		}
	}
}

func (i *Indexer) insert(ctx context.Context, commit *ledger.Commit) error {
	var withdrawals []*Withdrawal
	for _, ev := range commit.Events {
		if r, ok := ev.(*flash.Receipt); ok {
			withdrawals = append(withdrawals, NewWithdrawal(commit.Seq, uint32(len(withdrawals)), r))
		}
	}
	if len(withdrawals) == 0 {
		return nil
	}
	logger.Trace("index commit", "seq", commit.Seq, "withdrawals", len(withdrawals))
	return i.db.Insert(ctx, withdrawals...)
}
