// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package flash

import (
	"context"

	"github.com/vechain/gemfarm/builtin/custody"
	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/ledger"
)

// Execute runs a flash withdrawal as its own ledger transaction and returns the
// receipt with the commit that carries it. The receipt is emitted to commit subscribers.
func Execute(ctx context.Context, l *ledger.Ledger, req *Request) (*Receipt, *ledger.Commit, error) {
	var receipt *Receipt
	commit, err := l.Execute(ctx, func(tx *ledger.Tx) error {
		r, err := New(farm.New(tx.State), custody.New(tx.State)).FlashWithdraw(req)
		if err != nil {
			return err
		}
		tx.Emit(r)
		receipt = r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return receipt, commit, nil
}
