// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/gemfarm/builtin/farm/flash"
	"github.com/vechain/gemfarm/gem"
)

// Withdrawal is a committed flash withdrawal as stored in db.
type Withdrawal struct {
	Seq         uint64 // ledger commit sequence
	Index       uint32 // position within the commit
	Farm        gem.Address
	Farmer      gem.Address
	Identity    gem.Address
	Vault       gem.Address
	Destination gem.Address
	Mint        gem.Address
	Amount      uint64
	Rarity      uint64
	Accrued     uint64
	Timestamp   uint64
}

// NewWithdrawal converts a flash receipt to Withdrawal.
func NewWithdrawal(seq uint64, index uint32, r *flash.Receipt) *Withdrawal {
	return &Withdrawal{
		Seq:         seq,
		Index:       index,
		Farm:        r.Farm,
		Farmer:      r.Farmer,
		Identity:    r.Identity,
		Vault:       r.Vault,
		Destination: r.Destination,
		Mint:        r.Mint,
		Amount:      r.Amount,
		Rarity:      r.AddedRarity,
		Accrued:     r.AccruedReward,
		Timestamp:   r.Timestamp,
	}
}

type RangeType string

const (
	Seq  RangeType = "seq"
	Time RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type WithdrawalFilter struct {
	Farm    *gem.Address
	Farmer  *gem.Address
	Range   *Range
	Options *Options
	Order   Order // default asc
}
