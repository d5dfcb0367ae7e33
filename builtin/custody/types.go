// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package custody

import (
	"github.com/vechain/gemfarm/gem"
)

type BankFlags uint32

const (
	// FreezeVaults stops every lock toggle and withdrawal of the bank's vaults.
	FreezeVaults BankFlags = 1 << iota
)

type BankInfo struct {
	Manager    gem.Address
	Flags      BankFlags
	VaultCount uint64
}

func (b *BankInfo) IsEmpty() bool {
	return b.Manager.IsZero()
}

func (b *BankInfo) Frozen() bool {
	return b.Flags&FreezeVaults != 0
}

type Vault struct {
	Bank           gem.Address
	Owner          gem.Address
	Creator        gem.Address
	Authority      gem.Address
	AuthorityNonce uint8
	Locked         bool

	GemBoxCount  uint64
	GemCount     uint64
	RarityPoints uint64
}

func (v *Vault) IsEmpty() bool {
	return v.Bank.IsZero()
}

// GemBox holds the gems of a single mint inside a vault.
type GemBox struct {
	Vault  gem.Address
	Mint   gem.Address
	Amount uint64
}

type DepositReceipt struct {
	Vault       gem.Address
	GemBox      gem.Address
	Mint        gem.Address
	GemCount    uint64
	DepositedAt uint64 // time of the latest deposit, in seconds
}

func (r *DepositReceipt) IsEmpty() bool {
	return r.GemCount == 0
}

type Rarity struct {
	Points uint16
}

// WithdrawParams carries the arguments of a gem withdrawal.
type WithdrawParams struct {
	Owner       gem.Address
	Vault       gem.Address
	Destination gem.Address
	Mint        gem.Address
	Nonces      gem.Nonces
	Amount      uint64
	MinHoldSec  uint64
	Now         uint64
}
