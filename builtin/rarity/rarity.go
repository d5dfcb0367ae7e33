// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rarity converts gem quantities into rarity points.
package rarity

import (
	"github.com/holiman/uint256"

	"github.com/vechain/gemfarm/builtin/reverts"
	"github.com/vechain/gemfarm/gem"
)

// DefaultPoints is the per unit weight of a mint whose rarity was never recorded.
const DefaultPoints uint16 = 1

// Table is the rarity record of a mint within a bank, as located by the caller.
type Table struct {
	Address gem.Address
	Nonce   uint8
	Bank    gem.Address
	Mint    gem.Address
	// Points is nil when no rarity was recorded for the mint.
	Points *uint16
}

// Locate derives the table address of (bank, mint) for the given nonce.
func Locate(bank, mint gem.Address, nonce uint8) (gem.Address, bool) {
	return gem.Derive(nonce, gem.SeedRarity, bank.Bytes(), mint.Bytes())
}

// Find returns the canonical table address and nonce of (bank, mint).
func Find(bank, mint gem.Address) (gem.Address, uint8) {
	return gem.MustFindDerived(gem.SeedRarity, bank.Bytes(), mint.Bytes())
}

// Oracle is stateless, the zero value is ready to use.
type Oracle struct{}

// Verify checks that the table really belongs to the given mint.
func (Oracle) Verify(table *Table, mint gem.Address) error {
	if table == nil {
		return reverts.New(reverts.InvalidRarityTable, "missing rarity table")
	}
	if table.Mint != mint {
		return reverts.Newf(reverts.InvalidRarityTable, "table of mint %v used for %v", table.Mint.AbbrevString(), mint.AbbrevString())
	}
	addr, nonce := Find(table.Bank, mint)
	if table.Address != addr || table.Nonce != nonce {
		return reverts.Newf(reverts.InvalidRarityTable, "%v is not the rarity table of %v", table.Address.AbbrevString(), mint.AbbrevString())
	}
	return nil
}

// RarityFor returns the rarity points of amount gems of mint.
func (o Oracle) RarityFor(table *Table, mint gem.Address, amount uint64) (uint64, error) {
	if err := o.Verify(table, mint); err != nil {
		return 0, err
	}
	points := DefaultPoints
	if table.Points != nil {
		points = *table.Points
	}
	return Multiply(amount, points)
}

// Multiply returns amount*points, failing instead of wrapping around.
func Multiply(amount uint64, points uint16) (uint64, error) {
	total := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(uint64(points)))
	if !total.IsUint64() {
		return 0, reverts.Newf(reverts.Overflow, "rarity of %d gems at %d points", amount, points)
	}
	return total.Uint64(), nil
}
