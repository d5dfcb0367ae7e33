// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package custody

import (
	"github.com/vechain/gemfarm/builtin/rarity"
	"github.com/vechain/gemfarm/gem"
)

func FindVault(bank, creator gem.Address) (gem.Address, uint8) {
	return gem.MustFindDerived(gem.SeedVault, bank.Bytes(), creator.Bytes())
}

func FindAuthority(vault gem.Address) (gem.Address, uint8) {
	return gem.MustFindDerived(gem.SeedVaultAuthority, vault.Bytes())
}

func FindGemBox(vault, mint gem.Address) (gem.Address, uint8) {
	return gem.MustFindDerived(gem.SeedGemBox, vault.Bytes(), mint.Bytes())
}

func FindReceipt(vault, mint gem.Address) (gem.Address, uint8) {
	return gem.MustFindDerived(gem.SeedDepositReceipt, vault.Bytes(), mint.Bytes())
}

// FindNonces returns the nonces a withdrawal of mint from vault has to present.
func FindNonces(bank, vault, mint gem.Address) gem.Nonces {
	_, authority := FindAuthority(vault)
	_, box := FindGemBox(vault, mint)
	_, receipt := FindReceipt(vault, mint)
	_, table := rarity.Find(bank, mint)
	return gem.Nonces{
		VaultAuthority: authority,
		GemBox:         box,
		DepositReceipt: receipt,
		Rarity:         table,
	}
}
