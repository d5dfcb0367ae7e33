// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gem

// Seeds of derived addresses. Kept together so that every package derives the same accounts.
var (
	SeedFarmer         = []byte("farmer")
	SeedGemBox         = []byte("gem_box")
	SeedDepositReceipt = []byte("gem_deposit_receipt")
	SeedRarity         = []byte("gem_rarity")
	SeedVaultAuthority = []byte("vault_authority")
	SeedVault          = []byte("vault")
)

// Nonces locate the custody sub-accounts of a vault deterministically.
// The farm core never interprets them, it only passes them to the custody module.
type Nonces struct {
	VaultAuthority uint8 `json:"vaultAuthority" yaml:"vaultAuthority"`
	GemBox         uint8 `json:"gemBox" yaml:"gemBox"`
	DepositReceipt uint8 `json:"depositReceipt" yaml:"depositReceipt"`
	Rarity         uint8 `json:"rarity" yaml:"rarity"`
}
