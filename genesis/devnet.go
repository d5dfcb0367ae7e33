// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/vechain/gemfarm/builtin/custody"
	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/gem"
)

// DevAccount is a well known participant of the dev network.
type DevAccount struct {
	Identity gem.Address
	Vault    gem.Address
}

var (
	DevBank      = gem.BytesToAddress([]byte("dev-bank"))
	DevFarm      = gem.BytesToAddress([]byte("dev-farm"))
	DevAuthority = gem.BytesToAddress([]byte("dev-authority"))
	DevMint      = gem.BytesToAddress([]byte("dev-mint"))
)

// DevAccounts returns the staked farmers of the dev network.
func DevAccounts() []DevAccount {
	accounts := make([]DevAccount, 0, 4)
	for i := range 4 {
		identity := gem.BytesToAddress([]byte{'d', 'e', 'v', byte(i)})
		vault, _ := custody.FindVault(DevBank, identity)
		accounts = append(accounts, DevAccount{
			Identity: identity,
			Vault:    vault,
		})
	}
	return accounts
}

// NewDevnet creates a farm of four farmers, each staking 100 gems worth 2 points.
func NewDevnet(launchTime uint64) *Genesis {
	bank := Bank{
		Address:  DevBank,
		Manager:  DevAuthority,
		Rarities: []Rarity{{Mint: DevMint, Points: 2}},
	}
	f := Farm{
		Address:   DevFarm,
		Authority: DevAuthority,
		Bank:      DevBank,
		Config: farm.Config{
			MinStakingPeriodSec: 60,
			CooldownPeriodSec:   60,
			EmissionRate:        1000,
		},
	}
	for _, a := range DevAccounts() {
		bank.Vaults = append(bank.Vaults, Vault{
			Creator:  a.Identity,
			Owner:    a.Identity,
			Deposits: []Deposit{{Mint: DevMint, Amount: 100}},
		})
		f.Farmers = append(f.Farmers, Farmer{Identity: a.Identity, Staked: true})
	}
	return &Genesis{
		Timestamp: launchTime,
		Banks:     []Bank{bank},
		Farms:     []Farm{f},
	}
}
