// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farms

import (
	"github.com/vechain/gemfarm/builtin/custody"
	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/logdb"
)

type Farm struct {
	Address               gem.Address `json:"address"`
	Authority             gem.Address `json:"authority"`
	Bank                  gem.Address `json:"bank"`
	Config                farm.Config `json:"config"`
	Paused                bool        `json:"paused"`
	FarmerCount           uint64      `json:"farmerCount"`
	StakedFarmerCount     uint64      `json:"stakedFarmerCount"`
	GemsStaked            uint64      `json:"gemsStaked"`
	RarityPointsStaked    uint64      `json:"rarityPointsStaked"`
	AccruedPerRarityPoint string      `json:"accruedPerRarityPoint"`
	LastUpdatedTs         uint64      `json:"lastUpdatedTs"`
}

func convertFarm(addr gem.Address, f *farm.Farm) *Farm {
	return &Farm{
		Address:               addr,
		Authority:             f.Authority,
		Bank:                  f.Bank,
		Config:                f.Config,
		Paused:                f.Paused,
		FarmerCount:           f.FarmerCount,
		StakedFarmerCount:     f.StakedFarmerCount,
		GemsStaked:            f.GemsStaked,
		RarityPointsStaked:    f.RarityPointsStaked,
		AccruedPerRarityPoint: f.Reward.AccruedPerRarityPoint.Dec(),
		LastUpdatedTs:         f.Reward.LastUpdatedTs,
	}
}

type Vault struct {
	Address      gem.Address `json:"address"`
	Locked       bool        `json:"locked"`
	GemBoxCount  uint64      `json:"gemBoxCount"`
	GemCount     uint64      `json:"gemCount"`
	RarityPoints uint64      `json:"rarityPoints"`
}

type Farmer struct {
	Address            gem.Address `json:"address"`
	Nonce              uint8       `json:"nonce"`
	Identity           gem.Address `json:"identity"`
	State              string      `json:"state"`
	GemsStaked         uint64      `json:"gemsStaked"`
	RarityPointsStaked uint64      `json:"rarityPointsStaked"`
	AccruedReward      uint64      `json:"accruedReward"`
	LastUpdatedTs      uint64      `json:"lastUpdatedTs"`
	MinStakingEndsTs   uint64      `json:"minStakingEndsTs"`
	CooldownEndsTs     uint64      `json:"cooldownEndsTs"`
	Vault              *Vault      `json:"vault"`
}

func convertFarmer(addr gem.Address, nonce uint8, f *farm.Farmer, vaultAddr gem.Address, v *custody.Vault) *Farmer {
	return &Farmer{
		Address:            addr,
		Nonce:              nonce,
		Identity:           f.Identity,
		State:              f.State.String(),
		GemsStaked:         f.GemsStaked,
		RarityPointsStaked: f.RarityPointsStaked,
		AccruedReward:      f.Reward.AccruedReward,
		LastUpdatedTs:      f.Reward.LastUpdatedTs,
		MinStakingEndsTs:   f.MinStakingEndsTs,
		CooldownEndsTs:     f.CooldownEndsTs,
		Vault: &Vault{
			Address:      vaultAddr,
			Locked:       v.Locked,
			GemBoxCount:  v.GemBoxCount,
			GemCount:     v.GemCount,
			RarityPoints: v.RarityPoints,
		},
	}
}

// FlashWithdraw is the body of a flash withdrawal request.
// Nonces and farmer nonce default to the canonical ones when omitted.
type FlashWithdraw struct {
	Identity    gem.Address `json:"identity"`
	Vault       gem.Address `json:"vault"`
	Destination gem.Address `json:"destination"`
	Mint        gem.Address `json:"mint"`
	Amount      uint64      `json:"amount"`
	FarmerNonce *uint8      `json:"farmerNonce,omitempty"`
	Nonces      *gem.Nonces `json:"nonces,omitempty"`
}

type Withdrawal struct {
	Seq         uint64      `json:"seq"`
	Farmer      gem.Address `json:"farmer"`
	Identity    gem.Address `json:"identity"`
	Vault       gem.Address `json:"vault"`
	Destination gem.Address `json:"destination"`
	Mint        gem.Address `json:"mint"`
	Amount      uint64      `json:"amount"`
	Rarity      uint64      `json:"rarity"`
	Accrued     uint64      `json:"accrued"`
	Timestamp   uint64      `json:"timestamp"`
}

func convertWithdrawal(w *logdb.Withdrawal) *Withdrawal {
	return &Withdrawal{
		Seq:         w.Seq,
		Farmer:      w.Farmer,
		Identity:    w.Identity,
		Vault:       w.Vault,
		Destination: w.Destination,
		Mint:        w.Mint,
		Amount:      w.Amount,
		Rarity:      w.Rarity,
		Accrued:     w.Accrued,
		Timestamp:   w.Timestamp,
	}
}
