// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards accrues farm emissions to farmers in proportion to their rarity points.
package rewards

import (
	"github.com/holiman/uint256"

	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/builtin/reverts"
	"github.com/vechain/gemfarm/gem"
)

// Precision scales the per rarity point accumulator.
const Precision = 1_000_000_000_000

var precision = uint256.NewInt(Precision)

// Checkpoint proves that rewards of a farmer were settled at a given time and weight.
// Only this package can create one.
type Checkpoint struct {
	farm   gem.Address
	farmer gem.Address
	ts     uint64
	gems   uint64
	weight uint64
}

func (c *Checkpoint) Farm() gem.Address   { return c.farm }
func (c *Checkpoint) Farmer() gem.Address { return c.farmer }
func (c *Checkpoint) Timestamp() uint64   { return c.ts }

// Matches reports whether the farmer still stakes what it staked when the checkpoint was taken.
func (c *Checkpoint) Matches(farmAddr, farmerAddr gem.Address, farmer *farm.Farmer) bool {
	return c.farm == farmAddr &&
		c.farmer == farmerAddr &&
		c.gems == farmer.GemsStaked &&
		c.weight == farmer.RarityPointsStaked &&
		c.ts == farmer.Reward.LastUpdatedTs
}

type Ledger struct {
	farms *farm.Service
}

func New(farms *farm.Service) *Ledger {
	return &Ledger{farms: farms}
}

// UpdateRewards advances the accumulator of the farm to now and, when farmerAddr is given,
// settles what the farmer earned on its current weight. Both records are written back.
func (l *Ledger) UpdateRewards(farmAddr gem.Address, now uint64, farmerAddr *gem.Address) (*Checkpoint, error) {
	f, err := l.farms.GetFarm(farmAddr)
	if err != nil {
		return nil, err
	}
	var farmer *farm.Farmer
	if farmerAddr != nil {
		if farmer, err = l.farms.GetFarmer(*farmerAddr); err != nil {
			return nil, err
		}
		if farmer.Farm != farmAddr {
			return nil, reverts.Newf(reverts.AuthorizationFault, "farmer %v belongs to another farm", farmerAddr.AbbrevString())
		}
	}

	acc, last, err := Accumulate(&f.Reward, f.Config.EmissionRate, f.RarityPointsStaked, now)
	if err != nil {
		return nil, err
	}
	var accrued uint64
	if farmer != nil {
		if accrued, err = Settle(&farmer.Reward, acc, farmer.RarityPointsStaked); err != nil {
			return nil, err
		}
	}

	// nothing failed, apply
	f.Reward.AccruedPerRarityPoint = acc
	f.Reward.LastUpdatedTs = last
	if err := l.farms.SetFarm(farmAddr, f); err != nil {
		return nil, err
	}

	cp := &Checkpoint{farm: farmAddr, ts: last}
	if farmer != nil {
		farmer.Reward.AccruedReward = accrued
		farmer.Reward.AccruedPerRarityPointSnapshot = new(uint256.Int).Set(acc)
		farmer.Reward.LastUpdatedTs = last
		if err := l.farms.SetFarmer(*farmerAddr, farmer); err != nil {
			return nil, err
		}
		cp.farmer = *farmerAddr
		cp.gems = farmer.GemsStaked
		cp.weight = farmer.RarityPointsStaked
	}
	return cp, nil
}

// Accumulate returns the accumulator and timestamp after emitting from reward.LastUpdatedTs to now.
// A clock going backwards counts as no elapsed time.
func Accumulate(reward *farm.RewardState, rate, totalRarity, now uint64) (*uint256.Int, uint64, error) {
	acc := new(uint256.Int)
	if reward.AccruedPerRarityPoint != nil {
		acc.Set(reward.AccruedPerRarityPoint)
	}
	if now <= reward.LastUpdatedTs {
		return acc, reward.LastUpdatedTs, nil
	}
	if totalRarity == 0 || rate == 0 {
		return acc, now, nil
	}

	elapsed := uint256.NewInt(now - reward.LastUpdatedTs)
	inc, overflow := new(uint256.Int).MulOverflow(elapsed, uint256.NewInt(rate))
	if overflow {
		return nil, 0, reverts.New(reverts.Overflow, "emission")
	}
	if inc, overflow = inc.MulOverflow(inc, precision); overflow {
		return nil, 0, reverts.New(reverts.Overflow, "emission per rarity point")
	}
	inc.Div(inc, uint256.NewInt(totalRarity))
	if _, overflow = acc.AddOverflow(acc, inc); overflow {
		return nil, 0, reverts.New(reverts.Overflow, "reward accumulator")
	}
	return acc, now, nil
}

// Settle returns the accrued reward of a farmer of the given weight once the accumulator reaches acc.
func Settle(reward *farm.FarmerReward, acc *uint256.Int, weight uint64) (uint64, error) {
	snapshot := reward.AccruedPerRarityPointSnapshot
	if snapshot == nil {
		snapshot = new(uint256.Int)
	}
	if acc.Lt(snapshot) {
		return 0, reverts.New(reverts.Overflow, "accumulator below farmer snapshot")
	}
	earned := new(uint256.Int).Sub(acc, snapshot)
	earned, overflow := earned.MulOverflow(earned, uint256.NewInt(weight))
	if overflow {
		return 0, reverts.New(reverts.Overflow, "farmer reward")
	}
	earned.Div(earned, precision)
	if _, overflow = earned.AddOverflow(earned, uint256.NewInt(reward.AccruedReward)); overflow || !earned.IsUint64() {
		return 0, reverts.New(reverts.Overflow, "accrued reward")
	}
	return earned.Uint64(), nil
}
