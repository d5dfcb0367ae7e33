// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakes mutates staked amounts of farmers together with the farm aggregates.
package stakes

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/builtin/farm/rewards"
	"github.com/vechain/gemfarm/builtin/reverts"
	"github.com/vechain/gemfarm/log"
)

var logger = log.WithContext("pkg", "stakes")

type Accountant struct {
	farms *farm.Service
}

func New(farms *farm.Service) *Accountant {
	return &Accountant{farms: farms}
}

// totals is the set of counters touched by a stake change, computed up front.
type totals struct {
	farmGems, farmRarity     uint64
	farmerGems, farmerRarity uint64
	stakedFarmers            uint64
}

// StakeExtra adds amount gems weighing addedRarity points to the farmer the checkpoint was taken for.
// The checkpoint must be the latest reward settlement of that farmer, so the stake change can
// never apply to rewards that were earned before it.
// A fresh stake resets the minimum staking clock, a restake keeps it.
func (a *Accountant) StakeExtra(cp *rewards.Checkpoint, amount, addedRarity uint64, resetStakeClock bool) error {
	if cp == nil || cp.Farmer().IsZero() {
		return errors.New("stake change requires a farmer reward checkpoint")
	}
	farmAddr, farmerAddr := cp.Farm(), cp.Farmer()

	f, err := a.farms.GetFarm(farmAddr)
	if err != nil {
		return err
	}
	farmer, err := a.farms.GetFarmer(farmerAddr)
	if err != nil {
		return err
	}
	if !cp.Matches(farmAddr, farmerAddr, farmer) || f.Reward.LastUpdatedTs != cp.Timestamp() {
		return errors.New("stale reward checkpoint")
	}

	var fresh bool
	switch farmer.State {
	case farm.FarmerStaked:
	case farm.FarmerUnstaked:
		if !resetStakeClock {
			return reverts.New(reverts.FarmerNotStaked, "restake of an unstaked farmer")
		}
		fresh = true
	default:
		return reverts.Newf(reverts.FarmerNotStaked, "farmer is %v", farmer.State)
	}

	t, err := next(f, farmer, amount, addedRarity, fresh)
	if err != nil {
		return err
	}

	// nothing failed, apply
	f.GemsStaked, f.RarityPointsStaked, f.StakedFarmerCount = t.farmGems, t.farmRarity, t.stakedFarmers
	farmer.GemsStaked, farmer.RarityPointsStaked = t.farmerGems, t.farmerRarity
	farmer.State = farm.FarmerStaked
	if resetStakeClock {
		if cp.Timestamp() > math.MaxUint64-f.Config.MinStakingPeriodSec {
			farmer.MinStakingEndsTs = math.MaxUint64
		} else {
			farmer.MinStakingEndsTs = cp.Timestamp() + f.Config.MinStakingPeriodSec
		}
	}

	if err := a.farms.SetFarm(farmAddr, f); err != nil {
		return err
	}
	if err := a.farms.SetFarmer(farmerAddr, farmer); err != nil {
		return err
	}
	logger.Debug("staked extra gems",
		"farm", farmAddr,
		"farmer", farmerAddr,
		"amount", amount,
		"rarity", addedRarity,
		"reset", resetStakeClock,
	)
	return nil
}

func next(f *farm.Farm, farmer *farm.Farmer, amount, addedRarity uint64, fresh bool) (*totals, error) {
	var (
		t   totals
		err error
	)
	if t.farmGems, err = add(f.GemsStaked, amount, "farm gems"); err != nil {
		return nil, err
	}
	if t.farmRarity, err = add(f.RarityPointsStaked, addedRarity, "farm rarity points"); err != nil {
		return nil, err
	}
	if t.farmerGems, err = add(farmer.GemsStaked, amount, "farmer gems"); err != nil {
		return nil, err
	}
	if t.farmerRarity, err = add(farmer.RarityPointsStaked, addedRarity, "farmer rarity points"); err != nil {
		return nil, err
	}
	t.stakedFarmers = f.StakedFarmerCount
	if fresh {
		if t.stakedFarmers, err = add(f.StakedFarmerCount, 1, "staked farmers"); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func add(a, b uint64, what string) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, reverts.Newf(reverts.Overflow, "%s: %d + %d", what, a, b)
	}
	return a + b, nil
}
