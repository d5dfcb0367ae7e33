// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/gemfarm/builtin/custody"
	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/co"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/ledger"
	"github.com/vechain/gemfarm/state"
)

// totals are the farm aggregates, either as recorded or as summed over the farmers.
type totals struct {
	Farmers            uint64
	StakedFarmers      uint64
	GemsStaked         uint64
	RarityPointsStaked uint64
}

type verifyResult struct {
	recorded totals
	summed   totals
	problems []string
}

// farmerRecord is a farmer and its vault as read in the snapshot being verified.
type farmerRecord struct {
	addr   gem.Address
	farmer *farm.Farmer
	vault  *custody.Vault
}

// verifyFarm sums the farmers of a farm and checks every farmer against the farm.
// The farm and its farmers are read in one view, so a concurrent commit cannot
// show up as a mismatch. progress is called once per farmer checked.
func verifyFarm(l *ledger.Ledger, farmAddr gem.Address, progress func(total int)) (*verifyResult, error) {
	var (
		f       *farm.Farm
		records []farmerRecord
	)
	if err := l.View(func(st *state.State) error {
		farms, bank := farm.New(st), custody.New(st)
		var err error
		if f, err = farms.GetFarm(farmAddr); err != nil {
			return err
		}
		return farms.Farmers(farmAddr, func(addr gem.Address, farmer *farm.Farmer) (bool, error) {
			vault, err := bank.GetVault(farmer.Vault)
			if err != nil {
				return false, errors.WithMessagef(err, "farmer %v", addr)
			}
			records = append(records, farmerRecord{addr, farmer, vault})
			return true, nil
		})
	}); err != nil {
		return nil, err
	}

	result := &verifyResult{
		recorded: totals{f.FarmerCount, f.StakedFarmerCount, f.GemsStaked, f.RarityPointsStaked},
	}
	var (
		lock sync.Mutex
		seen = make(map[gem.Address]bool, len(records))
	)
	co.Parallel(func(enqueue co.Enqueue) {
		for _, r := range records {
			enqueue(func() {
				problems := checkFarmer(r.addr, farmAddr, f, r.farmer, r.vault)

				lock.Lock()
				defer lock.Unlock()
				defer progress(len(records))
				if seen[r.addr] {
					result.problems = append(result.problems, fmt.Sprintf("farmer %v indexed twice", r.addr))
				}
				seen[r.addr] = true
				result.problems = append(result.problems, problems...)

				result.summed.Farmers++
				if r.farmer.State == farm.FarmerStaked {
					result.summed.StakedFarmers++
				}
				result.summed.GemsStaked += r.farmer.GemsStaked
				result.summed.RarityPointsStaked += r.farmer.RarityPointsStaked
			})
		}
	})
	return result, nil
}

func checkFarmer(addr, farmAddr gem.Address, f *farm.Farm, farmer *farm.Farmer, vault *custody.Vault) (problems []string) {
	if farmer.Farm != farmAddr {
		problems = append(problems, fmt.Sprintf("farmer %v belongs to farm %v", addr, farmer.Farm))
	}
	if farmer.Reward.LastUpdatedTs > f.Reward.LastUpdatedTs {
		problems = append(problems, fmt.Sprintf("farmer %v settled after its farm", addr))
	}
	if farmer.Reward.AccruedPerRarityPointSnapshot.Gt(f.Reward.AccruedPerRarityPoint) {
		problems = append(problems, fmt.Sprintf("farmer %v snapshot ahead of the farm accumulator", addr))
	}
	if farmer.State == farm.FarmerStaked && !vault.Locked {
		problems = append(problems, fmt.Sprintf("vault %v of staked farmer %v is unlocked", farmer.Vault, addr))
	}
	return
}

func verifyAction(ctx *cli.Context) error {
	if _, err := initLogger(ctx); err != nil {
		return err
	}
	farmAddr, err := addressFlag(ctx, farmFlag)
	if err != nil {
		return err
	}
	l, closeLedger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()

	fmt.Println(">> Verifying farm totals <<")
	var bar *pb.ProgressBar
	result, err := verifyFarm(l, farmAddr, func(total int) {
		if bar == nil {
			bar = pb.New64(int64(total)).
				Set64(0).
				SetMaxWidth(90).
				Start()
		}
		bar.Increment()
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	for _, p := range result.problems {
		fmt.Println(p)
	}
	if result.recorded != result.summed {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(dumper.Sdump(result.recorded)),
			B:        difflib.SplitLines(dumper.Sdump(result.summed)),
			FromFile: "farm",
			ToFile:   "farmers",
			Context:  1,
		})
		if err != nil {
			return err
		}
		fmt.Print(diff)
		return errors.New("farm totals do not match its farmers")
	}
	if len(result.problems) > 0 {
		return errors.Errorf("%d problems found", len(result.problems))
	}
	fmt.Println("farm totals verified")
	return nil
}
