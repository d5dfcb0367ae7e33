// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package flash withdraws gems from a staked vault and restakes the same amount in one step.
package flash

import (
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/gemfarm/builtin/custody"
	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/builtin/farm/rewards"
	"github.com/vechain/gemfarm/builtin/farm/stakes"
	"github.com/vechain/gemfarm/builtin/rarity"
	"github.com/vechain/gemfarm/builtin/reverts"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/log"
	"github.com/vechain/gemfarm/metrics"
)

var (
	logger = log.WithContext("pkg", "flash")

	metricWithdrawals = metrics.LazyLoadCounterVec("flash_withdraw_count", []string{"result"})
	metricDuration    = metrics.LazyLoadHistogram("flash_withdraw_duration_us", metrics.BucketMicros)
	metricGems        = metrics.LazyLoadCounter("flash_withdraw_gems_count")
)

// Request asks to move Amount gems of Mint from Vault to Destination and restake them.
type Request struct {
	Farm        gem.Address `json:"farm"`
	Farmer      gem.Address `json:"farmer"`
	FarmerNonce uint8       `json:"farmerNonce"`
	Identity    gem.Address `json:"identity"`
	Vault       gem.Address `json:"vault"`
	Destination gem.Address `json:"destination"`
	Mint        gem.Address `json:"mint"`
	Amount      uint64      `json:"amount"`
	Nonces      gem.Nonces  `json:"nonces"`
	Now         uint64      `json:"now"`
}

// Receipt is the outcome of a committed flash withdrawal.
type Receipt struct {
	Farm        gem.Address `json:"farm"`
	Farmer      gem.Address `json:"farmer"`
	Identity    gem.Address `json:"identity"`
	Vault       gem.Address `json:"vault"`
	Destination gem.Address `json:"destination"`
	Mint        gem.Address `json:"mint"`
	Amount      uint64      `json:"amount"`
	AddedRarity uint64      `json:"addedRarity"`
	Timestamp   uint64      `json:"timestamp"`

	AccruedReward      uint64 `json:"accruedReward"`
	FarmerGemsStaked   uint64 `json:"farmerGemsStaked"`
	FarmerRarityStaked uint64 `json:"farmerRarityStaked"`
	FarmGemsStaked     uint64 `json:"farmGemsStaked"`
	FarmRarityStaked   uint64 `json:"farmRarityStaked"`

	VaultGemCount     uint64 `json:"vaultGemCount"`
	VaultRarityPoints uint64 `json:"vaultRarityPoints"`
}

type Orchestrator struct {
	farms   *farm.Service
	bank    custody.Module
	rewards *rewards.Ledger
	stakes  *stakes.Accountant
	oracle  rarity.Oracle
}

func New(farms *farm.Service, bank custody.Module) *Orchestrator {
	return &Orchestrator{
		farms:   farms,
		bank:    bank,
		rewards: rewards.New(farms),
		stakes:  stakes.New(farms),
	}
}

// FlashWithdraw runs the whole sequence against the state the services were built on.
// It leaves partial writes behind on failure, the caller owns the transaction and must revert it.
func (o *Orchestrator) FlashWithdraw(req *Request) (receipt *Receipt, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = reverts.KindOf(err).String()
		}
		metricWithdrawals().AddWithLabel(1, map[string]string{"result": result})
		metricDuration().Observe(time.Since(start).Microseconds())
	}()

	logger.Debug("flash withdraw", "farm", req.Farm, "farmer", req.Farmer, "vault", req.Vault, "amount", req.Amount)
	receipt, err = o.flashWithdraw(req)
	if err != nil {
		logger.Info("flash withdraw failed", "farmer", req.Farmer, "amount", req.Amount, "err", err)
		return nil, err
	}
	metricGems().Add(int64(receipt.Amount))
	logger.Info("flash withdraw",
		"farmer", req.Farmer,
		"amount", receipt.Amount,
		"rarity", receipt.AddedRarity,
		"accrued", receipt.AccruedReward,
	)
	return receipt, nil
}

func (o *Orchestrator) flashWithdraw(req *Request) (*Receipt, error) {
	f, farmer, err := o.authorize(req)
	if err != nil {
		return nil, err
	}

	if err := o.bank.SetLock(f.Authority, req.Vault, false); err != nil {
		return nil, errors.WithMessage(err, "unlock vault")
	}
	transferred, err := o.bank.Withdraw(&custody.WithdrawParams{
		Owner:       req.Identity,
		Vault:       req.Vault,
		Destination: req.Destination,
		Mint:        req.Mint,
		Nonces:      req.Nonces,
		Amount:      req.Amount,
		MinHoldSec:  f.Config.MinStakingPeriodSec,
		Now:         req.Now,
	})
	// relock whatever happened to the withdrawal
	if lockErr := o.bank.SetLock(f.Authority, req.Vault, true); lockErr != nil {
		if err != nil {
			return nil, errors.WithMessagef(err, "withdraw gems (relock: %v)", lockErr)
		}
		return nil, errors.WithMessage(lockErr, "relock vault")
	}
	if err != nil {
		return nil, errors.WithMessage(err, "withdraw gems")
	}
	if transferred != req.Amount {
		return nil, reverts.Newf(reverts.CustodyFault, "custody moved %d of %d gems", transferred, req.Amount)
	}

	// settle rewards on the stake as it was before this call
	cp, err := o.rewards.UpdateRewards(req.Farm, req.Now, &req.Farmer)
	if err != nil {
		return nil, errors.WithMessage(err, "update rewards")
	}

	vault, err := o.bank.GetVault(req.Vault)
	if err != nil {
		return nil, errors.WithMessage(err, "reload vault")
	}
	table, err := o.bank.RarityTable(f.Bank, req.Mint, req.Nonces.Rarity)
	if err != nil {
		return nil, errors.WithMessage(err, "load rarity table")
	}
	addedRarity, err := o.oracle.RarityFor(table, req.Mint, transferred)
	if err != nil {
		return nil, errors.WithMessage(err, "rarity of withdrawn gems")
	}
	if err := o.stakes.StakeExtra(cp, transferred, addedRarity, false); err != nil {
		return nil, errors.WithMessage(err, "restake")
	}

	if f, err = o.farms.GetFarm(req.Farm); err != nil {
		return nil, err
	}
	if farmer, err = o.farms.GetFarmer(req.Farmer); err != nil {
		return nil, err
	}
	return &Receipt{
		Farm:               req.Farm,
		Farmer:             req.Farmer,
		Identity:           req.Identity,
		Vault:              req.Vault,
		Destination:        req.Destination,
		Mint:               req.Mint,
		Amount:             transferred,
		AddedRarity:        addedRarity,
		Timestamp:          cp.Timestamp(),
		AccruedReward:      farmer.Reward.AccruedReward,
		FarmerGemsStaked:   farmer.GemsStaked,
		FarmerRarityStaked: farmer.RarityPointsStaked,
		FarmGemsStaked:     f.GemsStaked,
		FarmRarityStaked:   f.RarityPointsStaked,
		VaultGemCount:      vault.GemCount,
		VaultRarityPoints:  vault.RarityPoints,
	}, nil
}

// authorize checks the request against the farm and farmer records before anything is touched.
func (o *Orchestrator) authorize(req *Request) (*farm.Farm, *farm.Farmer, error) {
	if req.Amount == 0 {
		return nil, nil, reverts.New(reverts.InvalidAmount, "amount must be positive")
	}
	f, err := o.farms.GetFarm(req.Farm)
	if err != nil {
		return nil, nil, err
	}
	if f.Paused {
		return nil, nil, reverts.Newf(reverts.FarmInactive, "farm %v is paused", req.Farm.AbbrevString())
	}
	if !farm.IsFarmer(req.Farmer, req.FarmerNonce, req.Farm, req.Identity) {
		return nil, nil, reverts.New(reverts.AuthorizationFault, "farmer is not derived from farm and identity")
	}
	farmer, err := o.farms.GetFarmer(req.Farmer)
	if err != nil {
		return nil, nil, err
	}
	if farmer.Farm != req.Farm || farmer.Identity != req.Identity {
		return nil, nil, reverts.New(reverts.AuthorizationFault, "caller is not the farmer identity")
	}
	if farmer.Vault != req.Vault {
		return nil, nil, reverts.New(reverts.AuthorizationFault, "vault does not belong to the farmer")
	}
	if farmer.State != farm.FarmerStaked {
		return nil, nil, reverts.Newf(reverts.FarmerNotStaked, "farmer is %v", farmer.State)
	}
	// restaked rarity is read from the farm's bank, custody deducts it from the vault's
	vault, err := o.bank.GetVault(req.Vault)
	if err != nil {
		return nil, nil, err
	}
	if vault.Bank != f.Bank {
		return nil, nil, reverts.Newf(reverts.InvalidRarityTable,
			"vault %v is kept in bank %v, farm uses %v", req.Vault.AbbrevString(), vault.Bank.AbbrevString(), f.Bank.AbbrevString())
	}
	return f, farmer, nil
}
