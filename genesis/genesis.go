// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/gemfarm/builtin/custody"
	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/builtin/farm/rewards"
	"github.com/vechain/gemfarm/builtin/farm/stakes"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/ledger"
	"github.com/vechain/gemfarm/log"
	"github.com/vechain/gemfarm/state"
)

var logger = log.WithContext("pkg", "genesis")

// Genesis is the initial content of a ledger.
type Genesis struct {
	Timestamp uint64 `yaml:"timestamp"`
	Banks     []Bank `yaml:"banks"`
	Farms     []Farm `yaml:"farms"`
}

type Bank struct {
	Address  gem.Address `yaml:"address"`
	Manager  gem.Address `yaml:"manager"`
	Rarities []Rarity    `yaml:"rarities,omitempty"`
	Vaults   []Vault     `yaml:"vaults,omitempty"`
}

type Rarity struct {
	Mint   gem.Address `yaml:"mint"`
	Points uint16      `yaml:"points"`
}

type Vault struct {
	Creator  gem.Address `yaml:"creator"`
	Owner    gem.Address `yaml:"owner"`
	Deposits []Deposit   `yaml:"deposits,omitempty"`
}

type Deposit struct {
	Mint   gem.Address `yaml:"mint"`
	Amount uint64      `yaml:"amount"`
}

type Farm struct {
	Address   gem.Address `yaml:"address"`
	Authority gem.Address `yaml:"authority"`
	Bank      gem.Address `yaml:"bank"`
	Config    farm.Config `yaml:"config"`
	Farmers   []Farmer    `yaml:"farmers,omitempty"`
}

// Farmer joins the farm with the vault created by VaultCreator, or by Identity when unset.
// A staked farmer stakes the whole vault content and has its vault locked.
type Farmer struct {
	Identity     gem.Address  `yaml:"identity"`
	VaultCreator *gem.Address `yaml:"vaultCreator,omitempty"`
	Staked       bool         `yaml:"staked"`
}

// Load reads a genesis document from a yaml file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	var gen Genesis
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return &gen, nil
}

// Init applies the genesis to an empty ledger.
func (g *Genesis) Init(ctx context.Context, l *ledger.Ledger) (*ledger.Commit, error) {
	if l.Seq() != 0 {
		return nil, errors.Errorf("ledger is not empty, seq %d", l.Seq())
	}
	return l.Execute(ctx, func(tx *ledger.Tx) error {
		return g.Apply(tx.State)
	})
}

// Apply builds every record of the genesis through the custody and farm services.
func (g *Genesis) Apply(st *state.State) error {
	bank := custody.New(st)
	farms := farm.New(st)

	for _, b := range g.Banks {
		if err := applyBank(bank, g.Timestamp, &b); err != nil {
			return errors.WithMessagef(err, "bank %v", b.Address)
		}
	}
	for _, f := range g.Farms {
		if err := farms.InitFarm(f.Address, f.Authority, f.Bank, f.Config, g.Timestamp); err != nil {
			return errors.WithMessagef(err, "farm %v", f.Address)
		}
		for _, fr := range f.Farmers {
			if err := applyFarmer(bank, farms, g.Timestamp, &f, &fr); err != nil {
				return errors.WithMessagef(err, "farmer %v of farm %v", fr.Identity, f.Address)
			}
		}
	}
	logger.Info("genesis applied", "banks", len(g.Banks), "farms", len(g.Farms))
	return nil
}

func applyBank(bank *custody.Bank, now uint64, b *Bank) error {
	if err := bank.InitBank(b.Address, b.Manager); err != nil {
		return err
	}
	for _, r := range b.Rarities {
		if err := bank.RecordRarity(b.Manager, b.Address, r.Mint, r.Points); err != nil {
			return errors.WithMessagef(err, "rarity of %v", r.Mint)
		}
	}
	for _, v := range b.Vaults {
		vault, err := bank.InitVault(b.Address, v.Creator, v.Owner)
		if err != nil {
			return errors.WithMessagef(err, "vault of %v", v.Creator)
		}
		for _, d := range v.Deposits {
			if err := bank.Credit(v.Owner, d.Mint, d.Amount); err != nil {
				return err
			}
			if err := bank.Deposit(v.Owner, vault, d.Mint, d.Amount, now); err != nil {
				return errors.WithMessagef(err, "deposit of %v", d.Mint)
			}
		}
	}
	return nil
}

func applyFarmer(bank *custody.Bank, farms *farm.Service, now uint64, f *Farm, fr *Farmer) error {
	creator := fr.Identity
	if fr.VaultCreator != nil {
		creator = *fr.VaultCreator
	}
	vaultAddr, _ := custody.FindVault(f.Bank, creator)
	vault, err := bank.GetVault(vaultAddr)
	if err != nil {
		return err
	}
	addr, err := farms.InitFarmer(f.Address, fr.Identity, farm.VaultRef{
		Address: vaultAddr,
		Bank:    vault.Bank,
		Owner:   vault.Owner,
	})
	if err != nil {
		return err
	}
	if !fr.Staked {
		return nil
	}

	if vault.GemCount == 0 {
		return errors.New("cannot stake an empty vault")
	}
	if err := bank.SetLock(f.Authority, vaultAddr, true); err != nil {
		return errors.WithMessage(err, "lock vault")
	}
	cp, err := rewards.New(farms).UpdateRewards(f.Address, now, &addr)
	if err != nil {
		return err
	}
	return stakes.New(farms).StakeExtra(cp, vault.GemCount, vault.RarityPoints, true)
}
