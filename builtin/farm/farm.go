// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package farm keeps the farm and farmer records.
package farm

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/gemfarm/builtin/record"
	"github.com/vechain/gemfarm/builtin/reverts"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/log"
	"github.com/vechain/gemfarm/state"
)

const program = "gem_farm"

var logger = log.WithContext("pkg", "farm")

type indexKey [40]byte

func (k indexKey) Bytes() []byte {
	return k[:]
}

func newIndexKey(farm gem.Address, index uint64) (k indexKey) {
	copy(k[:], farm[:])
	binary.BigEndian.PutUint64(k[32:], index)
	return
}

// FindFarmer returns the canonical address of the farmer record of identity.
func FindFarmer(farm, identity gem.Address) (gem.Address, uint8) {
	return gem.MustFindDerived(gem.SeedFarmer, farm.Bytes(), identity.Bytes())
}

// IsFarmer reports whether addr is the farmer record of identity derived with nonce.
func IsFarmer(addr gem.Address, nonce uint8, farm, identity gem.Address) bool {
	return gem.IsDerived(addr, nonce, gem.SeedFarmer, farm.Bytes(), identity.Bytes())
}

// Service manages farms and their farmers.
type Service struct {
	farms   *record.Mapping[gem.Address, *Farm]
	farmers *record.Mapping[gem.Address, *Farmer]
	index   *record.Mapping[indexKey, gem.Address]
}

func New(st *state.State) *Service {
	ctx := record.NewContext(program, st)
	return &Service{
		farms:   record.NewMapping[gem.Address, *Farm](ctx, "farms"),
		farmers: record.NewMapping[gem.Address, *Farmer](ctx, "farmers"),
		index:   record.NewMapping[indexKey, gem.Address](ctx, "farmer-index"),
	}
}

func (s *Service) GetFarm(addr gem.Address) (*Farm, error) {
	f, err := s.farms.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get farm")
	}
	if f.IsEmpty() {
		return nil, reverts.Newf(reverts.NotFound, "farm %v", addr.AbbrevString())
	}
	if f.Reward.AccruedPerRarityPoint == nil {
		f.Reward.AccruedPerRarityPoint = new(uint256.Int)
	}
	return f, nil
}

func (s *Service) SetFarm(addr gem.Address, f *Farm) error {
	if err := s.farms.Set(addr, f); err != nil {
		return errors.Wrap(err, "failed to set farm")
	}
	return nil
}

// GetFarmer loads the farmer record stored at addr.
func (s *Service) GetFarmer(addr gem.Address) (*Farmer, error) {
	f, err := s.farmers.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get farmer")
	}
	if f.IsEmpty() {
		return nil, reverts.Newf(reverts.NotFound, "farmer %v", addr.AbbrevString())
	}
	if f.Reward.AccruedPerRarityPointSnapshot == nil {
		f.Reward.AccruedPerRarityPointSnapshot = new(uint256.Int)
	}
	return f, nil
}

func (s *Service) SetFarmer(addr gem.Address, f *Farmer) error {
	if err := s.farmers.Set(addr, f); err != nil {
		return errors.Wrap(err, "failed to set farmer")
	}
	return nil
}

// InitFarm registers a farm paying rewards for gems held in vaults of bank.
func (s *Service) InitFarm(addr, authority, bank gem.Address, config Config, now uint64) error {
	if authority.IsZero() {
		return reverts.New(reverts.AuthorizationFault, "farm authority required")
	}
	existing, err := s.farms.Get(addr)
	if err != nil {
		return errors.Wrap(err, "failed to get farm")
	}
	if !existing.IsEmpty() {
		return reverts.Newf(reverts.AuthorizationFault, "farm %v already exists", addr.AbbrevString())
	}
	logger.Debug("init farm", "farm", addr, "bank", bank, "emissionRate", config.EmissionRate)
	return s.SetFarm(addr, &Farm{
		Authority: authority,
		Bank:      bank,
		Config:    config,
		Reward: RewardState{
			AccruedPerRarityPoint: new(uint256.Int),
			LastUpdatedTs:         now,
		},
	})
}

// VaultRef is the custody vault a farmer stakes from, as custody reports it.
type VaultRef struct {
	Address gem.Address
	Bank    gem.Address
	Owner   gem.Address
}

// InitFarmer creates the unstaked farmer record of identity and returns its address.
// The vault must be kept in the farm's bank and owned by identity.
func (s *Service) InitFarmer(farmAddr, identity gem.Address, vault VaultRef) (gem.Address, error) {
	f, err := s.GetFarm(farmAddr)
	if err != nil {
		return gem.Address{}, err
	}
	if identity.IsZero() {
		return gem.Address{}, reverts.New(reverts.AuthorizationFault, "farmer identity required")
	}
	if vault.Bank != f.Bank {
		return gem.Address{}, reverts.Newf(reverts.AuthorizationFault,
			"vault %v is kept in bank %v, farm uses %v", vault.Address.AbbrevString(), vault.Bank.AbbrevString(), f.Bank.AbbrevString())
	}
	if vault.Owner != identity {
		return gem.Address{}, reverts.New(reverts.AuthorizationFault, "vault is not owned by the farmer identity")
	}
	addr, _ := FindFarmer(farmAddr, identity)
	existing, err := s.farmers.Get(addr)
	if err != nil {
		return gem.Address{}, errors.Wrap(err, "failed to get farmer")
	}
	if !existing.IsEmpty() {
		return gem.Address{}, reverts.Newf(reverts.AuthorizationFault, "farmer %v already exists", addr.AbbrevString())
	}

	farmer := &Farmer{
		Farm:     farmAddr,
		Identity: identity,
		Vault:    vault.Address,
		Index:    f.FarmerCount,
		Reward: FarmerReward{
			AccruedPerRarityPointSnapshot: new(uint256.Int),
		},
	}
	if err := s.index.Set(newIndexKey(farmAddr, f.FarmerCount), addr); err != nil {
		return gem.Address{}, err
	}
	f.FarmerCount++
	if err := s.SetFarm(farmAddr, f); err != nil {
		return gem.Address{}, err
	}
	logger.Debug("init farmer", "farm", farmAddr, "identity", identity, "vault", vault.Address)
	return addr, s.SetFarmer(addr, farmer)
}

// SetPaused pauses or resumes a farm. Only the farm authority may do so.
func (s *Service) SetPaused(farmAddr, authority gem.Address, paused bool) error {
	f, err := s.GetFarm(farmAddr)
	if err != nil {
		return err
	}
	if f.Authority != authority {
		return reverts.New(reverts.AuthorizationFault, "caller is not the farm authority")
	}
	f.Paused = paused
	return s.SetFarm(farmAddr, f)
}

// Farmers calls fn with every farmer of the farm, in creation order, until fn returns false.
func (s *Service) Farmers(farmAddr gem.Address, fn func(addr gem.Address, farmer *Farmer) (bool, error)) error {
	f, err := s.GetFarm(farmAddr)
	if err != nil {
		return err
	}
	for i := uint64(0); i < f.FarmerCount; i++ {
		addr, err := s.index.Get(newIndexKey(farmAddr, i))
		if err != nil {
			return errors.Wrap(err, "failed to get farmer index")
		}
		farmer, err := s.GetFarmer(addr)
		if err != nil {
			return err
		}
		next, err := fn(addr, farmer)
		if err != nil {
			return err
		}
		if !next {
			break
		}
	}
	return nil
}
