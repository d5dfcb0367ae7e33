// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/vechain/gemfarm/gem"
)

type FarmerState uint8

const (
	FarmerUnstaked FarmerState = iota
	FarmerStaked
	FarmerPendingCooldown
)

func (s FarmerState) String() string {
	switch s {
	case FarmerUnstaked:
		return "unstaked"
	case FarmerStaked:
		return "staked"
	case FarmerPendingCooldown:
		return "pending-cooldown"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

type Config struct {
	MinStakingPeriodSec uint64 `json:"minStakingPeriodSec" yaml:"minStakingPeriodSec"`
	CooldownPeriodSec   uint64 `json:"cooldownPeriodSec" yaml:"cooldownPeriodSec"`
	EmissionRate        uint64 `json:"emissionRate" yaml:"emissionRate"` // reward units per second
}

// RewardState is the farm wide reward accumulator.
type RewardState struct {
	// AccruedPerRarityPoint is scaled by rewards.Precision.
	AccruedPerRarityPoint *uint256.Int
	LastUpdatedTs         uint64
}

type Farm struct {
	Authority gem.Address
	Bank      gem.Address
	Config    Config
	Paused    bool

	FarmerCount       uint64
	StakedFarmerCount uint64

	GemsStaked         uint64
	RarityPointsStaked uint64

	Reward RewardState
}

func (f *Farm) IsEmpty() bool {
	return f.Authority.IsZero()
}

// FarmerReward tracks what a farmer earned up to LastUpdatedTs.
type FarmerReward struct {
	AccruedReward                 uint64
	AccruedPerRarityPointSnapshot *uint256.Int
	LastUpdatedTs                 uint64
}

type Farmer struct {
	Farm     gem.Address
	Identity gem.Address
	Vault    gem.Address
	State    FarmerState
	Index    uint64 // position in the farm's farmer index

	GemsStaked         uint64
	RarityPointsStaked uint64

	MinStakingEndsTs uint64
	CooldownEndsTs   uint64

	Reward FarmerReward
}

func (f *Farmer) IsEmpty() bool {
	return f.Identity.IsZero()
}
