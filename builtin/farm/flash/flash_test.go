// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package flash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/gemfarm/builtin/custody"
	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/builtin/farm/rewards"
	"github.com/vechain/gemfarm/builtin/farm/stakes"
	"github.com/vechain/gemfarm/builtin/reverts"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/kv"
	"github.com/vechain/gemfarm/ledger"
	"github.com/vechain/gemfarm/lvldb"
	"github.com/vechain/gemfarm/state"
)

var (
	bankAddr    = gem.BytesToAddress([]byte("bank"))
	farmAddr    = gem.BytesToAddress([]byte("farm"))
	authority   = gem.BytesToAddress([]byte("farm-authority"))
	mint        = gem.BytesToAddress([]byte("mint"))
	destination = gem.BytesToAddress([]byte("destination"))
)

type member struct {
	identity gem.Address
	vault    gem.Address
	farmer   gem.Address
}

type testFarm struct {
	ledger  *ledger.Ledger
	db      kv.Store
	members []*member
}

// newTestFarm builds a farm emitting 100 per second, with one farmer per stake,
// each holding exactly its stake of one point gems in a locked vault since t=0.
func newTestFarm(t *testing.T, staked ...uint64) *testFarm {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	l, err := ledger.New(db, 256)
	require.NoError(t, err)
	t.Cleanup(func() {
		l.Close()
		db.Close()
	})

	tf := &testFarm{ledger: l, db: db}
	_, err = l.Execute(context.Background(), func(tx *ledger.Tx) error {
		bank := custody.New(tx.State)
		farms := farm.New(tx.State)
		if err := bank.InitBank(bankAddr, authority); err != nil {
			return err
		}
		if err := bank.RecordRarity(authority, bankAddr, mint, 1); err != nil {
			return err
		}
		config := farm.Config{MinStakingPeriodSec: 5, EmissionRate: 100}
		if err := farms.InitFarm(farmAddr, authority, bankAddr, config, 0); err != nil {
			return err
		}
		for i, amount := range staked {
			m := &member{identity: gem.BytesToAddress([]byte{'f', byte(i)})}
			if m.vault, err = bank.InitVault(bankAddr, m.identity, m.identity); err != nil {
				return err
			}
			if err := bank.Credit(m.identity, mint, amount); err != nil {
				return err
			}
			if err := bank.Deposit(m.identity, m.vault, mint, amount, 0); err != nil {
				return err
			}
			if m.farmer, err = farms.InitFarmer(farmAddr, m.identity, farm.VaultRef{Address: m.vault, Bank: bankAddr, Owner: m.identity}); err != nil {
				return err
			}
			if err := bank.SetLock(authority, m.vault, true); err != nil {
				return err
			}
			cp, err := rewards.New(farms).UpdateRewards(farmAddr, 0, &m.farmer)
			if err != nil {
				return err
			}
			if err := stakes.New(farms).StakeExtra(cp, amount, amount, true); err != nil {
				return err
			}
			tf.members = append(tf.members, m)
		}
		return nil
	})
	require.NoError(t, err)
	return tf
}

func (tf *testFarm) request(m *member, amount, now uint64) *Request {
	_, nonce := farm.FindFarmer(farmAddr, m.identity)
	return &Request{
		Farm:        farmAddr,
		Farmer:      m.farmer,
		FarmerNonce: nonce,
		Identity:    m.identity,
		Vault:       m.vault,
		Destination: destination,
		Mint:        mint,
		Amount:      amount,
		Nonces:      custody.FindNonces(bankAddr, m.vault, mint),
		Now:         now,
	}
}

// dump returns every key and value of the store.
func (tf *testFarm) dump(t *testing.T) map[string]string {
	out := make(map[string]string)
	it := tf.db.Iterate(kv.Range{})
	defer it.Release()
	for it.Next() {
		out[string(it.Key())] = string(it.Value())
	}
	require.NoError(t, it.Error())
	return out
}

func (tf *testFarm) view(t *testing.T, fn func(farms *farm.Service, bank *custody.Bank)) {
	require.NoError(t, tf.ledger.View(func(st *state.State) error {
		fn(farm.New(st), custody.New(st))
		return nil
	}))
}

func (tf *testFarm) settle(t *testing.T, m *member, now uint64) uint64 {
	var accrued uint64
	_, err := tf.ledger.Execute(context.Background(), func(tx *ledger.Tx) error {
		farms := farm.New(tx.State)
		if _, err := rewards.New(farms).UpdateRewards(farmAddr, now, &m.farmer); err != nil {
			return err
		}
		farmer, err := farms.GetFarmer(m.farmer)
		if err != nil {
			return err
		}
		accrued = farmer.Reward.AccruedReward
		return nil
	})
	require.NoError(t, err)
	return accrued
}

func (tf *testFarm) locked(t *testing.T, m *member) bool {
	var locked bool
	tf.view(t, func(_ *farm.Service, bank *custody.Bank) {
		v, err := bank.GetVault(m.vault)
		require.NoError(t, err)
		locked = v.Locked
	})
	return locked
}

func TestFlashWithdrawScenario(t *testing.T) {
	tf := newTestFarm(t, 10)
	m := tf.members[0]
	assert.True(t, tf.locked(t, m))

	receipt, commit, err := Execute(context.Background(), tf.ledger, tf.request(m, 5, 10))
	require.NoError(t, err)
	assert.True(t, tf.locked(t, m))
	assert.Equal(t, tf.ledger.Seq(), commit.Seq)
	assert.Equal(t, []any{receipt}, commit.Events)

	// rewards were settled on weight 10, not 15
	assert.Equal(t, uint64(1000), receipt.AccruedReward)
	assert.Equal(t, uint64(5), receipt.Amount)
	assert.Equal(t, uint64(5), receipt.AddedRarity)
	assert.Equal(t, uint64(15), receipt.FarmerGemsStaked)
	assert.Equal(t, uint64(15), receipt.FarmerRarityStaked)
	assert.Equal(t, uint64(15), receipt.FarmGemsStaked)
	assert.Equal(t, uint64(15), receipt.FarmRarityStaked)
	assert.Equal(t, uint64(5), receipt.VaultGemCount)
	assert.Equal(t, uint64(5), receipt.VaultRarityPoints)
	assert.Equal(t, uint64(10), receipt.Timestamp)

	tf.view(t, func(farms *farm.Service, bank *custody.Bank) {
		f, err := farms.GetFarm(farmAddr)
		require.NoError(t, err)
		assert.Equal(t, uint64(100*rewards.Precision), f.Reward.AccruedPerRarityPoint.Uint64())

		farmer, err := farms.GetFarmer(m.farmer)
		require.NoError(t, err)
		assert.Equal(t, uint64(15), farmer.RarityPointsStaked)
		assert.Equal(t, uint64(5), farmer.MinStakingEndsTs, "restake keeps the stake clock")
		assert.Equal(t, farm.FarmerStaked, farmer.State)

		bal, err := bank.BalanceOf(destination, mint)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), bal)
	})

	// later emissions use the new weight
	assert.Equal(t, uint64(2500), tf.settle(t, m, 25))
}

func TestFlashWithdrawNonDilution(t *testing.T) {
	tf := newTestFarm(t, 10, 30)
	a, b := tf.members[0], tf.members[1]

	assert.Equal(t, uint64(750), tf.settle(t, b, 10))
	_, _, err := Execute(context.Background(), tf.ledger, tf.request(a, 5, 10))
	require.NoError(t, err)
	assert.Equal(t, uint64(750), tf.settle(t, b, 10))

	// 1000 over [10, 20] shared 15:30
	assert.Equal(t, uint64(750+666), tf.settle(t, b, 20))
	assert.Equal(t, uint64(250+333), tf.settle(t, a, 20))
}

func TestFlashWithdrawZeroAmount(t *testing.T) {
	tf := newTestFarm(t, 10)
	before := tf.dump(t)

	_, _, err := Execute(context.Background(), tf.ledger, tf.request(tf.members[0], 0, 10))
	assert.True(t, reverts.IsKind(err, reverts.InvalidAmount))
	assert.Equal(t, before, tf.dump(t))
}

func TestFlashWithdrawRejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
		kind   reverts.Kind
	}{
		{"exceeds custody", func(r *Request) { r.Amount = 11 }, reverts.InsufficientCustody},
		{"premature", func(r *Request) { r.Now = 4 }, reverts.PrematureWithdrawal},
		{"wrong identity", func(r *Request) { r.Identity = destination }, reverts.AuthorizationFault},
		{"wrong vault", func(r *Request) { r.Vault = destination }, reverts.AuthorizationFault},
		{"wrong farmer nonce", func(r *Request) { r.FarmerNonce-- }, reverts.AuthorizationFault},
		{"wrong rarity nonce", func(r *Request) { r.Nonces.Rarity-- }, reverts.InvalidRarityTable},
		{"wrong box nonce", func(r *Request) { r.Nonces.GemBox-- }, reverts.CustodyFault},
		{"unknown farm", func(r *Request) { r.Farm = destination }, reverts.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := newTestFarm(t, 10)
			m := tf.members[0]
			before := tf.dump(t)

			req := tf.request(m, 5, 10)
			tt.mutate(req)
			_, _, err := Execute(context.Background(), tf.ledger, req)
			assert.True(t, reverts.IsKind(err, tt.kind), "got %v", err)

			assert.Equal(t, before, tf.dump(t))
			assert.True(t, tf.locked(t, m))
		})
	}
}

func TestFlashWithdrawPausedAndUnstaked(t *testing.T) {
	tf := newTestFarm(t, 10)
	m := tf.members[0]

	_, err := tf.ledger.Execute(context.Background(), func(tx *ledger.Tx) error {
		return farm.New(tx.State).SetPaused(farmAddr, authority, true)
	})
	require.NoError(t, err)
	_, _, err = Execute(context.Background(), tf.ledger, tf.request(m, 5, 10))
	assert.True(t, reverts.IsKind(err, reverts.FarmInactive))

	_, err = tf.ledger.Execute(context.Background(), func(tx *ledger.Tx) error {
		farms := farm.New(tx.State)
		if err := farms.SetPaused(farmAddr, authority, false); err != nil {
			return err
		}
		farmer, err := farms.GetFarmer(m.farmer)
		if err != nil {
			return err
		}
		farmer.State = farm.FarmerPendingCooldown
		return farms.SetFarmer(m.farmer, farmer)
	})
	require.NoError(t, err)
	_, _, err = Execute(context.Background(), tf.ledger, tf.request(m, 5, 10))
	assert.True(t, reverts.IsKind(err, reverts.FarmerNotStaked))
}

func TestFlashWithdrawUnlockFaults(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(bank *custody.Bank, m *member) error
		locked bool
	}{
		{"vault not at rest", func(bank *custody.Bank, m *member) error {
			return bank.SetLock(authority, m.vault, false)
		}, false},
		{"frozen bank", func(bank *custody.Bank, _ *member) error {
			return bank.SetFlags(authority, bankAddr, custody.FreezeVaults)
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := newTestFarm(t, 10)
			m := tf.members[0]
			_, err := tf.ledger.Execute(context.Background(), func(tx *ledger.Tx) error {
				return tt.setup(custody.New(tx.State), m)
			})
			require.NoError(t, err)
			before := tf.dump(t)

			bank := &faultyBank{}
			_, err = tf.ledger.Execute(context.Background(), func(tx *ledger.Tx) error {
				bank.Bank = custody.New(tx.State)
				_, err := New(farm.New(tx.State), bank).FlashWithdraw(tf.request(m, 5, 10))
				return err
			})
			assert.True(t, reverts.IsKind(err, reverts.CustodyFault), "got %v", err)
			// nothing past the unlock was attempted
			assert.Equal(t, []string{"unlock"}, bank.calls)
			assert.Equal(t, before, tf.dump(t))
			assert.Equal(t, tt.locked, tf.locked(t, m))
		})
	}
}

func TestFlashWithdrawForeignBankVault(t *testing.T) {
	tf := newTestFarm(t, 10)
	m := tf.members[0]
	otherBank := gem.BytesToAddress([]byte("other-bank"))

	// same manager, gems worth 10 points there
	var vault gem.Address
	_, err := tf.ledger.Execute(context.Background(), func(tx *ledger.Tx) error {
		bank := custody.New(tx.State)
		farms := farm.New(tx.State)
		if err := bank.InitBank(otherBank, authority); err != nil {
			return err
		}
		if err := bank.RecordRarity(authority, otherBank, mint, 10); err != nil {
			return err
		}
		var err error
		if vault, err = bank.InitVault(otherBank, m.identity, m.identity); err != nil {
			return err
		}
		if err := bank.Credit(m.identity, mint, 10); err != nil {
			return err
		}
		if err := bank.Deposit(m.identity, vault, mint, 10, 0); err != nil {
			return err
		}
		if err := bank.SetLock(authority, vault, true); err != nil {
			return err
		}
		farmer, err := farms.GetFarmer(m.farmer)
		if err != nil {
			return err
		}
		farmer.Vault = vault
		return farms.SetFarmer(m.farmer, farmer)
	})
	require.NoError(t, err)
	before := tf.dump(t)

	req := tf.request(m, 5, 10)
	req.Vault = vault
	req.Nonces = custody.FindNonces(otherBank, vault, mint)
	_, _, err = Execute(context.Background(), tf.ledger, req)
	assert.True(t, reverts.IsKind(err, reverts.InvalidRarityTable), "got %v", err)
	assert.Equal(t, before, tf.dump(t))

	tf.view(t, func(_ *farm.Service, bank *custody.Bank) {
		v, err := bank.GetVault(vault)
		require.NoError(t, err)
		assert.True(t, v.Locked)
		assert.Equal(t, uint64(100), v.RarityPoints)
	})
}

// faultyBank performs the real withdrawal and then reports a fault, or moves less than asked.
type faultyBank struct {
	*custody.Bank
	short bool
	calls []string
}

func (b *faultyBank) SetLock(manager, vault gem.Address, locked bool) error {
	if locked {
		b.calls = append(b.calls, "lock")
	} else {
		b.calls = append(b.calls, "unlock")
	}
	return b.Bank.SetLock(manager, vault, locked)
}

func (b *faultyBank) Withdraw(p *custody.WithdrawParams) (uint64, error) {
	b.calls = append(b.calls, "withdraw")
	n, err := b.Bank.Withdraw(p)
	if err != nil {
		return 0, err
	}
	if b.short {
		return n - 1, nil
	}
	return 0, reverts.New(reverts.InsufficientCustody, "injected")
}

func TestFlashWithdrawFaultAtomicity(t *testing.T) {
	for _, short := range []bool{false, true} {
		tf := newTestFarm(t, 10)
		m := tf.members[0]
		before := tf.dump(t)

		bank := &faultyBank{short: short}
		_, err := tf.ledger.Execute(context.Background(), func(tx *ledger.Tx) error {
			bank.Bank = custody.New(tx.State)
			_, err := New(farm.New(tx.State), bank).FlashWithdraw(tf.request(m, 5, 10))
			return err
		})
		if short {
			assert.True(t, reverts.IsKind(err, reverts.CustodyFault), "got %v", err)
		} else {
			assert.True(t, reverts.IsKind(err, reverts.InsufficientCustody), "got %v", err)
		}
		// relocked even though the withdrawal failed
		assert.Equal(t, []string{"unlock", "withdraw", "lock"}, bank.calls)

		assert.Equal(t, before, tf.dump(t))
		assert.True(t, tf.locked(t, m))
	}
}

func TestFlashWithdrawOverflow(t *testing.T) {
	tf := newTestFarm(t, 10)
	m := tf.members[0]

	_, err := tf.ledger.Execute(context.Background(), func(tx *ledger.Tx) error {
		farms := farm.New(tx.State)
		f, err := farms.GetFarm(farmAddr)
		if err != nil {
			return err
		}
		f.GemsStaked = math.MaxUint64 - 2
		return farms.SetFarm(farmAddr, f)
	})
	require.NoError(t, err)
	before := tf.dump(t)

	_, _, err = Execute(context.Background(), tf.ledger, tf.request(m, 5, 10))
	assert.True(t, reverts.IsKind(err, reverts.Overflow), "got %v", err)
	assert.Equal(t, before, tf.dump(t))
}

func TestFlashWithdrawConcurrentFarmers(t *testing.T) {
	amounts := make([]uint64, 8)
	for i := range amounts {
		amounts[i] = 10
	}
	tf := newTestFarm(t, amounts...)

	var g errgroup.Group
	for _, m := range tf.members {
		g.Go(func() error {
			for now := uint64(10); now < 13; now++ {
				if _, _, err := Execute(context.Background(), tf.ledger, tf.request(m, 2, now)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	tf.view(t, func(farms *farm.Service, bank *custody.Bank) {
		f, err := farms.GetFarm(farmAddr)
		require.NoError(t, err)

		var gems, rarity uint64
		require.NoError(t, farms.Farmers(farmAddr, func(_ gem.Address, farmer *farm.Farmer) (bool, error) {
			assert.Equal(t, uint64(16), farmer.GemsStaked)
			gems += farmer.GemsStaked
			rarity += farmer.RarityPointsStaked
			return true, nil
		}))
		assert.Equal(t, f.GemsStaked, gems)
		assert.Equal(t, f.RarityPointsStaked, rarity)
		assert.Equal(t, uint64(8*16), f.GemsStaked)

		for _, m := range tf.members {
			v, err := bank.GetVault(m.vault)
			require.NoError(t, err)
			assert.True(t, v.Locked)
			assert.Equal(t, uint64(4), v.GemCount)
		}
	})
}
