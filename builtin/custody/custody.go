// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package custody implements the gem bank: vaults holding gems on behalf of their owners.
package custody

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vechain/gemfarm/builtin/rarity"
	"github.com/vechain/gemfarm/builtin/record"
	"github.com/vechain/gemfarm/builtin/reverts"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/log"
	"github.com/vechain/gemfarm/state"
)

const program = "gem_bank"

var logger = log.WithContext("pkg", "custody")

// Module is the part of the bank consumed by the farm.
type Module interface {
	SetLock(manager, vault gem.Address, locked bool) error
	Withdraw(params *WithdrawParams) (uint64, error)
	GetVault(vault gem.Address) (*Vault, error)
	RarityTable(bank, mint gem.Address, nonce uint8) (*rarity.Table, error)
}

type balanceKey gem.Address

func (k balanceKey) Bytes() []byte {
	return k[:]
}

func newBalanceKey(owner, mint gem.Address) balanceKey {
	return balanceKey(gem.Blake2b(owner.Bytes(), mint.Bytes()))
}

// Bank is the state backed custody module.
type Bank struct {
	banks    *record.Mapping[gem.Address, *BankInfo]
	vaults   *record.Mapping[gem.Address, *Vault]
	boxes    *record.Mapping[gem.Address, *GemBox]
	receipts *record.Mapping[gem.Address, *DepositReceipt]
	rarities *record.Mapping[gem.Address, *Rarity]
	balances *record.Mapping[balanceKey, uint64]

	oracle rarity.Oracle
}

var _ Module = (*Bank)(nil)

func New(st *state.State) *Bank {
	ctx := record.NewContext(program, st)
	return &Bank{
		banks:    record.NewMapping[gem.Address, *BankInfo](ctx, "banks"),
		vaults:   record.NewMapping[gem.Address, *Vault](ctx, "vaults"),
		boxes:    record.NewMapping[gem.Address, *GemBox](ctx, "gem-boxes"),
		receipts: record.NewMapping[gem.Address, *DepositReceipt](ctx, "deposit-receipts"),
		rarities: record.NewMapping[gem.Address, *Rarity](ctx, "rarities"),
		balances: record.NewMapping[balanceKey, uint64](ctx, "balances"),
	}
}

//
// Getters - no state change
//

func (b *Bank) GetBank(bank gem.Address) (*BankInfo, error) {
	info, err := b.banks.Get(bank)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bank")
	}
	if info.IsEmpty() {
		return nil, reverts.Newf(reverts.NotFound, "bank %v", bank.AbbrevString())
	}
	return info, nil
}

func (b *Bank) GetVault(vault gem.Address) (*Vault, error) {
	v, err := b.vaults.Get(vault)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vault")
	}
	if v.IsEmpty() {
		return nil, reverts.Newf(reverts.NotFound, "vault %v", vault.AbbrevString())
	}
	return v, nil
}

// GetGemBox returns the box of mint inside vault, nil if the vault holds none.
func (b *Bank) GetGemBox(vault, mint gem.Address) (*GemBox, error) {
	addr, _ := FindGemBox(vault, mint)
	box, err := b.boxes.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gem box")
	}
	if box.Amount == 0 {
		return nil, nil
	}
	return box, nil
}

func (b *Bank) GetReceipt(vault, mint gem.Address) (*DepositReceipt, error) {
	addr, _ := FindReceipt(vault, mint)
	r, err := b.receipts.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deposit receipt")
	}
	if r.IsEmpty() {
		return nil, nil
	}
	return r, nil
}

func (b *Bank) BalanceOf(owner, mint gem.Address) (uint64, error) {
	bal, err := b.balances.Get(newBalanceKey(owner, mint))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get balance")
	}
	return bal, nil
}

// RarityTable loads the rarity record located by nonce, it does not check the derivation.
func (b *Bank) RarityTable(bank, mint gem.Address, nonce uint8) (*rarity.Table, error) {
	addr, _ := rarity.Locate(bank, mint, nonce)
	table := &rarity.Table{Address: addr, Nonce: nonce, Bank: bank, Mint: mint}

	exists, err := b.rarities.Exists(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check rarity")
	}
	if !exists {
		return table, nil
	}
	r, err := b.rarities.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rarity")
	}
	points := r.Points
	table.Points = &points
	return table, nil
}

//
// Setters - state change
//

func (b *Bank) InitBank(bank, manager gem.Address) error {
	if manager.IsZero() {
		return reverts.New(reverts.AuthorizationFault, "bank manager required")
	}
	info, err := b.banks.Get(bank)
	if err != nil {
		return errors.Wrap(err, "failed to get bank")
	}
	if !info.IsEmpty() {
		return reverts.Newf(reverts.CustodyFault, "bank %v already exists", bank.AbbrevString())
	}
	logger.Debug("init bank", "bank", bank, "manager", manager)
	return b.banks.Set(bank, &BankInfo{Manager: manager})
}

func (b *Bank) SetFlags(manager, bank gem.Address, flags BankFlags) error {
	info, err := b.GetBank(bank)
	if err != nil {
		return err
	}
	if info.Manager != manager {
		return reverts.New(reverts.AuthorizationFault, "caller is not the bank manager")
	}
	info.Flags = flags
	return b.banks.Set(bank, info)
}

// InitVault creates the vault of creator in bank and returns its address.
func (b *Bank) InitVault(bank, creator, owner gem.Address) (gem.Address, error) {
	info, err := b.GetBank(bank)
	if err != nil {
		return gem.Address{}, err
	}
	if owner.IsZero() {
		return gem.Address{}, reverts.New(reverts.AuthorizationFault, "vault owner required")
	}
	addr, _ := FindVault(bank, creator)
	existing, err := b.vaults.Get(addr)
	if err != nil {
		return gem.Address{}, errors.Wrap(err, "failed to get vault")
	}
	if !existing.IsEmpty() {
		return gem.Address{}, reverts.Newf(reverts.CustodyFault, "vault %v already exists", addr.AbbrevString())
	}
	authority, nonce := FindAuthority(addr)

	info.VaultCount++
	if err := b.banks.Set(bank, info); err != nil {
		return gem.Address{}, err
	}
	logger.Debug("init vault", "vault", addr, "owner", owner)
	return addr, b.vaults.Set(addr, &Vault{
		Bank:           bank,
		Owner:          owner,
		Creator:        creator,
		Authority:      authority,
		AuthorityNonce: nonce,
	})
}

// RecordRarity sets the per gem points of mint within bank.
func (b *Bank) RecordRarity(manager, bank, mint gem.Address, points uint16) error {
	info, err := b.GetBank(bank)
	if err != nil {
		return err
	}
	if info.Manager != manager {
		return reverts.New(reverts.AuthorizationFault, "caller is not the bank manager")
	}
	addr, _ := rarity.Find(bank, mint)
	return b.rarities.Set(addr, &Rarity{Points: points})
}

// Credit mints gems into the balance of owner.
func (b *Bank) Credit(owner, mint gem.Address, amount uint64) error {
	key := newBalanceKey(owner, mint)
	bal, err := b.balances.Get(key)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}
	if bal > math.MaxUint64-amount {
		return reverts.Newf(reverts.Overflow, "balance of %v", owner.AbbrevString())
	}
	return b.balances.Set(key, bal+amount)
}

// SetLock toggles the lock flag of a vault. Only the bank manager may do so.
func (b *Bank) SetLock(manager, vault gem.Address, locked bool) error {
	v, err := b.GetVault(vault)
	if err != nil {
		return err
	}
	info, err := b.GetBank(v.Bank)
	if err != nil {
		return err
	}
	if info.Manager != manager {
		return reverts.New(reverts.AuthorizationFault, "caller lacks lock authority")
	}
	if info.Frozen() {
		return reverts.Newf(reverts.CustodyFault, "vaults of bank %v are frozen", v.Bank.AbbrevString())
	}
	if v.Locked == locked {
		return reverts.Newf(reverts.CustodyFault, "vault %v already has locked=%v", vault.AbbrevString(), locked)
	}
	v.Locked = locked
	logger.Debug("set vault lock", "vault", vault, "locked", locked)
	return b.vaults.Set(vault, v)
}

// Deposit moves amount gems of mint from the owner's balance into the vault.
func (b *Bank) Deposit(owner, vault, mint gem.Address, amount, now uint64) error {
	if amount == 0 {
		return reverts.New(reverts.InvalidAmount, "deposit amount must be positive")
	}
	v, err := b.GetVault(vault)
	if err != nil {
		return err
	}
	if err := b.checkAccess(v, vault, owner); err != nil {
		return err
	}

	key := newBalanceKey(owner, mint)
	bal, err := b.balances.Get(key)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}
	if bal < amount {
		return reverts.Newf(reverts.InsufficientCustody, "balance %d below deposit %d", bal, amount)
	}

	boxAddr, _ := FindGemBox(vault, mint)
	box, err := b.boxes.Get(boxAddr)
	if err != nil {
		return errors.Wrap(err, "failed to get gem box")
	}
	receiptAddr, _ := FindReceipt(vault, mint)
	receipt, err := b.receipts.Get(receiptAddr)
	if err != nil {
		return errors.Wrap(err, "failed to get deposit receipt")
	}
	_, nonce := rarity.Find(v.Bank, mint)
	table, err := b.RarityTable(v.Bank, mint, nonce)
	if err != nil {
		return err
	}
	points, err := b.oracle.RarityFor(table, mint, amount)
	if err != nil {
		return err
	}

	if box.Amount > math.MaxUint64-amount ||
		v.GemCount > math.MaxUint64-amount ||
		v.RarityPoints > math.MaxUint64-points {
		return reverts.Newf(reverts.Overflow, "deposit into vault %v", vault.AbbrevString())
	}
	if box.Amount == 0 {
		v.GemBoxCount++
	}
	box.Vault, box.Mint = vault, mint
	box.Amount += amount
	receipt.Vault, receipt.GemBox, receipt.Mint = vault, boxAddr, mint
	receipt.GemCount += amount
	receipt.DepositedAt = now
	v.GemCount += amount
	v.RarityPoints += points

	if err := b.balances.Set(key, bal-amount); err != nil {
		return err
	}
	if err := b.boxes.Set(boxAddr, box); err != nil {
		return err
	}
	if err := b.receipts.Set(receiptAddr, receipt); err != nil {
		return err
	}
	logger.Debug("deposit gems", "vault", vault, "mint", mint, "amount", amount)
	return b.vaults.Set(vault, v)
}

// Withdraw moves gems out of an unlocked vault to the destination and returns the transferred amount.
func (b *Bank) Withdraw(p *WithdrawParams) (uint64, error) {
	if p.Amount == 0 {
		return 0, reverts.New(reverts.InvalidAmount, "withdraw amount must be positive")
	}
	v, err := b.GetVault(p.Vault)
	if err != nil {
		return 0, err
	}
	if err := b.checkAccess(v, p.Vault, p.Owner); err != nil {
		return 0, err
	}
	if !gem.IsDerived(v.Authority, p.Nonces.VaultAuthority, gem.SeedVaultAuthority, p.Vault.Bytes()) {
		return 0, reverts.New(reverts.CustodyFault, "vault authority mismatch")
	}
	boxAddr, nonce := FindGemBox(p.Vault, p.Mint)
	if nonce != p.Nonces.GemBox {
		return 0, reverts.New(reverts.CustodyFault, "invalid gem box nonce")
	}
	receiptAddr, nonce := FindReceipt(p.Vault, p.Mint)
	if nonce != p.Nonces.DepositReceipt {
		return 0, reverts.New(reverts.CustodyFault, "invalid deposit receipt nonce")
	}
	table, err := b.RarityTable(v.Bank, p.Mint, p.Nonces.Rarity)
	if err != nil {
		return 0, err
	}
	points, err := b.oracle.RarityFor(table, p.Mint, p.Amount)
	if err != nil {
		return 0, err
	}

	box, err := b.boxes.Get(boxAddr)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get gem box")
	}
	receipt, err := b.receipts.Get(receiptAddr)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get deposit receipt")
	}
	if box.Amount == 0 || receipt.IsEmpty() || receipt.GemBox != boxAddr {
		return 0, reverts.Newf(reverts.InsufficientCustody, "vault %v holds no gems of %v", p.Vault.AbbrevString(), p.Mint.AbbrevString())
	}
	if p.Amount > receipt.GemCount || p.Amount > box.Amount {
		return 0, reverts.Newf(reverts.InsufficientCustody, "withdraw %d exceeds deposited %d", p.Amount, receipt.GemCount)
	}
	if p.Now < receipt.DepositedAt || p.Now-receipt.DepositedAt < p.MinHoldSec {
		return 0, reverts.Newf(reverts.PrematureWithdrawal, "gems deposited at %d held less than %d seconds", receipt.DepositedAt, p.MinHoldSec)
	}
	if v.GemCount < p.Amount || v.RarityPoints < points {
		return 0, reverts.Newf(reverts.CustodyFault, "vault %v counters below withdrawal", p.Vault.AbbrevString())
	}

	destKey := newBalanceKey(p.Destination, p.Mint)
	dest, err := b.balances.Get(destKey)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get balance")
	}
	if dest > math.MaxUint64-p.Amount {
		return 0, reverts.Newf(reverts.Overflow, "balance of %v", p.Destination.AbbrevString())
	}

	box.Amount -= p.Amount
	receipt.GemCount -= p.Amount
	v.GemCount -= p.Amount
	v.RarityPoints -= points

	if box.Amount == 0 {
		b.boxes.Delete(boxAddr)
		v.GemBoxCount--
	} else if err := b.boxes.Set(boxAddr, box); err != nil {
		return 0, err
	}
	if receipt.IsEmpty() {
		b.receipts.Delete(receiptAddr)
	} else if err := b.receipts.Set(receiptAddr, receipt); err != nil {
		return 0, err
	}
	if err := b.balances.Set(destKey, dest+p.Amount); err != nil {
		return 0, err
	}
	if err := b.vaults.Set(p.Vault, v); err != nil {
		return 0, err
	}
	logger.Debug("withdraw gems", "vault", p.Vault, "mint", p.Mint, "amount", p.Amount, "destination", p.Destination)
	return p.Amount, nil
}

// checkAccess guards owner operations on a vault.
func (b *Bank) checkAccess(v *Vault, vault, owner gem.Address) error {
	info, err := b.GetBank(v.Bank)
	if err != nil {
		return err
	}
	if info.Frozen() {
		return reverts.Newf(reverts.CustodyFault, "vaults of bank %v are frozen", v.Bank.AbbrevString())
	}
	if v.Locked {
		return reverts.Newf(reverts.CustodyFault, "vault %v is locked", vault.AbbrevString())
	}
	if v.Owner != owner {
		return reverts.New(reverts.AuthorizationFault, "caller is not the vault owner")
	}
	return nil
}
