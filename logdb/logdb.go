// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb indexes committed flash withdrawals in sqlite.
package logdb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/vechain/gemfarm/gem"
)

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// a memory db lives as long as its only connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(withdrawalTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() {
	db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// Insert stores withdrawals in one sql transaction. Rows already present are replaced.
func (db *LogDB) Insert(ctx context.Context, withdrawals ...*Withdrawal) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, w := range withdrawals {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO flash_withdraw(seq, withdrawIndex, farm, farmer, identity, vault, destination, mint, amount, rarity, accrued, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);",
			int64(w.Seq),
			w.Index,
			w.Farm.Bytes(),
			w.Farmer.Bytes(),
			w.Identity.Bytes(),
			w.Vault.Bytes(),
			w.Destination.Bytes(),
			w.Mint.Bytes(),
			uintValue(w.Amount),
			uintValue(w.Rarity),
			uintValue(w.Accrued),
			int64(w.Timestamp),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// MaxSeq returns the highest commit sequence stored.
func (db *LogDB) MaxSeq(ctx context.Context) (uint64, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM flash_withdraw").Scan(&seq); err != nil {
		return 0, err
	}
	return uint64(seq.Int64), nil
}

func (db *LogDB) FilterWithdrawals(ctx context.Context, filter *WithdrawalFilter) ([]*Withdrawal, error) {
	if filter == nil {
		return db.queryWithdrawals(ctx, "SELECT * FROM flash_withdraw ORDER BY seq ASC, withdrawIndex ASC")
	}
	var args []any
	stmt := "SELECT * FROM flash_withdraw WHERE 1"
	if filter.Farm != nil {
		args = append(args, filter.Farm.Bytes())
		stmt += " AND farm = ? "
	}
	if filter.Farmer != nil {
		args = append(args, filter.Farmer.Bytes())
		stmt += " AND farmer = ? "
	}
	if filter.Range != nil {
		condition := "seq"
		if filter.Range.Unit == Time {
			condition = "ts"
		}
		args = append(args, clamp(filter.Range.From))
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, clamp(filter.Range.To))
			stmt += " AND " + condition + " <= ? "
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC, withdrawIndex DESC "
	} else {
		stmt += " ORDER BY seq ASC, withdrawIndex ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, clamp(filter.Options.Offset), clamp(filter.Options.Limit))
	}
	return db.queryWithdrawals(ctx, stmt, args...)
}

func (db *LogDB) queryWithdrawals(ctx context.Context, stmt string, args ...any) ([]*Withdrawal, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []*Withdrawal
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq         int64
			index       uint32
			farm        []byte
			farmer      []byte
			identity    []byte
			vault       []byte
			destination []byte
			mint        []byte
			amount      []byte
			rarity      []byte
			accrued     []byte
			ts          int64
		)
		if err := rows.Scan(
			&seq,
			&index,
			&farm,
			&farmer,
			&identity,
			&vault,
			&destination,
			&mint,
			&amount,
			&rarity,
			&accrued,
			&ts,
		); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, &Withdrawal{
			Seq:         uint64(seq),
			Index:       index,
			Farm:        gem.BytesToAddress(farm),
			Farmer:      gem.BytesToAddress(farmer),
			Identity:    gem.BytesToAddress(identity),
			Vault:       gem.BytesToAddress(vault),
			Destination: gem.BytesToAddress(destination),
			Mint:        gem.BytesToAddress(mint),
			Amount:      uintFrom(amount),
			Rarity:      uintFrom(rarity),
			Accrued:     uintFrom(accrued),
			Timestamp:   uint64(ts),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// sqlite integers are signed, amounts are kept as big endian blobs.
func uintValue(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func uintFrom(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func clamp(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
