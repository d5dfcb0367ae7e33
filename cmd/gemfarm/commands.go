// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/gemfarm/builtin/custody"
	"github.com/vechain/gemfarm/builtin/farm"
	"github.com/vechain/gemfarm/builtin/farm/flash"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/genesis"
	"github.com/vechain/gemfarm/logdb"
	"github.com/vechain/gemfarm/state"
)

var dumper = spew.ConfigState{Indent: "    ", SortKeys: true}

func now(ctx *cli.Context) uint64 {
	if ctx.IsSet(nowFlag.Name) {
		return ctx.Uint64(nowFlag.Name)
	}
	return uint64(time.Now().Unix())
}

func initAction(ctx *cli.Context) error {
	if _, err := initLogger(ctx); err != nil {
		return err
	}

	var gen *genesis.Genesis
	switch {
	case ctx.Bool(devFlag.Name):
		gen = genesis.NewDevnet(now(ctx))
	case ctx.String(genesisFlag.Name) != "":
		var err error
		if gen, err = genesis.Load(ctx.String(genesisFlag.Name)); err != nil {
			return err
		}
	default:
		return errors.Errorf("one of --%s or --%s is required", genesisFlag.Name, devFlag.Name)
	}

	l, closeLedger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()

	commit, err := gen.Init(context.Background(), l)
	if err != nil {
		return err
	}
	fmt.Printf("ledger initialized, seq %d, %d records written\n", commit.Seq, commit.Changes)
	return nil
}

func flashWithdrawAction(ctx *cli.Context) error {
	if _, err := initLogger(ctx); err != nil {
		return err
	}
	req := &flash.Request{Amount: ctx.Uint64(amountFlag.Name), Now: now(ctx)}
	for _, f := range []struct {
		flag cli.StringFlag
		addr *gem.Address
	}{
		{farmFlag, &req.Farm},
		{identityFlag, &req.Identity},
		{vaultFlag, &req.Vault},
		{destinationFlag, &req.Destination},
		{mintFlag, &req.Mint},
	} {
		var err error
		if *f.addr, err = addressFlag(ctx, f.flag); err != nil {
			return err
		}
	}
	req.Farmer, req.FarmerNonce = farm.FindFarmer(req.Farm, req.Identity)

	l, closeLedger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()
	logDB, err := openLogDB(ctx)
	if err != nil {
		return err
	}
	defer logDB.Close()

	if err := l.View(func(st *state.State) error {
		f, err := farm.New(st).GetFarm(req.Farm)
		if err != nil {
			return err
		}
		req.Nonces = custody.FindNonces(f.Bank, req.Vault, req.Mint)
		return nil
	}); err != nil {
		return err
	}

	receipt, commit, err := flash.Execute(context.Background(), l, req)
	if err != nil {
		return err
	}
	if err := logDB.Insert(context.Background(), logdb.NewWithdrawal(commit.Seq, 0, receipt)); err != nil {
		return errors.WithMessage(err, "index withdrawal")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(receipt)
}

// view runs fn over the committed ledger of the data dir.
func view(ctx *cli.Context, fn func(st *state.State) error) error {
	if _, err := initLogger(ctx); err != nil {
		return err
	}
	l, closeLedger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()
	return l.View(fn)
}

func showFarmAction(ctx *cli.Context) error {
	addr, err := addressFlag(ctx, farmFlag)
	if err != nil {
		return err
	}
	return view(ctx, func(st *state.State) error {
		f, err := farm.New(st).GetFarm(addr)
		if err != nil {
			return err
		}
		dumper.Fdump(os.Stdout, f)
		return nil
	})
}

func showFarmerAction(ctx *cli.Context) error {
	farmAddr, err := addressFlag(ctx, farmFlag)
	if err != nil {
		return err
	}
	identity, err := addressFlag(ctx, identityFlag)
	if err != nil {
		return err
	}
	addr, nonce := farm.FindFarmer(farmAddr, identity)
	return view(ctx, func(st *state.State) error {
		f, err := farm.New(st).GetFarmer(addr)
		if err != nil {
			return err
		}
		fmt.Printf("farmer %v (nonce %d)\n", addr, nonce)
		dumper.Fdump(os.Stdout, f)
		return nil
	})
}

func showVaultAction(ctx *cli.Context) error {
	addr, err := addressFlag(ctx, vaultFlag)
	if err != nil {
		return err
	}
	return view(ctx, func(st *state.State) error {
		v, err := custody.New(st).GetVault(addr)
		if err != nil {
			return err
		}
		dumper.Fdump(os.Stdout, v)
		return nil
	})
}
