// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/ledger"
	"github.com/vechain/gemfarm/log"
	"github.com/vechain/gemfarm/logdb"
	"github.com/vechain/gemfarm/lvldb"
)

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".gemfarm")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func initLogger(ctx *cli.Context) (*slog.LevelVar, error) {
	lvl := new(slog.LevelVar)
	lvl.Set(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))

	fd := os.Stderr.Fd()
	useColor := (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("TERM") != "dumb"
	handler, err := log.NewHandler(os.Stderr, log.Format(ctx.String(logFormatFlag.Name)), lvl, useColor)
	if err != nil {
		return nil, errors.Wrap(err, "--"+logFormatFlag.Name)
	}
	log.SetDefault(log.NewLogger(handler))
	return lvl, nil
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.Errorf("unable to infer default data dir, use --%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

// openLedger opens the ledger kept in the data dir. The returned func closes it.
func openLedger(ctx *cli.Context) (*ledger.Ledger, func(), error) {
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return nil, nil, err
	}
	db, err := lvldb.Open(filepath.Join(dataDir, "ledger"), lvldb.Options{
		ReadCacheMB:            128,
		WriteBufferMB:          64,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "open ledger database")
	}
	l, err := ledger.New(db, ctx.Int(cacheFlag.Name))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return l, func() {
		log.Info("closing ledger database...")
		l.Close()
		db.Close()
	}, nil
}

func openLogDB(ctx *cli.Context) (*logdb.LogDB, error) {
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return nil, err
	}
	db, err := logdb.New(filepath.Join(dataDir, "logs.db"))
	if err != nil {
		return nil, errors.Wrap(err, "open log database")
	}
	return db, nil
}

func addressFlag(ctx *cli.Context, flag cli.StringFlag) (gem.Address, error) {
	s := ctx.String(flag.Name)
	if s == "" {
		return gem.Address{}, errors.Errorf("missing --%s", flag.Name)
	}
	addr, err := gem.ParseAddress(s)
	if err != nil {
		return gem.Address{}, errors.Wrap(err, "--"+flag.Name)
	}
	return addr, nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
