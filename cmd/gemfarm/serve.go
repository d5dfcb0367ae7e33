// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/gemfarm/api"
	"github.com/vechain/gemfarm/co"
	"github.com/vechain/gemfarm/log"
	"github.com/vechain/gemfarm/logdb"
	"github.com/vechain/gemfarm/metrics"
)

func serveAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	if _, err := initLogger(ctx); err != nil {
		return err
	}
	exitCtx := handleExitSignal()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { log.Info("stopping metrics server..."); closeFunc() }()
		log.Info("metrics server started", "url", url)
	}

	l, closeLedger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()
	if l.Seq() == 0 {
		return fmt.Errorf("ledger is empty, run init first")
	}

	logDB, err := openLogDB(ctx)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing log database..."); logDB.Close() }()

	bg := co.NewChoes()
	defer func() { bg.Stop(); bg.Wait() }()

	indexer := logdb.NewIndexer(logDB, l)
	bg.Go(func(stop <-chan struct{}) {
		indexCtx, cancel := context.WithCancel(context.Background())
		go func() {
			<-stop
			cancel()
		}()
		if err := indexer.Run(indexCtx); err != nil {
			log.Error("log indexer stopped", "err", err)
		}
	})
	if !ctx.Bool(disableNTPFlag.Name) {
		bg.Go(watchClockOffset)
	}

	handler, closeAPI := api.New(l, logDB, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	defer closeAPI()

	timeout := time.Duration(ctx.Int(apiTimeoutFlag.Name)) * time.Millisecond
	url, closeServer, err := startAPIServer(ctx.String(apiAddrFlag.Name), handler, timeout)
	if err != nil {
		return err
	}
	defer func() { log.Info("stopping API server..."); closeServer() }()

	fmt.Printf(`Starting %v
    Ledger seq   [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
`, "gemfarm "+fullVersion(), l.Seq(), ctx.String(dataDirFlag.Name), url)

	<-exitCtx.Done()
	return nil
}
