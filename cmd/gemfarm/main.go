// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// gemfarm keeps a gem staking ledger and serves flash withdrawals over it.
package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
	gitTag    string

	commonFlags = []cli.Flag{
		dataDirFlag,
		cacheFlag,
		verbosityFlag,
		logFormatFlag,
	}
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func withCommon(flags ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{}, commonFlags...), flags...)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "gemfarm",
		Usage:   "gem staking ledger with flash withdraw and restake",
		Commands: []cli.Command{
			{
				Name:   "init",
				Usage:  "initialize an empty ledger from a genesis file or the dev network",
				Flags:  withCommon(genesisFlag, devFlag, nowFlag),
				Action: initAction,
			},
			{
				Name:  "flash-withdraw",
				Usage: "move gems out of a staked vault and restake them",
				Flags: withCommon(
					farmFlag,
					identityFlag,
					vaultFlag,
					destinationFlag,
					mintFlag,
					amountFlag,
					nowFlag,
				),
				Action: flashWithdrawAction,
			},
			{
				Name:  "show",
				Usage: "dump ledger records",
				Subcommands: []cli.Command{
					{
						Name:   "farm",
						Usage:  "dump a farm",
						Flags:  withCommon(farmFlag),
						Action: showFarmAction,
					},
					{
						Name:   "farmer",
						Usage:  "dump the farmer of an identity",
						Flags:  withCommon(farmFlag, identityFlag),
						Action: showFarmerAction,
					},
					{
						Name:   "vault",
						Usage:  "dump a vault",
						Flags:  withCommon(vaultFlag),
						Action: showVaultAction,
					},
				},
			},
			{
				Name:   "verify",
				Usage:  "check the farm totals against its farmers",
				Flags:  withCommon(farmFlag),
				Action: verifyAction,
			},
			{
				Name:  "serve",
				Usage: "serve the REST API",
				Flags: withCommon(
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					apiLogsLimitFlag,
					enableAPILogsFlag,
					pprofFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					disableNTPFlag,
				),
				Action: serveAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
