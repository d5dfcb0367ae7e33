// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for ledger and log databases",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 4096,
		Usage: "number of decoded ledger records kept in memory",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-9)",
	}
	logFormatFlag = cli.StringFlag{
		Name:  "log-format",
		Value: "terminal",
		Usage: "log output format (terminal|json|logfmt)",
	}

	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a genesis yaml file",
	}
	devFlag = cli.BoolFlag{
		Name:  "dev",
		Usage: "initialize with the dev network genesis",
	}

	farmFlag = cli.StringFlag{
		Name:  "farm",
		Usage: "farm address",
	}
	identityFlag = cli.StringFlag{
		Name:  "identity",
		Usage: "farmer identity address",
	}
	vaultFlag = cli.StringFlag{
		Name:  "vault",
		Usage: "vault address",
	}
	destinationFlag = cli.StringFlag{
		Name:  "destination",
		Usage: "address receiving the withdrawn gems",
	}
	mintFlag = cli.StringFlag{
		Name:  "mint",
		Usage: "gem mint address",
	}
	amountFlag = cli.Uint64Flag{
		Name:  "amount",
		Usage: "number of gems",
	}
	nowFlag = cli.Uint64Flag{
		Name:  "now",
		Usage: "unix timestamp of the operation (defaults to the system clock)",
	}

	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8670",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiTimeoutFlag = cli.IntFlag{
		Name:  "api-timeout",
		Value: 10000,
		Usage: "API request timeout value in milliseconds",
	}
	apiLogsLimitFlag = cli.Uint64Flag{
		Name:  "api-logs-limit",
		Value: 1000,
		Usage: "limit the number of withdrawals returned by /farms/{farm}/events",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2113",
		Usage: "metrics service listening address",
	}
	disableNTPFlag = cli.BoolFlag{
		Name:  "disable-ntp",
		Usage: "skip the clock offset check against pool.ntp.org",
	}
)
