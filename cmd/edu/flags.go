// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "path to a YAML configuration file",
		EnvVar: "EDU_CONFIG",
	}
	rpcFlag = cli.StringFlag{
		Name:  "rpc",
		Usage: "JSON-RPC endpoint of the chain, ws:// or wss:// enables head subscriptions",
	}
	chainIDFlag = cli.Uint64Flag{
		Name:  "chain-id",
		Usage: "expected chain id, writes are refused on any other network",
	}
	keyFlag = cli.StringFlag{
		Name:  "key",
		Usage: "hex encoded private key of the account",
	}
	keystoreFlag = cli.StringFlag{
		Name:  "keystore",
		Usage: "keystore directory holding the account",
	}
	accountFlag = cli.StringFlag{
		Name:  "account",
		Usage: "account address to unlock from the keystore, the first one when empty",
	}
	connectorFlag = cli.StringFlag{
		Name:  "connector",
		Usage: "wallet connector to use (private-key|keystore), the first configured one when empty",
	}
	confirmFlag = cli.BoolFlag{
		Name:  "confirm",
		Usage: "ask on the terminal before signing every transaction",
	}
	tokenFlag = cli.StringFlag{
		Name:  "token",
		Usage: "address of the EDU token contract",
	}
	stakingFlag = cli.StringFlag{
		Name:  "staking",
		Usage: "address of the staking contract",
	}
	rewardsFlag = cli.StringFlag{
		Name:  "rewards",
		Usage: "address of the rewards contract",
	}
	registryFlag = cli.StringFlag{
		Name:  "course-registry",
		Usage: "address of the course registry contract",
	}
	receiptTimeoutFlag = cli.DurationFlag{
		Name:  "receipt-timeout",
		Usage: "how long to wait for a transaction receipt, 0 waits forever",
	}
	journalFlag = cli.StringFlag{
		Name:  "journal",
		Usage: "path of the transaction journal, :memory: keeps it in ram",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "log-json",
		Usage: "log in JSON format",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve prometheus metrics on this address, disabled when empty",
	}

	// serve
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}

	// stake
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "amount of EDU to stake, e.g. 12.5",
	}

	// admin
	metadataFlag = cli.StringFlag{
		Name:  "metadata",
		Usage: "metadata hash of the course",
	}
	instructorFlag = cli.StringFlag{
		Name:  "instructor",
		Usage: "address of the instructor to verify",
	}

	// history
	statusFlag = cli.StringFlag{
		Name:  "status",
		Usage: "only list entries in this status (pending|confirmed|reverted|failed)",
	}
	limitFlag = cli.IntFlag{
		Name:  "limit",
		Value: 20,
		Usage: "maximum number of entries to list",
	}
)
