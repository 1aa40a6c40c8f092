// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"flag"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/edulearn/edu/edu"
	"github.com/edulearn/edu/log"
)

const testConfig = `
rpc: wss://rpc.example.org
chain_id: 8453
keystore: /tmp/keys
receipt_timeout: 90s
contracts:
  token: "0x00000000000000000000000000000000000e0001"
  staking: "0x00000000000000000000000000000000000e0002"
  rewards: "0x00000000000000000000000000000000000e0003"
  course_registry: "0x00000000000000000000000000000000000e0004"
api:
  addr: 127.0.0.1:9000
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "edu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig("", map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, uint64(edu.CeloMainnetChainID), cfg.ChainID)
		assert.Equal(t, 5*time.Minute, cfg.ReceiptTimeout)
		assert.Equal(t, "localhost:8670", cfg.API.Addr)
	})

	t.Run("file", func(t *testing.T) {
		cfg, err := loadConfig(writeConfig(t, testConfig), map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, "wss://rpc.example.org", cfg.RPC)
		assert.Equal(t, uint64(8453), cfg.ChainID)
		assert.Equal(t, 90*time.Second, cfg.ReceiptTimeout)
		assert.Equal(t, common.HexToAddress("0xe0002"), cfg.Contracts.Staking)
		assert.Equal(t, "127.0.0.1:9000", cfg.API.Addr)
		require.NoError(t, validateConfig(cfg))
	})

	t.Run("environment wins over file", func(t *testing.T) {
		cfg, err := loadConfig(writeConfig(t, testConfig), map[string]string{
			"EDU_RPC":            "https://other.example.org",
			"EDU_CONTRACT_TOKEN": "0x00000000000000000000000000000000000000ff",
			"EDU_PASSPHRASE":     "secret",
			"EDU_API_CORS":       "https://app.example.org",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://other.example.org", cfg.RPC)
		assert.Equal(t, common.HexToAddress("0xff"), cfg.Contracts.Token)
		assert.Equal(t, "secret", cfg.Passphrase)
		assert.Equal(t, "https://app.example.org", cfg.API.CORS)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), map[string]string{})
		assert.Error(t, err)
		_, err = loadConfig(writeConfig(t, "rpc: [unterminated"), map[string]string{})
		assert.Error(t, err)
		_, err = loadConfig("", map[string]string{"EDU_CHAIN_ID": "celo"})
		assert.Error(t, err)
	})
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg, err := loadConfig(writeConfig(t, testConfig), map[string]string{})
		require.NoError(t, err)
		return cfg
	}
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no rpc", func(c *Config) { c.RPC = "" }},
		{"no wallet", func(c *Config) { c.Keystore = "" }},
		{"bad key", func(c *Config) { c.PrivateKey = "xyz" }},
		{"bad account", func(c *Config) { c.Account = "0x12" }},
		{"bad connector", func(c *Config) { c.Connector = "ledger" }},
		{"no token", func(c *Config) { c.Contracts.Token = common.Address{} }},
		{"negative timeout", func(c *Config) { c.ReceiptTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}

	t.Run("private key only", func(t *testing.T) {
		cfg := valid()
		cfg.Keystore = ""
		cfg.PrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
		assert.NoError(t, validateConfig(cfg))
	})
}

func TestApplyFlags(t *testing.T) {
	app := cli.NewApp()
	set := flag.NewFlagSet("edu", flag.ContinueOnError)
	for _, f := range []cli.Flag{rpcFlag, chainIDFlag, tokenFlag, receiptTimeoutFlag, confirmFlag} {
		f.Apply(set)
	}
	require.NoError(t, set.Parse([]string{
		"--rpc", "ws://localhost:8546",
		"--chain-id", "42220",
		"--token", "0x00000000000000000000000000000000000000aa",
		"--receipt-timeout", "1m",
		"--confirm",
	}))
	global := cli.NewContext(app, set, nil)
	ctx := cli.NewContext(app, flag.NewFlagSet("stake", flag.ContinueOnError), global)

	cfg, err := loadConfig(writeConfig(t, testConfig), map[string]string{})
	require.NoError(t, err)
	require.NoError(t, applyFlags(ctx, cfg))
	assert.Equal(t, "ws://localhost:8546", cfg.RPC)
	assert.Equal(t, uint64(42220), cfg.ChainID)
	assert.Equal(t, common.HexToAddress("0xaa"), cfg.Contracts.Token)
	assert.Equal(t, common.HexToAddress("0xe0002"), cfg.Contracts.Staking, "unset flags keep the file value")
	assert.Equal(t, time.Minute, cfg.ReceiptTimeout)
	assert.True(t, cfg.Confirm)

	t.Run("bad address", func(t *testing.T) {
		set := flag.NewFlagSet("edu", flag.ContinueOnError)
		tokenFlag.Apply(set)
		require.NoError(t, set.Parse([]string{"--token", "nope"}))
		ctx := cli.NewContext(app, flag.NewFlagSet("stake", flag.ContinueOnError), cli.NewContext(app, set, nil))
		assert.Error(t, applyFlags(ctx, cfg))
	})
}

func TestDescribeTx(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000e0001")
	trx := types.NewTx(&types.DynamicFeeTx{
		To:        &to,
		Gas:       60_000,
		GasFeeCap: big.NewInt(3_000_000_000),
		Value:     new(big.Int),
		Data:      []byte{0x09, 0x5e, 0xa7, 0xb3, 0x01},
	})
	s := describeTx(trx)
	assert.Contains(t, s, to.Hex())
	assert.Contains(t, s, "0x095ea7b3 (5 bytes of calldata)")
	assert.Contains(t, s, "Gas: 60000")
}

func TestNewLogHandler(t *testing.T) {
	var buf bytes.Buffer
	log.NewLogger(newLogHandler(&buf, log.LevelInfo, true)).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	log.NewLogger(newLogHandler(&buf, log.LevelInfo, false)).Debug("hidden")
	assert.Zero(t, buf.Len())
}
