// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/edu"
)

const envPrefix = "EDU_"

type APIConfig struct {
	Addr       string `yaml:"addr" env:"ADDR" validate:"required"`
	CORS       string `yaml:"cors" env:"CORS"`
	EnableLogs bool   `yaml:"enable_logs" env:"ENABLE_LOGS"`
}

// Config is resolved from defaults, then the YAML file, then EDU_* environment
// variables, then explicitly set flags.
type Config struct {
	RPC     string `yaml:"rpc" env:"RPC" validate:"required,url"`
	ChainID uint64 `yaml:"chain_id" env:"CHAIN_ID" validate:"required"`

	PrivateKey string `yaml:"private_key" env:"PRIVATE_KEY" validate:"omitempty,hexadecimal"`
	Keystore   string `yaml:"keystore" env:"KEYSTORE" validate:"required_without=PrivateKey"`
	Account    string `yaml:"account" env:"ACCOUNT" validate:"omitempty,eth_addr"`
	Passphrase string `yaml:"-" env:"PASSPHRASE"`
	Connector  string `yaml:"connector" env:"CONNECTOR" validate:"omitempty,oneof=private-key keystore"`
	Confirm    bool   `yaml:"confirm" env:"CONFIRM"`

	Contracts      contracts.Addresses `yaml:"contracts" envPrefix:"CONTRACT_"`
	LockOption     uint8               `yaml:"lock_option" env:"LOCK_OPTION"`
	ReceiptTimeout time.Duration       `yaml:"receipt_timeout" env:"RECEIPT_TIMEOUT" validate:"gte=0"`
	Journal        string              `yaml:"journal" env:"JOURNAL"`

	API         APIConfig `yaml:"api" envPrefix:"API_"`
	MetricsAddr string    `yaml:"metrics_addr" env:"METRICS_ADDR"`
}

func defaultConfig() *Config {
	return &Config{
		ChainID:        edu.CeloMainnetChainID,
		LockOption:     edu.FlexibleLock,
		ReceiptTimeout: 5 * time.Minute,
		Journal:        filepath.Join(defaultDataDir(), "journal.db"),
		API:            APIConfig{Addr: "localhost:8670"},
	}
}

// loadConfig reads the optional file at path and overlays the environment.
// A nil environ reads the process environment.
func loadConfig(path string, environ map[string]string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %v", path)
		}
	}
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	return cfg, nil
}

// applyFlags overrides cfg with the global flags given on the command line.
func applyFlags(ctx *cli.Context, cfg *Config) error {
	str := func(f cli.StringFlag, dst *string) {
		if ctx.GlobalIsSet(f.Name) {
			*dst = ctx.GlobalString(f.Name)
		}
	}
	str(rpcFlag, &cfg.RPC)
	str(keyFlag, &cfg.PrivateKey)
	str(keystoreFlag, &cfg.Keystore)
	str(accountFlag, &cfg.Account)
	str(connectorFlag, &cfg.Connector)
	str(journalFlag, &cfg.Journal)
	str(metricsAddrFlag, &cfg.MetricsAddr)

	if ctx.GlobalIsSet(chainIDFlag.Name) {
		cfg.ChainID = ctx.GlobalUint64(chainIDFlag.Name)
	}
	if ctx.GlobalIsSet(confirmFlag.Name) {
		cfg.Confirm = ctx.GlobalBool(confirmFlag.Name)
	}
	if ctx.GlobalIsSet(receiptTimeoutFlag.Name) {
		cfg.ReceiptTimeout = ctx.GlobalDuration(receiptTimeoutFlag.Name)
	}

	for _, a := range []struct {
		flag cli.StringFlag
		dst  *common.Address
	}{
		{tokenFlag, &cfg.Contracts.Token},
		{stakingFlag, &cfg.Contracts.Staking},
		{rewardsFlag, &cfg.Contracts.Rewards},
		{registryFlag, &cfg.Contracts.CourseRegistry},
	} {
		if !ctx.GlobalIsSet(a.flag.Name) {
			continue
		}
		hex := ctx.GlobalString(a.flag.Name)
		if !common.IsHexAddress(hex) {
			return errors.Errorf("--%v: invalid address %q", a.flag.Name, hex)
		}
		*a.dst = common.HexToAddress(hex)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}
	return nil
}

// resolveConfig runs the whole chain: file, environment, flags, validation.
func resolveConfig(ctx *cli.Context) (*Config, error) {
	cfg, err := loadConfig(ctx.GlobalString(configFlag.Name), nil)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(ctx, cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".edu")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}
