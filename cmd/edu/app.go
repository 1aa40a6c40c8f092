// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/edulearn/edu/account"
	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/bind"
	"github.com/edulearn/edu/client/receipt"
	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/edu"
	"github.com/edulearn/edu/gateway"
	"github.com/edulearn/edu/journal"
	"github.com/edulearn/edu/notify"
	"github.com/edulearn/edu/registry"
	"github.com/edulearn/edu/rewards"
	"github.com/edulearn/edu/session"
	"github.com/edulearn/edu/stake"
)

const allowanceCacheSize = 256

// app holds the services of one process.
type app struct {
	cfg       *Config
	client    *client.Client
	contracts *contracts.Set
	session   *session.Session
	center    *notify.Center
	watcher   *receipt.Watcher
	allowance *gateway.AllowanceReader
	journal   *journal.Journal
	accounts  *account.Reader
	rewards   *rewards.Service
	registry  *registry.Service
	sequencer *stake.Sequencer
}

// newApp dials the chain and connects the wallet. The sequencer is only built
// when the wallet is on the expected network.
func newApp(ctx context.Context, cfg *Config) (*app, error) {
	a := &app{cfg: cfg, center: notify.NewCenter(100)}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) (err error) {
	cfg := a.cfg
	if a.client, err = client.Dial(ctx, cfg.RPC); err != nil {
		return errors.Wrap(err, "dial rpc")
	}
	if a.contracts, err = contracts.Bind(a.client, cfg.Contracts); err != nil {
		return errors.Wrap(err, "bind contracts")
	}
	a.session = session.New(a.client, a.contracts.CourseRegistry, cfg.ChainID, a.connectors()...)
	if len(a.session.Connectors()) == 0 {
		return errors.New("no wallet configured, use --key or --keystore")
	}
	info, err := a.session.Connect(ctx, cfg.Connector)
	if err != nil {
		return errors.Wrap(err, "connect wallet")
	}
	if info.State == session.WrongNetwork {
		logger.Warn("wallet is on the wrong network, writes are disabled", "chainId", info.ChainID, "expected", info.Expected)
	}

	a.watcher = receipt.NewWatcher(a.client, receipt.Options{})
	if a.allowance, err = gateway.NewAllowanceReader(a.contracts.Token, cfg.Contracts.Staking, allowanceCacheSize); err != nil {
		return err
	}
	if a.journal, err = openJournal(cfg.Journal); err != nil {
		return err
	}
	a.accounts = account.NewReader(a.contracts.Token, a.allowance, a.contracts.Rewards, a.session)
	a.rewards = rewards.New(a.contracts.Rewards, cfg.Contracts.Token, a.session, a.watcher, a.center)
	a.registry = registry.New(a.contracts.CourseRegistry, a.session, a.center)

	if signer, err := a.session.Signer(); err == nil {
		writer := gateway.NewWriter(a.contracts.Token, a.contracts.Staking, signer, cfg.LockOption)
		seqCfg := stake.DefaultConfig()
		seqCfg.ReceiptTimeout = cfg.ReceiptTimeout
		a.sequencer = stake.New(a.allowance, writer, a.watcher, seqCfg,
			stake.WithNotifier(a.center),
			stake.WithJournal(a.journal),
		)
	}
	return nil
}

func (a *app) connectors() []session.Connector {
	var conns []session.Connector
	if a.cfg.PrivateKey != "" {
		conns = append(conns, session.NewPrivateKeyConnector(a.cfg.PrivateKey))
	}
	if a.cfg.Keystore != "" {
		passphrase := func() (string, error) {
			if a.cfg.Passphrase != "" {
				return a.cfg.Passphrase, nil
			}
			return bind.ReadPassphrase("Keystore passphrase: ")
		}
		conns = append(conns, session.NewKeystoreConnector(a.cfg.Keystore, a.cfg.Account, passphrase))
	}
	if a.cfg.Confirm {
		for i, c := range conns {
			conns[i] = session.NewConfirming(c, bind.TTYConfirm(describeTx))
		}
	}
	return conns
}

// requireSequencer returns the sequencer or the reason it could not be built.
func (a *app) requireSequencer() (*stake.Sequencer, error) {
	if a.sequencer != nil {
		return a.sequencer, nil
	}
	_, err := a.session.Signer()
	if err == nil {
		err = errors.New("stake sequencer unavailable")
	}
	return nil, err
}

func (a *app) Close() {
	if a.allowance != nil {
		stats := a.allowance.Stats()
		logger.Debug("allowance cache", "lookups", stats.Lookups(), "hitRate", stats.HitRate())
	}
	if a.sequencer != nil {
		a.sequencer.Wait()
	}
	if a.watcher != nil {
		a.watcher.Wait()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warn("failed to close journal", "err", err)
		}
	}
	if a.client != nil {
		a.client.Close()
	}
}

func openJournal(path string) (*journal.Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrapf(err, "create journal dir for %v", path)
		}
	}
	j, err := journal.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal at %v", path)
	}
	return j, nil
}

func describeTx(trx *types.Transaction) string {
	to := "contract creation"
	if trx.To() != nil {
		to = trx.To().Hex()
	}
	data := trx.Data()
	selector := "none"
	if len(data) >= 4 {
		selector = hexutil.Encode(data[:4])
	}
	return fmt.Sprintf("To: %v\nSelector: %v (%d bytes of calldata)\nValue: %v\nGas: %d, max fee %v wei",
		to, selector, len(data), edu.FormatUnits(trx.Value(), edu.TokenDecimals), trx.Gas(), trx.GasFeeCap())
}
