// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bind

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/receipt"
)

// GasBufferPercent is added on top of the node's gas estimate.
const GasBufferPercent = 20

// SendBuilder is the interface for write operations.
type SendBuilder interface {
	// WithSigner sets the signer for the transaction.
	WithSigner(signer Signer) SendBuilder

	// WithOptions sets the transaction options.
	WithOptions(opts *TxOptions) SendBuilder

	// WithWatcher sets the watcher used by Receipt.
	WithWatcher(w *receipt.Watcher) SendBuilder

	// Issue sends the transaction without waiting for its receipt.
	Issue(ctx context.Context) (*types.Transaction, error)

	// Receipt sends the transaction and waits until it is mined. A reverted
	// transaction is returned with its receipt and no error.
	Receipt(ctx context.Context) (*types.Receipt, *types.Transaction, error)
}

// TxOptions to override default transaction parameters.
type TxOptions struct {
	// Gas sets the gas limit for the transaction.
	Gas *uint64
	// GasFeeCap sets the maximum fee per gas unit.
	GasFeeCap *big.Int
	// GasTipCap sets the maximum priority fee per gas unit.
	GasTipCap *big.Int
	// Nonce sets the transaction nonce.
	Nonce *uint64
}

type sendBuilder struct {
	op      *MethodBuilder
	signer  Signer
	opts    *TxOptions
	watcher *receipt.Watcher
}

func (b *sendBuilder) WithSigner(signer Signer) SendBuilder {
	b.signer = signer
	return b
}

func (b *sendBuilder) WithOptions(opts *TxOptions) SendBuilder {
	b.opts = opts
	return b
}

func (b *sendBuilder) WithWatcher(w *receipt.Watcher) SendBuilder {
	b.watcher = w
	return b
}

func (b *sendBuilder) Issue(ctx context.Context) (*types.Transaction, error) {
	if b.signer == nil {
		return nil, errors.New("signer not set")
	}
	data, err := b.op.Calldata()
	if err != nil {
		return nil, err
	}

	c := b.op.contract.client
	from := b.signer.Address()
	to := b.op.contract.addr

	opts := TxOptions{}
	if b.opts != nil {
		opts = *b.opts
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, client.Classify(fmt.Errorf("failed to get chain id: %w", err))
	}
	if opts.Nonce == nil {
		nonce, err := c.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, client.Classify(fmt.Errorf("failed to get nonce: %w", err))
		}
		opts.Nonce = &nonce
	}
	if opts.Gas == nil {
		// the estimate doubles as a dry run, reverts surface here
		estimate, err := c.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: b.op.value, Data: data})
		if err != nil {
			return nil, client.Classify(err)
		}
		gas := estimate + estimate*GasBufferPercent/100
		opts.Gas = &gas
	}
	if opts.GasTipCap == nil {
		tip, err := c.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, client.Classify(fmt.Errorf("failed to get gas tip: %w", err))
		}
		opts.GasTipCap = tip
	}
	if opts.GasFeeCap == nil {
		head, err := c.BestHeader(ctx)
		if err != nil {
			return nil, client.Classify(fmt.Errorf("failed to get best header: %w", err))
		}
		feeCap := new(big.Int).Set(opts.GasTipCap)
		if head.BaseFee != nil {
			feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		}
		opts.GasFeeCap = feeCap
	}
	if opts.GasFeeCap.Cmp(opts.GasTipCap) < 0 {
		return nil, fmt.Errorf("gas fee cap %v below tip cap %v", opts.GasFeeCap, opts.GasTipCap)
	}

	value := b.op.value
	if value == nil {
		value = new(big.Int)
	}
	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     *opts.Nonce,
		GasTipCap: opts.GasTipCap,
		GasFeeCap: opts.GasFeeCap,
		Gas:       *opts.Gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})
	signed, err := b.signer.SignTransaction(ctx, unsigned, chainID)
	if err != nil {
		return nil, client.Classify(fmt.Errorf("failed to sign transaction: %w", err))
	}
	if err := c.SendTransaction(ctx, signed); err != nil {
		return nil, client.Classify(err)
	}
	return signed, nil
}

func (b *sendBuilder) Receipt(ctx context.Context) (*types.Receipt, *types.Transaction, error) {
	trx, err := b.Issue(ctx)
	if err != nil {
		return nil, nil, err
	}
	w := b.watcher
	if w == nil {
		w = receipt.NewWatcher(b.op.contract.client, receipt.Options{})
	}
	events, err := w.Watch(ctx, trx.Hash())
	if err != nil {
		return nil, trx, err
	}
	ev := <-events
	if ev.Status == receipt.Failed {
		return nil, trx, fmt.Errorf("waiting for receipt (method: %s, tx: %s): %w", b.op.method, trx.Hash().Hex(), ev.Err)
	}
	return ev.Receipt, trx, nil
}
