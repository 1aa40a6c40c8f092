// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package clienttest provides an in-memory chain backend for tests.
package clienttest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// CallFunc answers an eth_call. Input is the full calldata.
type CallFunc func(from common.Address, input []byte) ([]byte, error)

type callKey struct {
	to       common.Address
	selector [4]byte
}

// Backend is a programmable chain. Calls are routed by target and selector,
// sent transactions are kept in order and mined explicitly with Mine or
// automatically when AutoMine is set.
type Backend struct {
	mu sync.Mutex

	chainID  *big.Int
	number   uint64
	balances map[common.Address]*big.Int
	calls    map[callKey]CallFunc
	nonces   map[common.Address]uint64
	sent     []*types.Transaction
	pending  []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	reverts  map[common.Hash]bool
	heads    event.Feed

	autoMine bool

	SendErr     error
	ReceiptErr  error
	EstimateErr error
	CallErr     error
}

// NewBackend creates an empty chain with the given id.
func NewBackend(chainID int64) *Backend {
	return &Backend{
		chainID:  big.NewInt(chainID),
		balances: make(map[common.Address]*big.Int),
		calls:    make(map[callKey]CallFunc),
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
		reverts:  make(map[common.Hash]bool),
	}
}

// SetAutoMine makes every sent transaction mined in its own block right away.
func (b *Backend) SetAutoMine(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.autoMine = enabled
}

// SetBalance sets the native balance of account.
func (b *Backend) SetBalance(account common.Address, balance *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = balance
}

// HandleCall routes calls to `to` starting with selector to fn. The same route
// also decides whether a transaction executing that call reverts.
func (b *Backend) HandleCall(to common.Address, selector []byte, fn CallFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var key callKey
	key.to = to
	copy(key.selector[:], selector)
	b.calls[key] = fn
}

// RevertNext makes the receipt of the given transaction failed when mined.
func (b *Backend) RevertNext(hash common.Hash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reverts[hash] = true
}

// Sent returns every transaction accepted so far.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// Mine includes all pending transactions in a new block and announces its header.
// Transactions whose call handler returns an error are mined as reverted.
func (b *Backend) Mine() *types.Header {
	b.mu.Lock()
	b.number++
	header := &types.Header{Number: new(big.Int).SetUint64(b.number), BaseFee: big.NewInt(1)}
	for _, tx := range b.pending {
		status := types.ReceiptStatusSuccessful
		if b.reverts[tx.Hash()] || b.executeLocked(tx) != nil {
			status = types.ReceiptStatusFailed
		}
		b.receipts[tx.Hash()] = &types.Receipt{
			Type:        tx.Type(),
			Status:      status,
			TxHash:      tx.Hash(),
			GasUsed:     tx.Gas(),
			BlockNumber: header.Number,
		}
	}
	b.pending = nil
	b.mu.Unlock()

	b.heads.Send(header)
	return header
}

func (b *Backend) executeLocked(tx *types.Transaction) error {
	if tx.To() == nil || len(tx.Data()) < 4 {
		return nil
	}
	from, _ := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	var key callKey
	key.to = *tx.To()
	copy(key.selector[:], tx.Data()[:4])
	if fn, ok := b.calls[key]; ok {
		_, err := fn(from, tx.Data())
		return err
	}
	return nil
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.balances[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	if b.CallErr != nil {
		defer b.mu.Unlock()
		return nil, b.CallErr
	}
	if msg.To == nil || len(msg.Data) < 4 {
		b.mu.Unlock()
		return nil, errors.New("invalid call")
	}
	var key callKey
	key.to = *msg.To
	copy(key.selector[:], msg.Data[:4])
	fn, ok := b.calls[key]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("execution reverted: no handler for %x on %s", msg.Data[:4], msg.To.Hex())
	}
	return fn(msg.From, msg.Data)
}

func (b *Backend) PendingCallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return b.CallContract(ctx, msg, nil)
}

func (b *Backend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if b.EstimateErr != nil {
		return 0, b.EstimateErr
	}
	return 50_000, nil
}

func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (b *Backend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &types.Header{Number: new(big.Int).SetUint64(b.number), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	if b.SendErr != nil {
		defer b.mu.Unlock()
		return b.SendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	b.nonces[from]++
	b.sent = append(b.sent, tx)
	b.pending = append(b.pending, tx)
	autoMine := b.autoMine
	b.mu.Unlock()

	if autoMine {
		b.Mine()
	}
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ReceiptErr != nil {
		return nil, b.ReceiptErr
	}
	if r, ok := b.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (b *Backend) SubscribeNewHead(_ context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	return b.heads.Subscribe(ch), nil
}

func (b *Backend) Close() {}
