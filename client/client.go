// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/edulearn/edu/metrics"
)

var metricRPCCount = metrics.LazyLoadCounterVec("client_rpc_count", []string{"method", "status"})

// Backend is the subset of the go-ethereum client used here.
// It is satisfied by *ethclient.Client and by in-memory fakes in tests.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingCallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	Close()
}

// Client is the chain access point shared by contract bindings and the receipt watcher.
type Client struct {
	backend       Backend
	url           string
	subscriptions bool
}

// Dial connects to an RPC endpoint. Websocket and IPC endpoints additionally
// allow head subscriptions.
func Dial(ctx context.Context, url string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", url, err)
	}
	return &Client{
		backend:       ethclient.NewClient(rpcClient),
		url:           url,
		subscriptions: !strings.HasPrefix(url, "http"),
	}, nil
}

// New wraps an existing backend.
func New(backend Backend) *Client {
	return &Client{backend: backend}
}

// WithSubscriptions marks the backend as able to push new heads.
func (c *Client) WithSubscriptions(enabled bool) *Client {
	c.subscriptions = enabled
	return c
}

// Backend returns the raw backend.
func (c *Client) Backend() Backend {
	return c.backend
}

// URL returns the endpoint the client was dialed with, empty for wrapped backends.
func (c *Client) URL() string {
	return c.url
}

// CanSubscribe reports whether SubscribeNewHead is expected to work.
func (c *Client) CanSubscribe() bool {
	return c.subscriptions
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.backend.Close()
}

type Option func(*callOptions)

type callOptions struct {
	pending bool
	block   *big.Int
}

func applyOptions(opts []Option) *callOptions {
	options := &callOptions{}
	for _, o := range opts {
		o(options)
	}
	return options
}

// Pending evaluates a call against the pending state.
func Pending() Option {
	return func(o *callOptions) {
		o.pending = true
	}
}

// AtBlock evaluates a call at a historical block.
func AtBlock(number uint64) Option {
	return func(o *callOptions) {
		o.block = new(big.Int).SetUint64(number)
	}
}

func track(method string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metricRPCCount().AddWithLabel(1, map[string]string{"method": method, "status": status})
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.backend.ChainID(ctx)
	track("chainId", err)
	return id, err
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, opts ...Option) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, account, applyOptions(opts).block)
	track("balance", err)
	return balance, err
}

// Call executes a read-only message call and returns the raw output.
func (c *Client) Call(ctx context.Context, msg ethereum.CallMsg, opts ...Option) ([]byte, error) {
	options := applyOptions(opts)
	var (
		out []byte
		err error
	)
	if options.pending {
		out, err = c.backend.PendingCallContract(ctx, msg)
	} else {
		out, err = c.backend.CallContract(ctx, msg, options.block)
	}
	track("call", err)
	return out, err
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	gas, err := c.backend.EstimateGas(ctx, msg)
	track("estimateGas", err)
	return gas, err
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	tip, err := c.backend.SuggestGasTipCap(ctx)
	track("gasTipCap", err)
	return tip, err
}

// BestHeader returns the latest header.
func (c *Client) BestHeader(ctx context.Context) (*types.Header, error) {
	head, err := c.backend.HeaderByNumber(ctx, nil)
	track("header", err)
	return head, err
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, account)
	track("nonce", err)
	return nonce, err
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	err := c.backend.SendTransaction(ctx, tx)
	track("sendTransaction", err)
	return err
}

// TransactionReceipt returns the receipt of a mined transaction, or nil without
// an error while the transaction is still pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		track("receipt", nil)
		return nil, nil
	}
	track("receipt", err)
	return receipt, err
}

// SubscribeNewHead pushes new chain heads into ch.
func (c *Client) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	if !c.subscriptions {
		return nil, errors.New("subscriptions not supported by endpoint")
	}
	return c.backend.SubscribeNewHead(ctx, ch)
}
