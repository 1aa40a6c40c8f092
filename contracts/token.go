// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/bind"
)

// Token is a type-safe wrapper of the EDU ERC20 token.
type Token struct {
	contract *bind.Contract
	pending  bool
}

func NewToken(c *client.Client, address common.Address) (*Token, error) {
	contract, err := bind.NewContract(c, TokenABI, address)
	if err != nil {
		return nil, err
	}
	return &Token{contract: contract}, nil
}

// Pending returns a Token whose reads see the pending state.
func (t *Token) Pending() *Token {
	return &Token{contract: t.contract, pending: true}
}

func (t *Token) Raw() *bind.Contract {
	return t.contract
}

func (t *Token) Address() common.Address {
	return t.contract.Address()
}

func (t *Token) call(method string, args ...any) bind.CallBuilder {
	call := t.contract.Method(method, args...).Call()
	if t.pending {
		call = call.Pending()
	}
	return call
}

// Name returns the name of the token
func (t *Token) Name(ctx context.Context) (string, error) {
	var name string
	if err := t.call("name").Into(ctx, &name); err != nil {
		return "", err
	}
	return name, nil
}

// Symbol returns the symbol of the token
func (t *Token) Symbol(ctx context.Context) (string, error) {
	var symbol string
	if err := t.call("symbol").Into(ctx, &symbol); err != nil {
		return "", err
	}
	return symbol, nil
}

// Decimals returns the number of decimals the token uses
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	var decimals uint8
	if err := t.call("decimals").Into(ctx, &decimals); err != nil {
		return 0, err
	}
	return decimals, nil
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	supply := new(big.Int)
	if err := t.call("totalSupply").Into(ctx, &supply); err != nil {
		return nil, err
	}
	return supply, nil
}

// BalanceOf returns the token balance of owner
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	balance := new(big.Int)
	if err := t.call("balanceOf", owner).Into(ctx, &balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// Allowance returns the amount spender may still pull from owner
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	allowance := new(big.Int)
	if err := t.call("allowance", owner, spender).Into(ctx, &allowance); err != nil {
		return nil, err
	}
	return allowance, nil
}

// Approve sets the allowance of spender to exactly amount
func (t *Token) Approve(spender common.Address, amount *big.Int) *bind.MethodBuilder {
	return t.contract.Method("approve", spender, amount)
}

func (t *Token) Transfer(to common.Address, amount *big.Int) *bind.MethodBuilder {
	return t.contract.Method("transfer", to, amount)
}
