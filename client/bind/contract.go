// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bind builds ABI encoded calls and transactions against a deployed contract.
//
//	contract, _ := bind.NewContract(c, tokenABI, tokenAddr)
//	var balance *big.Int
//	err := contract.Method("balanceOf", owner).Call().Into(ctx, &balance)
//	tx, err := contract.Method("approve", spender, amount).Send().WithSigner(signer).Issue(ctx)
package bind

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client"
)

type Contract struct {
	client *client.Client
	abi    *abi.ABI
	addr   common.Address
}

// NewContract creates a contract instance from its JSON ABI and address.
func NewContract(c *client.Client, abiData []byte, address common.Address) (*Contract, error) {
	if address == (common.Address{}) {
		return nil, errors.New("empty contract address")
	}
	contractABI, err := abi.JSON(bytes.NewReader(abiData))
	if err != nil {
		return nil, err
	}
	return &Contract{
		client: c,
		abi:    &contractABI,
		addr:   address,
	}, nil
}

// Method prepares an invocation of the named method.
func (c *Contract) Method(method string, args ...any) *MethodBuilder {
	return &MethodBuilder{
		contract: c,
		method:   method,
		args:     args,
	}
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.addr
}

// ABI returns the contract ABI.
func (c *Contract) ABI() *abi.ABI {
	return c.abi
}

// Client returns the underlying chain client.
func (c *Contract) Client() *client.Client {
	return c.client
}
