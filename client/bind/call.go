// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bind

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client"
)

// CallBuilder is the interface for read operations.
type CallBuilder interface {
	// From sets the caller, which matters for access controlled views.
	From(caller common.Address) CallBuilder

	// Pending evaluates the call against the pending state.
	Pending() CallBuilder

	// AtBlock evaluates the call at a historical block.
	AtBlock(number uint64) CallBuilder

	// Into unpacks the result into the provided pointer. Methods with several
	// outputs unpack into a struct whose fields match the output names.
	Into(ctx context.Context, result any) error

	// Execute performs the call and returns the raw result.
	Execute(ctx context.Context) ([]byte, error)
}

type callBuilder struct {
	op   *MethodBuilder
	from common.Address
	opts []client.Option
}

func (b *callBuilder) From(caller common.Address) CallBuilder {
	b.from = caller
	return b
}

func (b *callBuilder) Pending() CallBuilder {
	b.opts = append(b.opts, client.Pending())
	return b
}

func (b *callBuilder) AtBlock(number uint64) CallBuilder {
	b.opts = append(b.opts, client.AtBlock(number))
	return b
}

func (b *callBuilder) Into(ctx context.Context, result any) error {
	data, err := b.Execute(ctx)
	if err != nil {
		return err
	}
	return b.op.contract.abi.UnpackIntoInterface(result, b.op.method, data)
}

func (b *callBuilder) Execute(ctx context.Context) ([]byte, error) {
	data, err := b.op.Calldata()
	if err != nil {
		return nil, err
	}
	to := b.op.contract.addr
	out, err := b.op.contract.client.Call(ctx, ethereum.CallMsg{
		From:  b.from,
		To:    &to,
		Value: b.op.value,
		Data:  data,
	}, b.opts...)
	if err != nil {
		return nil, client.Classify(err)
	}
	return out, nil
}
