// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bind

import (
	"fmt"
	"math/big"
	"strings"
)

type MethodBuilder struct {
	contract *Contract
	method   string
	args     []any
	value    *big.Int
}

// WithValue attaches native value to the invocation.
func (b *MethodBuilder) WithValue(value *big.Int) *MethodBuilder {
	b.value = value
	return b
}

// Call turns the invocation into a read.
func (b *MethodBuilder) Call() CallBuilder {
	return &callBuilder{op: b}
}

// Send turns the invocation into a transaction.
func (b *MethodBuilder) Send() SendBuilder {
	return &sendBuilder{op: b}
}

// Calldata returns the selector followed by the packed arguments.
func (b *MethodBuilder) Calldata() ([]byte, error) {
	method, ok := b.contract.abi.Methods[b.method]
	if !ok {
		return nil, fmt.Errorf("method not found: %s", b.method)
	}
	data, err := method.Inputs.Pack(b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack method (%s): %w", b.method, err)
	}
	return append(append([]byte{}, method.ID...), data...), nil
}

func (b *MethodBuilder) String() string {
	builder := strings.Builder{}
	builder.WriteString("contract=")
	builder.WriteString(b.contract.addr.Hex())
	builder.WriteString(", method=")
	builder.WriteString(b.method)
	if b.value != nil && b.value.Sign() != 0 {
		builder.WriteString(", value=")
		builder.WriteString(b.value.String())
	}
	if len(b.args) > 0 {
		builder.WriteString(", args=[")
		for i, arg := range b.args {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(fmt.Sprintf("%v", arg))
		}
		builder.WriteString("]")
	}
	return builder.String()
}
