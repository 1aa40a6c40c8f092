// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package client

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrUserRejected is returned by signers when the account holder declines to sign.
var ErrUserRejected = errors.New("user rejected the request")

// codeUserRejected is the EIP-1193 provider code for a declined request.
const codeUserRejected = 4001

// Kind groups chain errors by how callers react to them.
type Kind int

const (
	KindProvider Kind = iota
	KindUserRejected
	KindReverted
)

func (k Kind) String() string {
	switch k {
	case KindUserRejected:
		return "user rejected"
	case KindReverted:
		return "execution reverted"
	default:
		return "provider error"
	}
}

// Error is a classified chain error. Reason is meant to be shown to users as is.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps an error returned by the backend or a signer onto a Kind,
// decoding the revert reason when the node returned revert data.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	if errors.Is(err, ErrUserRejected) {
		return &Error{Kind: KindUserRejected, Reason: err.Error(), Err: err}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeUserRejected {
		return &Error{Kind: KindUserRejected, Reason: rpcErr.Error(), Err: err}
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason, ok := revertReason(dataErr.ErrorData()); ok {
			return &Error{Kind: KindReverted, Reason: "execution reverted: " + reason, Err: err}
		}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "execution reverted"):
		return &Error{Kind: KindReverted, Reason: msg, Err: err}
	case strings.Contains(lower, "user rejected"), strings.Contains(lower, "user denied"):
		return &Error{Kind: KindUserRejected, Reason: msg, Err: err}
	}
	return &Error{Kind: KindProvider, Reason: msg, Err: err}
}

func revertReason(data any) (string, bool) {
	raw, ok := data.(string)
	if !ok {
		return "", false
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		return "", false
	}
	reason, err := abi.UnpackRevert(b)
	if err != nil {
		return "", false
	}
	return reason, true
}
