// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"context"
	"errors"

	"github.com/edulearn/edu/client"
)

var (
	// ErrBusy is returned when a run is already in flight.
	ErrBusy = errors.New("stake: a stake is already in progress")
	// ErrAlreadyChained is returned when resuming an approval whose stake was already submitted.
	ErrAlreadyChained = errors.New("stake: approval already chained to a stake")
)

type ErrorKind int

const (
	InvalidAmount ErrorKind = iota
	UserRejected
	ExecutionReverted
	ProviderError
	Timeout
	Canceled
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidAmount:
		return "invalid amount"
	case UserRejected:
		return "user rejected"
	case ExecutionReverted:
		return "execution reverted"
	case Timeout:
		return "timeout"
	case Canceled:
		return "canceled"
	default:
		return "provider error"
	}
}

// Error is the failure of a run. Message is shown to users verbatim.
type Error struct {
	Kind    ErrorKind
	Stage   Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, stage Kind, message string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Message: message, Err: err}
}

// classify maps chain errors onto run error kinds.
func classify(stage Kind, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return newError(Canceled, stage, "operation canceled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(Timeout, stage, "timed out waiting for the "+stage.String()+" transaction", err)
	}
	c := client.Classify(err)
	switch c.Kind {
	case client.KindUserRejected:
		return newError(UserRejected, stage, c.Reason, err)
	case client.KindReverted:
		return newError(ExecutionReverted, stage, c.Reason, err)
	default:
		return newError(ProviderError, stage, c.Reason, err)
	}
}
