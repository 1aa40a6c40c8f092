// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client/receipt"
)

// Kind is the kind of write issued by the sequencer.
type Kind int

const (
	Approval Kind = iota + 1
	Stake
)

func (k Kind) String() string {
	switch k {
	case Approval:
		return "approval"
	case Stake:
		return "stake"
	default:
		return "none"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "approval":
		return Approval, true
	case "stake":
		return Stake, true
	}
	return 0, false
}

// Handle identifies a submitted write.
type Handle struct {
	ID   common.Hash `json:"id"`
	Kind Kind        `json:"kind"`
}

// Intent is a request to stake Amount, in the token's smallest unit, on behalf of Owner.
type Intent struct {
	Amount *big.Int       `json:"amount"`
	Owner  common.Address `json:"owner"`
}

type Phase int

const (
	Idle Phase = iota
	NeedsApproval
	ReadyToStake
	Approving
	AwaitingApprovalReceipt
	Staking
	AwaitingStakeReceipt
	Done
	Failed
)

var phaseNames = [...]string{
	Idle:                    "idle",
	NeedsApproval:           "needs-approval",
	ReadyToStake:            "ready-to-stake",
	Approving:               "approving",
	AwaitingApprovalReceipt: "awaiting-approval-receipt",
	Staking:                 "staking",
	AwaitingStakeReceipt:    "awaiting-stake-receipt",
	Done:                    "done",
	Failed:                  "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// InFlight reports whether a run is between its start and a terminal phase.
func (p Phase) InFlight() bool {
	return p != Idle && p != Done && p != Failed
}

// Status is the passive view of a sequencer.
type Status struct {
	Phase Phase
	// FailedAt is the write the run failed on, zero when it failed before any write.
	FailedAt Kind
	Err      *Error
	// RefreshOwed is set once a write has been issued and cleared by the next
	// successful fresh allowance read.
	RefreshOwed bool
	Intent      *Intent
	Approval    *Handle
	Stake       *Handle
	// Allowance is the last allowance read by the sequencer.
	Allowance *big.Int
}

// Outcome is the terminal result of a run, Phase is either Done or Failed.
type Outcome struct {
	Phase    Phase
	Intent   Intent
	Err      *Error
	Approval *Handle
	Stake    *Handle
}

// AllowanceReader reads how much the staking contract may pull from owner.
type AllowanceReader interface {
	// Allowance may answer from a cache.
	Allowance(ctx context.Context, owner common.Address) (*big.Int, error)
	// Refresh always reads the chain and updates the cache.
	Refresh(ctx context.Context, owner common.Address) (*big.Int, error)
	// Invalidate marks the cached value of owner stale.
	Invalidate(owner common.Address)
}

// Writer submits the approval and stake transactions.
type Writer interface {
	Submit(ctx context.Context, kind Kind, amount *big.Int) (Handle, error)
}

// Watcher follows a submitted transaction. Each watch yields one terminal event.
type Watcher interface {
	Watch(ctx context.Context, hash common.Hash) (<-chan receipt.Event, error)
}

// Journal records submitted handles so they survive restarts.
type Journal interface {
	Record(ctx context.Context, intent Intent, h Handle) error
	Resolve(ctx context.Context, h Handle, status string) error
}

// Journal statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusReverted  = "reverted"
	StatusFailed    = "failed"
)

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown handle kind %q", text)
	}
	*k = parsed
	return nil
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (i Intent) clone() Intent {
	if i.Amount != nil {
		i.Amount = new(big.Int).Set(i.Amount)
	}
	return i
}
