// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/stake"
)

// StakeRequest carries the amount in whole token units, e.g. "12.5".
type StakeRequest struct {
	Amount string `json:"amount"`
}

type Error struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

type Status struct {
	Phase       stake.Phase     `json:"phase"`
	FailedAt    string          `json:"failedAt,omitempty"`
	Error       *Error          `json:"error,omitempty"`
	RefreshOwed bool            `json:"refreshOwed"`
	Owner       *common.Address `json:"owner,omitempty"`
	Amount      string          `json:"amount,omitempty"`
	Allowance   string          `json:"allowance,omitempty"`
	Approval    *stake.Handle   `json:"approval,omitempty"`
	Stake       *stake.Handle   `json:"stake,omitempty"`
}

func convertError(err *stake.Error) *Error {
	if err == nil {
		return nil
	}
	e := &Error{Kind: err.Kind.String(), Message: err.Message}
	if err.Stage != 0 {
		e.Stage = err.Stage.String()
	}
	return e
}

func convertStatus(st stake.Status) *Status {
	s := &Status{
		Phase:       st.Phase,
		Error:       convertError(st.Err),
		RefreshOwed: st.RefreshOwed,
		Approval:    st.Approval,
		Stake:       st.Stake,
	}
	if st.FailedAt != 0 {
		s.FailedAt = st.FailedAt.String()
	}
	if st.Intent != nil {
		owner := st.Intent.Owner
		s.Owner = &owner
		if st.Intent.Amount != nil {
			s.Amount = st.Intent.Amount.String()
		}
	}
	if st.Allowance != nil {
		s.Allowance = st.Allowance.String()
	}
	return s
}

func convertOutcome(o stake.Outcome) *Status {
	s := &Status{
		Phase:    o.Phase,
		Error:    convertError(o.Err),
		Approval: o.Approval,
		Stake:    o.Stake,
	}
	owner := o.Intent.Owner
	s.Owner = &owner
	if o.Intent.Amount != nil {
		s.Amount = o.Intent.Amount.String()
	}
	if o.Err != nil && o.Err.Stage != 0 {
		s.FailedAt = o.Err.Stage.String()
	}
	return s
}
