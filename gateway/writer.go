// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/edulearn/edu/client/bind"
	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/stake"
)

// Writer submits the sequencer's approvals and stakes with signer.
type Writer struct {
	token      *contracts.Token
	staking    *contracts.Staking
	signer     bind.Signer
	lockOption uint8
}

func NewWriter(token *contracts.Token, staking *contracts.Staking, signer bind.Signer, lockOption uint8) *Writer {
	return &Writer{token: token, staking: staking, signer: signer, lockOption: lockOption}
}

// Submit sends approve(staking, amount) for approvals and stake(amount, lockOption) for stakes.
func (w *Writer) Submit(ctx context.Context, kind stake.Kind, amount *big.Int) (stake.Handle, error) {
	var method *bind.MethodBuilder
	switch kind {
	case stake.Approval:
		method = w.token.Approve(w.staking.Address(), amount)
	case stake.Stake:
		method = w.staking.Stake(amount, w.lockOption)
	default:
		return stake.Handle{}, fmt.Errorf("unsupported write kind %v", kind)
	}
	trx, err := method.Send().WithSigner(w.signer).Issue(ctx)
	if err != nil {
		return stake.Handle{}, err
	}
	return stake.Handle{ID: trx.Hash(), Kind: kind}, nil
}
