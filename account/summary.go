// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package account assembles the dashboard view of one account.
package account

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/session"
)

// AllowanceReader is the cached allowance source shared with the stake sequencer.
type AllowanceReader interface {
	Allowance(ctx context.Context, owner common.Address) (*big.Int, error)
}

// Summary is a point in time view of an account.
type Summary struct {
	Address   common.Address `json:"address"`
	Balance   *big.Int       `json:"balance"`
	Allowance *big.Int       `json:"allowance"`
	Earned    *big.Int       `json:"earned"`
	Claimed   *big.Int       `json:"claimed"`
	Claimable *big.Int       `json:"claimable"`
	Admin     bool           `json:"admin"`
}

type Reader struct {
	token     *contracts.Token
	allowance AllowanceReader
	rewards   *contracts.Rewards
	session   *session.Session
}

func NewReader(token *contracts.Token, allowance AllowanceReader, rewards *contracts.Rewards, sess *session.Session) *Reader {
	return &Reader{token: token, allowance: allowance, rewards: rewards, session: sess}
}

// Summary reads the session account.
func (r *Reader) Summary(ctx context.Context) (*Summary, error) {
	owner, ok := r.session.Account()
	if !ok {
		return nil, session.ErrNotConnected
	}
	return r.Of(ctx, owner, true)
}

// Of reads owner. The admin flag is only resolved when withRole is set and
// owner is the session account.
func (r *Reader) Of(ctx context.Context, owner common.Address, withRole bool) (*Summary, error) {
	s := &Summary{Address: owner}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.Balance, err = r.token.BalanceOf(ctx, owner)
		return
	})
	g.Go(func() (err error) {
		s.Allowance, err = r.allowance.Allowance(ctx, owner)
		return
	})
	g.Go(func() error {
		rw, err := r.rewards.UserRewards(ctx, owner, r.token.Address())
		if err != nil {
			return err
		}
		s.Earned, s.Claimed, s.Claimable = rw.Earned, rw.Claimed, rw.Claimable()
		return nil
	})
	if account, ok := r.session.Account(); withRole && ok && account == owner {
		g.Go(func() (err error) {
			s.Admin, err = r.session.HasCapability(ctx, session.CapabilityAdmin)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}
