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

// Rewards wraps the reward distribution contract.
type Rewards struct {
	contract *bind.Contract
}

// UserRewards is the reward accounting of one user for one token.
type UserRewards struct {
	Earned      *big.Int
	Claimed     *big.Int
	LastUpdated *big.Int
}

// Claimable is what is left to claim. It never goes below zero.
func (u *UserRewards) Claimable() *big.Int {
	if u == nil || u.Earned == nil {
		return new(big.Int)
	}
	claimed := u.Claimed
	if claimed == nil {
		claimed = new(big.Int)
	}
	left := new(big.Int).Sub(u.Earned, claimed)
	if left.Sign() < 0 {
		return new(big.Int)
	}
	return left
}

func NewRewards(c *client.Client, address common.Address) (*Rewards, error) {
	contract, err := bind.NewContract(c, RewardsABI, address)
	if err != nil {
		return nil, err
	}
	return &Rewards{contract: contract}, nil
}

func (r *Rewards) Raw() *bind.Contract {
	return r.contract
}

func (r *Rewards) Address() common.Address {
	return r.contract.Address()
}

// UserRewards returns the accounting of user in token.
func (r *Rewards) UserRewards(ctx context.Context, user, token common.Address) (*UserRewards, error) {
	var out UserRewards
	if err := r.contract.Method("userRewards", user, token).Call().Into(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimAllRewards claims everything the sender has earned.
func (r *Rewards) ClaimAllRewards() *bind.MethodBuilder {
	return r.contract.Method("claimAllRewards")
}
