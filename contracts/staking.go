// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/bind"
)

// Staking wraps the EDU staking pool. It pulls tokens through the allowance
// granted on the token contract.
type Staking struct {
	contract *bind.Contract
}

func NewStaking(c *client.Client, address common.Address) (*Staking, error) {
	contract, err := bind.NewContract(c, StakingABI, address)
	if err != nil {
		return nil, err
	}
	return &Staking{contract: contract}, nil
}

func (s *Staking) Raw() *bind.Contract {
	return s.contract
}

func (s *Staking) Address() common.Address {
	return s.contract.Address()
}

// Stake deposits amount under the given lock option, see edu.FlexibleLock.
func (s *Staking) Stake(amount *big.Int, lockOption uint8) *bind.MethodBuilder {
	return s.contract.Method("stake", amount, lockOption)
}
