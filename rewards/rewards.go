// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards reads and claims staking rewards of the session account.
package rewards

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/receipt"
	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/log"
	"github.com/edulearn/edu/metrics"
	"github.com/edulearn/edu/notify"
	"github.com/edulearn/edu/session"
)

var (
	logger       = log.WithContext("pkg", "rewards")
	metricClaims = metrics.LazyLoadCounterVec("rewards_claims_count", []string{"status"})
)

var ErrNothingToClaim = errors.New("no rewards to claim")

type Service struct {
	rewards  *contracts.Rewards
	token    common.Address
	session  *session.Session
	watcher  *receipt.Watcher
	notifier notify.Publisher
	// OnClaimed runs after a confirmed claim, typically to drop cached balances.
	OnClaimed func(owner common.Address)
}

func New(rewards *contracts.Rewards, token common.Address, sess *session.Session, watcher *receipt.Watcher, notifier notify.Publisher) *Service {
	return &Service{
		rewards:  rewards,
		token:    token,
		session:  sess,
		watcher:  watcher,
		notifier: notifier,
	}
}

// Rewards returns the reward accounting of owner for the EDU token.
func (s *Service) Rewards(ctx context.Context, owner common.Address) (*contracts.UserRewards, error) {
	return s.rewards.UserRewards(ctx, owner, s.token)
}

// Claimable returns earned minus claimed for owner.
func (s *Service) Claimable(ctx context.Context, owner common.Address) (*big.Int, error) {
	r, err := s.Rewards(ctx, owner)
	if err != nil {
		return nil, err
	}
	return r.Claimable(), nil
}

// Claim is the result of a confirmed claim.
type Claim struct {
	Tx     common.Hash `json:"tx"`
	Amount *big.Int    `json:"amount"`
	Block  uint64      `json:"block"`
}

// Claim claims every pending reward of the session account and waits for the receipt.
// Nothing is sent when there is nothing to claim.
func (s *Service) Claim(ctx context.Context) (*Claim, error) {
	signer, err := s.session.Signer()
	if err != nil {
		return nil, err
	}
	owner := signer.Address()

	claimable, err := s.Claimable(ctx, owner)
	if err != nil {
		return nil, err
	}
	if claimable.Sign() <= 0 {
		s.notifier.Publish("", notify.Error, "You have no rewards to claim.")
		return nil, ErrNothingToClaim
	}

	s.notifier.Publish("", notify.Info, "Please confirm the transaction in your wallet.")
	trx, err := s.rewards.ClaimAllRewards().Send().WithSigner(signer).Issue(ctx)
	if err != nil {
		classified := client.Classify(err)
		s.notifier.Publish("", notify.Error, classified.Reason)
		metricClaims().AddWithLabel(1, map[string]string{"status": "rejected"})
		return nil, classified
	}
	key := trx.Hash().Hex()
	s.notifier.Publish(key, notify.Loading, "Claim in progress...")
	logger.Info("claim submitted", "owner", owner, "amount", claimable, "tx", trx.Hash())

	events, err := s.watcher.Watch(ctx, trx.Hash())
	if err != nil {
		return nil, err
	}
	ev := <-events
	metricClaims().AddWithLabel(1, map[string]string{"status": ev.Status.String()})
	switch ev.Status {
	case receipt.Confirmed:
		s.notifier.Publish(key, notify.Success, "Rewards claimed successfully!")
		if s.OnClaimed != nil {
			s.OnClaimed(owner)
		}
		return &Claim{Tx: trx.Hash(), Amount: claimable, Block: ev.Receipt.BlockNumber.Uint64()}, nil
	case receipt.Reverted:
		err = &client.Error{Kind: client.KindReverted, Reason: "Claim transaction reverted"}
	default:
		if ev.Err == nil {
			ev.Err = errors.New("receipt watch failed")
		}
		err = client.Classify(ev.Err)
	}
	s.notifier.Publish(key, notify.Error, err.Error())
	return nil, err
}
