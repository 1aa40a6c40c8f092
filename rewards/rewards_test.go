// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/clienttest"
	"github.com/edulearn/edu/client/receipt"
	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/contracts/contractstest"
	"github.com/edulearn/edu/edu"
	"github.com/edulearn/edu/notify"
	"github.com/edulearn/edu/session"
)

type env struct {
	backend    *clienttest.Backend
	deployment *contractstest.Deployment
	session    *session.Session
	center     *notify.Center
	service    *Service
	owner      common.Address
}

func newEnv(t *testing.T) *env {
	backend := clienttest.NewBackend(int64(edu.CeloMainnetChainID))
	backend.SetAutoMine(true)
	deployment := contractstest.Deploy(backend)
	c := client.New(backend)
	set, err := contracts.Bind(c, contractstest.Addresses())
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sess := session.New(c, set.CourseRegistry, edu.CeloMainnetChainID,
		session.NewPrivateKeyConnector(hex.EncodeToString(crypto.FromECDSA(key))))
	_, err = sess.Connect(context.Background(), "")
	require.NoError(t, err)

	center := notify.NewCenter(10)
	watcher := receipt.NewWatcher(c, receipt.Options{PollInterval: 5 * time.Millisecond})
	return &env{
		backend:    backend,
		deployment: deployment,
		session:    sess,
		center:     center,
		service:    New(set.Rewards, contractstest.TokenAddress, sess, watcher, center),
		owner:      crypto.PubkeyToAddress(key.PublicKey),
	}
}

func TestClaimable(t *testing.T) {
	e := newEnv(t)
	e.deployment.SetRewards(e.owner, big.NewInt(300), big.NewInt(100))

	v, err := e.service.Claimable(context.Background(), e.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(200), v.Int64())

	r, err := e.service.Rewards(context.Background(), e.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(300), r.Earned.Int64())
}

func TestClaim(t *testing.T) {
	e := newEnv(t)
	e.deployment.SetRewards(e.owner, big.NewInt(300), big.NewInt(100))
	var claimedFor common.Address
	e.service.OnClaimed = func(owner common.Address) { claimedFor = owner }

	claim, err := e.service.Claim(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(200), claim.Amount.Int64())
	assert.Equal(t, e.owner, claimedFor)
	assert.Equal(t, int64(200), e.deployment.Balance(e.owner).Int64())

	n, ok := e.center.Get(claim.Tx.Hex())
	require.True(t, ok)
	assert.Equal(t, notify.Success, n.Level)
	assert.Equal(t, "Rewards claimed successfully!", n.Message)

	left, err := e.service.Claimable(context.Background(), e.owner)
	require.NoError(t, err)
	assert.Equal(t, 0, left.Sign())
}

func TestClaimNothing(t *testing.T) {
	e := newEnv(t)
	e.deployment.SetRewards(e.owner, big.NewInt(100), big.NewInt(100))

	_, err := e.service.Claim(context.Background())
	assert.ErrorIs(t, err, ErrNothingToClaim)
	assert.Empty(t, e.backend.Sent())

	list := e.center.List()
	require.Len(t, list, 1)
	assert.Equal(t, notify.Error, list[0].Level)
	assert.Equal(t, "You have no rewards to claim.", list[0].Message)
}

func TestClaimRequiresSession(t *testing.T) {
	e := newEnv(t)
	e.session.Disconnect()

	_, err := e.service.Claim(context.Background())
	assert.ErrorIs(t, err, session.ErrNotConnected)
}

func TestClaimReverted(t *testing.T) {
	e := newEnv(t)
	e.deployment.SetRewards(e.owner, big.NewInt(300), big.NewInt(0))
	e.backend.SetAutoMine(false)
	done := make(chan error, 1)
	go func() {
		_, err := e.service.Claim(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return len(e.backend.Sent()) == 1 }, time.Second, time.Millisecond)
	// claimed elsewhere before this transaction is mined
	e.deployment.SetRewards(e.owner, big.NewInt(300), big.NewInt(300))
	e.backend.Mine()

	err := <-done
	var classified *client.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, client.KindReverted, classified.Kind)
}
