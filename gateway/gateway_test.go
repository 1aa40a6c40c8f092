// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gateway

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/bind"
	"github.com/edulearn/edu/client/clienttest"
	"github.com/edulearn/edu/client/receipt"
	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/contracts/contractstest"
	"github.com/edulearn/edu/edu"
	"github.com/edulearn/edu/stake"
)

type env struct {
	backend    *clienttest.Backend
	deployment *contractstest.Deployment
	set        *contracts.Set
	signer     *bind.PrivateKeySigner
	reader     *AllowanceReader
	writer     *Writer
}

func newEnv(t *testing.T) *env {
	backend := clienttest.NewBackend(int64(edu.CeloMainnetChainID))
	backend.SetAutoMine(true)
	deployment := contractstest.Deploy(backend)
	set, err := contracts.Bind(client.New(backend), contractstest.Addresses())
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := bind.NewSigner(key)

	reader, err := NewAllowanceReader(set.Token, set.Staking.Address(), 16)
	require.NoError(t, err)
	return &env{
		backend:    backend,
		deployment: deployment,
		set:        set,
		signer:     signer,
		reader:     reader,
		writer:     NewWriter(set.Token, set.Staking, signer, edu.FlexibleLock),
	}
}

func TestAllowanceReaderCaches(t *testing.T) {
	e := newEnv(t)
	owner := e.signer.Address()
	e.deployment.SetAllowance(owner, big.NewInt(10))
	ctx := context.Background()

	v, err := e.reader.Allowance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.Int64())

	e.deployment.SetAllowance(owner, big.NewInt(20))
	v, err = e.reader.Allowance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.Int64(), "served from cache")

	v, err = e.reader.Refresh(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(20), v.Int64())

	e.deployment.SetAllowance(owner, big.NewInt(30))
	e.reader.Invalidate(owner)
	v, err = e.reader.Allowance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(30), v.Int64())

	stats := e.reader.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestAllowanceReaderConcurrent(t *testing.T) {
	e := newEnv(t)
	owner := e.signer.Address()
	e.deployment.SetAllowance(owner, big.NewInt(5))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := e.reader.Allowance(context.Background(), owner)
			assert.NoError(t, err)
			assert.Equal(t, int64(5), v.Int64())
		}()
	}
	wg.Wait()
}

func TestAllowanceReaderInvalidateDuringLoad(t *testing.T) {
	e := newEnv(t)
	owner := e.signer.Address()
	method := e.set.Token.Raw().ABI().Methods["allowance"]

	entered := make(chan struct{})
	release := make(chan struct{})
	var reads atomic.Int32
	e.backend.HandleCall(contractstest.TokenAddress, method.ID, func(common.Address, []byte) ([]byte, error) {
		if reads.Add(1) == 1 {
			close(entered)
			<-release
			return method.Outputs.Pack(big.NewInt(10))
		}
		return method.Outputs.Pack(big.NewInt(20))
	})

	loaded := make(chan *big.Int, 1)
	go func() {
		v, err := e.reader.Allowance(context.Background(), owner)
		assert.NoError(t, err)
		loaded <- v
	}()
	<-entered
	// a write lands while the first read is in flight
	e.reader.Invalidate(owner)
	close(release)
	assert.Equal(t, int64(10), (<-loaded).Int64())

	v, err := e.reader.Allowance(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(20), v.Int64(), "read started before the write is not cached")
	assert.Equal(t, int32(2), reads.Load())

	v, err = e.reader.Allowance(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(20), v.Int64())
	assert.Equal(t, int32(2), reads.Load())
}

func TestAllowanceReaderError(t *testing.T) {
	e := newEnv(t)
	e.backend.CallErr = assert.AnError

	_, err := e.reader.Allowance(context.Background(), e.signer.Address())
	assert.Error(t, err)
	_, err = e.reader.Refresh(context.Background(), e.signer.Address())
	assert.Error(t, err)
}

func TestWriterSubmit(t *testing.T) {
	e := newEnv(t)
	owner := e.signer.Address()
	e.deployment.SetBalance(owner, big.NewInt(1000))
	ctx := context.Background()

	h, err := e.writer.Submit(ctx, stake.Approval, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, stake.Approval, h.Kind)
	assert.Equal(t, int64(100), e.deployment.Allowance(owner).Int64())

	sent := e.backend.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, contractstest.TokenAddress, *sent[0].To())
	assert.Equal(t, h.ID, sent[0].Hash())

	h, err = e.writer.Submit(ctx, stake.Stake, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, stake.Stake, h.Kind)
	assert.Equal(t, int64(100), e.deployment.Staked(owner).Int64())
	assert.Equal(t, contractstest.StakingAddress, *e.backend.Sent()[1].To())

	_, err = e.writer.Submit(ctx, stake.Kind(0), big.NewInt(1))
	assert.Error(t, err)
}

func TestSequencerEndToEnd(t *testing.T) {
	e := newEnv(t)
	owner := e.signer.Address()
	e.deployment.SetBalance(owner, big.NewInt(1000))

	watcher := receipt.NewWatcher(client.New(e.backend), receipt.Options{PollInterval: 5 * time.Millisecond})
	seq := stake.New(e.reader, e.writer, watcher, stake.DefaultConfig())

	require.NoError(t, seq.Submit(context.Background(), stake.Intent{Amount: big.NewInt(300), Owner: owner}))
	assert.Len(t, e.backend.Sent(), 2)
	assert.Equal(t, int64(300), e.deployment.Staked(owner).Int64())
	assert.Equal(t, int64(0), e.deployment.Allowance(owner).Int64())
	st := seq.Status()
	assert.Equal(t, stake.Done, st.Phase)
	assert.Equal(t, int64(0), st.Allowance.Int64())

	// paused staking reverts on chain
	e.deployment.SetPaused(true)
	err := seq.Submit(context.Background(), stake.Intent{Amount: big.NewInt(200), Owner: owner})
	var runErr *stake.Error
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, stake.ExecutionReverted, runErr.Kind)
	assert.Equal(t, stake.Stake, runErr.Stage)

	// the approval survives, a retry stakes directly
	e.deployment.SetPaused(false)
	require.NoError(t, seq.Submit(context.Background(), stake.Intent{Amount: big.NewInt(200), Owner: owner}))
	assert.Len(t, e.backend.Sent(), 5)
	assert.Equal(t, int64(500), e.deployment.Staked(owner).Int64())
}
