// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulearn/edu/account"
	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/clienttest"
	"github.com/edulearn/edu/client/receipt"
	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/contracts/contractstest"
	"github.com/edulearn/edu/edu"
	"github.com/edulearn/edu/gateway"
	"github.com/edulearn/edu/journal"
	"github.com/edulearn/edu/notify"
	"github.com/edulearn/edu/registry"
	"github.com/edulearn/edu/rewards"
	"github.com/edulearn/edu/session"
	"github.com/edulearn/edu/stake"
)

type testServer struct {
	*httptest.Server
	deployment *contractstest.Deployment
	backend    *clienttest.Backend
	center     *notify.Center
	owner      common.Address
}

func newTestServer(t *testing.T) *testServer {
	backend := clienttest.NewBackend(int64(edu.CeloMainnetChainID))
	backend.SetAutoMine(true)
	deployment := contractstest.Deploy(backend)
	c := client.New(backend)
	set, err := contracts.Bind(c, contractstest.Addresses())
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)
	sess := session.New(c, set.CourseRegistry, edu.CeloMainnetChainID,
		session.NewPrivateKeyConnector(hex.EncodeToString(crypto.FromECDSA(key))))
	_, err = sess.Connect(context.Background(), "")
	require.NoError(t, err)
	signer, err := sess.Signer()
	require.NoError(t, err)

	allowance, err := gateway.NewAllowanceReader(set.Token, contractstest.StakingAddress, 16)
	require.NoError(t, err)
	watcher := receipt.NewWatcher(c, receipt.Options{PollInterval: 5 * time.Millisecond})
	center := notify.NewCenter(32)
	j, err := journal.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	seq := stake.New(allowance, gateway.NewWriter(set.Token, set.Staking, signer, edu.FlexibleLock), watcher,
		stake.DefaultConfig(), stake.WithNotifier(center), stake.WithJournal(j))

	handler, closeFn := New(Services{
		Session:   sess,
		Accounts:  account.NewReader(set.Token, allowance, set.Rewards, sess),
		Sequencer: seq,
		Rewards:   rewards.New(set.Rewards, set.Token.Address(), sess, watcher, center),
		Registry:  registry.New(set.CourseRegistry, sess, center),
		Journal:   j,
		Center:    center,
	}, Options{AllowedOrigins: "*", Decimals: edu.TokenDecimals, EnableMetrics: true})

	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeFn()
		ts.Close()
		seq.Wait()
	})
	return &testServer{Server: ts, deployment: deployment, backend: backend, center: center, owner: owner}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

func TestAccount(t *testing.T) {
	ts := newTestServer(t)
	ts.deployment.SetBalance(ts.owner, big.NewInt(1e18))
	ts.deployment.SetRewards(ts.owner, big.NewInt(5), big.NewInt(2))

	code, body := ts.do(t, http.MethodGet, "/account", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var summary account.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, ts.owner, summary.Address)
	assert.Equal(t, "1000000000000000000", summary.Balance.String())
	assert.Equal(t, int64(3), summary.Claimable.Int64())
	assert.False(t, summary.Admin)

	code, body = ts.do(t, http.MethodGet, "/account/session", nil)
	require.Equal(t, http.StatusOK, code)
	var info session.Info
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, ts.owner, info.Account)

	code, _ = ts.do(t, http.MethodGet, "/account/0x12", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStake(t *testing.T) {
	ts := newTestServer(t)
	ts.deployment.SetBalance(ts.owner, big.NewInt(2e18))

	t.Run("bad body", func(t *testing.T) {
		code, _ := ts.do(t, http.MethodPost, "/stake", map[string]any{"amount": "1", "lock": 2})
		assert.Equal(t, http.StatusBadRequest, code)
		code, _ = ts.do(t, http.MethodPost, "/stake", map[string]any{"amount": "abc"})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("zero amount", func(t *testing.T) {
		code, body := ts.do(t, http.MethodPost, "/stake?wait=true", map[string]any{"amount": "0"})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Contains(t, string(body), "Please enter a valid amount.")
		assert.Empty(t, ts.backend.Sent())
	})

	t.Run("approve and stake", func(t *testing.T) {
		code, body := ts.do(t, http.MethodPost, "/stake?wait=true", map[string]any{"amount": "1.5"})
		require.Equal(t, http.StatusOK, code, string(body))
		assert.Contains(t, string(body), `"phase":"done"`)
		assert.Equal(t, "1500000000000000000", ts.deployment.Staked(ts.owner).String())
		assert.Len(t, ts.backend.Sent(), 2)

		code, body = ts.do(t, http.MethodGet, "/stake", nil)
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, string(body), `"phase":"done"`)

		code, body = ts.do(t, http.MethodGet, "/history", nil)
		require.Equal(t, http.StatusOK, code)
		var entries []journal.Entry
		require.NoError(t, json.Unmarshal(body, &entries))
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, stake.StatusConfirmed, e.Status)
		}
	})

	t.Run("async", func(t *testing.T) {
		code, _ := ts.do(t, http.MethodPost, "/stake", map[string]any{"amount": "0.25"})
		assert.Equal(t, http.StatusAccepted, code)
		require.Eventually(t, func() bool {
			_, body := ts.do(t, http.MethodGet, "/stake", nil)
			return strings.Contains(string(body), `"phase":"done"`)
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, "1750000000000000000", ts.deployment.Staked(ts.owner).String())
	})

	t.Run("history filter", func(t *testing.T) {
		code, _ := ts.do(t, http.MethodGet, "/history?status=lost", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		code, _ = ts.do(t, http.MethodGet, "/history?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		code, body := ts.do(t, http.MethodGet, "/history?limit=1", nil)
		require.Equal(t, http.StatusOK, code)
		var entries []journal.Entry
		require.NoError(t, json.Unmarshal(body, &entries))
		assert.Len(t, entries, 1)
	})
}

func TestRewards(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/rewards/claim", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	ts.deployment.SetRewards(ts.owner, big.NewInt(9), big.NewInt(0))
	code, body := ts.do(t, http.MethodGet, "/rewards", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"claimable":9`)

	code, body = ts.do(t, http.MethodPost, "/rewards/claim", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, int64(9), ts.deployment.Balance(ts.owner).Int64())
}

func TestAdmin(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/admin/courses", map[string]any{"metadataHash": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = ts.do(t, http.MethodPost, "/admin/courses", map[string]any{"metadataHash": "QmCourse"})
	assert.Equal(t, http.StatusForbidden, code)

	ts2 := newTestServer(t)
	ts2.deployment.GrantAdmin(ts2.owner)
	code, body := ts2.do(t, http.MethodPost, "/admin/courses", map[string]any{"metadataHash": "QmCourse"})
	require.Equal(t, http.StatusOK, code, string(body))
	require.Len(t, ts2.deployment.Courses(), 1)

	code, _ = ts2.do(t, http.MethodPost, "/admin/instructors", map[string]any{"address": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	instructor := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	code, _ = ts2.do(t, http.MethodPost, "/admin/instructors", map[string]any{"address": instructor.Hex()})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, ts2.deployment.IsInstructor(instructor))
}

func TestNotifications(t *testing.T) {
	ts := newTestServer(t)
	ts.center.Publish("first", notify.Info, "hello")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/notifications"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var n notify.Notification
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, "first", n.Key)
	assert.Equal(t, "hello", n.Message)

	// subscribed before the replay
	ts.center.Publish("second", notify.Success, "done")
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, "second", n.Key)
	assert.Equal(t, notify.Success, n.Level)

	code, body := ts.do(t, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"key":"second"`)

	code, _ = ts.do(t, http.MethodDelete, "/notifications/second", nil)
	assert.Equal(t, http.StatusNoContent, code)
	_, ok := ts.center.Get("second")
	assert.False(t, ok)

	t.Run("upgrade header case", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/notifications", nil)
		require.NoError(t, err)
		req.Header.Set("Upgrade", "WebSocket")
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		// routed to the stream handler, which rejects the incomplete handshake
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.NotContains(t, res.Header.Get("Content-Type"), "json")
	})
}
