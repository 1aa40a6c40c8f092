// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contracts

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/clienttest"
)

var (
	tokenAddr    = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	stakingAddr  = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	rewardsAddr  = common.HexToAddress("0x0000000000000000000000000000000000000a03")
	registryAddr = common.HexToAddress("0x0000000000000000000000000000000000000a04")
	owner        = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func bindAll(t *testing.T) (*Set, *clienttest.Backend) {
	backend := clienttest.NewBackend(42220)
	set, err := Bind(client.New(backend), Addresses{
		Token:          tokenAddr,
		Staking:        stakingAddr,
		Rewards:        rewardsAddr,
		CourseRegistry: registryAddr,
	})
	require.NoError(t, err)
	return set, backend
}

// handle answers method on addr with the packed outputs.
func handle(backend *clienttest.Backend, parsed *abi.ABI, addr common.Address, method string, outputs ...any) {
	m := parsed.Methods[method]
	backend.HandleCall(addr, m.ID, func(common.Address, []byte) ([]byte, error) {
		return m.Outputs.Pack(outputs...)
	})
}

func TestSelectors(t *testing.T) {
	set, _ := bindAll(t)

	tests := []struct {
		abi       *abi.ABI
		method    string
		selector  string
		signature string
	}{
		{set.Token.Raw().ABI(), "balanceOf", "70a08231", "balanceOf(address)"},
		{set.Token.Raw().ABI(), "allowance", "dd62ed3e", "allowance(address,address)"},
		{set.Token.Raw().ABI(), "approve", "095ea7b3", "approve(address,uint256)"},
		{set.Staking.Raw().ABI(), "stake", "", "stake(uint256,uint8)"},
		{set.Rewards.Raw().ABI(), "userRewards", "", "userRewards(address,address)"},
		{set.Rewards.Raw().ABI(), "claimAllRewards", "", "claimAllRewards()"},
		{set.CourseRegistry.Raw().ABI(), "ADMIN_ROLE", "", "ADMIN_ROLE()"},
		{set.CourseRegistry.Raw().ABI(), "hasRole", "91d14854", "hasRole(bytes32,address)"},
		{set.CourseRegistry.Raw().ABI(), "createCourse", "", "createCourse(string,uint256,uint256,uint256)"},
		{set.CourseRegistry.Raw().ABI(), "verifyInstructor", "", "verifyInstructor(address)"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			m, ok := tt.abi.Methods[tt.method]
			require.True(t, ok)
			assert.Equal(t, tt.signature, m.Sig)
			assert.Equal(t, crypto.Keccak256([]byte(tt.signature))[:4], m.ID)
			if tt.selector != "" {
				assert.Equal(t, tt.selector, hex.EncodeToString(m.ID))
			}
		})
	}
}

func TestBindRejectsEmptyAddress(t *testing.T) {
	_, err := Bind(client.New(clienttest.NewBackend(1)), Addresses{Token: tokenAddr})
	assert.ErrorContains(t, err, "staking")
}

func TestTokenReads(t *testing.T) {
	set, backend := bindAll(t)
	parsed := set.Token.Raw().ABI()
	handle(backend, parsed, tokenAddr, "name", "EDU Token")
	handle(backend, parsed, tokenAddr, "symbol", "EDU")
	handle(backend, parsed, tokenAddr, "decimals", uint8(18))
	handle(backend, parsed, tokenAddr, "totalSupply", big.NewInt(1_000_000))
	handle(backend, parsed, tokenAddr, "balanceOf", big.NewInt(250))
	handle(backend, parsed, tokenAddr, "allowance", big.NewInt(500))
	ctx := context.Background()

	name, err := set.Token.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EDU Token", name)

	symbol, err := set.Token.Symbol(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EDU", symbol)

	decimals, err := set.Token.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)

	supply, err := set.Token.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), supply.Int64())

	balance, err := set.Token.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance.Int64())

	allowance, err := set.Token.Pending().Allowance(ctx, owner, stakingAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(500), allowance.Int64())
}

func TestTokenApproveCalldata(t *testing.T) {
	set, _ := bindAll(t)
	data, err := set.Token.Approve(stakingAddr, big.NewInt(100)).Calldata()
	require.NoError(t, err)

	args, err := set.Token.Raw().ABI().Methods["approve"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, stakingAddr, args[0])
	assert.Equal(t, big.NewInt(100), args[1])
}

func TestStakeCalldata(t *testing.T) {
	set, _ := bindAll(t)
	data, err := set.Staking.Stake(big.NewInt(100), 0).Calldata()
	require.NoError(t, err)
	assert.Len(t, data, 4+64)

	args, err := set.Staking.Raw().ABI().Methods["stake"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), args[0])
	assert.Equal(t, uint8(0), args[1])
	assert.Equal(t, stakingAddr, set.Staking.Address())
}

func TestUserRewards(t *testing.T) {
	set, backend := bindAll(t)
	handle(backend, set.Rewards.Raw().ABI(), rewardsAddr, "userRewards", big.NewInt(300), big.NewInt(120), big.NewInt(1700000000))

	rewards, err := set.Rewards.UserRewards(context.Background(), owner, tokenAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(300), rewards.Earned.Int64())
	assert.Equal(t, int64(120), rewards.Claimed.Int64())
	assert.Equal(t, int64(1700000000), rewards.LastUpdated.Int64())
	assert.Equal(t, int64(180), rewards.Claimable().Int64())

	data, err := set.Rewards.ClaimAllRewards().Calldata()
	require.NoError(t, err)
	assert.Len(t, data, 4)
}

func TestClaimable(t *testing.T) {
	var nilRewards *UserRewards
	assert.Equal(t, 0, nilRewards.Claimable().Sign())
	assert.Equal(t, 0, (&UserRewards{Earned: big.NewInt(1), Claimed: big.NewInt(5)}).Claimable().Sign())
	assert.Equal(t, int64(4), (&UserRewards{Earned: big.NewInt(4)}).Claimable().Int64())
}

func TestCourseRegistry(t *testing.T) {
	set, backend := bindAll(t)
	parsed := set.CourseRegistry.Raw().ABI()
	role := crypto.Keccak256Hash([]byte("ADMIN_ROLE"))
	handle(backend, parsed, registryAddr, "ADMIN_ROLE", role)
	backend.HandleCall(registryAddr, parsed.Methods["hasRole"].ID, func(_ common.Address, input []byte) ([]byte, error) {
		args, err := parsed.Methods["hasRole"].Inputs.Unpack(input[4:])
		if err != nil {
			return nil, err
		}
		return parsed.Methods["hasRole"].Outputs.Pack(args[0].([32]byte) == role && args[1].(common.Address) == owner)
	})
	ctx := context.Background()

	got, err := set.CourseRegistry.AdminRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, [32]byte(role), got)

	ok, err := set.CourseRegistry.HasRole(ctx, got, owner)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = set.CourseRegistry.HasRole(ctx, got, tokenAddr)
	require.NoError(t, err)
	assert.False(t, ok)

	data, err := set.CourseRegistry.CreateCourse("ipfs://Qm", new(big.Int), new(big.Int), new(big.Int)).Calldata()
	require.NoError(t, err)
	args, err := parsed.Methods["createCourse"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, "ipfs://Qm", args[0])

	data, err = set.CourseRegistry.VerifyInstructor(owner).Calldata()
	require.NoError(t, err)
	assert.Len(t, data, 36)
}
