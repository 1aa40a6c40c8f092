// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package contractstest emulates the EDU contracts on top of a clienttest backend.
package contractstest

import (
	"bytes"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/edulearn/edu/client/clienttest"
	"github.com/edulearn/edu/contracts"
)

var (
	TokenAddress    = common.HexToAddress("0x00000000000000000000000000000000000e0001")
	StakingAddress  = common.HexToAddress("0x00000000000000000000000000000000000e0002")
	RewardsAddress  = common.HexToAddress("0x00000000000000000000000000000000000e0003")
	RegistryAddress = common.HexToAddress("0x00000000000000000000000000000000000e0004")

	AdminRole = crypto.Keccak256Hash([]byte("ADMIN_ROLE"))
)

// Addresses of the emulated deployment.
func Addresses() contracts.Addresses {
	return contracts.Addresses{
		Token:          TokenAddress,
		Staking:        StakingAddress,
		Rewards:        RewardsAddress,
		CourseRegistry: RegistryAddress,
	}
}

type Course struct {
	MetadataHash string
	Creator      common.Address
}

type reward struct {
	earned  *big.Int
	claimed *big.Int
}

// Deployment holds the emulated contract state. Writes are applied when the
// backend mines the transaction, reads are answered immediately.
type Deployment struct {
	mu sync.Mutex

	balances    map[common.Address]*big.Int
	allowances  map[common.Address]*big.Int // owner -> staking allowance
	staked      map[common.Address]*big.Int
	rewards     map[common.Address]*reward
	admins      map[common.Address]bool
	instructors map[common.Address]bool
	courses     []Course
	paused      bool
}

// Deploy registers the emulated contracts on backend.
func Deploy(backend *clienttest.Backend) *Deployment {
	d := &Deployment{
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]*big.Int),
		staked:      make(map[common.Address]*big.Int),
		rewards:     make(map[common.Address]*reward),
		admins:      make(map[common.Address]bool),
		instructors: make(map[common.Address]bool),
	}
	token := mustABI(contracts.TokenABI)
	staking := mustABI(contracts.StakingABI)
	rewards := mustABI(contracts.RewardsABI)
	registry := mustABI(contracts.CourseRegistryABI)

	route(backend, TokenAddress, token, "name", func(common.Address, []any) ([]any, error) {
		return []any{"EDU Token"}, nil
	})
	route(backend, TokenAddress, token, "symbol", func(common.Address, []any) ([]any, error) {
		return []any{"EDU"}, nil
	})
	route(backend, TokenAddress, token, "decimals", func(common.Address, []any) ([]any, error) {
		return []any{uint8(18)}, nil
	})
	route(backend, TokenAddress, token, "balanceOf", func(_ common.Address, args []any) ([]any, error) {
		return []any{d.get(d.balances, args[0].(common.Address))}, nil
	})
	route(backend, TokenAddress, token, "allowance", func(_ common.Address, args []any) ([]any, error) {
		if args[1].(common.Address) != StakingAddress {
			return []any{new(big.Int)}, nil
		}
		return []any{d.get(d.allowances, args[0].(common.Address))}, nil
	})
	route(backend, TokenAddress, token, "approve", func(from common.Address, args []any) ([]any, error) {
		if args[0].(common.Address) == StakingAddress {
			d.set(d.allowances, from, args[1].(*big.Int))
		}
		return []any{true}, nil
	})

	route(backend, StakingAddress, staking, "stake", func(from common.Address, args []any) ([]any, error) {
		amount := args[0].(*big.Int)
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.paused {
			return nil, errors.New("execution reverted: staking paused")
		}
		allowance := getLocked(d.allowances, from)
		balance := getLocked(d.balances, from)
		if allowance.Cmp(amount) < 0 {
			return nil, errors.New("execution reverted: ERC20: insufficient allowance")
		}
		if balance.Cmp(amount) < 0 {
			return nil, errors.New("execution reverted: ERC20: transfer amount exceeds balance")
		}
		d.allowances[from] = new(big.Int).Sub(allowance, amount)
		d.balances[from] = new(big.Int).Sub(balance, amount)
		d.staked[from] = new(big.Int).Add(getLocked(d.staked, from), amount)
		return nil, nil
	})

	route(backend, RewardsAddress, rewards, "userRewards", func(_ common.Address, args []any) ([]any, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		r := d.rewardLocked(args[0].(common.Address))
		return []any{new(big.Int).Set(r.earned), new(big.Int).Set(r.claimed), big.NewInt(1_700_000_000)}, nil
	})
	route(backend, RewardsAddress, rewards, "claimAllRewards", func(from common.Address, _ []any) ([]any, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		r := d.rewardLocked(from)
		left := new(big.Int).Sub(r.earned, r.claimed)
		if left.Sign() <= 0 {
			return nil, errors.New("execution reverted: nothing to claim")
		}
		r.claimed = new(big.Int).Set(r.earned)
		d.balances[from] = new(big.Int).Add(getLocked(d.balances, from), left)
		return nil, nil
	})

	route(backend, RegistryAddress, registry, "ADMIN_ROLE", func(common.Address, []any) ([]any, error) {
		return []any{[32]byte(AdminRole)}, nil
	})
	route(backend, RegistryAddress, registry, "hasRole", func(_ common.Address, args []any) ([]any, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		role := args[0].([32]byte)
		return []any{role == [32]byte(AdminRole) && d.admins[args[1].(common.Address)]}, nil
	})
	route(backend, RegistryAddress, registry, "createCourse", func(from common.Address, args []any) ([]any, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if !d.admins[from] {
			return nil, errors.New("execution reverted: AccessControl: missing role")
		}
		d.courses = append(d.courses, Course{MetadataHash: args[0].(string), Creator: from})
		return nil, nil
	})
	route(backend, RegistryAddress, registry, "verifyInstructor", func(from common.Address, args []any) ([]any, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if !d.admins[from] {
			return nil, errors.New("execution reverted: AccessControl: missing role")
		}
		d.instructors[args[0].(common.Address)] = true
		return nil, nil
	})
	return d
}

func (d *Deployment) SetBalance(owner common.Address, amount *big.Int) { d.set(d.balances, owner, amount) }
func (d *Deployment) SetAllowance(owner common.Address, amount *big.Int) {
	d.set(d.allowances, owner, amount)
}
func (d *Deployment) Balance(owner common.Address) *big.Int   { return d.get(d.balances, owner) }
func (d *Deployment) Allowance(owner common.Address) *big.Int { return d.get(d.allowances, owner) }
func (d *Deployment) Staked(owner common.Address) *big.Int    { return d.get(d.staked, owner) }

// SetRewards sets the reward accounting of user.
func (d *Deployment) SetRewards(user common.Address, earned, claimed *big.Int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rewards[user] = &reward{earned: new(big.Int).Set(earned), claimed: new(big.Int).Set(claimed)}
}

// SetPaused makes every stake revert.
func (d *Deployment) SetPaused(paused bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = paused
}

func (d *Deployment) GrantAdmin(account common.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.admins[account] = true
}

func (d *Deployment) Courses() []Course {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Course(nil), d.courses...)
}

func (d *Deployment) IsInstructor(account common.Address) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.instructors[account]
}

func (d *Deployment) rewardLocked(user common.Address) *reward {
	r, ok := d.rewards[user]
	if !ok {
		r = &reward{earned: new(big.Int), claimed: new(big.Int)}
		d.rewards[user] = r
	}
	return r
}

func (d *Deployment) get(m map[common.Address]*big.Int, key common.Address) *big.Int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return getLocked(m, key)
}

func (d *Deployment) set(m map[common.Address]*big.Int, key common.Address, v *big.Int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m[key] = new(big.Int).Set(v)
}

func getLocked(m map[common.Address]*big.Int, key common.Address) *big.Int {
	if v, ok := m[key]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func mustABI(data []byte) *abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		panic(err)
	}
	return &parsed
}

func route(backend *clienttest.Backend, addr common.Address, parsed *abi.ABI, name string, fn func(from common.Address, args []any) ([]any, error)) {
	method := parsed.Methods[name]
	backend.HandleCall(addr, method.ID, func(from common.Address, input []byte) ([]byte, error) {
		args, err := method.Inputs.Unpack(input[4:])
		if err != nil {
			return nil, err
		}
		out, err := fn(from, args)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(out...)
	})
}
