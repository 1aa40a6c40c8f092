// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gateway binds the deployed contracts to the stake sequencer.
package gateway

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"github.com/edulearn/edu/cache"
	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/log"
	"github.com/edulearn/edu/metrics"
)

var logger = log.WithContext("pkg", "gateway")

var metricAllowanceReads = metrics.LazyLoadCounterVec("allowance_reads_count", []string{"source"})

// AllowanceReader caches the allowance each owner granted to the staking contract.
// Concurrent loads of the same owner share one chain read. Reads racing with
// Invalidate are returned to their callers but never cached.
type AllowanceReader struct {
	token   *contracts.Token
	spender common.Address
	cache   *cache.LRU[common.Address, *big.Int]
	group   singleflight.Group

	mu   sync.Mutex
	gens map[common.Address]uint64 // bumped by Invalidate
}

func NewAllowanceReader(token *contracts.Token, spender common.Address, cacheSize int) (*AllowanceReader, error) {
	c, err := cache.NewLRU[common.Address, *big.Int](cacheSize)
	if err != nil {
		return nil, err
	}
	return &AllowanceReader{
		token:   token,
		spender: spender,
		cache:   c,
		gens:    make(map[common.Address]uint64),
	}, nil
}

// Allowance returns the cached allowance of owner, reading the chain on a miss.
func (r *AllowanceReader) Allowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	if v, ok := r.cache.Get(owner); ok {
		return new(big.Int).Set(v), nil
	}
	gen := r.generation(owner)
	v, err, _ := r.group.Do(fmt.Sprintf("%v:%d", owner.Hex(), gen), func() (any, error) {
		return r.load(ctx, owner, gen, "miss")
	})
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// Refresh reads the chain and replaces the cached value.
func (r *AllowanceReader) Refresh(ctx context.Context, owner common.Address) (*big.Int, error) {
	gen := r.generation(owner)
	v, err, _ := r.group.Do(fmt.Sprintf("refresh:%v:%d", owner.Hex(), gen), func() (any, error) {
		return r.load(ctx, owner, gen, "refresh")
	})
	if err != nil {
		r.cache.Remove(owner)
		return nil, err
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// Invalidate drops the cached value of owner. Loads already in flight will not
// store their result.
func (r *AllowanceReader) Invalidate(owner common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[owner]++
	r.cache.Remove(owner)
}

func (r *AllowanceReader) generation(owner common.Address) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[owner]
}

func (r *AllowanceReader) load(ctx context.Context, owner common.Address, gen uint64, source string) (*big.Int, error) {
	metricAllowanceReads().AddWithLabel(1, map[string]string{"source": source})
	value, err := r.token.Allowance(ctx, owner, r.spender)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gens[owner] == gen {
		r.cache.Add(owner, value)
	} else {
		logger.Debug("discarding allowance read older than a write", "owner", owner)
	}
	return value, nil
}

// Stats exposes the cache hit/miss counters.
func (r *AllowanceReader) Stats() cache.Snapshot {
	return r.cache.Stats()
}
