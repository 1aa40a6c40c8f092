// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
	"sync/atomic"
	"time"
)

// Goes tracks background goroutines so their owner can wait for them on shutdown.
// The zero value is ready to use.
type Goes struct {
	wg      sync.WaitGroup
	running atomic.Int64
}

// Go runs f in a tracked goroutine.
func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	g.running.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.running.Add(-1)
		f()
	}()
}

// Running reports how many tracked goroutines have not returned yet.
func (g *Goes) Running() int {
	return int(g.running.Load())
}

// Wait blocks until every goroutine started by Go has returned.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// WaitTimeout is Wait bounded by d. It reports false if goroutines were still
// running when d elapsed; they keep running in that case.
func (g *Goes) WaitTimeout(d time.Duration) bool {
	finished := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(finished)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-finished:
		return true
	case <-timer.C:
		return false
	}
}
