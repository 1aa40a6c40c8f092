// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package receipt follows submitted transactions until they are mined.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/co"
	"github.com/edulearn/edu/log"
	"github.com/edulearn/edu/metrics"
)

var (
	logger = log.WithContext("pkg", "receipt")

	metricWaitDuration = metrics.LazyLoadHistogramVec("receipt_wait_ms", []string{"status"}, metrics.BucketReceiptWait)
	metricWatching     = metrics.LazyLoadGauge("receipt_watching_count")
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxFailures  = 5
)

// Status is the final state of a watched transaction.
type Status int

const (
	Confirmed Status = iota
	Reverted
	Failed
)

func (s Status) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Reverted:
		return "reverted"
	default:
		return "failed"
	}
}

// Event is the single terminal notification of a watch.
// Receipt is set for Confirmed and Reverted, Err for Failed.
type Event struct {
	Hash    common.Hash
	Status  Status
	Receipt *types.Receipt
	Err     error
}

// Options tunes a Watcher. Zero values fall back to the defaults.
type Options struct {
	PollInterval time.Duration
	// MaxFailures is the number of consecutive provider errors tolerated before
	// the watch fails.
	MaxFailures int
}

// Watcher polls receipts on every new head when the endpoint supports
// subscriptions, and on a fixed interval otherwise.
type Watcher struct {
	client *client.Client
	opts   Options
	goes   co.Goes
}

func NewWatcher(c *client.Client, opts Options) *Watcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = DefaultMaxFailures
	}
	return &Watcher{client: c, opts: opts}
}

// Watch starts following hash. The returned channel yields exactly one event
// and is then closed. Cancelling ctx ends the watch with a Failed event
// carrying the context error.
func (w *Watcher) Watch(ctx context.Context, hash common.Hash) (<-chan Event, error) {
	if hash == (common.Hash{}) {
		return nil, errors.New("watch: empty transaction hash")
	}
	out := make(chan Event, 1)
	metricWatching().Add(1)
	w.goes.Go(func() {
		defer metricWatching().Add(-1)
		start := time.Now()
		ev := w.run(ctx, hash)
		metricWaitDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"status": ev.Status.String()})
		logger.Debug("watch finished", "tx", hash, "status", ev.Status, "err", ev.Err)
		out <- ev
		close(out)
	})
	return out, nil
}

// Active returns the number of watches that have not delivered their event.
func (w *Watcher) Active() int {
	return w.goes.Running()
}

// Wait blocks until every running watch has delivered its event.
func (w *Watcher) Wait() {
	w.goes.Wait()
}

func (w *Watcher) run(ctx context.Context, hash common.Hash) Event {
	var (
		heads  chan *types.Header
		subErr <-chan error
		ticker *time.Ticker
	)
	if w.client.CanSubscribe() {
		heads = make(chan *types.Header, 16)
		sub, err := w.client.SubscribeNewHead(ctx, heads)
		if err == nil {
			defer sub.Unsubscribe()
			subErr = sub.Err()
		} else {
			logger.Debug("head subscription unavailable, polling", "err", err)
			heads = nil
		}
	}
	if heads == nil {
		ticker = time.NewTicker(w.opts.PollInterval)
		defer ticker.Stop()
	}
	var tick <-chan time.Time
	if ticker != nil {
		tick = ticker.C
	}

	failures := 0
	check := func() (Event, bool) {
		r, err := w.client.TransactionReceipt(ctx, hash)
		if err != nil {
			if ctx.Err() != nil {
				return Event{Hash: hash, Status: Failed, Err: ctx.Err()}, true
			}
			failures++
			logger.Debug("receipt query failed", "tx", hash, "failures", failures, "err", err)
			if failures > w.opts.MaxFailures {
				return Event{Hash: hash, Status: Failed, Err: fmt.Errorf("receipt %s: %w", hash.Hex(), err)}, true
			}
			return Event{}, false
		}
		failures = 0
		if r == nil {
			return Event{}, false
		}
		if r.Status == types.ReceiptStatusSuccessful {
			return Event{Hash: hash, Status: Confirmed, Receipt: r}, true
		}
		return Event{Hash: hash, Status: Reverted, Receipt: r}, true
	}

	if ev, done := check(); done {
		return ev
	}
	for {
		select {
		case <-ctx.Done():
			return Event{Hash: hash, Status: Failed, Err: ctx.Err()}
		case err := <-subErr:
			// the subscription dropped, keep going on a timer
			logger.Debug("head subscription closed, polling", "err", err)
			subErr = nil
			heads = nil
			ticker = time.NewTicker(w.opts.PollInterval)
			defer ticker.Stop()
			tick = ticker.C
		case <-heads:
		case <-tick:
		}
		if ev, done := check(); done {
			return ev
		}
	}
}
