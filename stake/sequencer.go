// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stake drives the approve then stake transaction sequence.
//
// A run reads the allowance granted to the staking contract. When it covers the
// requested amount the stake is submitted directly, otherwise an approval for
// exactly that amount is submitted first and the stake follows automatically
// once the approval is confirmed.
package stake

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client/receipt"
	"github.com/edulearn/edu/co"
	"github.com/edulearn/edu/log"
	"github.com/edulearn/edu/notify"
)

var logger = log.WithContext("pkg", "stake")

const refreshTimeout = 30 * time.Second

// Notifier receives user facing progress, keyed by transaction hash.
type Notifier interface {
	Publish(key string, level notify.Level, message string) notify.Notification
}

type Config struct {
	// ReceiptTimeout bounds each receipt wait, zero waits forever.
	ReceiptTimeout time.Duration
	// FreshAllowance forces a chain read of the allowance at the start of a run.
	// A read is forced anyway while a refresh is owed.
	FreshAllowance bool
}

func DefaultConfig() Config {
	return Config{
		ReceiptTimeout: 5 * time.Minute,
		FreshAllowance: true,
	}
}

type Option func(*Sequencer)

func WithNotifier(n Notifier) Option {
	return func(s *Sequencer) { s.notifier = n }
}

func WithJournal(j Journal) Option {
	return func(s *Sequencer) { s.journal = j }
}

// WithObserver registers f to be called with the status after every transition.
func WithObserver(f func(Status)) Option {
	return func(s *Sequencer) { s.observer = f }
}

// Sequencer runs one stake at a time for a single owner and staking contract.
type Sequencer struct {
	cfg       Config
	allowance AllowanceReader
	writer    Writer
	watcher   Watcher
	notifier  Notifier
	journal   Journal
	observer  func(Status)

	mu      sync.Mutex
	status  Status
	running bool
	// approvals that already led to a stake submission
	chained map[common.Hash]struct{}
	goes    co.Goes
}

func New(allowance AllowanceReader, writer Writer, watcher Watcher, cfg Config, opts ...Option) *Sequencer {
	s := &Sequencer{
		cfg:       cfg,
		allowance: allowance,
		writer:    writer,
		watcher:   watcher,
		chained:   make(map[common.Hash]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Status returns a snapshot of the current run.
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Submit runs intent to completion. It returns ErrBusy if another run is in
// flight, and the *Error of the run if it failed.
func (s *Sequencer) Submit(ctx context.Context, intent Intent) error {
	outcome, err := s.Start(ctx, intent)
	if err != nil {
		return err
	}
	if o := <-outcome; o.Err != nil {
		return o.Err
	}
	return nil
}

// Start begins a run in the background. The channel yields the outcome and is closed.
// Cancelling ctx stops the run only until the first transaction is submitted.
func (s *Sequencer) Start(ctx context.Context, intent Intent) (<-chan Outcome, error) {
	return s.launch(ctx, intent, nil, s.run)
}

// Resume re-attaches to a handle submitted earlier, for instance by a previous
// process, and continues the sequence from its receipt wait.
func (s *Sequencer) Resume(ctx context.Context, intent Intent, h Handle) (<-chan Outcome, error) {
	if h.Kind != Approval && h.Kind != Stake {
		return nil, fmt.Errorf("stake: unknown handle kind %d", h.Kind)
	}
	precheck := func() error {
		if _, ok := s.chained[h.ID]; ok && h.Kind == Approval {
			return ErrAlreadyChained
		}
		return nil
	}
	return s.launch(ctx, intent, precheck, func(ctx context.Context, intent Intent) Outcome {
		if !validAmount(intent.Amount) {
			return s.fail(intent, "", newError(InvalidAmount, 0, "Please enter a valid amount.", nil))
		}
		ctx = context.WithoutCancel(ctx)
		handle := h
		s.notify(h.ID.Hex(), notify.Loading, title(h.Kind)+" in progress...")
		if h.Kind == Approval {
			s.update(func(st *Status) {
				st.Approval = &handle
				st.RefreshOwed = true
				st.Phase = AwaitingApprovalReceipt
			})
			return s.awaitApproval(ctx, intent, h, true)
		}
		s.update(func(st *Status) {
			st.Stake = &handle
			st.RefreshOwed = true
			st.Phase = AwaitingStakeReceipt
		})
		return s.awaitStake(ctx, intent, h)
	})
}

// Reset clears the outcome of the last run. It fails with ErrBusy while a run is in flight.
func (s *Sequencer) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrBusy
	}
	s.status = Status{RefreshOwed: s.status.RefreshOwed, Allowance: s.status.Allowance}
	return nil
}

// Wait blocks until the background runs have ended.
func (s *Sequencer) Wait() {
	s.goes.Wait()
}

func (s *Sequencer) launch(ctx context.Context, intent Intent, precheck func() error, body func(context.Context, Intent) Outcome) (<-chan Outcome, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if precheck != nil {
		if err := precheck(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.running = true
	intent = intent.clone()
	current := intent
	s.status = Status{
		Phase:       Idle,
		RefreshOwed: s.status.RefreshOwed,
		Allowance:   s.status.Allowance,
		Intent:      &current,
	}
	s.mu.Unlock()

	metricInflight().Add(1)
	out := make(chan Outcome, 1)
	s.goes.Go(func() {
		defer metricInflight().Add(-1)
		start := time.Now()
		o := body(ctx, intent)
		metricRuns().AddWithLabel(1, map[string]string{"outcome": o.Phase.String()})
		metricRunDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"outcome": o.Phase.String()})

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		out <- o
		close(out)
	})
	return out, nil
}

func (s *Sequencer) run(ctx context.Context, intent Intent) Outcome {
	if !validAmount(intent.Amount) {
		return s.fail(intent, "", newError(InvalidAmount, 0, "Please enter a valid amount.", nil))
	}
	if err := ctx.Err(); err != nil {
		return s.fail(intent, "", classify(0, err))
	}

	allowance, err := s.readAllowance(ctx, intent.Owner)
	if err != nil {
		return s.fail(intent, "", classify(0, err))
	}
	if allowance.Cmp(intent.Amount) >= 0 {
		s.setPhase(ReadyToStake)
		return s.stake(ctx, intent)
	}
	s.setPhase(NeedsApproval)
	return s.approve(ctx, intent)
}

func (s *Sequencer) readAllowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	fresh := s.cfg.FreshAllowance || s.Status().RefreshOwed
	var (
		value *big.Int
		err   error
	)
	if fresh {
		value, err = s.allowance.Refresh(ctx, owner)
	} else {
		value, err = s.allowance.Allowance(ctx, owner)
	}
	if err != nil {
		return nil, err
	}
	s.update(func(st *Status) {
		st.Allowance = value
		if fresh {
			st.RefreshOwed = false
		}
	})
	return value, nil
}

func (s *Sequencer) approve(ctx context.Context, intent Intent) Outcome {
	s.setPhase(Approving)
	if err := ctx.Err(); err != nil {
		return s.fail(intent, "", classify(Approval, err))
	}
	h, err := s.submit(ctx, intent, Approval)
	if err != nil {
		return s.fail(intent, "", classify(Approval, err))
	}
	// on-chain writes cannot be recalled, stop following the caller
	ctx = context.WithoutCancel(ctx)
	s.update(func(st *Status) {
		st.Approval = &h
		st.Phase = AwaitingApprovalReceipt
	})
	return s.awaitApproval(ctx, intent, h, false)
}

// awaitApproval waits the approval receipt and chains the stake. With recheck
// set, the stake is only chained if the allowance still covers the intent, as a
// later run may have spent the approval already.
func (s *Sequencer) awaitApproval(ctx context.Context, intent Intent, h Handle, recheck bool) Outcome {
	key := h.ID.Hex()
	ev, err := s.await(ctx, h)
	if err != nil {
		return s.fail(intent, key, s.watchError(h, err))
	}
	switch ev.Status {
	case receipt.Confirmed:
		s.resolve(h, StatusConfirmed)
	case receipt.Reverted:
		s.resolve(h, StatusReverted)
		return s.fail(intent, key, newError(ExecutionReverted, Approval, "Approval transaction reverted", nil))
	default:
		return s.fail(intent, key, s.watchError(h, ev.Err))
	}

	if !s.markChained(h.ID) {
		return s.fail(intent, key, newError(ProviderError, Approval, ErrAlreadyChained.Error(), ErrAlreadyChained))
	}
	if recheck {
		refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
		allowance, err := s.allowance.Refresh(refreshCtx, intent.Owner)
		cancel()
		if err != nil {
			return s.fail(intent, key, classify(Stake, err))
		}
		s.update(func(st *Status) {
			st.Allowance = allowance
			st.RefreshOwed = false
		})
		if allowance.Cmp(intent.Amount) < 0 {
			return s.spent(intent, h, allowance)
		}
	}
	s.notify(key, notify.Success, "Approved successfully! Now staking...")
	return s.stake(ctx, intent)
}

// spent ends a resumed run whose confirmed approval no longer covers the intent.
func (s *Sequencer) spent(intent Intent, h Handle, allowance *big.Int) Outcome {
	s.update(func(st *Status) {
		st.Phase = Done
		st.Intent = nil
		st.Err = nil
		st.FailedAt = 0
	})
	s.notify(h.ID.Hex(), notify.Info, "Approval confirmed. It was already used, nothing was staked.")
	logger.Info("resumed approval already spent", "owner", intent.Owner, "amount", intent.Amount, "allowance", allowance, "tx", h.ID)

	st := s.Status()
	return Outcome{Phase: Done, Intent: intent, Approval: st.Approval}
}

func (s *Sequencer) stake(ctx context.Context, intent Intent) Outcome {
	s.setPhase(Staking)
	if err := ctx.Err(); err != nil {
		return s.fail(intent, "", classify(Stake, err))
	}
	h, err := s.submit(ctx, intent, Stake)
	if err != nil {
		return s.fail(intent, "", classify(Stake, err))
	}
	ctx = context.WithoutCancel(ctx)
	s.update(func(st *Status) {
		st.Stake = &h
		st.Phase = AwaitingStakeReceipt
	})
	return s.awaitStake(ctx, intent, h)
}

func (s *Sequencer) awaitStake(ctx context.Context, intent Intent, h Handle) Outcome {
	key := h.ID.Hex()
	ev, err := s.await(ctx, h)
	if err != nil {
		return s.fail(intent, key, s.watchError(h, err))
	}
	switch ev.Status {
	case receipt.Confirmed:
		s.resolve(h, StatusConfirmed)
	case receipt.Reverted:
		s.resolve(h, StatusReverted)
		return s.fail(intent, key, newError(ExecutionReverted, Stake, "Stake transaction reverted", nil))
	default:
		return s.fail(intent, key, s.watchError(h, ev.Err))
	}

	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	allowance, err := s.allowance.Refresh(refreshCtx, intent.Owner)
	if err != nil {
		logger.Warn("allowance refresh failed", "owner", intent.Owner, "err", err)
	}
	s.update(func(st *Status) {
		st.Phase = Done
		st.Intent = nil
		st.Err = nil
		st.FailedAt = 0
		if err == nil {
			st.Allowance = allowance
			st.RefreshOwed = false
		}
	})
	s.notify(key, notify.Success, "Stake successful!")
	logger.Info("stake done", "owner", intent.Owner, "amount", intent.Amount, "tx", h.ID)

	st := s.Status()
	return Outcome{Phase: Done, Intent: intent, Approval: st.Approval, Stake: st.Stake}
}

// submit issues a write and marks the allowance stale.
func (s *Sequencer) submit(ctx context.Context, intent Intent, kind Kind) (Handle, error) {
	h, err := s.writer.Submit(ctx, kind, intent.Amount)
	if err != nil {
		return Handle{}, err
	}
	h.Kind = kind
	metricWrites().AddWithLabel(1, map[string]string{"kind": kind.String()})

	s.allowance.Invalidate(intent.Owner)
	s.update(func(st *Status) { st.RefreshOwed = true })
	if s.journal != nil {
		if err := s.journal.Record(context.WithoutCancel(ctx), intent, h); err != nil {
			logger.Warn("failed to journal transaction", "tx", h.ID, "err", err)
		}
	}
	s.notify(h.ID.Hex(), notify.Loading, title(kind)+" in progress...")
	logger.Info("transaction submitted", "kind", kind, "tx", h.ID, "amount", intent.Amount)
	return h, nil
}

// await waits for the single terminal event of h, bounded by the receipt timeout.
func (s *Sequencer) await(ctx context.Context, h Handle) (receipt.Event, error) {
	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.cfg.ReceiptTimeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, s.cfg.ReceiptTimeout)
	}
	defer cancel()

	events, err := s.watcher.Watch(waitCtx, h.ID)
	if err != nil {
		return receipt.Event{}, err
	}
	select {
	case ev, ok := <-events:
		if !ok {
			return receipt.Event{}, errors.New("receipt watch ended without a result")
		}
		s.goes.Go(func() { drain(h, events) })
		return ev, nil
	case <-waitCtx.Done():
		s.goes.Go(func() { drain(h, events) })
		return receipt.Event{}, waitCtx.Err()
	}
}

// watchError turns a failed watch into a run error. Timed out handles stay
// pending in the journal so they can be resumed.
func (s *Sequencer) watchError(h Handle, err error) *Error {
	if err == nil {
		err = errors.New("receipt watch failed")
	}
	e := classify(h.Kind, err)
	if e.Kind != Timeout {
		s.resolve(h, StatusFailed)
	}
	return e
}

func drain(h Handle, events <-chan receipt.Event) {
	for ev := range events {
		logger.Debug("ignoring extra receipt event", "tx", h.ID, "status", ev.Status)
	}
}

func (s *Sequencer) markChained(approval common.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chained[approval]; ok {
		return false
	}
	s.chained[approval] = struct{}{}
	return true
}

func (s *Sequencer) fail(intent Intent, key string, e *Error) Outcome {
	s.update(func(st *Status) {
		st.Phase = Failed
		st.FailedAt = e.Stage
		st.Err = e
		st.Intent = nil
	})
	s.notify(key, notify.Error, e.Message)
	logger.Warn("stake failed", "owner", intent.Owner, "stage", e.Stage, "kind", e.Kind, "err", e.Message)

	st := s.Status()
	return Outcome{Phase: Failed, Intent: intent, Err: e, Approval: st.Approval, Stake: st.Stake}
}

func (s *Sequencer) update(f func(st *Status)) {
	s.mu.Lock()
	f(&s.status)
	st := s.status
	s.mu.Unlock()

	logger.Trace("stake status", "phase", st.Phase, "refreshOwed", st.RefreshOwed)
	if s.observer != nil {
		s.observer(st)
	}
}

func (s *Sequencer) setPhase(p Phase) {
	s.update(func(st *Status) { st.Phase = p })
}

func (s *Sequencer) notify(key string, level notify.Level, message string) {
	if s.notifier != nil {
		s.notifier.Publish(key, level, message)
	}
}

func (s *Sequencer) resolve(h Handle, status string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Resolve(context.Background(), h, status); err != nil {
		logger.Warn("failed to update journal", "tx", h.ID, "status", status, "err", err)
	}
}

func validAmount(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}

func title(k Kind) string {
	if k == Approval {
		return "Approval"
	}
	return "Stake"
}
