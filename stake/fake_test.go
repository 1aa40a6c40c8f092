// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client/receipt"
)

// fakeChain plays the token, the staking contract and the receipt watcher.
// Confirmed approvals set the allowance, confirmed stakes consume it.
type fakeChain struct {
	mu sync.Mutex

	allowance   *big.Int
	readErr     error
	refreshErrs []error

	cachedReads   int
	freshReads    int
	invalidations int

	submitErr map[Kind]error
	onSubmit  func(Kind)
	submitted []Handle
	amounts   map[common.Hash]*big.Int
	kinds     map[common.Hash]Kind
	applied   map[common.Hash]bool

	// per kind queue of scripted receipt outcomes, Confirmed when empty
	script    map[Kind][][]receipt.Status
	failErr   error
	// blocked kinds never resolve until the watch context ends
	blocked   map[Kind]bool
	watches   int
	delivered int
}

func newFakeChain(allowance int64) *fakeChain {
	return &fakeChain{
		allowance: big.NewInt(allowance),
		submitErr: make(map[Kind]error),
		amounts:   make(map[common.Hash]*big.Int),
		kinds:     make(map[common.Hash]Kind),
		applied:   make(map[common.Hash]bool),
		script:    make(map[Kind][][]receipt.Status),
		blocked:   make(map[Kind]bool),
	}
}

func (f *fakeChain) Allowance(context.Context, common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cachedReads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeChain) Refresh(context.Context, common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freshReads++
	if len(f.refreshErrs) > 0 {
		err := f.refreshErrs[0]
		f.refreshErrs = f.refreshErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.readErr != nil {
		return nil, f.readErr
	}
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeChain) Invalidate(common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations++
}

func (f *fakeChain) Submit(_ context.Context, kind Kind, amount *big.Int) (Handle, error) {
	if f.onSubmit != nil {
		f.onSubmit(kind)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.submitErr[kind]; err != nil {
		return Handle{}, err
	}
	h := Handle{ID: common.BigToHash(big.NewInt(int64(len(f.submitted) + 1))), Kind: kind}
	f.submitted = append(f.submitted, h)
	f.amounts[h.ID] = new(big.Int).Set(amount)
	f.kinds[h.ID] = kind
	return h, nil
}

func (f *fakeChain) Watch(ctx context.Context, hash common.Hash) (<-chan receipt.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watches++
	kind := f.kinds[hash]

	if f.blocked[kind] {
		// unbuffered, the final event counts as delivered once someone reads it
		out := make(chan receipt.Event)
		go func() {
			<-ctx.Done()
			out <- receipt.Event{Hash: hash, Status: receipt.Failed, Err: ctx.Err()}
			f.mu.Lock()
			f.delivered++
			f.mu.Unlock()
			close(out)
		}()
		return out, nil
	}

	statuses := []receipt.Status{receipt.Confirmed}
	if queue := f.script[kind]; len(queue) > 0 {
		statuses = queue[0]
		f.script[kind] = queue[1:]
	}
	out := make(chan receipt.Event, len(statuses))
	for i, status := range statuses {
		ev := receipt.Event{Hash: hash, Status: status}
		if status == receipt.Failed {
			ev.Err = f.failErr
		}
		if status == receipt.Confirmed && i == 0 {
			f.apply(hash)
		}
		out <- ev
	}
	close(out)
	return out, nil
}

// apply lands a transaction on chain, once.
func (f *fakeChain) apply(hash common.Hash) {
	amount, ok := f.amounts[hash]
	if !ok || f.applied[hash] {
		return
	}
	f.applied[hash] = true
	switch f.kinds[hash] {
	case Approval:
		f.allowance = new(big.Int).Set(amount)
	case Stake:
		f.allowance = new(big.Int).Sub(f.allowance, amount)
	}
}

// land mines hash outside of any watch.
func (f *fakeChain) land(hash common.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apply(hash)
}

func (f *fakeChain) setBlocked(kind Kind, blocked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[kind] = blocked
}

func (f *fakeChain) deliveredEvents() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delivered
}

func (f *fakeChain) kindsSubmitted() []Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]Kind, 0, len(f.submitted))
	for _, h := range f.submitted {
		kinds = append(kinds, h.Kind)
	}
	return kinds
}

type journalEntry struct {
	handle Handle
	status string
}

type fakeJournal struct {
	mu      sync.Mutex
	entries map[common.Hash]*journalEntry
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{entries: make(map[common.Hash]*journalEntry)}
}

func (j *fakeJournal) Record(_ context.Context, _ Intent, h Handle) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[h.ID] = &journalEntry{handle: h, status: StatusPending}
	return nil
}

func (j *fakeJournal) Resolve(_ context.Context, h Handle, status string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if e, ok := j.entries[h.ID]; ok {
		e.status = status
	}
	return nil
}

func (j *fakeJournal) status(h common.Hash) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if e, ok := j.entries[h]; ok {
		return e.status
	}
	return ""
}

// phaseRecorder collects the distinct consecutive phases of a run.
type phaseRecorder struct {
	mu     sync.Mutex
	phases []Phase
}

func (r *phaseRecorder) observe(st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.phases); n > 0 && r.phases[n-1] == st.Phase {
		return
	}
	r.phases = append(r.phases, st.Phase)
}

func (r *phaseRecorder) list() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Phase(nil), r.phases...)
}
