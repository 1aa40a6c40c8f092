// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import "sync/atomic"

// Stats counts lookups of a cache. Safe for concurrent use.
type Stats struct {
	hits, misses atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Hits   int64
	Misses int64
}

// Lookups is Hits + Misses.
func (s Snapshot) Lookups() int64 { return s.Hits + s.Misses }

// HitRate is the share of lookups served from the cache, 0 when nothing was looked up.
func (s Snapshot) HitRate() float64 {
	if n := s.Lookups(); n > 0 {
		return float64(s.Hits) / float64(n)
	}
	return 0
}

func (cs *Stats) hit()  { cs.hits.Add(1) }
func (cs *Stats) miss() { cs.misses.Add(1) }

// Snapshot reads the counters.
func (cs *Stats) Snapshot() Snapshot {
	return Snapshot{Hits: cs.hits.Load(), Misses: cs.misses.Load()}
}
