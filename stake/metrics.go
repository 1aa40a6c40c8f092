// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import "github.com/edulearn/edu/metrics"

var (
	metricRuns        = metrics.LazyLoadCounterVec("stake_runs_count", []string{"outcome"})
	metricRunDuration = metrics.LazyLoadHistogramVec("stake_run_duration_ms", []string{"outcome"}, metrics.BucketReceiptWait)
	metricWrites      = metrics.LazyLoadCounterVec("stake_writes_count", []string{"kind"})
	metricInflight    = metrics.LazyLoadGauge("stake_inflight_count")
)
