// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package edu

// Constants of the EDU token deployment.
const (
	TokenDecimals uint8  = 18
	TokenSymbol   string = "EDU"

	// FlexibleLock is the staking lock option without a lock-up period.
	FlexibleLock uint8 = 0

	CeloMainnetChainID uint64 = 42220
	BaseMainnetChainID uint64 = 8453
)
