// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package edu

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

var (
	errEmptyAmount    = errors.New("empty amount")
	errNegativeAmount = errors.New("negative amount")
	errTooManyDigits  = errors.New("too many decimal places")
	errAmountOverflow = errors.New("amount exceeds uint256")
)

// ParseUnits converts a decimal string such as "12.5" into an integer amount in the
// token's smallest unit. The result always fits a uint256 contract argument.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyAmount
	}
	if strings.HasPrefix(s, "-") {
		return nil, errNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > int(decimals) {
		return nil, errTooManyDigits
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	digits := whole + frac
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("invalid amount %q", s)
		}
	}

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return nil, errAmountOverflow
	}
	return v, nil
}

// FormatUnits renders an integer amount in the smallest unit as a decimal string,
// without trailing fractional zeros.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	digits := new(big.Int).Abs(v).String()

	if pad := int(decimals) + 1 - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	split := len(digits) - int(decimals)
	whole, frac := digits[:split], strings.TrimRight(digits[split:], "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
