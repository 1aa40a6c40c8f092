// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package contracts provides type-safe wrappers of the deployed EDU platform contracts.
// Reads return values in the token's smallest unit, writes return a method builder
// to be sent by the caller.
package contracts

import (
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client"
)

//go:embed abi/*.json
var abiFS embed.FS

func mustLoadABI(name string) []byte {
	data, err := abiFS.ReadFile("abi/" + name + ".json")
	if err != nil {
		panic(fmt.Sprintf("load abi %s: %v", name, err))
	}
	return data
}

var (
	TokenABI          = mustLoadABI("Token")
	StakingABI        = mustLoadABI("Staking")
	RewardsABI        = mustLoadABI("Rewards")
	CourseRegistryABI = mustLoadABI("CourseRegistry")
)

// Addresses locates the deployed contracts.
type Addresses struct {
	Token          common.Address `yaml:"token" env:"TOKEN" validate:"required"`
	Staking        common.Address `yaml:"staking" env:"STAKING" validate:"required"`
	Rewards        common.Address `yaml:"rewards" env:"REWARDS" validate:"required"`
	CourseRegistry common.Address `yaml:"course_registry" env:"COURSE_REGISTRY" validate:"required"`
}

// Set groups the bound contracts of one deployment.
type Set struct {
	Token          *Token
	Staking        *Staking
	Rewards        *Rewards
	CourseRegistry *CourseRegistry
}

// Bind binds every contract of a deployment to c.
func Bind(c *client.Client, addrs Addresses) (*Set, error) {
	token, err := NewToken(c, addrs.Token)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	staking, err := NewStaking(c, addrs.Staking)
	if err != nil {
		return nil, fmt.Errorf("staking: %w", err)
	}
	rewards, err := NewRewards(c, addrs.Rewards)
	if err != nil {
		return nil, fmt.Errorf("rewards: %w", err)
	}
	registry, err := NewCourseRegistry(c, addrs.CourseRegistry)
	if err != nil {
		return nil, fmt.Errorf("course registry: %w", err)
	}
	return &Set{Token: token, Staking: staking, Rewards: rewards, CourseRegistry: registry}, nil
}
