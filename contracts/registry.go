// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/bind"
)

// CourseRegistry wraps the role gated course registry.
type CourseRegistry struct {
	contract *bind.Contract
}

func NewCourseRegistry(c *client.Client, address common.Address) (*CourseRegistry, error) {
	contract, err := bind.NewContract(c, CourseRegistryABI, address)
	if err != nil {
		return nil, err
	}
	return &CourseRegistry{contract: contract}, nil
}

func (r *CourseRegistry) Raw() *bind.Contract {
	return r.contract
}

func (r *CourseRegistry) Address() common.Address {
	return r.contract.Address()
}

// AdminRole returns the role identifier of registry admins.
func (r *CourseRegistry) AdminRole(ctx context.Context) ([32]byte, error) {
	var role [32]byte
	if err := r.contract.Method("ADMIN_ROLE").Call().Into(ctx, &role); err != nil {
		return [32]byte{}, err
	}
	return role, nil
}

func (r *CourseRegistry) HasRole(ctx context.Context, role [32]byte, account common.Address) (bool, error) {
	var ok bool
	if err := r.contract.Method("hasRole", role, account).Call().Into(ctx, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *CourseRegistry) CreateCourse(metadataHash string, price, revenueShare, badgeID *big.Int) *bind.MethodBuilder {
	return r.contract.Method("createCourse", metadataHash, price, revenueShare, badgeID)
}

func (r *CourseRegistry) VerifyInstructor(instructor common.Address) *bind.MethodBuilder {
	return r.contract.Method("verifyInstructor", instructor)
}
