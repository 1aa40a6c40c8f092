// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry runs the admin operations of the course registry.
package registry

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/bind"
	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/log"
	"github.com/edulearn/edu/notify"
	"github.com/edulearn/edu/session"
)

var logger = log.WithContext("pkg", "registry")

var (
	ErrMissingMetadata   = errors.New("missing metadata hash")
	ErrMissingInstructor = errors.New("missing instructor address")
	ErrInvalidInstructor = errors.New("invalid instructor address")
)

var messages = map[error]string{
	ErrMissingMetadata:   "Please provide a metadata hash.",
	ErrMissingInstructor: "Please provide an instructor address.",
	ErrInvalidInstructor: "Please provide a valid instructor address.",
	session.ErrNotAdmin:  "Access denied: admin role required.",
}

type Service struct {
	registry *contracts.CourseRegistry
	session  *session.Session
	notifier notify.Publisher
}

func New(registry *contracts.CourseRegistry, sess *session.Session, notifier notify.Publisher) *Service {
	return &Service{registry: registry, session: sess, notifier: notifier}
}

// CreateCourse registers a free course: price, revenue share and badge are zero.
// It returns once the transaction is sent.
func (s *Service) CreateCourse(ctx context.Context, metadataHash string) (common.Hash, error) {
	metadataHash = strings.TrimSpace(metadataHash)
	if metadataHash == "" {
		return common.Hash{}, s.reject(ErrMissingMetadata)
	}
	zero := new(big.Int)
	return s.send(ctx, s.registry.CreateCourse(metadataHash, zero, zero, zero), "Course creation transaction sent!")
}

// VerifyInstructor marks instructor as verified. It returns once the transaction is sent.
func (s *Service) VerifyInstructor(ctx context.Context, instructor string) (common.Hash, error) {
	instructor = strings.TrimSpace(instructor)
	if instructor == "" {
		return common.Hash{}, s.reject(ErrMissingInstructor)
	}
	if !common.IsHexAddress(instructor) {
		return common.Hash{}, s.reject(ErrInvalidInstructor)
	}
	return s.send(ctx, s.registry.VerifyInstructor(common.HexToAddress(instructor)), "Instructor verification transaction sent!")
}

func (s *Service) send(ctx context.Context, method *bind.MethodBuilder, sent string) (common.Hash, error) {
	if err := s.session.RequireAdmin(ctx); err != nil {
		return common.Hash{}, s.reject(err)
	}
	signer, err := s.session.Signer()
	if err != nil {
		return common.Hash{}, s.reject(err)
	}
	trx, err := method.Send().WithSigner(signer).Issue(ctx)
	if err != nil {
		return common.Hash{}, s.reject(client.Classify(err))
	}
	s.notifier.Publish(trx.Hash().Hex(), notify.Success, sent)
	logger.Info("registry transaction sent", "method", method, "tx", trx.Hash())
	return trx.Hash(), nil
}

func (s *Service) reject(err error) error {
	msg := err.Error()
	for target, m := range messages {
		if errors.Is(err, target) {
			msg = m
			break
		}
	}
	s.notifier.Publish("", notify.Error, msg)
	return err
}
