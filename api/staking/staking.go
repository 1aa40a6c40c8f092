// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"

	"github.com/edulearn/edu/api/utils"
	"github.com/edulearn/edu/edu"
	"github.com/edulearn/edu/session"
	"github.com/edulearn/edu/stake"
)

type Staking struct {
	sequencer *stake.Sequencer
	session   *session.Session
	decimals  uint8
}

func New(sequencer *stake.Sequencer, sess *session.Session, decimals uint8) *Staking {
	return &Staking{sequencer: sequencer, session: sess, decimals: decimals}
}

func (s *Staking) handleGetStatus(w http.ResponseWriter, req *http.Request) error {
	return utils.WriteJSON(w, convertStatus(s.sequencer.Status()))
}

func (s *Staking) handlePostStake(w http.ResponseWriter, req *http.Request) error {
	var body StakeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "body"))
	}
	amount, err := edu.ParseUnits(body.Amount, s.decimals)
	if err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "amount"))
	}
	owner, ok := s.session.Account()
	if !ok {
		return utils.Forbidden(session.ErrNotConnected)
	}
	intent := stake.Intent{Amount: amount, Owner: owner}

	wait := req.URL.Query().Get("wait") == "true"
	ctx := req.Context()
	if !wait {
		// the run outlives the request
		ctx = context.WithoutCancel(ctx)
	}
	outcome, err := s.sequencer.Start(ctx, intent)
	if err != nil {
		if errors.Is(err, stake.ErrBusy) {
			return utils.Conflict(err)
		}
		return err
	}
	if !wait {
		return utils.WriteJSONStatus(w, http.StatusAccepted, convertStatus(s.sequencer.Status()))
	}

	o := <-outcome
	view := convertOutcome(o)
	if o.Err != nil {
		return utils.WriteJSONStatus(w, statusOf(o.Err), view)
	}
	return utils.WriteJSON(w, view)
}

func (s *Staking) handleReset(w http.ResponseWriter, req *http.Request) error {
	if err := s.sequencer.Reset(); err != nil {
		if errors.Is(err, stake.ErrBusy) {
			return utils.Conflict(err)
		}
		return err
	}
	return utils.WriteJSON(w, convertStatus(s.sequencer.Status()))
}

func statusOf(err *stake.Error) int {
	switch err.Kind {
	case stake.InvalidAmount:
		return http.StatusUnprocessableEntity
	case stake.UserRejected:
		return http.StatusForbidden
	case stake.ExecutionReverted:
		return http.StatusConflict
	case stake.Timeout:
		return http.StatusGatewayTimeout
	case stake.Canceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).Name("GET /stake").HandlerFunc(utils.WrapHandlerFunc(s.handleGetStatus))
	sub.Path("").Methods(http.MethodPost).Name("POST /stake").HandlerFunc(utils.WrapHandlerFunc(s.handlePostStake))
	sub.Path("/reset").Methods(http.MethodPost).Name("POST /stake/reset").HandlerFunc(utils.WrapHandlerFunc(s.handleReset))
}
