// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/edulearn/edu/api/utils"
	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/rewards"
	"github.com/edulearn/edu/session"
)

type Rewards struct {
	service *rewards.Service
	session *session.Session
}

func New(service *rewards.Service, sess *session.Session) *Rewards {
	return &Rewards{service: service, session: sess}
}

type View struct {
	Owner       common.Address `json:"owner"`
	Earned      *big.Int       `json:"earned"`
	Claimed     *big.Int       `json:"claimed"`
	Claimable   *big.Int       `json:"claimable"`
	LastUpdated uint64         `json:"lastUpdated"`
}

func (r *Rewards) handleGetRewards(w http.ResponseWriter, req *http.Request) error {
	owner, ok := r.session.Account()
	if !ok {
		return utils.Forbidden(session.ErrNotConnected)
	}
	rw, err := r.service.Rewards(req.Context(), owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &View{
		Owner:       owner,
		Earned:      rw.Earned,
		Claimed:     rw.Claimed,
		Claimable:   rw.Claimable(),
		LastUpdated: rw.LastUpdated.Uint64(),
	})
}

func (r *Rewards) handleClaim(w http.ResponseWriter, req *http.Request) error {
	claim, err := r.service.Claim(req.Context())
	if err != nil {
		var classified *client.Error
		switch {
		case errors.Is(err, rewards.ErrNothingToClaim):
			return utils.HTTPError(err, http.StatusUnprocessableEntity)
		case errors.Is(err, session.ErrNotConnected), errors.Is(err, session.ErrWrongNetwork):
			return utils.Forbidden(err)
		case errors.As(err, &classified) && classified.Kind != client.KindProvider:
			return utils.HTTPError(err, http.StatusConflict)
		}
		return utils.HTTPError(err, http.StatusBadGateway)
	}
	return utils.WriteJSON(w, claim)
}

func (r *Rewards) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).Name("GET /rewards").HandlerFunc(utils.WrapHandlerFunc(r.handleGetRewards))
	sub.Path("/claim").Methods(http.MethodPost).Name("POST /rewards/claim").HandlerFunc(utils.WrapHandlerFunc(r.handleClaim))
}
