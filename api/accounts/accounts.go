// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/edulearn/edu/account"
	"github.com/edulearn/edu/api/utils"
	"github.com/edulearn/edu/session"
)

type Accounts struct {
	reader  *account.Reader
	session *session.Session
}

func New(reader *account.Reader, sess *session.Session) *Accounts {
	return &Accounts{reader: reader, session: sess}
}

func (a *Accounts) handleGetSession(w http.ResponseWriter, req *http.Request) error {
	return utils.WriteJSON(w, a.session.Status())
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	summary, err := a.reader.Summary(req.Context())
	if err != nil {
		if errors.Is(err, session.ErrNotConnected) {
			return utils.Forbidden(err)
		}
		return err
	}
	return utils.WriteJSON(w, summary)
}

func (a *Accounts) handleGetAddress(w http.ResponseWriter, req *http.Request) error {
	hex := mux.Vars(req)["address"]
	if !common.IsHexAddress(hex) {
		return utils.BadRequest(errors.New("address: invalid format"))
	}
	summary, err := a.reader.Of(req.Context(), common.HexToAddress(hex), true)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, summary)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).Name("GET /account").HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/session").Methods(http.MethodGet).Name("GET /account/session").HandlerFunc(utils.WrapHandlerFunc(a.handleGetSession))
	sub.Path("/{address}").Methods(http.MethodGet).Name("GET /account/{address}").HandlerFunc(utils.WrapHandlerFunc(a.handleGetAddress))
}
