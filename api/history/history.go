// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"

	"github.com/edulearn/edu/api/utils"
	"github.com/edulearn/edu/journal"
	"github.com/edulearn/edu/session"
	"github.com/edulearn/edu/stake"
)

const defaultLimit = 50

type History struct {
	journal  *journal.Journal
	session  *session.Session
	maxLimit int
}

func New(j *journal.Journal, sess *session.Session, maxLimit int) *History {
	if maxLimit <= 0 {
		maxLimit = 1000
	}
	return &History{journal: j, session: sess, maxLimit: maxLimit}
}

func (h *History) handleGetHistory(w http.ResponseWriter, req *http.Request) error {
	owner, ok := h.session.Account()
	if !ok {
		return utils.Forbidden(session.ErrNotConnected)
	}
	filter := &journal.Filter{Owner: &owner, Limit: min(defaultLimit, h.maxLimit)}

	query := req.URL.Query()
	switch status := query.Get("status"); status {
	case "", stake.StatusPending, stake.StatusConfirmed, stake.StatusReverted, stake.StatusFailed:
		filter.Status = status
	default:
		return utils.BadRequest(errors.New("status: unknown value"))
	}
	if s := query.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit <= 0 {
			return utils.BadRequest(pkgerrors.New("limit: must be a positive integer"))
		}
		if limit > h.maxLimit {
			return utils.Forbidden(pkgerrors.Errorf("limit: exceeds maximum of %d", h.maxLimit))
		}
		filter.Limit = limit
	}

	entries, err := h.journal.List(req.Context(), filter)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}
	return utils.WriteJSON(w, entries)
}

func (h *History) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).Name("GET /history").HandlerFunc(utils.WrapHandlerFunc(h.handleGetHistory))
}
