// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the account, staking, rewards and admin operations over HTTP.
package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/edulearn/edu/account"
	"github.com/edulearn/edu/api/accounts"
	"github.com/edulearn/edu/api/admin"
	"github.com/edulearn/edu/api/history"
	"github.com/edulearn/edu/api/middleware"
	"github.com/edulearn/edu/api/notifications"
	apirewards "github.com/edulearn/edu/api/rewards"
	"github.com/edulearn/edu/api/staking"
	"github.com/edulearn/edu/journal"
	"github.com/edulearn/edu/log"
	"github.com/edulearn/edu/notify"
	"github.com/edulearn/edu/registry"
	"github.com/edulearn/edu/rewards"
	"github.com/edulearn/edu/session"
	"github.com/edulearn/edu/stake"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins     string
	Decimals           uint8
	HistoryLimit       int
	EnableReqLogger    *atomic.Bool
	SlowQueryThreshold time.Duration
	EnableMetrics      bool
}

// Services are the operations exposed by the API.
type Services struct {
	Session   *session.Session
	Accounts  *account.Reader
	Sequencer *stake.Sequencer
	Rewards   *rewards.Service
	Registry  *registry.Service
	Journal   *journal.Journal
	Center    *notify.Center
}

// New returns the api handler and a function closing the open notification streams.
func New(s Services, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	accounts.New(s.Accounts, s.Session).
		Mount(router, "/account")
	staking.New(s.Sequencer, s.Session, opts.Decimals).
		Mount(router, "/stake")
	apirewards.New(s.Rewards, s.Session).
		Mount(router, "/rewards")
	admin.New(s.Registry).
		Mount(router, "/admin")
	if s.Journal != nil {
		history.New(s.Journal, s.Session, opts.HistoryLimit).
			Mount(router, "/history")
	}
	notes := notifications.New(s.Center, origins)
	notes.Mount(router, "/notifications")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
	)(handler)

	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLogger(logger, opts.EnableReqLogger, opts.SlowQueryThreshold)(handler)
	}

	return handler.ServeHTTP, notes.Close
}
