// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package notifications

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/edulearn/edu/api/utils"
	"github.com/edulearn/edu/log"
	"github.com/edulearn/edu/notify"
)

var logger = log.WithContext("pkg", "notifications")

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 7 / 10
	writeWait  = 10 * time.Second
	bufferSize = 64
)

type Notifications struct {
	center   *notify.Center
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// New creates the notification stream. allowedOrigins lists the accepted
// websocket origins, "*" accepts any.
func New(center *notify.Center, allowedOrigins []string) *Notifications {
	return &Notifications{
		center: center,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (n *Notifications) handleList(w http.ResponseWriter, req *http.Request) error {
	list := n.center.List()
	if list == nil {
		list = []notify.Notification{}
	}
	return utils.WriteJSON(w, list)
}

func (n *Notifications) handleDismiss(w http.ResponseWriter, req *http.Request) error {
	n.center.Dismiss(mux.Vars(req)["key"])
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// handleStream replays the current notifications, then streams updates until
// the peer goes away or the server closes.
func (n *Notifications) handleStream(w http.ResponseWriter, req *http.Request) error {
	conn, err := n.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade has already replied to the peer
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	n.wg.Add(1)
	defer n.wg.Done()
	defer conn.Close()

	ch := make(chan notify.Notification, bufferSize)
	replay := n.center.Follow(ch)
	defer n.center.Unsubscribe(ch)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(v notify.Notification) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}
	for _, item := range replay {
		if err := write(item); err != nil {
			return nil
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case item := <-ch:
			if err := write(item); err != nil {
				logger.Debug("write failed", "err", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-n.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return nil
		}
	}
}

// Close ends every open stream and waits for them to finish.
func (n *Notifications) Close() {
	n.once.Do(func() { close(n.done) })
	n.wg.Wait()
}

func (n *Notifications) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		HeadersRegexp("Upgrade", "(?i)^websocket$").
		Name("WS /notifications").
		HandlerFunc(utils.WrapHandlerFunc(n.handleStream))
	sub.Path("").Methods(http.MethodGet).Name("GET /notifications").HandlerFunc(utils.WrapHandlerFunc(n.handleList))
	sub.Path("/{key}").Methods(http.MethodDelete).Name("DELETE /notifications/{key}").HandlerFunc(utils.WrapHandlerFunc(n.handleDismiss))
}
