// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package session holds the connected account, the network it is on and the
// capabilities it was granted.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"github.com/edulearn/edu/client"
	"github.com/edulearn/edu/client/bind"
	"github.com/edulearn/edu/contracts"
	"github.com/edulearn/edu/log"
)

var logger = log.WithContext("pkg", "session")

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrWrongNetwork = errors.New("wrong network")
	ErrNotAdmin     = errors.New("admin role required")
)

type State int

const (
	Disconnected State = iota
	Connected
	WrongNetwork
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case WrongNetwork:
		return "wrong-network"
	default:
		return "disconnected"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, v := range []State{Disconnected, Connected, WrongNetwork} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

type Capability int

const (
	CapabilityAdmin Capability = iota
)

func (c Capability) String() string {
	if c == CapabilityAdmin {
		return "admin"
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// Info describes the session.
type Info struct {
	State     State          `json:"state"`
	Account   common.Address `json:"account"`
	Connector string         `json:"connector,omitempty"`
	ChainID   uint64         `json:"chainId"`
	Expected  uint64         `json:"expectedChainId"`
}

type Session struct {
	client     *client.Client
	registry   *contracts.CourseRegistry
	expected   uint64
	connectors map[string]Connector
	names      []string

	mu        sync.RWMutex
	signer    bind.Signer
	connector string
	chainID   uint64
	caps      map[Capability]bool
	group     singleflight.Group
}

// New creates a disconnected session for the network expectedChainID.
func New(c *client.Client, registry *contracts.CourseRegistry, expectedChainID uint64, connectors ...Connector) *Session {
	s := &Session{
		client:     c,
		registry:   registry,
		expected:   expectedChainID,
		connectors: make(map[string]Connector),
		caps:       make(map[Capability]bool),
	}
	for _, conn := range connectors {
		s.connectors[conn.Name()] = conn
		s.names = append(s.names, conn.Name())
	}
	return s
}

// Connectors lists the connector names in registration order.
func (s *Session) Connectors() []string {
	return append([]string(nil), s.names...)
}

// Connect unlocks the named connector, or the first one when name is empty.
// Connecting to the wrong network succeeds but leaves the session unusable for writes.
func (s *Session) Connect(ctx context.Context, name string) (Info, error) {
	if name == "" && len(s.names) > 0 {
		name = s.names[0]
	}
	conn, ok := s.connectors[name]
	if !ok {
		return Info{}, fmt.Errorf("unknown connector %q", name)
	}
	signer, err := conn.Connect(ctx)
	if err != nil {
		return Info{}, err
	}
	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("read chain id: %w", err)
	}

	s.mu.Lock()
	s.signer = signer
	s.connector = name
	s.chainID = chainID.Uint64()
	s.caps = make(map[Capability]bool)
	s.mu.Unlock()

	info := s.Status()
	logger.Info("wallet connected", "account", info.Account, "connector", name, "chainId", info.ChainID, "state", info.State)
	return info, nil
}

// Disconnect forgets the signer and the resolved capabilities.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signer = nil
	s.connector = ""
	s.chainID = 0
	s.caps = make(map[Capability]bool)
}

func (s *Session) Status() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{Expected: s.expected}
	if s.signer == nil {
		return info
	}
	info.Account = s.signer.Address()
	info.Connector = s.connector
	info.ChainID = s.chainID
	info.State = Connected
	if s.expected != 0 && s.chainID != s.expected {
		info.State = WrongNetwork
	}
	return info
}

// Account returns the connected address.
func (s *Session) Account() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.signer == nil {
		return common.Address{}, false
	}
	return s.signer.Address(), true
}

// Signer returns the signer of a session connected to the expected network.
func (s *Session) Signer() (bind.Signer, error) {
	switch info := s.Status(); info.State {
	case Disconnected:
		return nil, ErrNotConnected
	case WrongNetwork:
		return nil, fmt.Errorf("%w: connected to chain %d, expected %d", ErrWrongNetwork, info.ChainID, info.Expected)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signer, nil
}

// HasCapability reports whether the connected account holds c. The answer is
// read from chain once and kept for the rest of the session.
func (s *Session) HasCapability(ctx context.Context, c Capability) (bool, error) {
	account, ok := s.Account()
	if !ok {
		return false, ErrNotConnected
	}
	s.mu.RLock()
	has, resolved := s.caps[c]
	s.mu.RUnlock()
	if resolved {
		return has, nil
	}

	v, err, _ := s.group.Do(c.String()+account.Hex(), func() (any, error) {
		switch c {
		case CapabilityAdmin:
			role, err := s.registry.AdminRole(ctx)
			if err != nil {
				return false, err
			}
			return s.registry.HasRole(ctx, role, account)
		default:
			return false, fmt.Errorf("unknown capability %v", c)
		}
	})
	if err != nil {
		return false, err
	}
	has = v.(bool)

	s.mu.Lock()
	// the session may have switched accounts meanwhile
	if s.signer != nil && s.signer.Address() == account {
		s.caps[c] = has
	}
	s.mu.Unlock()
	return has, nil
}

// RequireAdmin fails with ErrNotAdmin unless the session holds the admin capability.
func (s *Session) RequireAdmin(ctx context.Context) error {
	if _, err := s.Signer(); err != nil {
		return err
	}
	ok, err := s.HasCapability(ctx, CapabilityAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}
