// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package notify keeps user facing notifications. A notification is keyed,
// usually by a transaction hash, and later updates under the same key replace
// the previous one.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/pborman/uuid"

	"github.com/edulearn/edu/metrics"
)

var metricDropped = metrics.LazyLoadCounter("notify_dropped_count")

type Level int

const (
	Info Level = iota
	Loading
	Success
	Error
)

func (l Level) String() string {
	switch l {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// MarshalText renders the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	for _, v := range []Level{Info, Loading, Success, Error} {
		if v.String() == string(text) {
			*l = v
			return nil
		}
	}
	return fmt.Errorf("unknown notification level %q", text)
}

type Notification struct {
	ID      string    `json:"id"`
	Key     string    `json:"key"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Center stores the latest notification per key and fans updates out to listeners.
type Center struct {
	mu        sync.RWMutex
	items     map[string]Notification
	order     []string
	capacity  int
	listeners map[chan Notification]struct{}
}

// NewCenter creates a center remembering at most capacity keys. The oldest
// keys are forgotten first.
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = 100
	}
	return &Center{
		items:     make(map[string]Notification),
		capacity:  capacity,
		listeners: make(map[chan Notification]struct{}),
	}
}

// Publish records a notification under key, replacing any previous one.
// An empty key gets a fresh random key.
func (c *Center) Publish(key string, level Level, message string) Notification {
	if key == "" {
		key = uuid.New()
	}
	n := Notification{
		ID:      uuid.New(),
		Key:     key,
		Level:   level,
		Message: message,
		Time:    time.Now(),
	}

	c.mu.Lock()
	if _, ok := c.items[key]; !ok {
		c.order = append(c.order, key)
		if len(c.order) > c.capacity {
			delete(c.items, c.order[0])
			c.order = c.order[1:]
		}
	}
	c.items[key] = n

	// stored and broadcast under one lock so Follow sees each update exactly once
	for lsn := range c.listeners {
		select {
		case lsn <- n:
		default: // broadcast in a non-blocking manner, slow listeners miss updates
			metricDropped().Add(1)
		}
	}
	c.mu.Unlock()
	return n
}

func (c *Center) Get(key string) (Notification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.items[key]
	return n, ok
}

// List returns the current notifications in the order their keys first appeared.
func (c *Center) List() []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := make([]Notification, 0, len(c.order))
	for _, key := range c.order {
		list = append(list, c.items[key])
	}
	return list
}

// Dismiss forgets key.
func (c *Center) Dismiss(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Center) Subscribe(ch chan Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[ch] = struct{}{}
}

// Follow subscribes ch and returns the notifications published before it.
// Every later update reaches ch and none of them is part of the returned list.
func (c *Center) Follow(ch chan Notification) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[ch] = struct{}{}
	list := make([]Notification, 0, len(c.order))
	for _, key := range c.order {
		list = append(list, c.items[key])
	}
	return list
}

func (c *Center) Unsubscribe(ch chan Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.listeners, ch)
}

// Publisher is implemented by Center.
type Publisher interface {
	Publish(key string, level Level, message string) Notification
}

var _ Publisher = (*Center)(nil)
