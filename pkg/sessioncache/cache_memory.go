// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sessioncache

import (
	"sync"
	"time"
)

// MemoryCache is a Cache living in process memory.
type MemoryCache struct {
	mutex  sync.Mutex
	states map[string]State
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		states: make(map[string]State),
	}
}

// Insert stores state for the server, replacing an older entry.
func (c *MemoryCache) Insert(serverID string, state State) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.states[serverID] = state
	return nil
}

// Lookup returns and removes the server's State.
func (c *MemoryCache) Lookup(serverID string) (State, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	state, ok := c.states[serverID]
	if !ok {
		return State{}, ErrNotFound
	}
	delete(c.states, serverID)

	if state.expired(time.Now()) {
		return State{}, ErrNotFound
	}
	return state, nil
}

// Close releases the backend; a no-op for this one.
func (c *MemoryCache) Close() error {
	return nil
}
