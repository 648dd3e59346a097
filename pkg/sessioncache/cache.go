// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sessioncache

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Lookup when no live session state is stored for
// the requested server.
var ErrNotFound = errors.New("no session state stored for this server")

// State is one stored TLS session: the resumption ticket, the peer's
// transport parameters and the lifetime bounds.
type State struct {
	Ticket              []byte
	TransportParameters []byte

	Created time.Time
	Expires time.Time
}

// expired reports whether this State must no longer be handed out.
func (s State) expired(now time.Time) bool {
	return !s.Expires.IsZero() && s.Expires.Before(now)
}

// Cache stores at most one State per server identifier.
type Cache interface {
	// Insert stores state for the server, replacing an older entry.
	Insert(serverID string, state State) error

	// Lookup returns and removes the server's State. Expired entries are
	// dropped and reported as ErrNotFound.
	Lookup(serverID string) (State, error)

	// Close releases the backend.
	Close() error
}
