// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sessioncache

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/timshannon/badgerhold"
)

// sessionItem is the stored representation of one State.
type sessionItem struct {
	ServerID string `badgerhold:"key"`

	Ticket              []byte
	TransportParameters []byte

	Created time.Time
	Expires time.Time `badgerholdIndex:"Expires"`
}

// BadgerCache is a Cache persisting session state in a Badger database, so
// resumption survives process restarts.
type BadgerCache struct {
	bh *badgerhold.Store
}

// NewBadgerCache opens or creates a BadgerCache under the given directory.
func NewBadgerCache(dir string) (c *BadgerCache, err error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir

	if dirErr := os.MkdirAll(dir, 0700); dirErr != nil {
		err = dirErr
		return
	}

	if bh, bhErr := badgerhold.Open(opts); bhErr != nil {
		err = bhErr
	} else {
		c = &BadgerCache{bh: bh}
	}
	return
}

// Insert stores state for the server, replacing an older entry.
func (c *BadgerCache) Insert(serverID string, state State) error {
	log.WithField("server", serverID).Debug("Storing session state")

	return c.bh.Upsert(serverID, sessionItem{
		ServerID:            serverID,
		Ticket:              state.Ticket,
		TransportParameters: state.TransportParameters,
		Created:             state.Created,
		Expires:             state.Expires,
	})
}

// Lookup returns and removes the server's State.
func (c *BadgerCache) Lookup(serverID string) (State, error) {
	var item sessionItem
	if err := c.bh.Get(serverID, &item); err == badgerhold.ErrNotFound {
		return State{}, ErrNotFound
	} else if err != nil {
		return State{}, err
	}

	if err := c.bh.Delete(serverID, sessionItem{}); err != nil {
		return State{}, err
	}

	state := State{
		Ticket:              item.Ticket,
		TransportParameters: item.TransportParameters,
		Created:             item.Created,
		Expires:             item.Expires,
	}
	if state.expired(time.Now()) {
		return State{}, ErrNotFound
	}
	return state, nil
}

// DeleteExpired removes all expired session states.
func (c *BadgerCache) DeleteExpired() {
	var items []sessionItem
	if err := c.bh.Find(&items, badgerhold.Where("Expires").Lt(time.Now())); err != nil {
		log.WithError(err).Warn("Failed to get expired session states")
		return
	}

	for _, item := range items {
		logger := log.WithField("server", item.ServerID)
		if err := c.bh.Delete(item.ServerID, sessionItem{}); err != nil {
			logger.WithError(err).Warn("Failed to delete expired session state")
		} else {
			logger.Info("Deleted expired session state")
		}
	}
}

// Close releases the backend.
func (c *BadgerCache) Close() error {
	return c.bh.Close()
}
