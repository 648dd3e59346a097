// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/h3caps/h3caps-go/pkg/capsule"
	"github.com/h3caps/h3caps-go/pkg/sessioncache"
	"github.com/h3caps/h3caps-go/pkg/transport"
)

// leaseLifetime bounds how long an address assignment is kept for a
// reconnecting peer.
const leaseLifetime = time.Hour

// capsuleListener is the common surface of the transport listeners.
type capsuleListener interface {
	Sessions() <-chan *transport.Session
	Close() error

	fmt.Stringer
}

// daemon answers capsule sessions: address requests are served from the
// address pool, with assignments leased through the session cache so a
// reconnecting peer gets its addresses back.
type daemon struct {
	cache sessioncache.Cache
	pool  *addressPool

	listeners []capsuleListener
	stopChan  chan struct{}
	closeOnce sync.Once
}

func newDaemon(cache sessioncache.Cache, pool *addressPool) *daemon {
	d := &daemon{
		cache: cache,
		pool:  pool,

		stopChan: make(chan struct{}),
	}

	if bc, ok := cache.(*sessioncache.BadgerCache); ok {
		go d.houseKeeping(bc)
	}

	return d
}

// houseKeeping purges expired leases from a persistent cache.
func (d *daemon) houseKeeping(bc *sessioncache.BadgerCache) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			bc.DeleteExpired()
		}
	}
}

func (d *daemon) addListener(l capsuleListener) {
	log.WithField("listener", l).Info("Serving capsule sessions")

	d.listeners = append(d.listeners, l)
	go d.acceptLoop(l)
}

func (d *daemon) acceptLoop(l capsuleListener) {
	for {
		select {
		case <-d.stopChan:
			return
		case s, ok := <-l.Sessions():
			if !ok {
				return
			}
			go d.handleSession(s)
		}
	}
}

func (d *daemon) handleSession(s *transport.Session) {
	logger := log.WithField("session", s.Address())
	logger.Info("Session started")

	defer func() {
		_ = s.Close()
	}()

	for {
		select {
		case <-d.stopChan:
			return

		case err := <-s.Err():
			logger.WithError(err).Warn("Session errored")
			return

		case c, ok := <-s.In():
			if !ok {
				logger.Info("Session ended")
				return
			}
			if !d.handleCapsule(s, c, logger) {
				return
			}
		}
	}
}

// handleCapsule processes one received capsule; a false return ends the
// session.
func (d *daemon) handleCapsule(s *transport.Session, c capsule.Capsule, logger *log.Entry) bool {
	switch c := c.(type) {
	case *capsule.AddressRequestCapsule:
		d.handleAddressRequest(s, c, logger)

	case *capsule.DatagramCapsule:
		logger.WithField("size", len(c.Payload)).Debug("Received datagram")

	case *capsule.LegacyDatagramCapsule:
		logger.WithField("size", len(c.Payload)).Debug("Received legacy datagram")

	case *capsule.LegacyDatagramWithoutContextCapsule:
		logger.WithField("size", len(c.Payload)).Debug("Received legacy datagram")

	case *capsule.RouteAdvertisementCapsule:
		logger.WithField("ranges", len(c.IPAddressRanges)).Info("Peer advertised routes")

	case *capsule.CloseSessionCapsule:
		logger.WithFields(log.Fields{
			"code":    c.ErrorCode,
			"message": c.ErrorMessage,
		}).Info("Peer closed the session")
		return false

	default:
		logger.WithField("type", c.Type()).Debug("Ignoring capsule of unknown type")
	}

	return true
}

func (d *daemon) handleAddressRequest(s *transport.Session, req *capsule.AddressRequestCapsule, logger *log.Entry) {
	assign := d.resumeLease(s.Address(), logger)

	if assign == nil {
		requested := req.RequestedAddresses
		if len(requested) == 0 {
			// An empty request asks for any one address.
			requested = []capsule.PrefixWithID{{}}
		}

		var records []capsule.PrefixWithID
		for _, r := range requested {
			record, err := d.pool.assign(r)
			if err != nil {
				logger.WithError(err).Warn("Assigning an address errored")
				continue
			}
			records = append(records, record)
		}

		assign = capsule.NewAddressAssignCapsule(records)
	}

	if err := s.Send(assign); err != nil {
		logger.WithError(err).Warn("Sending the address assignment errored")
		return
	}
	logger.WithField("assignment", assign).Info("Assigned addresses")

	d.storeLease(s.Address(), assign, logger)
}

// leaseKey reduces a session address like "tcp:192.0.2.1:54321" to the peer's
// host, so a reconnect from another port resumes the same lease.
func leaseKey(address string) string {
	hostPort := address
	if i := strings.Index(address, ":"); i != -1 {
		hostPort = address[i+1:]
	}

	if host, _, err := net.SplitHostPort(hostPort); err == nil {
		return host
	}
	return hostPort
}

func (d *daemon) resumeLease(address string, logger *log.Entry) *capsule.AddressAssignCapsule {
	state, err := d.cache.Lookup(leaseKey(address))
	if err != nil {
		return nil
	}

	assign := &capsule.AddressAssignCapsule{}
	if err := assign.UnmarshalPayload(capsule.NewReader(state.TransportParameters)); err != nil {
		logger.WithError(err).Warn("Decoding the stored lease errored")
		return nil
	}

	logger.Info("Resuming the peer's earlier lease")
	return assign
}

func (d *daemon) storeLease(address string, assign *capsule.AddressAssignCapsule, logger *log.Entry) {
	w := capsule.NewWriter(make([]byte, assign.PayloadLen()))
	if err := assign.MarshalPayload(w); err != nil {
		logger.WithError(err).Warn("Encoding the lease errored")
		return
	}

	now := time.Now()
	if err := d.cache.Insert(leaseKey(address), sessioncache.State{
		TransportParameters: w.Bytes(),
		Created:             now,
		Expires:             now.Add(leaseLifetime),
	}); err != nil {
		logger.WithError(err).Warn("Storing the lease errored")
	}
}

func (d *daemon) close() {
	d.closeOnce.Do(func() {
		close(d.stopChan)

		for _, l := range d.listeners {
			if err := l.Close(); err != nil {
				log.WithField("listener", l).WithError(err).Warn("Closing listener errored")
			}
		}

		if err := d.cache.Close(); err != nil {
			log.WithError(err).Warn("Closing session cache errored")
		}
	})
}
