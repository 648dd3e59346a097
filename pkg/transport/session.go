// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/h3caps/h3caps-go/pkg/capsule"
)

// Session speaks the capsule framing over one bidirectional byte stream.
// Incoming capsules are decoded by a capsule.Parser and handed out over the
// In channel; Send serializes and writes outgoing capsules.
type Session struct {
	conn    io.ReadWriteCloser
	address string

	parser  *capsule.Parser
	inChan  chan capsule.Capsule
	errChan chan error

	outMutex sync.Mutex

	// finished is accessed by sync.atomic functions; zero means running,
	// everything else indicates a finished state
	finished  uint32
	closeOnce sync.Once
}

// NewSession wraps an established connection. The address is used for logging
// and should identify the peer.
func NewSession(conn io.ReadWriteCloser, address string) (s *Session) {
	s = &Session{
		conn:    conn,
		address: address,

		inChan:  make(chan capsule.Capsule, 32),
		errChan: make(chan error, 1),
	}
	s.parser = capsule.NewParser(s)

	go s.handleIn()

	return
}

// OnCapsule hands a decoded capsule to the In channel. The capsule is copied
// because it borrows the parser's buffer.
func (s *Session) OnCapsule(c capsule.Capsule) bool {
	if atomic.LoadUint32(&s.finished) != 0 {
		return false
	}

	s.inChan <- c.Copy()
	return true
}

// OnParseFailure surfaces a structural stream failure on the Err channel.
func (s *Session) OnParseFailure(err error) {
	s.sendErr(err)
}

func (s *Session) sendErr(err error) {
	if atomic.CompareAndSwapUint32(&s.finished, 0, 1) {
		s.errChan <- err
	}
}

// handleIn pumps the connection into the parser until EOF or an error.
func (s *Session) handleIn() {
	defer close(s.inChan)

	buf := make([]byte, 4096)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			if ingestErr := s.parser.Ingest(buf[:n]); ingestErr != nil {
				// The parser already delivered the failure through
				// OnParseFailure.
				return
			}
		}

		if errors.Is(err, io.EOF) {
			if finishErr := s.parser.Finish(); finishErr != nil {
				return
			}
			s.logger().Debug("Stream reached its end")
			return
		} else if err != nil {
			if atomic.LoadUint32(&s.finished) == 0 {
				s.logger().WithError(err).Debug("Reading from the connection errored")
			}
			s.sendErr(err)
			return
		}
	}
}

// Send serializes one capsule and writes it to the peer. Concurrent calls are
// serialized; capsules never interleave on the wire.
func (s *Session) Send(c capsule.Capsule) error {
	if atomic.LoadUint32(&s.finished) != 0 {
		return errors.New("session is closed")
	}

	data, err := capsule.SerializeCapsule(c)
	if err != nil {
		return err
	}

	s.outMutex.Lock()
	defer s.outMutex.Unlock()

	_, err = s.conn.Write(data)
	return err
}

// In is the channel of received capsules, closed when the stream ends.
func (s *Session) In() <-chan capsule.Capsule {
	return s.inChan
}

// Err delivers at most one terminal error: a parse failure or a connection
// error. A clean EOF produces no error, only a closed In channel.
func (s *Session) Err() <-chan error {
	return s.errChan
}

// Close shuts the Session and its connection down.
func (s *Session) Close() (err error) {
	s.closeOnce.Do(func() {
		s.logger().Info("Closing down")

		atomic.StoreUint32(&s.finished, 1)
		err = s.conn.Close()
	})
	return
}

// Address identifies the peer, e.g., "tcp:192.0.2.1:4423".
func (s *Session) Address() string {
	return s.address
}

func (s *Session) String() string {
	return s.address
}

// logger returns a new logrus.Entry for this Session.
func (s *Session) logger() *log.Entry {
	return log.WithField("session", s.address)
}
