// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
)

// TCPListener accepts capsule sessions on a TCP port.
type TCPListener struct {
	listenAddress string
	ln            *net.TCPListener

	sessionChan chan *Session

	closeSyn chan struct{}
	closeAck chan struct{}
}

// ListenTCP on an address like ":4423" or "localhost:4423".
func ListenTCP(listenAddress string) (*TCPListener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", listenAddress)
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, err
	}

	l := &TCPListener{
		listenAddress: listenAddress,
		ln:            ln,

		sessionChan: make(chan *Session),

		closeSyn: make(chan struct{}),
		closeAck: make(chan struct{}),
	}
	go l.handler()

	return l, nil
}

// handler for the TCPListener's accept loop.
func (l *TCPListener) handler() {
	logger := log.WithField("listener", l)
	logger.Info("Starting TCP capsule listener")

	defer func() {
		logger.Info("Closing down TCP capsule listener")
		close(l.closeAck)

		if err := l.ln.Close(); err != nil {
			logger.WithError(err).Warn("Closing TCP listener errored")
		}
	}()

	for {
		select {
		case <-l.closeSyn:
			return

		default:
			if deadlineErr := l.ln.SetDeadline(time.Now().Add(50 * time.Millisecond)); deadlineErr != nil {
				logger.WithError(deadlineErr).Error("Setting deadline on TCP socket errored")
				return
			} else if conn, connErr := l.ln.Accept(); connErr == nil {
				l.sessionChan <- NewSession(conn, fmt.Sprintf("tcp:%v", conn.RemoteAddr()))
			}
		}
	}
}

// Sessions delivers each accepted connection as a running Session.
func (l *TCPListener) Sessions() <-chan *Session {
	return l.sessionChan
}

// Addr is the bound local address, useful when listening on port zero.
func (l *TCPListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close down this TCPListener.
func (l *TCPListener) Close() error {
	close(l.closeSyn)
	<-l.closeAck
	return nil
}

func (l *TCPListener) String() string {
	return fmt.Sprintf("tcp://%s", l.listenAddress)
}

// DialTCP establishes a capsule Session to a remote TCPListener.
func DialTCP(address string) (*Session, error) {
	conn, err := dial(address)
	if err != nil {
		return nil, err
	}
	return NewSession(conn, fmt.Sprintf("tcp:%v", conn.RemoteAddr())), nil
}
