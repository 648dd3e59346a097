// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/quic-go/quic-go"

	"github.com/h3caps/h3caps-go/pkg/transport/internal"
)

// quicStreamConn bundles a QUIC stream with its connection, so closing the
// capsule session also closes the connection underneath.
type quicStreamConn struct {
	stream quic.Stream
	conn   quic.Connection
}

func (qsc *quicStreamConn) Read(p []byte) (int, error) {
	return qsc.stream.Read(p)
}

func (qsc *quicStreamConn) Write(p []byte) (int, error) {
	return qsc.stream.Write(p)
}

func (qsc *quicStreamConn) Close() error {
	if err := qsc.stream.Close(); err != nil {
		return err
	}
	return qsc.conn.CloseWithError(0, "session closed")
}

// QUICListener accepts capsule sessions over QUIC, one session per incoming
// stream. The TLS setup uses a self-signed certificate; dialers are expected
// to skip verification.
type QUICListener struct {
	listenAddress string
	listener      *quic.Listener

	sessionChan chan *Session
}

// ListenQUIC on an UDP address like ":4433".
func ListenQUIC(listenAddress string) (*QUICListener, error) {
	listener, err := quic.ListenAddr(listenAddress,
		internal.GenerateSimpleListenerTLSConfig(), internal.GenerateQUICConfig())
	if err != nil {
		return nil, err
	}

	l := &QUICListener{
		listenAddress: listenAddress,
		listener:      listener,

		sessionChan: make(chan *Session),
	}
	go l.handle()

	return l, nil
}

func (l *QUICListener) handle() {
	logger := log.WithField("listener", l)
	logger.Info("Listening for QUIC capsule connections")

	for {
		conn, err := l.listener.Accept(context.Background())
		if err != nil {
			logger.WithError(err).Info("Closing down QUIC capsule listener")
			return
		}

		logger.WithField("peer", conn.RemoteAddr()).Info("Accepted QUIC connection")
		go l.handleConn(conn)
	}
}

func (l *QUICListener) handleConn(conn quic.Connection) {
	stream, err := conn.AcceptStream(context.Background())
	if err != nil {
		log.WithFields(log.Fields{
			"listener": l,
			"peer":     conn.RemoteAddr(),
		}).WithError(err).Warn("Accepting QUIC stream errored")
		return
	}

	l.sessionChan <- NewSession(
		&quicStreamConn{stream: stream, conn: conn},
		fmt.Sprintf("quic:%v", conn.RemoteAddr()))
}

// Sessions delivers each accepted stream as a running Session.
func (l *QUICListener) Sessions() <-chan *Session {
	return l.sessionChan
}

// Close down this QUICListener.
func (l *QUICListener) Close() error {
	return l.listener.Close()
}

func (l *QUICListener) String() string {
	return fmt.Sprintf("quic://%s", l.listenAddress)
}

// DialQUIC establishes a capsule Session to a remote QUICListener.
func DialQUIC(address string) (*Session, error) {
	conn, err := quic.DialAddr(context.Background(), address,
		internal.GenerateSimpleDialerTLSConfig(), internal.GenerateQUICConfig())
	if err != nil {
		return nil, err
	}

	stream, err := conn.OpenStreamSync(context.Background())
	if err != nil {
		_ = conn.CloseWithError(0, "no stream")
		return nil, err
	}

	return NewSession(
		&quicStreamConn{stream: stream, conn: conn},
		fmt.Sprintf("quic:%v", conn.RemoteAddr())), nil
}
