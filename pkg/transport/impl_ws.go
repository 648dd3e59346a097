// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/h3caps/h3caps-go/pkg/httpheader"
)

// webSocketConn adapts a *websocket.Conn of binary messages to the
// io.ReadWriteCloser a Session expects. Message boundaries carry no meaning;
// the capsule framing restores them.
type webSocketConn struct {
	conn   *websocket.Conn
	reader io.Reader
}

func (wsc *webSocketConn) Read(p []byte) (int, error) {
	for {
		if wsc.reader == nil {
			mt, r, err := wsc.conn.NextReader()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			} else if err != nil {
				return 0, err
			} else if mt != websocket.BinaryMessage {
				return 0, fmt.Errorf("expected message type %d instead of %d", websocket.BinaryMessage, mt)
			}
			wsc.reader = r
		}

		n, err := wsc.reader.Read(p)
		if err == io.EOF {
			wsc.reader = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

func (wsc *webSocketConn) Write(p []byte) (int, error) {
	if err := wsc.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (wsc *webSocketConn) Close() error {
	return wsc.conn.Close()
}

// WebSocketListener accepts capsule sessions over WebSocket connections on
// the /capsules endpoint of an embedded HTTP server. Request header fields
// are validated before the connection is upgraded.
type WebSocketListener struct {
	router     *mux.Router
	httpServer *http.Server
	ln         net.Listener
	upgrader   websocket.Upgrader

	sessionChan chan *Session
}

// ListenWebSocket on an address like ":8080".
func ListenWebSocket(listenAddress string) (*WebSocketListener, error) {
	ln, err := net.Listen("tcp", listenAddress)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	l := &WebSocketListener{
		router:     router,
		httpServer: &http.Server{Handler: router},
		ln:         ln,
		upgrader:   websocket.Upgrader{},

		sessionChan: make(chan *Session),
	}
	router.HandleFunc("/capsules", l.handleCapsules).Methods(http.MethodGet)

	go func() {
		if serveErr := l.httpServer.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			log.WithField("listener", l).WithError(serveErr).Error("HTTP server errored")
		}
	}()

	return l, nil
}

// handleCapsules validates the request's header fields and upgrades the
// connection to a WebSocket capsule session.
func (l *WebSocketListener) handleCapsules(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{
		"listener": l,
		"peer":     r.RemoteAddr,
	})

	v := httpheader.NewValidator()
	for name, values := range r.Header {
		for _, value := range values {
			if err := v.ValidateHeaderField(strings.ToLower(name), value); err != nil {
				logger.WithError(err).Warn("Rejecting request with a malformed header field")
				http.Error(w, "malformed header field", http.StatusBadRequest)
				return
			}
		}
	}

	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("Upgrading connection errored")
		return
	}

	l.sessionChan <- NewSession(
		&webSocketConn{conn: conn},
		fmt.Sprintf("ws:%v", conn.RemoteAddr()))
}

// Sessions delivers each upgraded connection as a running Session.
func (l *WebSocketListener) Sessions() <-chan *Session {
	return l.sessionChan
}

// Addr is the bound local address, useful when listening on port zero.
func (l *WebSocketListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close down this WebSocketListener.
func (l *WebSocketListener) Close() error {
	return l.httpServer.Close()
}

func (l *WebSocketListener) String() string {
	return fmt.Sprintf("ws://%v", l.ln.Addr())
}

// DialWebSocket establishes a capsule Session to a remote WebSocketListener,
// addressed by a URL like "ws://localhost:8080/capsules".
func DialWebSocket(address string) (*Session, error) {
	conn, _, err := websocket.DefaultDialer.Dial(address, nil)
	if err != nil {
		return nil, err
	}
	return NewSession(
		&webSocketConn{conn: conn},
		fmt.Sprintf("ws:%v", conn.RemoteAddr())), nil
}
