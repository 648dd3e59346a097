// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/h3caps/h3caps-go/pkg/capsule"
)

func TestWebSocketListenerSessions(t *testing.T) {
	listener, err := ListenWebSocket("localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	client, err := DialWebSocket(fmt.Sprintf("ws://%v/capsules", listener.Addr()))
	if err != nil {
		t.Fatal(err)
	}

	var server *Session
	select {
	case server = <-listener.Sessions():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the server session")
	}

	// Exchange a capsule in each direction; WebSocket message boundaries
	// must not disturb the capsule framing.
	if err := client.Send(capsule.NewDatagramCapsule([]byte("over websocket"))); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-server.In():
		if !c.Equal(capsule.NewDatagramCapsule([]byte("over websocket"))) {
			t.Fatalf("unexpected capsule %s", c)
		}
	case err := <-server.Err():
		t.Fatal(err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the capsule")
	}

	if err := server.Send(capsule.NewCloseSessionCapsule(1, "bye")); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-client.In():
		if !c.Equal(capsule.NewCloseSessionCapsule(1, "bye")) {
			t.Fatalf("unexpected capsule %s", c)
		}
	case err := <-client.Err():
		t.Fatal(err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the CLOSE_SESSION capsule")
	}

	_ = client.Close()
	_ = server.Close()
}

func TestWebSocketListenerNotFound(t *testing.T) {
	listener, err := ListenWebSocket("localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	// Only /capsules is routed.
	resp, err := http.Get(fmt.Sprintf("http://%v/elsewhere", listener.Addr()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}
