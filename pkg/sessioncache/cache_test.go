// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sessioncache

import (
	"bytes"
	"testing"
	"time"
)

func testCache(t *testing.T, c Cache) {
	state := State{
		Ticket:              []byte("ticket"),
		TransportParameters: []byte("params"),
		Created:             time.Now(),
		Expires:             time.Now().Add(time.Hour),
	}

	if _, err := c.Lookup("example.org"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := c.Insert("example.org", state); err != nil {
		t.Fatal(err)
	}

	got, err := c.Lookup("example.org")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Ticket, state.Ticket) || !bytes.Equal(got.TransportParameters, state.TransportParameters) {
		t.Fatalf("stored state was mangled: %v", got)
	}

	// Tickets are single use; the lookup must have consumed the entry.
	if _, err := c.Lookup("example.org"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after consuming the ticket, got %v", err)
	}

	// A second Insert replaces the first.
	if err := c.Insert("example.org", state); err != nil {
		t.Fatal(err)
	}
	replacement := state
	replacement.Ticket = []byte("fresher ticket")
	if err := c.Insert("example.org", replacement); err != nil {
		t.Fatal(err)
	}
	if got, err := c.Lookup("example.org"); err != nil {
		t.Fatal(err)
	} else if !bytes.Equal(got.Ticket, replacement.Ticket) {
		t.Fatalf("expected the replacement ticket, got %q", got.Ticket)
	}

	// Expired entries are invisible.
	stale := state
	stale.Expires = time.Now().Add(-time.Minute)
	if err := c.Insert("example.org", stale); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lookup("example.org"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for an expired entry, got %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryCache(t *testing.T) {
	testCache(t, NewMemoryCache())
}

func TestBadgerCache(t *testing.T) {
	c, err := NewBadgerCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	testCache(t, c)
}

func TestBadgerCacheDeleteExpired(t *testing.T) {
	c, err := NewBadgerCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Insert("stale.example.org", State{
		Ticket:  []byte("old"),
		Created: time.Now().Add(-2 * time.Hour),
		Expires: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.Insert("fresh.example.org", State{
		Ticket:  []byte("new"),
		Created: time.Now(),
		Expires: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	c.DeleteExpired()

	if _, err := c.Lookup("stale.example.org"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for the purged entry, got %v", err)
	}
	if _, err := c.Lookup("fresh.example.org"); err != nil {
		t.Fatal(err)
	}
}
