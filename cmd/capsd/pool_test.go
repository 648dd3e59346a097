// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"net/netip"
	"testing"

	"github.com/h3caps/h3caps-go/pkg/capsule"
)

func TestAddressPoolAssign(t *testing.T) {
	pool := newAddressPool(netip.MustParsePrefix("192.0.2.0/30"))

	// A concrete in-pool request is granted verbatim.
	wanted := capsule.PrefixWithID{
		RequestID: 7,
		Prefix:    netip.MustParsePrefix("192.0.2.2/32"),
	}
	if got, err := pool.assign(wanted); err != nil {
		t.Fatal(err)
	} else if got != wanted {
		t.Fatalf("expected %s, got %s", wanted, got)
	}

	// Empty requests get consecutive single addresses.
	for i, expected := range []string{"192.0.2.1/32", "192.0.2.2/32", "192.0.2.3/32"} {
		got, err := pool.assign(capsule.PrefixWithID{RequestID: uint64(i)})
		if err != nil {
			t.Fatal(err)
		}
		if got.Prefix != netip.MustParsePrefix(expected) {
			t.Fatalf("assignment %d: expected %s, got %s", i, expected, got.Prefix)
		}
		if got.RequestID != uint64(i) {
			t.Fatalf("assignment %d: request id %d was not kept", i, got.RequestID)
		}
	}

	// A /30 holds no further addresses.
	if _, err := pool.assign(capsule.PrefixWithID{}); err == nil {
		t.Fatal("expected the pool to be exhausted")
	}

	// Out-of-pool requests fall back to pool addresses, which are gone too.
	if _, err := pool.assign(capsule.PrefixWithID{
		Prefix: netip.MustParsePrefix("198.51.100.1/32"),
	}); err == nil {
		t.Fatal("expected the pool to be exhausted")
	}
}
