// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"net/netip"
	"sync"

	"github.com/h3caps/h3caps-go/pkg/capsule"
)

// addressPool hands out addresses from one configured prefix.
type addressPool struct {
	prefix netip.Prefix

	mutex sync.Mutex
	next  netip.Addr
}

func newAddressPool(prefix netip.Prefix) *addressPool {
	prefix = prefix.Masked()
	return &addressPool{
		prefix: prefix,
		next:   prefix.Addr().Next(),
	}
}

// assign answers one requested record. A concrete request for an address
// inside the pool is granted as asked; everything else, including the empty
// "any address" request, gets the next free single address under the same
// request id.
func (p *addressPool) assign(requested capsule.PrefixWithID) (capsule.PrefixWithID, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if requested.Prefix.IsValid() &&
		p.prefix.Contains(requested.Prefix.Addr()) &&
		requested.Prefix.Bits() >= p.prefix.Bits() {
		return requested, nil
	}

	addr := p.next
	if !p.prefix.Contains(addr) {
		return capsule.PrefixWithID{}, fmt.Errorf("address pool %s is exhausted", p.prefix)
	}
	p.next = addr.Next()

	return capsule.PrefixWithID{
		RequestID: requested.RequestID,
		Prefix:    netip.PrefixFrom(addr, addr.BitLen()),
	}, nil
}
