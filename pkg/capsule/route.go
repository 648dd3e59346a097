// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// IPAddressRange is one record within a ROUTE_ADVERTISEMENT capsule: an
// inclusive address range plus an IP protocol number.
//
// On the wire a record is one family byte (4 or 6), the packed start
// address, the packed end address and one protocol byte. Both addresses
// share the record's single family tag.
type IPAddressRange struct {
	StartIP    netip.Addr
	EndIP      netip.Addr
	IPProtocol uint8
}

func (ar IPAddressRange) String() string {
	return fmt.Sprintf("(%s-%s-%d)", ar.StartIP, ar.EndIP, ar.IPProtocol)
}

func (ar IPAddressRange) wireLen() int {
	return 1 + 2*addressLen(ar.StartIP) + 1
}

func (ar IPAddressRange) marshal(w *Writer) error {
	if ar.StartIP.Is4() != ar.EndIP.Is4() {
		return fmt.Errorf("range %s mixes address families", ar)
	}

	if err := marshalAddress(w, ar.StartIP); err != nil {
		return err
	}

	// marshalAddress wrote the family byte once; the end address follows
	// packed, without a tag of its own.
	if ar.EndIP.Is4() {
		b := ar.EndIP.As4()
		if err := w.WriteBytes(b[:]); err != nil {
			return err
		}
	} else {
		b := ar.EndIP.As16()
		if err := w.WriteBytes(b[:]); err != nil {
			return err
		}
	}

	return w.WriteUint8(ar.IPProtocol)
}

func (ar IPAddressRange) checkValid() error {
	if !ar.StartIP.IsValid() || !ar.EndIP.IsValid() {
		return fmt.Errorf("range %s holds an invalid address", ar)
	}
	if ar.StartIP.Is4() != ar.EndIP.Is4() {
		return fmt.Errorf("range %s mixes address families", ar)
	}
	return nil
}

// unmarshalIPAddressRange reads one record; both addresses take their byte
// width from the record's single family tag.
func unmarshalIPAddressRange(r *Reader) (ar IPAddressRange, err error) {
	family, familyErr := r.ReadUint8()
	if familyErr != nil {
		err = fmt.Errorf("address family: %w", familyErr)
		return
	}

	var size int
	switch family {
	case 4:
		size = 4
	case 6:
		size = 16
	default:
		err = fmt.Errorf("address family %d is neither 4 nor 6", family)
		return
	}

	start, startErr := r.ReadBytes(size)
	if startErr != nil {
		err = fmt.Errorf("start address: %w", startErr)
		return
	}
	end, endErr := r.ReadBytes(size)
	if endErr != nil {
		err = fmt.Errorf("end address: %w", endErr)
		return
	}

	if family == 4 {
		ar.StartIP = netip.AddrFrom4(*(*[4]byte)(start))
		ar.EndIP = netip.AddrFrom4(*(*[4]byte)(end))
	} else {
		ar.StartIP = netip.AddrFrom16(*(*[16]byte)(start))
		ar.EndIP = netip.AddrFrom16(*(*[16]byte)(end))
	}

	if ar.IPProtocol, err = r.ReadUint8(); err != nil {
		err = fmt.Errorf("IP protocol: %w", err)
	}
	return
}

// RouteAdvertisementCapsule is a ROUTE_ADVERTISEMENT capsule: an ordered
// sequence of IPAddressRange records reachable through the sender.
type RouteAdvertisementCapsule struct {
	IPAddressRanges []IPAddressRange
}

// NewRouteAdvertisementCapsule creates a RouteAdvertisementCapsule for the
// given ranges.
func NewRouteAdvertisementCapsule(ranges []IPAddressRange) *RouteAdvertisementCapsule {
	return &RouteAdvertisementCapsule{IPAddressRanges: ranges}
}

// Type code of this Capsule.
func (c *RouteAdvertisementCapsule) Type() Type {
	return TypeRouteAdvertisement
}

// PayloadLen returns the encoded payload length.
func (c *RouteAdvertisementCapsule) PayloadLen() (length int) {
	for _, ar := range c.IPAddressRanges {
		length += ar.wireLen()
	}
	return
}

// MarshalPayload writes all records back to back.
func (c *RouteAdvertisementCapsule) MarshalPayload(w *Writer) error {
	for _, ar := range c.IPAddressRanges {
		if err := ar.marshal(w); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalPayload reads records until the payload scope is exhausted.
func (c *RouteAdvertisementCapsule) UnmarshalPayload(r *Reader) error {
	for !r.Empty() {
		ar, err := unmarshalIPAddressRange(r)
		if err != nil {
			return err
		}
		c.IPAddressRanges = append(c.IPAddressRanges, ar)
	}
	return nil
}

// Equal reports structural equality.
func (c *RouteAdvertisementCapsule) Equal(other Capsule) bool {
	o, ok := other.(*RouteAdvertisementCapsule)
	if !ok || len(c.IPAddressRanges) != len(o.IPAddressRanges) {
		return false
	}
	for i := range c.IPAddressRanges {
		if c.IPAddressRanges[i] != o.IPAddressRanges[i] {
			return false
		}
	}
	return true
}

// Copy returns a deep copy, including the record sequence.
func (c *RouteAdvertisementCapsule) Copy() Capsule {
	return &RouteAdvertisementCapsule{
		IPAddressRanges: append([]IPAddressRange(nil), c.IPAddressRanges...),
	}
}

// CheckValid checks each record and reports all violations.
func (c *RouteAdvertisementCapsule) CheckValid() (errs error) {
	for i, ar := range c.IPAddressRanges {
		if err := ar.checkValid(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return
}

func (c *RouteAdvertisementCapsule) String() string {
	var sb strings.Builder
	sb.WriteString("ROUTE_ADVERTISEMENT[")
	for _, ar := range c.IPAddressRanges {
		sb.WriteString(ar.String())
	}
	sb.WriteString("]")
	return sb.String()
}
