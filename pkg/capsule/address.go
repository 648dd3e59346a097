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

// PrefixWithID is one address record within an ADDRESS_REQUEST or
// ADDRESS_ASSIGN capsule: a request identifier together with an IP prefix.
//
// On the wire a record is the varint request id, one family byte (4 or 6),
// the packed address bytes and one prefix length byte. Records carry no
// length prefix of their own; the enclosing capsule's payload length bounds
// the sequence.
type PrefixWithID struct {
	RequestID uint64
	Prefix    netip.Prefix
}

func (p PrefixWithID) String() string {
	return fmt.Sprintf("(%d-%s)", p.RequestID, p.Prefix)
}

// wireLen returns this record's encoded length.
func (p PrefixWithID) wireLen() int {
	return VarintLen(p.RequestID) + 1 + addressLen(p.Prefix.Addr()) + 1
}

func (p PrefixWithID) marshal(w *Writer) error {
	if err := w.WriteVarint(p.RequestID); err != nil {
		return err
	}
	if err := marshalAddress(w, p.Prefix.Addr()); err != nil {
		return err
	}
	return w.WriteUint8(uint8(p.Prefix.Bits()))
}

func (p PrefixWithID) checkValid() error {
	if !p.Prefix.IsValid() {
		return fmt.Errorf("prefix %s is invalid", p.Prefix)
	}
	return nil
}

// unmarshalPrefixWithID reads one record, validating the address family and
// the prefix length against the address' bit width.
func unmarshalPrefixWithID(r *Reader) (p PrefixWithID, err error) {
	if p.RequestID, err = r.ReadVarint(); err != nil {
		err = fmt.Errorf("request id: %w", err)
		return
	}

	addr, addrErr := unmarshalAddress(r)
	if addrErr != nil {
		err = addrErr
		return
	}

	prefixLen, lenErr := r.ReadUint8()
	if lenErr != nil {
		err = fmt.Errorf("prefix length: %w", lenErr)
		return
	}
	if int(prefixLen) > addr.BitLen() {
		err = fmt.Errorf("prefix length %d exceeds %d bit address", prefixLen, addr.BitLen())
		return
	}

	p.Prefix = netip.PrefixFrom(addr, int(prefixLen))
	return
}

// addressLen returns the packed length of addr: four or sixteen bytes.
func addressLen(addr netip.Addr) int {
	if addr.Is4() {
		return 4
	}
	return 16
}

// marshalAddress writes the family byte followed by the packed address.
func marshalAddress(w *Writer, addr netip.Addr) error {
	if addr.Is4() {
		if err := w.WriteUint8(4); err != nil {
			return err
		}
		b := addr.As4()
		return w.WriteBytes(b[:])
	}

	if err := w.WriteUint8(6); err != nil {
		return err
	}
	b := addr.As16()
	return w.WriteBytes(b[:])
}

// unmarshalAddress reads a family byte and the family-sized packed address,
// failing on family values next to 4 and 6.
func unmarshalAddress(r *Reader) (netip.Addr, error) {
	family, err := r.ReadUint8()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("address family: %w", err)
	}

	switch family {
	case 4:
		raw, rawErr := r.ReadBytes(4)
		if rawErr != nil {
			return netip.Addr{}, fmt.Errorf("IPv4 address: %w", rawErr)
		}
		return netip.AddrFrom4(*(*[4]byte)(raw)), nil

	case 6:
		raw, rawErr := r.ReadBytes(16)
		if rawErr != nil {
			return netip.Addr{}, fmt.Errorf("IPv6 address: %w", rawErr)
		}
		return netip.AddrFrom16(*(*[16]byte)(raw)), nil

	default:
		return netip.Addr{}, fmt.Errorf("address family %d is neither 4 nor 6", family)
	}
}

// AddressRequestCapsule is an ADDRESS_REQUEST capsule: an ordered sequence
// of PrefixWithID records the peer asks to be assigned.
type AddressRequestCapsule struct {
	RequestedAddresses []PrefixWithID
}

// NewAddressRequestCapsule creates an AddressRequestCapsule for the records.
func NewAddressRequestCapsule(requested []PrefixWithID) *AddressRequestCapsule {
	return &AddressRequestCapsule{RequestedAddresses: requested}
}

// Type code of this Capsule.
func (c *AddressRequestCapsule) Type() Type {
	return TypeAddressRequest
}

// PayloadLen returns the encoded payload length.
func (c *AddressRequestCapsule) PayloadLen() int {
	return prefixRecordsLen(c.RequestedAddresses)
}

// MarshalPayload writes all records back to back.
func (c *AddressRequestCapsule) MarshalPayload(w *Writer) error {
	return marshalPrefixRecords(w, c.RequestedAddresses)
}

// UnmarshalPayload reads records until the payload scope is exhausted.
func (c *AddressRequestCapsule) UnmarshalPayload(r *Reader) error {
	records, err := unmarshalPrefixRecords(r)
	c.RequestedAddresses = records
	return err
}

// Equal reports structural equality.
func (c *AddressRequestCapsule) Equal(other Capsule) bool {
	o, ok := other.(*AddressRequestCapsule)
	return ok && prefixRecordsEqual(c.RequestedAddresses, o.RequestedAddresses)
}

// Copy returns a deep copy, including the record sequence.
func (c *AddressRequestCapsule) Copy() Capsule {
	return &AddressRequestCapsule{
		RequestedAddresses: append([]PrefixWithID(nil), c.RequestedAddresses...),
	}
}

// CheckValid checks each record and reports all violations.
func (c *AddressRequestCapsule) CheckValid() (errs error) {
	for i, p := range c.RequestedAddresses {
		if err := p.checkValid(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return
}

func (c *AddressRequestCapsule) String() string {
	return prefixRecordsString("ADDRESS_REQUEST", c.RequestedAddresses)
}

// AddressAssignCapsule is an ADDRESS_ASSIGN capsule: an ordered sequence of
// PrefixWithID records assigned to the peer.
type AddressAssignCapsule struct {
	AssignedAddresses []PrefixWithID
}

// NewAddressAssignCapsule creates an AddressAssignCapsule for the records.
func NewAddressAssignCapsule(assigned []PrefixWithID) *AddressAssignCapsule {
	return &AddressAssignCapsule{AssignedAddresses: assigned}
}

// Type code of this Capsule.
func (c *AddressAssignCapsule) Type() Type {
	return TypeAddressAssign
}

// PayloadLen returns the encoded payload length.
func (c *AddressAssignCapsule) PayloadLen() int {
	return prefixRecordsLen(c.AssignedAddresses)
}

// MarshalPayload writes all records back to back.
func (c *AddressAssignCapsule) MarshalPayload(w *Writer) error {
	return marshalPrefixRecords(w, c.AssignedAddresses)
}

// UnmarshalPayload reads records until the payload scope is exhausted.
func (c *AddressAssignCapsule) UnmarshalPayload(r *Reader) error {
	records, err := unmarshalPrefixRecords(r)
	c.AssignedAddresses = records
	return err
}

// Equal reports structural equality.
func (c *AddressAssignCapsule) Equal(other Capsule) bool {
	o, ok := other.(*AddressAssignCapsule)
	return ok && prefixRecordsEqual(c.AssignedAddresses, o.AssignedAddresses)
}

// Copy returns a deep copy, including the record sequence.
func (c *AddressAssignCapsule) Copy() Capsule {
	return &AddressAssignCapsule{
		AssignedAddresses: append([]PrefixWithID(nil), c.AssignedAddresses...),
	}
}

// CheckValid checks each record and reports all violations.
func (c *AddressAssignCapsule) CheckValid() (errs error) {
	for i, p := range c.AssignedAddresses {
		if err := p.checkValid(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return
}

func (c *AddressAssignCapsule) String() string {
	return prefixRecordsString("ADDRESS_ASSIGN", c.AssignedAddresses)
}

func prefixRecordsLen(records []PrefixWithID) (length int) {
	for _, p := range records {
		length += p.wireLen()
	}
	return
}

func marshalPrefixRecords(w *Writer, records []PrefixWithID) error {
	for _, p := range records {
		if err := p.marshal(w); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalPrefixRecords(r *Reader) (records []PrefixWithID, err error) {
	for !r.Empty() {
		var p PrefixWithID
		if p, err = unmarshalPrefixWithID(r); err != nil {
			return
		}
		records = append(records, p)
	}
	return
}

func prefixRecordsEqual(a, b []PrefixWithID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func prefixRecordsString(name string, records []PrefixWithID) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString("[")
	for _, p := range records {
		sb.WriteString(p.String())
	}
	sb.WriteString("]")
	return sb.String()
}
