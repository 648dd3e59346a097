// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"bytes"
	"fmt"
)

// DatagramCapsule is a DATAGRAM capsule. Its payload is one opaque HTTP
// Datagram filling the whole capsule payload without further framing.
type DatagramCapsule struct {
	Payload []byte
}

// NewDatagramCapsule creates a DatagramCapsule for the given payload.
func NewDatagramCapsule(payload []byte) *DatagramCapsule {
	return &DatagramCapsule{Payload: payload}
}

// Type code of this Capsule.
func (c *DatagramCapsule) Type() Type {
	return TypeDatagram
}

// PayloadLen returns the encoded payload length.
func (c *DatagramCapsule) PayloadLen() int {
	return len(c.Payload)
}

// MarshalPayload writes the datagram bytes.
func (c *DatagramCapsule) MarshalPayload(w *Writer) error {
	return w.WriteBytes(c.Payload)
}

// UnmarshalPayload takes the remainder of the payload scope as the datagram.
func (c *DatagramCapsule) UnmarshalPayload(r *Reader) error {
	c.Payload = r.ReadRemainder()
	return nil
}

// Equal reports structural equality.
func (c *DatagramCapsule) Equal(other Capsule) bool {
	o, ok := other.(*DatagramCapsule)
	return ok && bytes.Equal(c.Payload, o.Payload)
}

// Copy returns a deep copy.
func (c *DatagramCapsule) Copy() Capsule {
	return &DatagramCapsule{Payload: append([]byte(nil), c.Payload...)}
}

// CheckValid always succeeds; every byte string is a valid datagram.
func (c *DatagramCapsule) CheckValid() error {
	return nil
}

func (c *DatagramCapsule) String() string {
	return fmt.Sprintf("DATAGRAM[%x]", c.Payload)
}

// LegacyDatagramCapsule is a DATAGRAM capsule under its earlier draft type
// code. The payload layout equals DatagramCapsule's.
type LegacyDatagramCapsule struct {
	Payload []byte
}

// NewLegacyDatagramCapsule creates a LegacyDatagramCapsule for the payload.
func NewLegacyDatagramCapsule(payload []byte) *LegacyDatagramCapsule {
	return &LegacyDatagramCapsule{Payload: payload}
}

// Type code of this Capsule.
func (c *LegacyDatagramCapsule) Type() Type {
	return TypeLegacyDatagram
}

// PayloadLen returns the encoded payload length.
func (c *LegacyDatagramCapsule) PayloadLen() int {
	return len(c.Payload)
}

// MarshalPayload writes the datagram bytes.
func (c *LegacyDatagramCapsule) MarshalPayload(w *Writer) error {
	return w.WriteBytes(c.Payload)
}

// UnmarshalPayload takes the remainder of the payload scope as the datagram.
func (c *LegacyDatagramCapsule) UnmarshalPayload(r *Reader) error {
	c.Payload = r.ReadRemainder()
	return nil
}

// Equal reports structural equality.
func (c *LegacyDatagramCapsule) Equal(other Capsule) bool {
	o, ok := other.(*LegacyDatagramCapsule)
	return ok && bytes.Equal(c.Payload, o.Payload)
}

// Copy returns a deep copy.
func (c *LegacyDatagramCapsule) Copy() Capsule {
	return &LegacyDatagramCapsule{Payload: append([]byte(nil), c.Payload...)}
}

// CheckValid always succeeds.
func (c *LegacyDatagramCapsule) CheckValid() error {
	return nil
}

func (c *LegacyDatagramCapsule) String() string {
	return fmt.Sprintf("LEGACY_DATAGRAM[%x]", c.Payload)
}

// LegacyDatagramWithoutContextCapsule is a DATAGRAM capsule under the draft
// type code which dropped context identifiers. The payload layout equals
// DatagramCapsule's.
type LegacyDatagramWithoutContextCapsule struct {
	Payload []byte
}

// NewLegacyDatagramWithoutContextCapsule creates this capsule for a payload.
func NewLegacyDatagramWithoutContextCapsule(payload []byte) *LegacyDatagramWithoutContextCapsule {
	return &LegacyDatagramWithoutContextCapsule{Payload: payload}
}

// Type code of this Capsule.
func (c *LegacyDatagramWithoutContextCapsule) Type() Type {
	return TypeLegacyDatagramWithoutContext
}

// PayloadLen returns the encoded payload length.
func (c *LegacyDatagramWithoutContextCapsule) PayloadLen() int {
	return len(c.Payload)
}

// MarshalPayload writes the datagram bytes.
func (c *LegacyDatagramWithoutContextCapsule) MarshalPayload(w *Writer) error {
	return w.WriteBytes(c.Payload)
}

// UnmarshalPayload takes the remainder of the payload scope as the datagram.
func (c *LegacyDatagramWithoutContextCapsule) UnmarshalPayload(r *Reader) error {
	c.Payload = r.ReadRemainder()
	return nil
}

// Equal reports structural equality.
func (c *LegacyDatagramWithoutContextCapsule) Equal(other Capsule) bool {
	o, ok := other.(*LegacyDatagramWithoutContextCapsule)
	return ok && bytes.Equal(c.Payload, o.Payload)
}

// Copy returns a deep copy.
func (c *LegacyDatagramWithoutContextCapsule) Copy() Capsule {
	return &LegacyDatagramWithoutContextCapsule{Payload: append([]byte(nil), c.Payload...)}
}

// CheckValid always succeeds.
func (c *LegacyDatagramWithoutContextCapsule) CheckValid() error {
	return nil
}

func (c *LegacyDatagramWithoutContextCapsule) String() string {
	return fmt.Sprintf("LEGACY_DATAGRAM_WITHOUT_CONTEXT[%x]", c.Payload)
}
