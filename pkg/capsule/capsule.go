// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"fmt"
)

// Type is a capsule's type code, an unsigned integer within the 62 bit
// varint range. Values outside the known set below are carried verbatim as
// UnknownCapsules.
type Type uint64

const (
	// TypeDatagram is a DATAGRAM capsule carrying one HTTP Datagram.
	TypeDatagram Type = 0x00

	// TypeCloseSession is a CLOSE_SESSION capsule terminating the session
	// with an error code and message.
	TypeCloseSession Type = 0x2843

	// TypeLegacyDatagram is a DATAGRAM capsule from an earlier draft.
	TypeLegacyDatagram Type = 0xFF37A0

	// TypeLegacyDatagramWithoutContext is a DATAGRAM capsule from the
	// draft revision which dropped context identifiers.
	TypeLegacyDatagramWithoutContext Type = 0xFF37A5

	// TypeAddressAssign is an ADDRESS_ASSIGN capsule listing IP prefixes
	// assigned to the peer.
	TypeAddressAssign Type = 0x1ECA6A00

	// TypeAddressRequest is an ADDRESS_REQUEST capsule listing IP prefixes
	// the peer asks for.
	TypeAddressRequest Type = 0x1ECA6A01

	// TypeRouteAdvertisement is a ROUTE_ADVERTISEMENT capsule listing IP
	// ranges reachable through the sender.
	TypeRouteAdvertisement Type = 0x1ECA6A02
)

func (t Type) String() string {
	switch t {
	case TypeDatagram:
		return "DATAGRAM"
	case TypeCloseSession:
		return "CLOSE_SESSION"
	case TypeLegacyDatagram:
		return "LEGACY_DATAGRAM"
	case TypeLegacyDatagramWithoutContext:
		return "LEGACY_DATAGRAM_WITHOUT_CONTEXT"
	case TypeAddressAssign:
		return "ADDRESS_ASSIGN"
	case TypeAddressRequest:
		return "ADDRESS_REQUEST"
	case TypeRouteAdvertisement:
		return "ROUTE_ADVERTISEMENT"
	default:
		return fmt.Sprintf("Unknown(%d)", uint64(t))
	}
}

// Capsule describes all kinds of capsules, which have their payload
// serialization and deserialization in common. Every Capsule holds exactly
// one variant's payload, selected by its type code.
type Capsule interface {
	// Type code of this Capsule.
	Type() Type

	// PayloadLen returns the exact encoded length of this Capsule's
	// payload without writing it.
	PayloadLen() int

	// MarshalPayload writes this Capsule's payload fields into a Writer
	// sized by PayloadLen.
	MarshalPayload(w *Writer) error

	// UnmarshalPayload reads this Capsule's payload fields from a Reader
	// bounded to exactly the capsule's payload scope.
	UnmarshalPayload(r *Reader) error

	// Equal reports structural equality. Capsules of different type codes
	// are never equal.
	Equal(other Capsule) bool

	// Copy returns a deep copy owning all of its storage. Capsules handed
	// out by a Parser borrow the parser's buffer and must be copied before
	// being retained past the visitor callback.
	Copy() Capsule

	// CheckValid returns an error for payloads which cannot be represented
	// on the wire, e.g. mixed address families within one range record.
	CheckValid() error

	fmt.Stringer
}

// NewCapsule creates an empty Capsule for the given type code. Codes outside
// the known set yield an UnknownCapsule preserving the raw type value.
func NewCapsule(t Type) Capsule {
	switch t {
	case TypeDatagram:
		return &DatagramCapsule{}
	case TypeCloseSession:
		return &CloseSessionCapsule{}
	case TypeLegacyDatagram:
		return &LegacyDatagramCapsule{}
	case TypeLegacyDatagramWithoutContext:
		return &LegacyDatagramWithoutContextCapsule{}
	case TypeAddressAssign:
		return &AddressAssignCapsule{}
	case TypeAddressRequest:
		return &AddressRequestCapsule{}
	case TypeRouteAdvertisement:
		return &RouteAdvertisementCapsule{}
	default:
		return &UnknownCapsule{RawType: t}
	}
}
