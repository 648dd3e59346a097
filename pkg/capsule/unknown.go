// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"bytes"
	"fmt"
)

// UnknownCapsule carries a capsule of a type code outside the known set.
// Both the raw type value and the raw payload are preserved verbatim, so
// unknown capsules round-trip byte-exact.
type UnknownCapsule struct {
	RawType Type
	Payload []byte
}

// NewUnknownCapsule creates an UnknownCapsule from a raw type code and raw
// payload bytes. The type value is retained even if it collides with a
// reserved range.
func NewUnknownCapsule(rawType uint64, payload []byte) *UnknownCapsule {
	return &UnknownCapsule{
		RawType: Type(rawType),
		Payload: payload,
	}
}

// Type returns the verbatim raw type code.
func (c *UnknownCapsule) Type() Type {
	return c.RawType
}

// PayloadLen returns the encoded payload length.
func (c *UnknownCapsule) PayloadLen() int {
	return len(c.Payload)
}

// MarshalPayload writes the raw payload bytes.
func (c *UnknownCapsule) MarshalPayload(w *Writer) error {
	return w.WriteBytes(c.Payload)
}

// UnmarshalPayload takes the remainder of the payload scope verbatim.
func (c *UnknownCapsule) UnmarshalPayload(r *Reader) error {
	c.Payload = r.ReadRemainder()
	return nil
}

// Equal reports structural equality, including the raw type value.
func (c *UnknownCapsule) Equal(other Capsule) bool {
	o, ok := other.(*UnknownCapsule)
	return ok && c.RawType == o.RawType && bytes.Equal(c.Payload, o.Payload)
}

// Copy returns a deep copy.
func (c *UnknownCapsule) Copy() Capsule {
	return &UnknownCapsule{
		RawType: c.RawType,
		Payload: append([]byte(nil), c.Payload...),
	}
}

// CheckValid always succeeds; unknown capsules are opaque.
func (c *UnknownCapsule) CheckValid() error {
	return nil
}

func (c *UnknownCapsule) String() string {
	return fmt.Sprintf("%s[%x]", c.RawType, c.Payload)
}
