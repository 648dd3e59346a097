// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"fmt"
)

// CloseSessionCapsule is a CLOSE_SESSION capsule, terminating the session
// with a 32 bit error code and an error message filling the remaining
// capsule payload.
type CloseSessionCapsule struct {
	ErrorCode    uint32
	ErrorMessage string
}

// NewCloseSessionCapsule creates a CloseSessionCapsule with given fields.
func NewCloseSessionCapsule(errorCode uint32, errorMessage string) *CloseSessionCapsule {
	return &CloseSessionCapsule{
		ErrorCode:    errorCode,
		ErrorMessage: errorMessage,
	}
}

// Type code of this Capsule.
func (c *CloseSessionCapsule) Type() Type {
	return TypeCloseSession
}

// PayloadLen returns the encoded payload length.
func (c *CloseSessionCapsule) PayloadLen() int {
	return 4 + len(c.ErrorMessage)
}

// MarshalPayload writes the error code followed by the message bytes.
func (c *CloseSessionCapsule) MarshalPayload(w *Writer) error {
	if err := w.WriteUint32(c.ErrorCode); err != nil {
		return err
	}
	return w.WriteBytes([]byte(c.ErrorMessage))
}

// UnmarshalPayload reads the error code and takes the remainder of the
// payload scope as the error message.
func (c *CloseSessionCapsule) UnmarshalPayload(r *Reader) error {
	code, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("error code: %w", err)
	}

	c.ErrorCode = code
	c.ErrorMessage = string(r.ReadRemainder())
	return nil
}

// Equal reports structural equality.
func (c *CloseSessionCapsule) Equal(other Capsule) bool {
	o, ok := other.(*CloseSessionCapsule)
	return ok && c.ErrorCode == o.ErrorCode && c.ErrorMessage == o.ErrorMessage
}

// Copy returns a deep copy.
func (c *CloseSessionCapsule) Copy() Capsule {
	return &CloseSessionCapsule{
		ErrorCode:    c.ErrorCode,
		ErrorMessage: c.ErrorMessage,
	}
}

// CheckValid always succeeds.
func (c *CloseSessionCapsule) CheckValid() error {
	return nil
}

func (c *CloseSessionCapsule) String() string {
	return fmt.Sprintf("CLOSE_SESSION(error_code=%d,error_message=%q)", c.ErrorCode, c.ErrorMessage)
}
