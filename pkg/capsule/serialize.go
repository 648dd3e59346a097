// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch indicates that a Capsule's MarshalPayload wrote fewer
// bytes than its PayloadLen computed. This is a defect within the capsule
// implementation itself, not a protocol error, and callers should treat it
// as such.
var ErrLengthMismatch = errors.New("serialized length differs from computed length")

// SerializeCapsule encodes a Capsule into its wire format: the varint type
// code, the varint payload length and the payload fields.
//
// The buffer is sized up front from PayloadLen, so the payload is written
// exactly once without growing allocations. A Writer overrun or leftover
// space afterwards surfaces as an error wrapping ErrLengthMismatch.
func SerializeCapsule(c Capsule) ([]byte, error) {
	payloadLen := c.PayloadLen()
	total := VarintLen(uint64(c.Type())) + VarintLen(uint64(payloadLen)) + payloadLen

	w := NewWriter(make([]byte, total))
	if err := w.WriteVarint(uint64(c.Type())); err != nil {
		return nil, fmt.Errorf("writing type of %s: %w", c, err)
	}
	if err := w.WriteVarint(uint64(payloadLen)); err != nil {
		return nil, fmt.Errorf("writing payload length of %s: %w", c, err)
	}

	if err := c.MarshalPayload(w); err != nil {
		if errors.Is(err, ErrWriterOverrun) {
			return nil, fmt.Errorf("serializing %s: %w", c, ErrLengthMismatch)
		}
		return nil, fmt.Errorf("serializing %s: %w", c, err)
	}

	if w.Remaining() != 0 {
		return nil, fmt.Errorf("serializing %s left %d spare bytes: %w", c, w.Remaining(), ErrLengthMismatch)
	}

	return w.Bytes(), nil
}
