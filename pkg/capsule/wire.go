// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"encoding/binary"
	"errors"
)

// MaxVarint is the greatest value representable as a variable-length integer,
// which uses two bits of its first byte for the length prefix.
const MaxVarint uint64 = 1<<62 - 1

var (
	// ErrNotEnoughData is returned by a Reader whose remaining bytes cannot
	// satisfy the requested read. At the top level of a capsule this means
	// "wait for more input"; inside a payload scope it is a framing error.
	ErrNotEnoughData = errors.New("not enough data")

	// ErrVarintTooLarge is returned when a value exceeds MaxVarint.
	ErrVarintTooLarge = errors.New("value exceeds the 62 bit varint range")

	// ErrWriterOverrun is returned when a write exceeds the Writer's buffer.
	ErrWriterOverrun = errors.New("write exceeds the buffer's capacity")
)

// VarintLen returns the encoded length of v as a variable-length integer:
// one, two, four or eight bytes, selected by magnitude.
func VarintLen(v uint64) int {
	switch {
	case v < 1<<6:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<30:
		return 4
	default:
		return 8
	}
}

// Reader is a bounded cursor over one byte slice. All reads consume from the
// front; a read past the end returns ErrNotEnoughData and consumes nothing.
type Reader struct {
	data []byte
}

// NewReader creates a Reader over the given bytes. The Reader aliases data
// and does not copy it.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data)
}

// Empty reports whether this Reader's scope is exhausted.
func (r *Reader) Empty() bool {
	return len(r.data) == 0
}

// ReadVarint reads a variable-length integer. The two most significant bits
// of the first byte select an encoded length of 1, 2, 4 or 8 bytes.
func (r *Reader) ReadVarint() (uint64, error) {
	if len(r.data) == 0 {
		return 0, ErrNotEnoughData
	}

	length := 1 << (r.data[0] >> 6)
	if len(r.data) < length {
		return 0, ErrNotEnoughData
	}

	v := uint64(r.data[0] & 0x3F)
	for i := 1; i < length; i++ {
		v = v<<8 | uint64(r.data[i])
	}

	r.data = r.data[length:]
	return v, nil
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if len(r.data) < 1 {
		return 0, ErrNotEnoughData
	}

	v := r.data[0]
	r.data = r.data[1:]
	return v, nil
}

// ReadUint32 reads a big-endian 32 bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if len(r.data) < 4 {
		return 0, ErrNotEnoughData
	}

	v := binary.BigEndian.Uint32(r.data)
	r.data = r.data[4:]
	return v, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the Reader's
// underlying storage.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || len(r.data) < n {
		return nil, ErrNotEnoughData
	}

	v := r.data[:n]
	r.data = r.data[n:]
	return v, nil
}

// ReadRemainder consumes and returns all unread bytes of this Reader's
// scope. It never fails; an exhausted scope yields an empty slice.
func (r *Reader) ReadRemainder() []byte {
	v := r.data
	r.data = nil
	return v
}

// Writer fills one preallocated byte slice from the front. Writes past the
// buffer's end fail with ErrWriterOverrun and change nothing; a correctly
// sized buffer is the caller's job, compare SerializeCapsule.
type Writer struct {
	data []byte
	off  int
}

// NewWriter creates a Writer over the given buffer.
func NewWriter(buf []byte) *Writer {
	return &Writer{data: buf}
}

// Remaining returns the number of unwritten bytes left in the buffer.
func (w *Writer) Remaining() int {
	return len(w.data) - w.off
}

// Bytes returns the Writer's whole underlying buffer.
func (w *Writer) Bytes() []byte {
	return w.data
}

// WriteVarint writes v as a variable-length integer.
func (w *Writer) WriteVarint(v uint64) error {
	if v > MaxVarint {
		return ErrVarintTooLarge
	}

	length := VarintLen(v)
	if w.Remaining() < length {
		return ErrWriterOverrun
	}

	for i := length - 1; i >= 0; i-- {
		w.data[w.off+i] = byte(v)
		v >>= 8
	}

	switch length {
	case 2:
		w.data[w.off] |= 0x40
	case 4:
		w.data[w.off] |= 0x80
	case 8:
		w.data[w.off] |= 0xC0
	}

	w.off += length
	return nil
}

// WriteUint8 writes one byte.
func (w *Writer) WriteUint8(v uint8) error {
	if w.Remaining() < 1 {
		return ErrWriterOverrun
	}

	w.data[w.off] = v
	w.off++
	return nil
}

// WriteUint32 writes a big-endian 32 bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	if w.Remaining() < 4 {
		return ErrWriterOverrun
	}

	binary.BigEndian.PutUint32(w.data[w.off:], v)
	w.off += 4
	return nil
}

// WriteBytes writes p verbatim.
func (w *Writer) WriteBytes(p []byte) error {
	if w.Remaining() < len(p) {
		return ErrWriterOverrun
	}

	copy(w.data[w.off:], p)
	w.off += len(p)
	return nil
}
