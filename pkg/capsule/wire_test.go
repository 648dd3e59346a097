// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"bytes"
	"errors"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	tests := []struct {
		value uint64
		data  []byte
	}{
		{0, []byte{0x00}},
		{37, []byte{0x25}},
		{63, []byte{0x3F}},
		{64, []byte{0x40, 0x40}},
		{15293, []byte{0x7B, 0xBD}},
		{16383, []byte{0x7F, 0xFF}},
		{16384, []byte{0x80, 0x00, 0x40, 0x00}},
		{494878333, []byte{0x9D, 0x7F, 0x3E, 0x7D}},
		{1073741823, []byte{0xBF, 0xFF, 0xFF, 0xFF}},
		{1073741824, []byte{0xC0, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00}},
		{151288809941952652, []byte{0xC2, 0x19, 0x7C, 0x5E, 0xFF, 0x14, 0xE8, 0x8C}},
		{MaxVarint, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, test := range tests {
		if l := VarintLen(test.value); l != len(test.data) {
			t.Fatalf("VarintLen(%d) = %d, expected %d", test.value, l, len(test.data))
		}

		w := NewWriter(make([]byte, len(test.data)))
		if err := w.WriteVarint(test.value); err != nil {
			t.Fatal(err)
		} else if !bytes.Equal(w.Bytes(), test.data) {
			t.Fatalf("WriteVarint(%d) = %x, expected %x", test.value, w.Bytes(), test.data)
		}

		r := NewReader(test.data)
		if v, err := r.ReadVarint(); err != nil {
			t.Fatal(err)
		} else if v != test.value {
			t.Fatalf("ReadVarint(%x) = %d, expected %d", test.data, v, test.value)
		} else if !r.Empty() {
			t.Fatalf("Reader has %d bytes left after %x", r.Len(), test.data)
		}
	}
}

func TestVarintNonMinimalDecode(t *testing.T) {
	// A two byte encoding of a value fitting in one byte must still decode.
	r := NewReader([]byte{0x40, 0x25})
	if v, err := r.ReadVarint(); err != nil {
		t.Fatal(err)
	} else if v != 37 {
		t.Fatalf("expected 37, got %d", v)
	}
}

func TestVarintTooLarge(t *testing.T) {
	w := NewWriter(make([]byte, 8))
	if err := w.WriteVarint(MaxVarint + 1); !errors.Is(err, ErrVarintTooLarge) {
		t.Fatalf("expected ErrVarintTooLarge, got %v", err)
	}
}

func TestReaderNotEnoughData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(r *Reader) error
	}{
		{"varint empty", []byte{}, func(r *Reader) error {
			_, err := r.ReadVarint()
			return err
		}},
		{"varint truncated", []byte{0xC0, 0x00, 0x00}, func(r *Reader) error {
			_, err := r.ReadVarint()
			return err
		}},
		{"uint8 empty", []byte{}, func(r *Reader) error {
			_, err := r.ReadUint8()
			return err
		}},
		{"uint32 truncated", []byte{0x11, 0x22, 0x33}, func(r *Reader) error {
			_, err := r.ReadUint32()
			return err
		}},
		{"bytes truncated", []byte{0x01, 0x02}, func(r *Reader) error {
			_, err := r.ReadBytes(3)
			return err
		}},
	}

	for _, test := range tests {
		r := NewReader(test.data)
		if err := test.read(r); !errors.Is(err, ErrNotEnoughData) {
			t.Fatalf("%s: expected ErrNotEnoughData, got %v", test.name, err)
		} else if r.Len() != len(test.data) {
			t.Fatalf("%s: failed read consumed bytes, %d of %d left",
				test.name, r.Len(), len(test.data))
		}
	}
}

func TestReaderSequence(t *testing.T) {
	data := []byte{
		// varint 15293:
		0x7B, 0xBD,
		// uint8:
		0x2A,
		// uint32:
		0xDE, 0xAD, 0xBE, 0xEF,
		// three raw bytes:
		0x01, 0x02, 0x03,
		// remainder:
		0xFF, 0xFE,
	}

	r := NewReader(data)
	if v, err := r.ReadVarint(); err != nil || v != 15293 {
		t.Fatalf("varint: %d, %v", v, err)
	}
	if v, err := r.ReadUint8(); err != nil || v != 0x2A {
		t.Fatalf("uint8: %d, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("uint32: %x, %v", v, err)
	}
	if v, err := r.ReadBytes(3); err != nil || !bytes.Equal(v, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("bytes: %x, %v", v, err)
	}
	if v := r.ReadRemainder(); !bytes.Equal(v, []byte{0xFF, 0xFE}) {
		t.Fatalf("remainder: %x", v)
	}
	if !r.Empty() {
		t.Fatal("Reader is not empty after ReadRemainder")
	}
}

func TestWriterOverrun(t *testing.T) {
	w := NewWriter(make([]byte, 2))
	if err := w.WriteUint8(0x01); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUint32(0x02030405); !errors.Is(err, ErrWriterOverrun) {
		t.Fatalf("expected ErrWriterOverrun, got %v", err)
	}
	if err := w.WriteBytes([]byte{0x02, 0x03}); !errors.Is(err, ErrWriterOverrun) {
		t.Fatalf("expected ErrWriterOverrun, got %v", err)
	}
	if err := w.WriteUint8(0x02); err != nil {
		t.Fatal(err)
	}
	if w.Remaining() != 0 {
		t.Fatalf("expected a full Writer, %d bytes remaining", w.Remaining())
	}
}
