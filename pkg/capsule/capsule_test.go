// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"bytes"
	"errors"
	"net/netip"
	"testing"
)

// decodeSingle runs one wire image through a Parser and expects exactly one
// Capsule back.
func decodeSingle(t *testing.T, data []byte) Capsule {
	t.Helper()

	var cv collectVisitor
	p := NewParser(&cv)
	if err := p.Ingest(data); err != nil {
		t.Fatalf("Ingest(%x): %v", data, err)
	}
	if err := p.Finish(); err != nil {
		t.Fatalf("Finish after %x: %v", data, err)
	}
	if len(cv.capsules) != 1 {
		t.Fatalf("expected one capsule from %x, got %d", data, len(cv.capsules))
	}
	return cv.capsules[0]
}

func TestCapsuleWireFormat(t *testing.T) {
	tests := []struct {
		capsule Capsule
		data    []byte
	}{
		{
			NewDatagramCapsule([]byte{0xCA, 0xFE}),
			[]byte{
				// type DATAGRAM, payload length 2:
				0x00, 0x02,
				// datagram:
				0xCA, 0xFE,
			},
		},
		{
			NewDatagramCapsule(nil),
			[]byte{
				// type DATAGRAM, payload length 0:
				0x00, 0x00,
			},
		},
		{
			NewCloseSessionCapsule(0x11223344, "bye"),
			[]byte{
				// type CLOSE_SESSION as a two byte varint:
				0x68, 0x43,
				// payload length 7:
				0x07,
				// error code:
				0x11, 0x22, 0x33, 0x44,
				// error message "bye":
				0x62, 0x79, 0x65,
			},
		},
		{
			NewLegacyDatagramCapsule([]byte{0x23}),
			[]byte{
				// type LEGACY_DATAGRAM as a four byte varint:
				0x80, 0xFF, 0x37, 0xA0,
				// payload length 1:
				0x01,
				// datagram:
				0x23,
			},
		},
		{
			NewLegacyDatagramWithoutContextCapsule(nil),
			[]byte{
				// type LEGACY_DATAGRAM_WITHOUT_CONTEXT, payload length 0:
				0x80, 0xFF, 0x37, 0xA5, 0x00,
			},
		},
		{
			NewAddressRequestCapsule([]PrefixWithID{
				{RequestID: 1, Prefix: netip.MustParsePrefix("192.0.2.1/32")},
			}),
			[]byte{
				// type ADDRESS_REQUEST as a four byte varint:
				0x9E, 0xCA, 0x6A, 0x01,
				// payload length 7:
				0x07,
				// request id 1, family 4:
				0x01, 0x04,
				// 192.0.2.1:
				0xC0, 0x00, 0x02, 0x01,
				// prefix length 32:
				0x20,
			},
		},
		{
			NewAddressAssignCapsule([]PrefixWithID{
				{RequestID: 5, Prefix: netip.MustParsePrefix("2001:db8::1/128")},
			}),
			[]byte{
				// type ADDRESS_ASSIGN as a four byte varint:
				0x9E, 0xCA, 0x6A, 0x00,
				// payload length 19:
				0x13,
				// request id 5, family 6:
				0x05, 0x06,
				// 2001:db8::1:
				0x20, 0x01, 0x0D, 0xB8, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
				// prefix length 128:
				0x80,
			},
		},
		{
			NewAddressRequestCapsule(nil),
			[]byte{
				// type ADDRESS_REQUEST, payload length 0:
				0x9E, 0xCA, 0x6A, 0x01, 0x00,
			},
		},
		{
			NewRouteAdvertisementCapsule([]IPAddressRange{
				{
					StartIP:    netip.MustParseAddr("0.0.0.0"),
					EndIP:      netip.MustParseAddr("255.255.255.255"),
					IPProtocol: 0,
				},
				{
					StartIP:    netip.MustParseAddr("::"),
					EndIP:      netip.MustParseAddr("::1"),
					IPProtocol: 17,
				},
			}),
			[]byte{
				// type ROUTE_ADVERTISEMENT as a four byte varint:
				0x9E, 0xCA, 0x6A, 0x02,
				// payload length 44:
				0x2C,
				// family 4, 0.0.0.0 - 255.255.255.255, any protocol:
				0x04,
				0x00, 0x00, 0x00, 0x00,
				0xFF, 0xFF, 0xFF, 0xFF,
				0x00,
				// family 6, :: - ::1, UDP:
				0x06,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
				0x11,
			},
		},
		{
			NewUnknownCapsule(0x17, []byte("abc")),
			[]byte{
				// type 0x17, payload length 3:
				0x17, 0x03,
				// opaque payload "abc":
				0x61, 0x62, 0x63,
			},
		},
		{
			NewUnknownCapsule(0x123456789, nil),
			[]byte{
				// type 0x123456789 as an eight byte varint:
				0xC0, 0x00, 0x00, 0x01, 0x23, 0x45, 0x67, 0x89,
				// payload length 0:
				0x00,
			},
		},
	}

	for _, test := range tests {
		data, err := SerializeCapsule(test.capsule)
		if err != nil {
			t.Fatalf("serializing %s: %v", test.capsule, err)
		}
		if !bytes.Equal(data, test.data) {
			t.Fatalf("serializing %s:\ngot      %x\nexpected %x", test.capsule, data, test.data)
		}

		parsed := decodeSingle(t, test.data)
		if !parsed.Equal(test.capsule) {
			t.Fatalf("parsed %s differs from %s", parsed, test.capsule)
		}
		if err := parsed.CheckValid(); err != nil {
			t.Fatalf("parsed %s is invalid: %v", parsed, err)
		}

		cp := test.capsule.Copy()
		if !cp.Equal(test.capsule) || cp.Type() != test.capsule.Type() {
			t.Fatalf("copy of %s differs from its original", test.capsule)
		}
	}
}

func TestCapsuleEqualAcrossTypes(t *testing.T) {
	// Same payload bytes under different type codes must not compare equal.
	capsules := []Capsule{
		NewDatagramCapsule([]byte{0x42}),
		NewLegacyDatagramCapsule([]byte{0x42}),
		NewLegacyDatagramWithoutContextCapsule([]byte{0x42}),
		NewUnknownCapsule(0x21, []byte{0x42}),
		NewUnknownCapsule(0x22, []byte{0x42}),
	}

	for i, a := range capsules {
		for j, b := range capsules {
			if (i == j) != a.Equal(b) {
				t.Fatalf("%s.Equal(%s) = %t", a, b, a.Equal(b))
			}
		}
	}
}

func TestCapsuleCopyIndependence(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}
	c := NewDatagramCapsule(payload)
	cp := c.Copy()

	payload[0] = 0xFF
	if cp.Equal(c) {
		t.Fatal("copy shares storage with its original")
	}
}

func TestCapsuleString(t *testing.T) {
	tests := []struct {
		capsule  Capsule
		expected string
	}{
		{NewDatagramCapsule([]byte{0xCA, 0xFE}), "DATAGRAM[cafe]"},
		{NewCloseSessionCapsule(404, "gone"), "CLOSE_SESSION(error_code=404,error_message=\"gone\")"},
		{
			NewAddressRequestCapsule([]PrefixWithID{
				{RequestID: 1, Prefix: netip.MustParsePrefix("192.0.2.1/32")},
			}),
			"ADDRESS_REQUEST[(1-192.0.2.1/32)]",
		},
		{
			NewRouteAdvertisementCapsule([]IPAddressRange{
				{
					StartIP:    netip.MustParseAddr("0.0.0.0"),
					EndIP:      netip.MustParseAddr("255.255.255.255"),
					IPProtocol: 0,
				},
			}),
			"ROUTE_ADVERTISEMENT[(0.0.0.0-255.255.255.255-0)]",
		},
		{NewUnknownCapsule(23, []byte("abc")), "Unknown(23)[616263]"},
	}

	for _, test := range tests {
		if s := test.capsule.String(); s != test.expected {
			t.Fatalf("expected %s, got %s", test.expected, s)
		}
	}
}

func TestCapsuleCheckValid(t *testing.T) {
	mixed := NewRouteAdvertisementCapsule([]IPAddressRange{
		{
			StartIP:    netip.MustParseAddr("0.0.0.0"),
			EndIP:      netip.MustParseAddr("::1"),
			IPProtocol: 0,
		},
	})
	if err := mixed.CheckValid(); err == nil {
		t.Fatal("mixed address families passed CheckValid")
	}
	if _, err := SerializeCapsule(mixed); err == nil {
		t.Fatal("mixed address families serialized")
	}

	zeroPrefix := NewAddressAssignCapsule([]PrefixWithID{{RequestID: 1}})
	if err := zeroPrefix.CheckValid(); err == nil {
		t.Fatal("zero value prefix passed CheckValid")
	}
}

// lyingCapsule understates its payload length, which must surface as an
// ErrLengthMismatch instead of silently truncated output.
type lyingCapsule struct {
	DatagramCapsule
	delta int
}

func (c *lyingCapsule) PayloadLen() int {
	return c.DatagramCapsule.PayloadLen() + c.delta
}

func TestSerializeLengthMismatch(t *testing.T) {
	for _, delta := range []int{-1, 1} {
		c := &lyingCapsule{
			DatagramCapsule: DatagramCapsule{Payload: []byte{0x01, 0x02}},
			delta:           delta,
		}
		if _, err := SerializeCapsule(c); !errors.Is(err, ErrLengthMismatch) {
			t.Fatalf("delta %d: expected ErrLengthMismatch, got %v", delta, err)
		}
	}
}

func TestNewCapsuleRegistry(t *testing.T) {
	for _, typ := range []Type{
		TypeDatagram,
		TypeCloseSession,
		TypeLegacyDatagram,
		TypeLegacyDatagramWithoutContext,
		TypeAddressAssign,
		TypeAddressRequest,
		TypeRouteAdvertisement,
	} {
		if c := NewCapsule(typ); c.Type() != typ {
			t.Fatalf("NewCapsule(%s) created a %s capsule", typ, c.Type())
		}
	}

	if c := NewCapsule(Type(0x1234)); c.Type() != Type(0x1234) {
		t.Fatalf("unknown type code was not preserved, got %s", c.Type())
	} else if _, ok := c.(*UnknownCapsule); !ok {
		t.Fatalf("expected an UnknownCapsule, got %T", c)
	}
}
