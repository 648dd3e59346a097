// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package capsule implements the HTTP capsule protocol's framing layer: a
// sequence of self-describing, length-prefixed records multiplexed over a
// single byte stream, as used to carry datagrams, session-control signals
// and address negotiation messages inside an HTTP-transport session.
//
// The package provides the Capsule data model with one concrete type per
// known capsule, SerializeCapsule for outbound encoding, and an incremental
// Parser which tolerates arbitrary fragmentation of the underlying stream
// and delivers decoded Capsules to a caller-supplied Visitor.
package capsule
