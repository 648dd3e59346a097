// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transport moves capsule streams over network connections. A Session
// wraps one bidirectional byte stream and speaks the capsule framing in both
// directions; listeners and dialers exist for plain TCP, WebSockets and QUIC.
package transport
