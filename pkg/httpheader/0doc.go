// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package httpheader validates HTTP header blocks before they are accepted
// into a capsule session. The checks are deliberately minimal: field values
// must be free of the characters which break wire framing, and each block
// kind must carry its mandatory pseudo-headers.
package httpheader
