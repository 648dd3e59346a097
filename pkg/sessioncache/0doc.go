// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sessioncache stores TLS session state between connections, keyed by
// server identifier. Tickets are single use: a successful Lookup removes the
// returned state, so each resumption attempt consumes its ticket.
//
// Two backends exist, a process local MemoryCache and a BadgerCache persisting
// across restarts.
package sessioncache
