// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// printUsage of caps-tool and exit with an error code afterwards.
func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage of %s create|show|exchange:\n\n", os.Args[0])

	_, _ = fmt.Fprintf(os.Stderr, "%s create datagram -|filename capsule-file\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Creates a DATAGRAM capsule with the stdin (-) or the given file (filename)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  as its payload. The capsule will be saved as capsule-file.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s create close-session error-code error-message capsule-file\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Creates a CLOSE_SESSION capsule which will be saved as capsule-file.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s show -|filename\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Prints a human-readable version of the capsule stream within the given\n")
	_, _ = fmt.Fprintf(os.Stderr, "  file or stdin (-). xz compressed input is decompressed transparently.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s exchange websocket-url directory\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  %s connects to the given WebSocket capsule endpoint and writes received\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  datagrams into the directory. If the user drops a new file in the\n")
	_, _ = fmt.Fprintf(os.Stderr, "  directory, it will be sent as a DATAGRAM capsule.\n\n")

	os.Exit(1)
}

// printFatal logs the error together with a message and exits.
func printFatal(err error, msg string) {
	log.WithError(err).Fatal(msg)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
	}

	switch os.Args[1] {
	case "create":
		createCapsule(os.Args[2:])

	case "show":
		showCapsules(os.Args[2:])

	case "exchange":
		startExchange(os.Args[2:])

	default:
		printUsage()
	}
}
