// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"io/ioutil"
	"os"
	"strconv"

	"github.com/h3caps/h3caps-go/pkg/capsule"
)

// createCapsule for the "create" CLI option.
func createCapsule(args []string) {
	if len(args) < 1 {
		printUsage()
	}

	switch args[0] {
	case "datagram":
		createDatagram(args[1:])

	case "close-session":
		createCloseSession(args[1:])

	default:
		printUsage()
	}
}

func createDatagram(args []string) {
	if len(args) != 2 {
		printUsage()
	}

	var (
		dataInput = args[0]
		outName   = args[1]

		err  error
		data []byte
	)

	if dataInput == "-" {
		data, err = ioutil.ReadAll(os.Stdin)
	} else {
		data, err = ioutil.ReadFile(dataInput)
	}
	if err != nil {
		printFatal(err, "Reading input errored")
	}

	writeCapsuleFile(capsule.NewDatagramCapsule(data), outName)
}

func createCloseSession(args []string) {
	if len(args) != 3 {
		printUsage()
	}

	var (
		codeInput = args[0]
		message   = args[1]
		outName   = args[2]
	)

	code, err := strconv.ParseUint(codeInput, 10, 32)
	if err != nil {
		printFatal(err, "Parsing the error code errored")
	}

	writeCapsuleFile(capsule.NewCloseSessionCapsule(uint32(code), message), outName)
}

func writeCapsuleFile(c capsule.Capsule, outName string) {
	data, err := capsule.SerializeCapsule(c)
	if err != nil {
		printFatal(err, "Serializing the capsule errored")
	}

	if err := ioutil.WriteFile(outName, data, 0644); err != nil {
		printFatal(err, "Writing the capsule file errored")
	}
}
