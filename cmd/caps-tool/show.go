// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/h3caps/h3caps-go/pkg/capsule"
)

// xzMagic are the leading bytes of every xz stream.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// printVisitor prints each capsule and remembers a failure for the exit code.
type printVisitor struct {
	index int
}

func (pv *printVisitor) OnCapsule(c capsule.Capsule) bool {
	fmt.Printf("%4d: %s\n", pv.index, c)
	pv.index++
	return true
}

func (pv *printVisitor) OnParseFailure(err error) {
	printFatal(err, "Parsing the capsule stream errored")
}

// showCapsules for the "show" CLI option.
func showCapsules(args []string) {
	if len(args) != 1 {
		printUsage()
	}

	var (
		input = args[0]

		err error
		f   io.ReadCloser
	)

	if input == "-" {
		f = os.Stdin
	} else if f, err = os.Open(input); err != nil {
		printFatal(err, "Opening file for reading errored")
	}

	data, err := ioutil.ReadAll(f)
	if err != nil {
		printFatal(err, "Reading input errored")
	}
	if err = f.Close(); err != nil {
		printFatal(err, "Closing file errored")
	}

	if bytes.HasPrefix(data, xzMagic) {
		xzR, xzErr := xz.NewReader(bytes.NewBuffer(data))
		if xzErr != nil {
			printFatal(xzErr, "Opening xz stream errored")
		}
		if data, err = ioutil.ReadAll(xzR); err != nil {
			printFatal(err, "Decompressing input errored")
		}
	}

	p := capsule.NewParser(&printVisitor{})
	if err = p.Ingest(data); err != nil {
		os.Exit(1)
	}
	if err = p.Finish(); err != nil {
		os.Exit(1)
	}
}
