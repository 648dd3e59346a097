// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package httpheader

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// BlockType distinguishes the kinds of header blocks, which differ in their
// mandatory pseudo-headers.
type BlockType int

const (
	// Request is an HTTP request's initial header block.
	Request BlockType = iota

	// RequestTrailer is a trailing header block on a request.
	RequestTrailer

	// Response is an HTTP response's final header block.
	Response

	// Response100 is an informational 1xx response header block.
	Response100

	// ResponseTrailer is a trailing header block on a response.
	ResponseTrailer
)

func (bt BlockType) String() string {
	switch bt {
	case Request:
		return "request"
	case RequestTrailer:
		return "request trailer"
	case Response:
		return "response"
	case Response100:
		return "informational response"
	case ResponseTrailer:
		return "response trailer"
	default:
		return fmt.Sprintf("BlockType(%d)", int(bt))
	}
}

// Validator checks one header block at a time. StartHeaderBlock resets the
// state, each field passes through ValidateHeaderField, and FinishHeaderBlock
// rules on the block as a whole.
//
// A Validator is not safe for concurrent use.
type Validator struct {
	pseudoSeen map[string]bool
	status     string
}

// NewValidator creates a Validator with an empty block started.
func NewValidator() *Validator {
	v := &Validator{}
	v.StartHeaderBlock()
	return v
}

// StartHeaderBlock resets the Validator for the next header block.
func (v *Validator) StartHeaderBlock() {
	v.pseudoSeen = make(map[string]bool)
	v.status = ""
}

// ValidateHeaderField checks one field. Names must be non-empty and both name
// and value must be free of NUL, CR and LF; empty values are fine. Valid
// pseudo-headers are recorded for FinishHeaderBlock.
func (v *Validator) ValidateHeaderField(name, value string) error {
	if name == "" {
		return fmt.Errorf("header field name is empty")
	}
	if i := strings.IndexAny(name, "\x00\r\n"); i != -1 {
		return fmt.Errorf("header field name %q holds a forbidden 0x%02x byte", name, name[i])
	}
	if i := strings.IndexAny(value, "\x00\r\n"); i != -1 {
		return fmt.Errorf("header field %q value holds a forbidden 0x%02x byte", name, value[i])
	}

	if strings.HasPrefix(name, ":") {
		v.pseudoSeen[name] = true
		if name == ":status" {
			v.status = value
		}
	}
	return nil
}

// FinishHeaderBlock checks that the block carries the pseudo-headers its kind
// demands: requests need :method, :scheme and :path, responses need :status,
// trailers need nothing. All missing pseudo-headers are reported together.
func (v *Validator) FinishHeaderBlock(bt BlockType) (errs error) {
	var required []string
	switch bt {
	case Request:
		required = []string{":method", ":scheme", ":path"}
	case Response, Response100:
		required = []string{":status"}
	case RequestTrailer, ResponseTrailer:
	}

	for _, name := range required {
		if !v.pseudoSeen[name] {
			errs = multierror.Append(errs, fmt.Errorf("%s block misses the %s pseudo-header", bt, name))
		}
	}
	return
}

// Status returns the last :status value of the current block, or an empty
// string if none was seen.
func (v *Validator) Status() string {
	return v.status
}
