// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package capsule

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// DefaultMaxBufferSize is the ceiling on buffered-but-undecoded bytes a
// Parser accepts before it treats the stream as withholding data.
const DefaultMaxBufferSize = 1024 * 1024

// ErrParserFailed is returned by Ingest and Finish after the Parser has
// entered its terminal failed state.
var ErrParserFailed = errors.New("parser has failed and accepts no more data")

// Visitor receives the Parser's output. Both callbacks run synchronously
// from within Ingest respectively Finish on the caller's goroutine.
type Visitor interface {
	// OnCapsule is called once per decoded Capsule, in stream order. The
	// Capsule borrows the Parser's buffer until the next Ingest call;
	// implementations retaining it must use Capsule.Copy. Returning false
	// aborts parsing as a structural failure.
	OnCapsule(c Capsule) bool

	// OnParseFailure is called exactly once, the first time a structural
	// failure occurs. The Parser is a dead end afterwards.
	OnParseFailure(err error)
}

// Parser incrementally decodes a capsule stream from arbitrarily fragmented
// input. Fragments are buffered until one whole capsule is available, which
// is then decoded and handed to the Visitor.
//
// After any structural failure the Parser stays failed; capsule boundaries
// cannot be rediscovered after a framing error, so callers needing to
// recover must create a new Parser over a new stream.
type Parser struct {
	// MaxBufferSize bounds the buffered undecoded bytes, checked after
	// each Ingest. Exceeding it is a structural failure. Must not be
	// changed after the first Ingest call.
	MaxBufferSize int

	visitor Visitor
	buf     []byte
	failed  bool
}

// NewParser creates a Parser delivering to the given Visitor.
func NewParser(visitor Visitor) *Parser {
	return &Parser{
		MaxBufferSize: DefaultMaxBufferSize,
		visitor:       visitor,
	}
}

// Ingest appends one fragment of the byte stream and decodes as many whole
// capsules as the buffered data yields, invoking the Visitor for each. An
// incomplete capsule at the buffer's end is kept for the next call.
//
// A fragment may hold zero, one or many capsules and need not align with
// capsule boundaries in any way.
func (p *Parser) Ingest(fragment []byte) error {
	if p.failed {
		return ErrParserFailed
	}

	p.buf = append(p.buf, fragment...)
	for len(p.buf) > 0 {
		consumed, err := p.attemptParse()
		if err != nil {
			p.fail(err)
			return err
		}
		if consumed == 0 {
			break
		}
		p.buf = p.buf[consumed:]
	}

	if len(p.buf) > p.MaxBufferSize {
		err := fmt.Errorf("refusing to buffer %d bytes of capsule data, ceiling is %d",
			len(p.buf), p.MaxBufferSize)
		p.fail(err)
		return err
	}

	return nil
}

// Finish signals the end of the byte stream. Leftover buffered bytes mean a
// capsule was truncated, which is a structural failure; otherwise, and after
// an earlier failure, Finish does nothing.
func (p *Parser) Finish() error {
	if p.failed {
		return nil
	}

	if len(p.buf) != 0 {
		err := errors.New("incomplete capsule left at the end of the stream")
		p.fail(err)
		return err
	}
	return nil
}

// attemptParse tries to decode one capsule from the buffer's front. It
// returns the number of consumed bytes, zero meaning "not enough data yet",
// or a structural error.
func (p *Parser) attemptParse() (int, error) {
	r := NewReader(p.buf)

	typeVal, err := r.ReadVarint()
	if err != nil {
		log.Debug("Partial read: not enough data for the capsule type")
		return 0, nil
	}

	payloadLen, err := r.ReadVarint()
	if err != nil {
		log.WithField("type", Type(typeVal)).Debug(
			"Partial read: not enough data for the payload length")
		return 0, nil
	}
	if payloadLen > uint64(r.Len()) {
		log.WithFields(log.Fields{
			"type":     Type(typeVal),
			"claimed":  payloadLen,
			"buffered": r.Len(),
		}).Debug("Partial read: capsule payload is not complete yet")
		return 0, nil
	}

	payload, _ := r.ReadBytes(int(payloadLen))

	c := NewCapsule(Type(typeVal))
	if err := c.UnmarshalPayload(NewReader(payload)); err != nil {
		return 0, fmt.Errorf("parsing %s capsule: %w", Type(typeVal), err)
	}

	if !p.visitor.OnCapsule(c) {
		return 0, fmt.Errorf("visitor rejected %s capsule", Type(typeVal))
	}

	return len(p.buf) - r.Len(), nil
}

// fail moves the Parser into its terminal state, drops the buffer and
// notifies the Visitor. A second invocation would be a defect within the
// Parser itself and is logged instead of being delivered again.
func (p *Parser) fail(err error) {
	if p.failed {
		log.WithError(err).Error("Capsule parse failure was reported twice")
		return
	}

	p.failed = true
	p.buf = nil
	p.visitor.OnParseFailure(err)
}
