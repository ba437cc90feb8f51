// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"bytes"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/mpegg/descriptor"
	"github.com/grailbio/mpegg/encoding/symbols"
)

// Kind classifies reconstruction failures. Every kind is fatal for the access
// unit being decoded.
type Kind int

const (
	// Other is an error not raised by the engine itself, e.g., a sink error.
	Other Kind = iota
	// ColumnExhausted: a symbol was pulled past the end of its column.
	ColumnExhausted
	// SpliceLengthMismatch: splice lengths overshot the segment length.
	SpliceLengthMismatch
	// UnsupportedPairingMode: a PAIR mode outside 0..6.
	UnsupportedPairingMode
	// ReferenceOutOfRange: a sequence slice outside the reference excerpt,
	// or a splice without a mapping position.
	ReferenceOutOfRange
	// MalformedStream: any other structural inconsistency in the symbols.
	MalformedStream
)

var kindNames = [...]string{"other", "column exhausted", "splice length mismatch",
	"unsupported pairing mode", "reference out of range", "malformed stream"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind%d", int(k))
}

// Error describes a failure to reconstruct a record.
type Error struct {
	Kind Kind
	// AU is the access-unit id.
	AU uint64
	// Record is the index of the failing record within the access unit.
	Record uint64
	// Step names the decode step, e.g., "mmap".
	Step string
	// HasColumn is set when Descriptor and Subsequence name the column
	// being read.
	HasColumn   bool
	Descriptor  descriptor.ID
	Subsequence int
	Err         error
}

// Error implements error.
func (e *Error) Error() string {
	buf := bytes.Buffer{}
	fmt.Fprintf(&buf, "AU %d record %d: %s", e.AU, e.Record, e.Step)
	if e.HasColumn {
		fmt.Fprintf(&buf, " (%v,%d)", e.Descriptor, e.Subsequence)
	}
	fmt.Fprintf(&buf, ": %v", e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&buf, ": %v", e.Err)
	}
	return buf.String()
}

// IsKind reports whether err, or an error it wraps, is a reconstruction error
// of kind k.
func IsKind(err error, k Kind) bool {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Kind == k
		case *errors.Error:
			err = e.Err
		default:
			return false
		}
	}
	return false
}

func (d *Decoder) errorf(step string, kind Kind, format string, args ...interface{}) error {
	return &Error{
		Kind:   kind,
		AU:     d.unit.ID,
		Record: d.nRecords,
		Step:   step,
		Err:    fmt.Errorf(format, args...),
	}
}

func (d *Decoder) columnError(step string, kind Kind, id descriptor.ID, sub int, err error) error {
	return &Error{
		Kind:        kind,
		AU:          d.unit.ID,
		Record:      d.nRecords,
		Step:        step,
		HasColumn:   true,
		Descriptor:  id,
		Subsequence: sub,
		Err:         err,
	}
}

// pull reads the next symbol of (id, sub) on behalf of step.
func (d *Decoder) pull(step string, id descriptor.ID, sub int) (uint64, error) {
	v, err := d.store.Pull(id, sub)
	if err != nil {
		return 0, d.exhausted(step, id, sub, err)
	}
	return v, nil
}

func (d *Decoder) exhausted(step string, id descriptor.ID, sub int, err error) error {
	if _, ok := err.(*symbols.ExhaustedError); ok {
		return d.columnError(step, ColumnExhausted, id, sub, err)
	}
	return d.columnError(step, Other, id, sub, err)
}
