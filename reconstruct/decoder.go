// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package reconstruct rebuilds genomic records from the decoded symbol
// columns of MPEG-G access units.
//
// A Decoder walks one access unit. Every record goes through the same chain
// of steps, each of which pulls symbols from the columns it owns:
//
//   segment counts (peeks PAIR)
//   clips          CLIPS, classes I and HM only
//   lengths        RLEN
//   alignments     MMAP
//   positions      POS
//   pairing        PAIR
//   strands        RCOMP
//   read group     RGROUP
//   scores         MSCORE
//   flags          FLAGS
//   sequence       reference bases under each splice
//
// The order is fixed: a step may depend on the cursor positions left by the
// previous ones. Decoding stops once the access unit's reads count is used up.
package reconstruct

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/grailbio/mpegg/accessunit"
	"github.com/grailbio/mpegg/descriptor"
	"github.com/grailbio/mpegg/encoding/reference"
	"github.com/grailbio/mpegg/encoding/symbols"
	"github.com/grailbio/mpegg/parameter"
)

// Step names, as reported in errors.
const (
	stepSegments   = "segment counts"
	stepClips      = "clips"
	stepLengths    = "lengths"
	stepAlignments = "alignments"
	stepPositions  = "positions"
	stepPairing    = "pairing"
	stepStrands    = "strands"
	stepReadGroup  = "read group"
	stepScores     = "scores"
	stepFlags      = "flags"
	stepSequence   = "sequence"
	stepEmit       = "emit"
)

// Decoder reconstructs the records of one access unit. It owns the cursors of
// the unit's symbol store. A Decoder is not thread safe.
type Decoder struct {
	unit   *accessunit.Unit
	params *parameter.View
	store  *symbols.Store
	ref    reference.Raw

	// prevPos0 is the position of the first alignment of the previous record.
	// POS deltas are relative to it.
	prevPos0 uint64
	// clippedRecords counts the class I and HM records seen so far; CLIPS
	// runs are keyed by it.
	clippedRecords uint64
	remaining      uint64
	nRecords       uint64
	hasFlags       bool

	rec *Record
	err error
}

// NewDecoder creates a decoder for u. Reconstruction starts at the current
// cursors of u.Symbols, which should all be at the first symbol; see
// accessunit.Unit.Clone. ref may be nil if sequences are not needed, in which
// case no spliced sequence is produced.
func NewDecoder(u *accessunit.Unit, ref reference.Raw) *Decoder {
	return &Decoder{
		unit:      u,
		params:    &u.Params,
		store:     u.Symbols,
		ref:       ref,
		remaining: u.ReadsCount,
		hasFlags:  u.Symbols.HasDescriptor(descriptor.FLAGS),
	}
}

// Scan decodes the next record. It returns false when the reads count of the
// access unit is used up or an error occurred; Err tells the two apart.
func (d *Decoder) Scan() bool {
	if d.err != nil || d.remaining == 0 {
		return false
	}
	rec := &Record{}
	if d.err = d.decode(rec); d.err != nil {
		d.rec = nil
		return false
	}
	d.rec = rec
	return true
}

// Record returns the record decoded by the last successful Scan. Each record
// is freshly allocated, so callers may keep it.
func (d *Decoder) Record() *Record { return d.rec }

// Err returns the error that stopped Scan, if any.
func (d *Decoder) Err() error { return d.err }

// NumRecords returns the number of records decoded so far.
func (d *Decoder) NumRecords() uint64 { return d.nRecords }

// PrevPosition returns the first-alignment position of the last record with
// one. Positions of the next record are delta coded against it.
func (d *Decoder) PrevPosition() uint64 { return d.prevPos0 }

func (d *Decoder) decode(rec *Record) error {
	rec.reset(d.unit.ID, d.nRecords, d.unit.SequenceID)
	for _, step := range []func(*Record) error{
		d.decodeSegmentCounts,
		d.decodeClips,
		d.decodeLengths,
		d.decodeAlignments,
		d.decodePositions,
		d.decodePairing,
		d.decodeStrands,
		d.decodeReadGroup,
		d.decodeScores,
		d.decodeFlags,
		d.decodeSequence,
	} {
		if err := step(rec); err != nil {
			return err
		}
	}
	n := uint64(rec.Segments.Record)
	if n > d.remaining {
		return d.errorf(stepEmit, MalformedStream, "record has %d segments, only %d reads left", n, d.remaining)
	}
	d.remaining -= n
	d.nRecords++
	return nil
}

// Run decodes every remaining record of the access unit and hands them to
// sink in order. It stops at the first error. ctx is checked between records.
func (d *Decoder) Run(ctx context.Context, sink RecordSink) error {
	for d.Scan() {
		if err := sink.Accept(d.Record()); err != nil {
			return err
		}
		if d.nRecords%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if err := d.Err(); err != nil {
		log.Error.Printf("%v: %v", d.unit.Header, err)
		return err
	}
	log.Debug.Printf("%v: decoded %d records", d.unit.Header, d.nRecords)
	return nil
}
