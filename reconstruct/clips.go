// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"fmt"

	"github.com/grailbio/mpegg/descriptor"
)

// CLIPS type tokens: 0-3 soft clip, 4-7 hard clip, 8 end of run.
const (
	clipLastSoft = 3
	clipLastHard = 7
	clipEnd      = 8
)

func (d *Decoder) decodeClips(rec *Record) error {
	rec.Clips = make([]Clips, rec.Segments.Record)
	if !d.params.Class.Clipped() {
		return nil
	}
	index := d.clippedRecords
	d.clippedRecords++
	if d.store.IsEnd(descriptor.CLIPS, descriptor.ClipsRecordIndex) {
		return nil
	}
	next, err := d.store.Peek(descriptor.CLIPS, descriptor.ClipsRecordIndex, 0)
	if err != nil {
		return d.exhausted(stepClips, descriptor.CLIPS, descriptor.ClipsRecordIndex, err)
	}
	if next != index {
		return nil
	}
	if err := d.decodeClipRun(rec); err != nil {
		return err
	}
	_, err = d.pull(stepClips, descriptor.CLIPS, descriptor.ClipsRecordIndex)
	return err
}

// decodeClipRun reads clip tokens until the end-of-run token.
func (d *Decoder) decodeClipRun(rec *Record) error {
	for {
		t, err := d.pull(stepClips, descriptor.CLIPS, descriptor.ClipsType)
		if err != nil {
			return err
		}
		switch {
		case t <= clipLastSoft:
			if err := d.decodeSoftClip(rec, int(t>>1), Side(t&1)); err != nil {
				return err
			}
		case t <= clipLastHard:
			seg, side := int((t-4)>>1), Side((t-5)&1)
			if seg >= len(rec.Clips) {
				return d.columnError(stepClips, MalformedStream, descriptor.CLIPS, descriptor.ClipsType,
					fmt.Errorf("hard clip on segment %d of a %d-segment record", seg, len(rec.Clips)))
			}
			n, err := d.pull(stepClips, descriptor.CLIPS, descriptor.ClipsHardLength)
			if err != nil {
				return err
			}
			rec.Clips[seg].Hard[side] = n
		case t == clipEnd:
			return nil
		default:
			return d.columnError(stepClips, MalformedStream, descriptor.CLIPS, descriptor.ClipsType,
				fmt.Errorf("invalid clip type %d", t))
		}
	}
}

// decodeSoftClip reads soft-clip bases up to the alphabet terminator.
func (d *Decoder) decodeSoftClip(rec *Record, seg int, side Side) error {
	if seg >= len(rec.Clips) {
		return d.columnError(stepClips, MalformedStream, descriptor.CLIPS, descriptor.ClipsType,
			fmt.Errorf("soft clip on segment %d of a %d-segment record", seg, len(rec.Clips)))
	}
	alphabet := d.params.Alphabet
	var bases []byte
	for {
		sym, err := d.pull(stepClips, descriptor.CLIPS, descriptor.ClipsSoftSymbol)
		if err != nil {
			return err
		}
		if sym == alphabet.Len() {
			break
		}
		b, err := alphabet.Symbol(sym)
		if err != nil {
			return d.columnError(stepClips, MalformedStream, descriptor.CLIPS, descriptor.ClipsSoftSymbol, err)
		}
		bases = append(bases, b)
	}
	c := &rec.Clips[seg]
	c.Soft[side] = string(bases)
	c.SoftLen[side] = uint64(len(bases))
	return nil
}
