// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"fmt"

	"github.com/grailbio/mpegg/descriptor"
)

// PAIR modes, pulled from subsequence PairMode.
const (
	pairSameRecord    = 0 // mate in this record, at a delta from the first segment
	pairPosRead2First = 1 // mate on the same sequence, explicit position
	pairPosRead1First = 2
	pairSeqRead2First = 3 // mate on another sequence or access unit
	pairSeqRead1First = 4
	pairUnpairedRead1 = 5
	pairUnpairedRead2 = 6
)

func (d *Decoder) decodePairing(rec *Record) error {
	rec.Pairing = make([]Mate, rec.Segments.Template)
	for i := range rec.Pairing {
		rec.Pairing[i].Read1First = true
	}
	if d.params.Class == descriptor.ClassHM {
		return nil
	}
	for i := 1; i < rec.Segments.Template; i++ {
		if err := d.decodeMate(rec, i); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeMate(rec *Record, seg int) error {
	unmapped := d.params.Class == descriptor.ClassU
	seqID := Known(d.unit.SequenceID)
	m := &rec.Pairing[seg]
	mode, err := d.pull(stepPairing, descriptor.PAIR, descriptor.PairMode)
	if err != nil {
		return err
	}
	switch mode {
	case pairSameRecord:
		m.Split = SplitNone
		if unmapped {
			m.Read1First = true
			break
		}
		v, err := d.pull(stepPairing, descriptor.PAIR, descriptor.PairSameRecord)
		if err != nil {
			return err
		}
		first := rec.Position(0, 0)
		if !first.Valid {
			return d.errorf(stepPairing, MalformedStream, "same-record mate without a first-segment position")
		}
		m.Read1First = v&1 == 0
		m.Delta = v >> 1
		m.SeqID = seqID
		rec.setPosition(0, seg, first.Value+m.Delta)
	case pairPosRead2First, pairPosRead1First:
		sub := descriptor.PairPosRead2First
		if mode == pairPosRead1First {
			sub = descriptor.PairPosRead1First
		}
		m.Split = SplitSameSequence
		m.Read1First = mode == pairPosRead1First
		v, err := d.pull(stepPairing, descriptor.PAIR, sub)
		if err != nil {
			return err
		}
		if unmapped {
			m.RecordIndex = Known(v)
		} else {
			m.SeqID = seqID
			rec.setPosition(0, seg, v)
		}
	case pairSeqRead2First, pairSeqRead1First:
		seqSub, posSub := descriptor.PairSeqRead2First, descriptor.PairOtherRead2First
		if mode == pairSeqRead1First {
			seqSub, posSub = descriptor.PairSeqRead1First, descriptor.PairOtherRead1First
		}
		m.Split = SplitOtherSequence
		m.Read1First = mode == pairSeqRead1First
		s, err := d.pull(stepPairing, descriptor.PAIR, seqSub)
		if err != nil {
			return err
		}
		p, err := d.pull(stepPairing, descriptor.PAIR, posSub)
		if err != nil {
			return err
		}
		if unmapped {
			m.AUID = Known(s)
			m.RecordIndex = Known(p)
		} else {
			m.SeqID = Known(s)
			rec.setPosition(0, seg, p)
		}
	case pairUnpairedRead1, pairUnpairedRead2:
		m.Split = SplitUnpaired
		m.Read1First = mode == pairUnpairedRead1
	default:
		return d.columnError(stepPairing, UnsupportedPairingMode, descriptor.PAIR, descriptor.PairMode,
			fmt.Errorf("pairing mode %d", mode))
	}
	return nil
}
