// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"github.com/grailbio/mpegg/descriptor"
)

// decodeSequence copies the reference bases under every splice of the mapped
// segments. Splice j of segment s starts at the position of alignment j of s;
// soft clips are excluded at both ends of the segment. Unmapped reads have no
// position and produce no sequence.
//
// Splices after the first have no position of their own unless the record
// has as many alignments as splices, so spliced class I and HM records fail
// with ReferenceOutOfRange when a reference is given. Decode spliced data
// with a nil reference.
func (d *Decoder) decodeSequence(rec *Record) error {
	if d.ref == nil || d.params.Class == descriptor.ClassU {
		return nil
	}
	clipped := d.params.Class.Clipped()
	seqID := d.unit.SequenceID
	n := len(d.mappings(rec))
	rec.SplicedSequence = make([][]string, n)
	for s := 0; s < n; s++ {
		splices := rec.SpliceLengths[s]
		rec.SplicedSequence[s] = make([]string, len(splices))
		for j, length := range splices {
			pos := rec.Position(j, s)
			if !pos.Valid {
				return d.errorf(stepSequence, ReferenceOutOfRange, "segment %d splice %d has no mapping position", s, j)
			}
			if clipped {
				var soft uint64
				if j == 0 {
					soft += rec.Clips[s].SoftLen[Left]
				}
				if j == len(splices)-1 {
					soft += rec.Clips[s].SoftLen[Right]
				}
				if soft > length {
					return d.errorf(stepSequence, MalformedStream,
						"segment %d splice %d: soft clips %d exceed splice length %d", s, j, soft, length)
				}
				length -= soft
			}
			start, err := d.ref.Start(seqID)
			if err != nil {
				return d.errorf(stepSequence, ReferenceOutOfRange, "%v", err)
			}
			if pos.Value < start {
				return d.errorf(stepSequence, ReferenceOutOfRange,
					"segment %d splice %d: position %d precedes reference start %d", s, j, pos.Value, start)
			}
			bases, err := d.ref.Slice(seqID, pos.Value-start, length)
			if err != nil {
				return d.errorf(stepSequence, ReferenceOutOfRange, "segment %d splice %d: %v", s, j, err)
			}
			rec.SplicedSequence[s][j] = bases
		}
	}
	return nil
}
