// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"fmt"

	"github.com/grailbio/mpegg/descriptor"
)

// mappings returns, per mapped segment, the number of mappings. Unmapped
// reads clipped against the reference map every record segment once;
// otherwise the aligned segments map once per alignment.
func (d *Decoder) mappings(rec *Record) []int {
	if d.params.Class == descriptor.ClassU && d.params.ReferenceClipping() {
		m := make([]int, rec.Segments.Record)
		for i := range m {
			m[i] = 1
		}
		return m
	}
	m := make([]int, rec.Segments.Aligned)
	for i := range m {
		m[i] = rec.Alignments.SegmentCount[i]
	}
	return m
}

func (d *Decoder) decodeStrands(rec *Record) error {
	for seg, n := range d.mappings(rec) {
		for a := 0; a < n; a++ {
			if rec.split(a, seg) != SplitNone {
				continue
			}
			for j := range rec.SpliceLengths[seg] {
				v, err := d.pull(stepStrands, descriptor.RCOMP, 0)
				if err != nil {
					return err
				}
				if v > 1 {
					return d.columnError(stepStrands, MalformedStream, descriptor.RCOMP, 0,
						fmt.Errorf("strand flag %d", v))
				}
				rec.Strands = append(rec.Strands, Strand{Segment: seg, Alignment: a, Splice: j, Reverse: v == 1})
			}
		}
	}
	return nil
}

func (d *Decoder) decodeReadGroup(rec *Record) error {
	if d.params.NumGroups == 0 {
		return nil
	}
	v, err := d.pull(stepReadGroup, descriptor.RGROUP, 0)
	if err != nil {
		return err
	}
	if v >= d.params.NumGroups {
		return d.columnError(stepReadGroup, MalformedStream, descriptor.RGROUP, 0,
			fmt.Errorf("read group %d of %d", v, d.params.NumGroups))
	}
	rec.ReadGroup = Known(v)
	return nil
}

// decodeScores reads as_depth mapping scores for every alignment whose mate
// is encoded in the same record.
func (d *Decoder) decodeScores(rec *Record) error {
	for depth := 0; depth < d.params.ASDepth; depth++ {
		for seg := 0; seg < rec.Segments.Aligned; seg++ {
			for a := 0; a < rec.Alignments.SegmentCount[seg]; a++ {
				if rec.split(a, seg) != SplitNone {
					continue
				}
				v, err := d.pull(stepScores, descriptor.MSCORE, 0)
				if err != nil {
					return err
				}
				rec.Scores = append(rec.Scores, Score{Segment: seg, Alignment: a, Depth: depth, Value: v})
			}
		}
	}
	return nil
}

// decodeFlags combines one symbol of each FLAGS subsequence. Access units
// without FLAGS columns skip the step.
func (d *Decoder) decodeFlags(rec *Record) error {
	if !d.hasFlags {
		return nil
	}
	for bit := 0; bit < 3; bit++ {
		v, err := d.pull(stepFlags, descriptor.FLAGS, bit)
		if err != nil {
			return err
		}
		if v > 1 {
			return d.columnError(stepFlags, MalformedStream, descriptor.FLAGS, bit, fmt.Errorf("flag value %d", v))
		}
		rec.Flags |= uint8(v) << uint(bit)
	}
	rec.HasFlags = true
	return nil
}
