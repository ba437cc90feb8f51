// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"fmt"

	"github.com/grailbio/mpegg/descriptor"
)

// maxAlignments bounds any MMAP count; MMAP counts are 16-bit values.
const maxAlignments = 1<<16 - 1

// pullAlignmentCount reads an MMAP count, which is 1 unless multiple
// alignments are enabled. Counts above limit are rejected.
func (d *Decoder) pullAlignmentCount(limit int) (int, error) {
	if !d.params.MultipleAlignments {
		return 1, nil
	}
	v, err := d.pull(stepAlignments, descriptor.MMAP, descriptor.MmapSegmentAlignments)
	if err != nil {
		return 0, err
	}
	if limit > maxAlignments {
		limit = maxAlignments
	}
	if v > uint64(limit) {
		return 0, d.columnError(stepAlignments, MalformedStream, descriptor.MMAP, descriptor.MmapSegmentAlignments,
			fmt.Errorf("alignment count %d exceeds %d", v, limit))
	}
	return int(v), nil
}

func (d *Decoder) decodeAlignments(rec *Record) error {
	class := d.params.Class
	a := &rec.Alignments
	if class != descriptor.ClassU {
		// Every first-segment alignment after the first takes one
		// additional POS symbol.
		n, err := d.pullAlignmentCount(d.store.Remaining(descriptor.POS, descriptor.PosAdditional) + 1)
		if err != nil {
			return err
		}
		a.SegmentCount[0] = n
	}

	switch {
	case rec.Segments.Unpaired || class == descriptor.ClassHM:
		a.Pairs = make([]AlignmentPair, a.SegmentCount[0])
		for i := range a.Pairs {
			a.Pairs[i] = AlignmentPair{Segment0: i, Segment1: -1}
		}
	case class == descriptor.ClassU:
		// Unmapped reads have no alignments.
	default:
		if err := d.decodeAlignmentPairs(a); err != nil {
			return err
		}
	}

	if !d.params.MultipleAlignments || class == descriptor.ClassU {
		return nil
	}
	more, err := d.pull(stepAlignments, descriptor.MMAP, descriptor.MmapMore)
	if err != nil || more == 0 {
		return err
	}
	a.More.Present = true
	if a.More.NextSeqID, err = d.pull(stepAlignments, descriptor.MMAP, descriptor.MmapMoreSeqID); err != nil {
		return err
	}
	a.More.NextPos, err = d.pull(stepAlignments, descriptor.MMAP, descriptor.MmapMorePos)
	return err
}

// decodeAlignmentPairs reads the pairing of first-segment alignments with
// second-segment alignments. Each first-segment alignment after the first
// may point back to an earlier second-segment alignment; pointer 0 introduces
// a new one.
func (d *Decoder) decodeAlignmentPairs(a *Alignments) error {
	for i := 0; i < a.SegmentCount[0]; i++ {
		// Pairs after the first alignment each take a back pointer.
		limit := maxAlignments
		if i != 0 {
			limit = d.store.Remaining(descriptor.MMAP, descriptor.MmapPointer)
		}
		nPairs, err := d.pullAlignmentCount(limit)
		if err != nil {
			return err
		}
		for j := 0; j < nPairs; j++ {
			var ptr uint64
			if i != 0 {
				if ptr, err = d.pull(stepAlignments, descriptor.MMAP, descriptor.MmapPointer); err != nil {
					return err
				}
			}
			if ptr > uint64(a.SegmentCount[1]) {
				return d.columnError(stepAlignments, MalformedStream, descriptor.MMAP, descriptor.MmapPointer,
					fmt.Errorf("back pointer %d exceeds %d second-segment alignments", ptr, a.SegmentCount[1]))
			}
			a.Pairs = append(a.Pairs, AlignmentPair{Segment0: i, Segment1: a.SegmentCount[1] - int(ptr)})
			if ptr == 0 {
				a.SegmentCount[1]++
			}
		}
	}
	return nil
}
