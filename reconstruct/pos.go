// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"github.com/grailbio/mpegg/descriptor"
)

// decodePositions reads the positions of the first-segment alignments. The
// first alignment is delta coded against the first alignment of the previous
// record, or against the access-unit start for the first record. Further
// alignments are delta coded against the preceding one.
func (d *Decoder) decodePositions(rec *Record) error {
	if d.params.Class == descriptor.ClassU {
		return nil
	}
	base := d.prevPos0
	if d.store.Pos(descriptor.POS, descriptor.PosFirst) == 0 {
		base = d.unit.StartPosition
	}
	delta, err := d.pull(stepPositions, descriptor.POS, descriptor.PosFirst)
	if err != nil {
		return err
	}
	pos := base + delta
	d.prevPos0 = pos
	rec.setPosition(0, 0, pos)
	for i := 1; i < rec.Alignments.SegmentCount[0]; i++ {
		if delta, err = d.pull(stepPositions, descriptor.POS, descriptor.PosAdditional); err != nil {
			return err
		}
		pos += delta
		rec.setPosition(i, 0, pos)
	}
	return nil
}
