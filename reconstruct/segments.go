// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"github.com/grailbio/mpegg/descriptor"
)

// peekPairingMode returns the PAIR mode of the next record without consuming
// it. The segment counts depend on the mode, but the mode symbol belongs to
// the pairing step, which pulls it later in the same record.
func (d *Decoder) peekPairingMode(step string) (uint64, error) {
	v, err := d.store.Peek(descriptor.PAIR, descriptor.PairMode, 0)
	if err != nil {
		return 0, d.exhausted(step, descriptor.PAIR, descriptor.PairMode, err)
	}
	return v, nil
}

func (d *Decoder) decodeSegmentCounts(rec *Record) error {
	class := d.params.Class
	c := SegmentCounts{Template: d.params.TemplateSegments}
	if c.Template < 1 || c.Template > 2 {
		return d.errorf(stepSegments, MalformedStream, "%d template segments", c.Template)
	}

	var mode uint64
	if c.Template > 1 && class != descriptor.ClassHM {
		var err error
		if mode, err = d.peekPairingMode(stepSegments); err != nil {
			return err
		}
	}

	switch {
	case c.Template == 1:
		c.Record = 1
	case class == descriptor.ClassHM:
		c.Record = 2
	case mode == pairSameRecord:
		c.Record = 2
	default:
		c.Record = 1
	}

	switch class {
	case descriptor.ClassHM:
		c.Aligned = 1
	case descriptor.ClassU:
		c.Aligned = 0
	default:
		c.Aligned = c.Record
	}

	switch {
	case class == descriptor.ClassHM:
		c.Unpaired = false
	case c.Template == 1, mode == pairUnpairedRead1, mode == pairUnpairedRead2:
		c.Unpaired = true
	}
	rec.Segments = c
	return nil
}
