// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"fmt"

	"github.com/grailbio/mpegg/descriptor"
)

// pullReadLength reads an explicit segment length. RLEN stores length-1.
func (d *Decoder) pullReadLength() (uint64, error) {
	v, err := d.pull(stepLengths, descriptor.RLEN, 0)
	if err != nil {
		return 0, err
	}
	return v + 1, nil
}

func (d *Decoder) decodeLengths(rec *Record) error {
	n := rec.Segments.Record
	class := d.params.Class
	nominal := d.params.ReadLength
	rec.ReadLengths = make([]uint64, n)
	for i := 0; i < n; i++ {
		if nominal == 0 {
			l, err := d.pullReadLength()
			if err != nil {
				return err
			}
			rec.ReadLengths[i] = l
			continue
		}
		hard := [2]uint64{}
		switch {
		case class == descriptor.ClassI:
			hard = rec.Clips[i].Hard
		case class == descriptor.ClassHM && i == 0:
			hard = rec.Clips[0].Hard
		}
		if hard[Left] > nominal || hard[Right] > nominal-hard[Left] {
			return d.errorf(stepLengths, MalformedStream, "segment %d: hard clips %d+%d exceed read length %d",
				i, hard[Left], hard[Right], nominal)
		}
		rec.ReadLengths[i] = nominal - hard[Left] - hard[Right]
	}

	rec.SpliceLengths = make([][]uint64, n)
	for i := 0; i < n; i++ {
		rec.SpliceLengths[i] = []uint64{rec.ReadLengths[i]}
	}
	if !d.params.Spliced || !class.Clipped() {
		return nil
	}
	for i := 0; i < rec.Segments.Aligned; i++ {
		if nominal == 0 {
			l, err := d.pullReadLength()
			if err != nil {
				return err
			}
			rec.ReadLengths[i] = l
		}
		splices, err := d.decodeSplices(rec.ReadLengths[i])
		if err != nil {
			return err
		}
		rec.SpliceLengths[i] = splices
	}
	return nil
}

// decodeSplices reads splice lengths until they add up to length. At least one
// splice is read.
func (d *Decoder) decodeSplices(length uint64) ([]uint64, error) {
	var splices []uint64
	remaining := length
	for {
		l, err := d.pull(stepLengths, descriptor.RLEN, 0)
		if err != nil {
			return nil, err
		}
		if l > remaining {
			return nil, d.columnError(stepLengths, SpliceLengthMismatch, descriptor.RLEN, 0,
				fmt.Errorf("splices %v + %d overshoot segment length %d", splices, l, length))
		}
		remaining -= l
		splices = append(splices, l)
		if remaining == 0 {
			return splices, nil
		}
	}
}
