// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/mpegg/encoding/reference"
)

// mapped reports whether segment seg has a first-alignment position.
func (r *Record) mapped(seg int) bool {
	return seg < r.Segments.Aligned && r.Position(0, seg).Valid
}

// SAMFlags returns the SAM flag word of segment seg.
func (r *Record) SAMFlags(seg int) sam.Flags {
	var f sam.Flags
	if !r.mapped(seg) {
		f |= sam.Unmapped
	}
	if rev, ok := r.Reverse(seg, 0, 0); ok && rev {
		f |= sam.Reverse
	}
	if r.Segments.Template > 1 {
		f |= sam.Paired
		first := r.Read1First()
		if (seg == 0) == first {
			f |= sam.Read1
		} else {
			f |= sam.Read2
		}
		mate := 1 - seg
		if !r.Position(0, mate).Valid {
			f |= sam.MateUnmapped
		}
		if rev, ok := r.Reverse(mate, 0, 0); ok && rev {
			f |= sam.MateReverse
		}
	}
	if r.HasFlags {
		if r.Flags&FlagDuplicate != 0 {
			f |= sam.Duplicate
		}
		if r.Flags&FlagQCFail != 0 {
			f |= sam.QCFail
		}
		if r.Flags&FlagProperPair != 0 {
			f |= sam.ProperPair
		}
	}
	return f
}

// SAMReferences builds SAM references for ref, in sequence-id order. The
// length of an excerpt covers its start offset.
func SAMReferences(ref *reference.Reference) ([]*sam.Reference, error) {
	var refs []*sam.Reference
	for _, s := range ref.Sequences() {
		r, err := sam.NewReference(s.Name, "", "", int(s.Start)+len(s.Bases), nil, nil)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// SAMSink writes records as SAM text. Bases come from the reference, so
// mismatches are not reflected; qualities are not available.
type SAMSink struct {
	w    io.Writer
	refs []*sam.Reference
}

// NewSAMSink creates a sink that writes a SAM header for refs, then one line
// per record segment.
func NewSAMSink(w io.Writer, refs []*sam.Reference) (*SAMSink, error) {
	header, err := sam.NewHeader(nil, refs)
	if err != nil {
		return nil, err
	}
	text, err := header.MarshalText()
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(text); err != nil {
		return nil, err
	}
	return &SAMSink{w: w, refs: refs}, nil
}

func (s *SAMSink) reference(seqID uint64) (*sam.Reference, error) {
	if seqID >= uint64(len(s.refs)) {
		return nil, fmt.Errorf("sequence id %d not in SAM header (%d references)", seqID, len(s.refs))
	}
	return s.refs[seqID], nil
}

func segmentCigar(r *Record, seg int) sam.Cigar {
	var cigar sam.Cigar
	add := func(t sam.CigarOpType, n uint64) {
		if n > 0 {
			cigar = append(cigar, sam.NewCigarOp(t, int(n)))
		}
	}
	c := r.Clips[seg]
	add(sam.CigarHardClipped, c.Hard[Left])
	add(sam.CigarSoftClipped, c.SoftLen[Left])
	splices := r.SpliceLengths[seg]
	var end uint64
	for j, l := range splices {
		var soft uint64
		if j == 0 {
			soft += c.SoftLen[Left]
		}
		if j == len(splices)-1 {
			soft += c.SoftLen[Right]
		}
		if soft > l {
			soft = l
		}
		l -= soft
		if j > 0 {
			if p := r.Position(j, seg); p.Valid && p.Value > end {
				add(sam.CigarSkipped, p.Value-end)
			}
		}
		add(sam.CigarMatch, l)
		if p := r.Position(j, seg); p.Valid {
			end = p.Value + l
		} else {
			end += l
		}
	}
	add(sam.CigarSoftClipped, c.SoftLen[Right])
	add(sam.CigarHardClipped, c.Hard[Right])
	return cigar
}

// Accept implements RecordSink.
func (s *SAMSink) Accept(r *Record) error {
	for seg := 0; seg < r.Segments.Record; seg++ {
		rec := &sam.Record{
			Name:    fmt.Sprintf("au%d.%d", r.AU, r.Index),
			Pos:     -1,
			MatePos: -1,
			MapQ:    255,
			Flags:   r.SAMFlags(seg),
		}
		if r.mapped(seg) {
			ref, err := s.reference(r.SeqID)
			if err != nil {
				return err
			}
			rec.Ref = ref
			rec.Pos = int(r.Position(0, seg).Value)
			rec.Cigar = segmentCigar(r, seg)
		}
		if mate := 1 - seg; r.Segments.Template > 1 && r.Position(0, mate).Valid {
			seqID := r.SeqID
			if len(r.Pairing) > 1 && r.Pairing[1].SeqID.Valid {
				seqID = r.Pairing[1].SeqID.Value
			}
			ref, err := s.reference(seqID)
			if err != nil {
				return err
			}
			rec.MateRef = ref
			rec.MatePos = int(r.Position(0, mate).Value)
		}
		if seg < len(r.SplicedSequence) {
			c := r.Clips[seg]
			seq := c.Soft[Left] + strings.Join(r.SplicedSequence[seg], "") + c.Soft[Right]
			rec.Seq = sam.NewSeq([]byte(seq))
			rec.Qual = make([]byte, len(seq))
			for i := range rec.Qual {
				rec.Qual[i] = 0xff
			}
		}
		if r.ReadGroup.Valid {
			aux, err := sam.NewAux(sam.NewTag("RG"), fmt.Sprint(r.ReadGroup.Value))
			if err != nil {
				return err
			}
			rec.AuxFields = append(rec.AuxFields, aux)
		}
		text, err := rec.MarshalText()
		if err != nil {
			return err
		}
		if _, err := s.w.Write(append(text, '\n')); err != nil {
			return err
		}
	}
	return nil
}
