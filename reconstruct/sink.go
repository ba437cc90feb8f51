// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"encoding/binary"
	"hash"
	"io"
	"strconv"
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/tsv"
)

// RecordSink consumes reconstructed records, one call per record in decoding
// order. A sink may keep the records it is given.
type RecordSink interface {
	Accept(rec *Record) error
}

// SinkFunc adapts a function to RecordSink.
type SinkFunc func(rec *Record) error

// Accept implements RecordSink.
func (f SinkFunc) Accept(rec *Record) error { return f(rec) }

// Collector is a RecordSink that keeps every record.
type Collector struct {
	Records []*Record
}

// Accept implements RecordSink.
func (c *Collector) Accept(rec *Record) error {
	c.Records = append(c.Records, rec)
	return nil
}

// TSVSink writes one line per record segment.
type TSVSink struct {
	w *tsv.Writer
}

// TSVHeader lists the columns written by TSVSink.
const TSVHeader = "#AU\tRECORD\tSEGMENT\tFLAG\tPOS\tREAD_LEN\tSPLICES\tCLIPS\tSTRAND\tMATE\tRG\tSEQ"

// NewTSVSink creates a sink that writes to w. It writes the header line
// immediately. The caller must call Flush when done.
func NewTSVSink(w io.Writer) (*TSVSink, error) {
	s := &TSVSink{w: tsv.NewWriter(w)}
	s.w.WriteString(TSVHeader)
	return s, s.w.EndLine()
}

func optionalString(o Optional) string {
	if !o.Valid {
		return "*"
	}
	return strconv.FormatUint(o.Value, 10)
}

func joinUints(vals []uint64) string {
	if len(vals) == 0 {
		return "*"
	}
	buf := strings.Builder{}
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.FormatUint(v, 10))
	}
	return buf.String()
}

// clipString renders the clips of a segment as
// "hardLeft,softLeft,softRight,hardRight", with "-" for an empty soft clip.
func clipString(c Clips) string {
	soft := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	return strconv.FormatUint(c.Hard[Left], 10) + "," + soft(c.Soft[Left]) + "," +
		soft(c.Soft[Right]) + "," + strconv.FormatUint(c.Hard[Right], 10)
}

func (r *Record) strandString(seg int) string {
	buf := strings.Builder{}
	for _, st := range r.Strands {
		if st.Segment != seg {
			continue
		}
		if st.Reverse {
			buf.WriteByte('-')
		} else {
			buf.WriteByte('+')
		}
	}
	if buf.Len() == 0 {
		return "*"
	}
	return buf.String()
}

func (r *Record) mateString() string {
	if len(r.Pairing) < 2 {
		return "*"
	}
	m := r.Pairing[1]
	return m.Split.String() + ":" + optionalString(m.SeqID) + ":" + optionalString(r.Position(0, 1)) +
		":" + optionalString(m.AUID) + ":" + optionalString(m.RecordIndex)
}

// Accept implements RecordSink.
func (s *TSVSink) Accept(r *Record) error {
	for seg := 0; seg < r.Segments.Record; seg++ {
		s.w.WriteInt64(int64(r.AU))
		s.w.WriteInt64(int64(r.Index))
		s.w.WriteInt64(int64(seg))
		s.w.WriteUint32(uint32(r.SAMFlags(seg)))
		s.w.WriteString(optionalString(r.Position(0, seg)))
		s.w.WriteInt64(int64(r.ReadLengths[seg]))
		s.w.WriteString(joinUints(r.SpliceLengths[seg]))
		s.w.WriteString(clipString(r.Clips[seg]))
		s.w.WriteString(r.strandString(seg))
		s.w.WriteString(r.mateString())
		s.w.WriteString(optionalString(r.ReadGroup))
		if seg < len(r.SplicedSequence) {
			s.w.WriteString(strings.Join(r.SplicedSequence[seg], ","))
		} else {
			s.w.WriteString("*")
		}
		if err := s.w.EndLine(); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes buffered lines to the underlying writer.
func (s *TSVSink) Flush() error { return s.w.Flush() }

// Checksum is a commutative digest of a record stream: each field is hashed
// together with the record's identity and the hashes are summed, so the
// digest does not depend on the order in which access units finish.
type Checksum struct {
	NRecs          uint64
	NSegments      uint64
	SumPos         uint64
	SumLengths     uint64
	SumClips       uint64
	SumAlignments  uint64
	SumPairing     uint64
	SumStrands     uint64
	SumReadGroups  uint64
	SumScoresFlags uint64
	SumSeq         uint64
}

// ChecksumSink computes a Checksum. It is not thread safe; use Merge to combine
// sinks used by different goroutines.
type ChecksumSink struct {
	Checksum
	h   hash.Hash64
	buf []byte
}

// NewChecksumSink creates an empty checksum sink.
func NewChecksumSink() *ChecksumSink {
	return &ChecksumSink{h: seahash.New()}
}

func (s *ChecksumSink) hashField(id [16]byte, vals ...uint64) uint64 {
	var tmp [binary.MaxVarintLen64]byte
	s.buf = s.buf[:0]
	for _, v := range vals {
		n := binary.PutUvarint(tmp[:], v)
		s.buf = append(s.buf, tmp[:n]...)
	}
	s.h.Reset()
	s.h.Write(id[:])
	s.h.Write(s.buf)
	return s.h.Sum64()
}

func (s *ChecksumSink) hashString(id [16]byte, v string) uint64 {
	s.h.Reset()
	s.h.Write(id[:])
	s.h.Write([]byte(v))
	return s.h.Sum64()
}

func boolUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Accept implements RecordSink.
func (s *ChecksumSink) Accept(r *Record) error {
	id := [16]byte{}
	binary.LittleEndian.PutUint64(id[:8], r.AU)
	binary.LittleEndian.PutUint64(id[8:], r.Index)

	s.NRecs++
	s.NSegments += uint64(r.Segments.Record)
	var vals []uint64
	for _, row := range r.Positions {
		for _, p := range row {
			vals = append(vals, p.Value, boolUint(p.Valid))
		}
	}
	s.SumPos += s.hashField(id, vals...)

	vals = vals[:0]
	for i, l := range r.ReadLengths {
		vals = append(vals, l)
		vals = append(vals, r.SpliceLengths[i]...)
	}
	s.SumLengths += s.hashField(id, vals...)

	for _, c := range r.Clips {
		s.SumClips += s.hashString(id, clipString(c))
	}

	a := &r.Alignments
	vals = append(vals[:0], uint64(a.SegmentCount[0]), uint64(a.SegmentCount[1]),
		boolUint(a.More.Present), a.More.NextSeqID, a.More.NextPos)
	for _, p := range a.Pairs {
		vals = append(vals, uint64(p.Segment0), uint64(int64(p.Segment1)))
	}
	s.SumAlignments += s.hashField(id, vals...)

	vals = vals[:0]
	for _, m := range r.Pairing {
		vals = append(vals, uint64(m.Split), boolUint(m.Read1First), m.Delta,
			m.SeqID.Value, boolUint(m.SeqID.Valid), m.AUID.Value, boolUint(m.AUID.Valid),
			m.RecordIndex.Value, boolUint(m.RecordIndex.Valid))
	}
	s.SumPairing += s.hashField(id, vals...)

	vals = vals[:0]
	for _, st := range r.Strands {
		vals = append(vals, uint64(st.Segment), uint64(st.Alignment), uint64(st.Splice), boolUint(st.Reverse))
	}
	s.SumStrands += s.hashField(id, vals...)
	s.SumReadGroups += s.hashField(id, r.ReadGroup.Value, boolUint(r.ReadGroup.Valid))

	vals = append(vals[:0], uint64(r.Flags), boolUint(r.HasFlags))
	for _, sc := range r.Scores {
		vals = append(vals, uint64(sc.Segment), uint64(sc.Alignment), uint64(sc.Depth), sc.Value)
	}
	s.SumScoresFlags += s.hashField(id, vals...)

	for _, seq := range r.SplicedSequence {
		s.SumSeq += s.hashString(id, strings.Join(seq, ","))
	}
	return nil
}

// Merge adds the digest of other to c.
func (c *Checksum) Merge(other Checksum) {
	c.NRecs += other.NRecs
	c.NSegments += other.NSegments
	c.SumPos += other.SumPos
	c.SumLengths += other.SumLengths
	c.SumClips += other.SumClips
	c.SumAlignments += other.SumAlignments
	c.SumPairing += other.SumPairing
	c.SumStrands += other.SumStrands
	c.SumReadGroups += other.SumReadGroups
	c.SumScoresFlags += other.SumScoresFlags
	c.SumSeq += other.SumSeq
}
