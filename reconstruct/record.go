// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

// Side selects the left or right end of a segment.
type Side int

const (
	Left  Side = 0
	Right Side = 1
)

// Optional is a value that may be unknown, e.g., the record index of a mate
// encoded in another access unit.
type Optional struct {
	Value uint64
	Valid bool
}

// Known returns a valid Optional holding v.
func Known(v uint64) Optional { return Optional{Value: v, Valid: true} }

// SegmentCounts describes how a record's template is split into segments.
type SegmentCounts struct {
	// Template is the number of segments of the sequenced template (1 or 2).
	Template int
	// Record is the number of segments stored in this record.
	Record int
	// Aligned is the number of record segments with an alignment.
	Aligned int
	// Unpaired is set when the template has a single segment or the mate is
	// marked as unpaired.
	Unpaired bool
}

// Clips holds the clips of one segment, indexed by Side.
type Clips struct {
	Soft    [2]string
	SoftLen [2]uint64
	Hard    [2]uint64
}

// AlignmentPair links alignment Segment0 of the first segment with alignment
// Segment1 of the second one. Segment1 is -1 when the second segment has no
// alignment in this record.
type AlignmentPair struct {
	Segment0 int
	Segment1 int
}

// MoreAlignments points to further alignments stored elsewhere.
type MoreAlignments struct {
	Present   bool
	NextSeqID uint64
	NextPos   uint64
}

// Alignments is the MMAP content of a record.
type Alignments struct {
	// SegmentCount[i] is the number of alignments of segment i.
	SegmentCount [2]int
	// Pairs lists every alignment of the record.
	Pairs []AlignmentPair
	More  MoreAlignments
}

// Total returns the number of alignments of the record.
func (a *Alignments) Total() int { return len(a.Pairs) }

// SplitKind tells where the mate of a segment is encoded.
type SplitKind int

const (
	// SplitNone: the mate is in this record.
	SplitNone SplitKind = iota
	// SplitSameSequence: the mate is in another record on the same sequence,
	// at an explicit position.
	SplitSameSequence
	// SplitOtherSequence: the mate is on another sequence or, for unmapped
	// reads, in another access unit.
	SplitOtherSequence
	// SplitUnpaired: the mate is unknown.
	SplitUnpaired
)

var splitNames = [...]string{"none", "same_seq", "other_seq", "unpaired"}

func (k SplitKind) String() string { return splitNames[k] }

// Mate is the pairing information of one template segment.
type Mate struct {
	Split      SplitKind
	Read1First bool
	// Delta is the mate offset relative to the first alignment, for
	// same-record pairs.
	Delta       uint64
	SeqID       Optional
	AUID        Optional
	RecordIndex Optional
}

// Strand is one reverse-complement flag.
type Strand struct {
	Segment, Alignment, Splice int
	Reverse                    bool
}

// Score is one mapping score.
type Score struct {
	Segment, Alignment, Depth int
	Value                     uint64
}

// Record flag bits, in FLAGS subsequence order.
const (
	FlagDuplicate  = 1 << 0
	FlagQCFail     = 1 << 1
	FlagProperPair = 1 << 2
)

// Record is one reconstructed genomic record. Index lists are sized to the
// record; fields a class does not use stay empty.
type Record struct {
	// AU and Index identify the record: the id of its access unit and the
	// position of the record within it.
	AU    uint64
	Index uint64
	// SeqID is the reference sequence of the access unit.
	SeqID uint64

	Segments SegmentCounts

	// Clips per record segment.
	Clips []Clips

	ReadLengths   []uint64
	SpliceLengths [][]uint64
	Alignments    Alignments

	// Positions[a][s] is the mapping position of alignment a of segment s.
	Positions [][]Optional

	// Pairing per template segment. Pairing[0] is always SplitNone.
	Pairing []Mate

	Strands   []Strand
	ReadGroup Optional
	Scores    []Score
	Flags     uint8
	HasFlags  bool

	// SplicedSequence[s][j] holds the reference bases under splice j of
	// segment s.
	SplicedSequence [][]string
}

func (r *Record) reset(au, index, seqID uint64) {
	*r = Record{AU: au, Index: index, SeqID: seqID}
}

// Position returns the mapping position of alignment a of segment s.
func (r *Record) Position(a, s int) Optional {
	if a < 0 || a >= len(r.Positions) || s < 0 || s >= len(r.Positions[a]) {
		return Optional{}
	}
	return r.Positions[a][s]
}

func (r *Record) setPosition(a, s int, v uint64) {
	for len(r.Positions) <= a {
		r.Positions = append(r.Positions, make([]Optional, 2))
	}
	r.Positions[a][s] = Known(v)
}

// split returns the split kind of alignment a of segment s. Only the first
// alignment carries pairing information.
func (r *Record) split(a, s int) SplitKind {
	if a == 0 && s < len(r.Pairing) {
		return r.Pairing[s].Split
	}
	return SplitNone
}

// Reverse reports the strand of splice j of alignment a of segment s.
func (r *Record) Reverse(s, a, j int) (reverse, ok bool) {
	for _, st := range r.Strands {
		if st.Segment == s && st.Alignment == a && st.Splice == j {
			return st.Reverse, true
		}
	}
	return false, false
}

// Read1First reports whether the first template segment is read 1.
func (r *Record) Read1First() bool {
	if len(r.Pairing) > 1 {
		return r.Pairing[1].Read1First
	}
	return true
}
