// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package descriptor defines the fixed numbering of MPEG-G genomic descriptors
// and read classes. Symbol columns are addressed by these numeric ids, so the
// values here are an external contract and must not change.
package descriptor

import "fmt"

// ID identifies one descriptor, i.e., one semantic channel of read metadata.
type ID uint8

const (
	POS    ID = 0
	RCOMP  ID = 1
	FLAGS  ID = 2
	MMPOS  ID = 3
	MMTYPE ID = 4
	CLIPS  ID = 5
	UREADS ID = 6
	RLEN   ID = 7
	PAIR   ID = 8
	MSCORE ID = 9
	MMAP   ID = 10
	MSAR   ID = 11
	RTYPE  ID = 12
	RGROUP ID = 13
	QV     ID = 14
	RNAME  ID = 15
	RFTP   ID = 16
	RFTT   ID = 17

	// NumDescriptors is the number of defined descriptors.
	NumDescriptors = 18
	// MaxID is the largest descriptor id accepted by a column store.
	MaxID = 18
	// MaxSubsequences bounds the number of subsequences of any descriptor.
	MaxSubsequences = 11
)

var idNames = [NumDescriptors]string{
	"POS", "RCOMP", "FLAGS", "MMPOS", "MMTYPE", "CLIPS", "UREADS", "RLEN", "PAIR",
	"MSCORE", "MMAP", "MSAR", "RTYPE", "RGROUP", "QV", "RNAME", "RFTP", "RFTT",
}

// String returns the standard mnemonic, e.g., "POS".
func (id ID) String() string {
	if int(id) < NumDescriptors {
		return idNames[id]
	}
	return fmt.Sprintf("DESC%d", uint8(id))
}

// Valid reports whether id can address a column.
func (id ID) Valid() bool { return id <= MaxID }

// Subsequences of the descriptors that the record decoder reads. The names
// follow the standard's description of each subsequence.
const (
	PosFirst      = 0 // POS: first alignment, delta vs. previous record
	PosAdditional = 1 // POS: further alignments, delta vs. previous alignment

	ClipsRecordIndex = 0 // CLIPS: index of the next clipped record
	ClipsType        = 1 // CLIPS: clip type tokens, terminated by a run end token
	ClipsSoftSymbol  = 2 // CLIPS: soft-clip symbols, terminated per clip
	ClipsHardLength  = 3 // CLIPS: hard-clip lengths

	PairMode            = 0 // PAIR: pairing mode (0..6)
	PairSameRecord      = 1 // PAIR: mode 0, packed delta and read1-first bit
	PairPosRead2First   = 2 // PAIR: mode 1, mate position
	PairPosRead1First   = 3 // PAIR: mode 2, mate position
	PairSeqRead2First   = 4 // PAIR: mode 3, mate sequence id
	PairSeqRead1First   = 5 // PAIR: mode 4, mate sequence id
	PairOtherRead2First = 6 // PAIR: mode 3, mate position
	PairOtherRead1First = 7 // PAIR: mode 4, mate position

	MmapSegmentAlignments = 0 // MMAP: alignment counts
	MmapPointer           = 1 // MMAP: back-pointers to segment-1 alignments
	MmapMore              = 2 // MMAP: more-alignments escape flag
	MmapMoreSeqID         = 3 // MMAP: next sequence id
	MmapMorePos           = 4 // MMAP: next position
)
