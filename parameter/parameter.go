// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package parameter holds MPEG-G parameter sets and the per-class view of a
// parameter set that record reconstruction consumes.
package parameter

import (
	"fmt"

	"github.com/grailbio/mpegg/descriptor"
)

// Alphabet is a read alphabet. The symbol with index Len() is the terminator
// used by soft-clip runs.
type Alphabet struct {
	ID      uint8
	Symbols string
}

// Len returns the number of real symbols, which is also the terminator index.
func (a Alphabet) Len() uint64 { return uint64(len(a.Symbols)) }

// Symbol returns the base for symbol index i.
func (a Alphabet) Symbol(i uint64) (byte, error) {
	if i >= a.Len() {
		return 0, fmt.Errorf("symbol %d outside alphabet %d (%d symbols)", i, a.ID, len(a.Symbols))
	}
	return a.Symbols[i], nil
}

var alphabets = []Alphabet{
	{0, "ACGTN"},
	{1, "ACGTRYSWKMBDHVN-"},
}

// LookupAlphabet returns the alphabet with the given id.
func LookupAlphabet(id uint8) (Alphabet, error) {
	if int(id) >= len(alphabets) {
		return Alphabet{}, fmt.Errorf("unknown alphabet id %d", id)
	}
	return alphabets[id], nil
}

// Set is one dataset parameter set.
type Set struct {
	ID         uint8
	AlphabetID uint8
	// ReadLength is the nominal read length. Zero means the length of each
	// record segment is coded explicitly.
	ReadLength         uint32
	TemplateSegments   uint8
	SplicedReads       bool
	MultipleAlignments bool
	NumGroups          uint16
	QVDepth            uint8
	ASDepth            uint8
	// QVCodebooks is the total number of quality-value codebooks.
	QVCodebooks           uint8
	MultipleSignatureBase uint32
	CRPS                  bool
	CRAlgID               uint8
}

// Validate checks the fields that reconstruction depends on.
func (s *Set) Validate() error {
	if _, err := LookupAlphabet(s.AlphabetID); err != nil {
		return fmt.Errorf("parameter set %d: %v", s.ID, err)
	}
	if s.TemplateSegments != 1 && s.TemplateSegments != 2 {
		return fmt.Errorf("parameter set %d: template segments must be 1 or 2, got %d", s.ID, s.TemplateSegments)
	}
	return nil
}

// View is the read-only configuration for one read class, resolved once per
// access unit.
type View struct {
	Class              descriptor.Class
	Alphabet           Alphabet
	ReadLength         uint64
	TemplateSegments   int
	Spliced            bool
	MultipleAlignments bool
	NumGroups          uint64
	QVDepth            int
	ASDepth            int
	// QVCodebooksAligned is the number of quality codebooks available to
	// aligned reads of this class.
	QVCodebooksAligned    int
	MultipleSignatureBase uint32
	CRPS                  bool
	CRAlgID               uint8
}

// Resolve returns the view of s for class c. s must have passed Validate.
func (s *Set) Resolve(c descriptor.Class) View {
	alphabet, err := LookupAlphabet(s.AlphabetID)
	if err != nil {
		panic(err)
	}
	v := View{
		Class:                 c,
		Alphabet:              alphabet,
		ReadLength:            uint64(s.ReadLength),
		TemplateSegments:      int(s.TemplateSegments),
		Spliced:               s.SplicedReads,
		MultipleAlignments:    s.MultipleAlignments,
		NumGroups:             uint64(s.NumGroups),
		QVDepth:               int(s.QVDepth),
		ASDepth:               int(s.ASDepth),
		MultipleSignatureBase: s.MultipleSignatureBase,
		CRPS:                  s.CRPS,
		CRAlgID:               s.CRAlgID,
	}
	switch {
	case c == descriptor.ClassU:
		v.QVCodebooksAligned = 0
	case c.Clipped():
		v.QVCodebooksAligned = int(s.QVCodebooks) - 1
		if v.QVCodebooksAligned < 0 {
			v.QVCodebooksAligned = 0
		}
	default:
		v.QVCodebooksAligned = int(s.QVCodebooks)
	}
	return v
}

// ReferenceClipping reports whether unmapped reads are clipped against the
// reference (CR algorithms 2 and 4), in which case every record segment maps
// exactly once.
func (v View) ReferenceClipping() bool {
	return v.CRPS && (v.CRAlgID == 2 || v.CRAlgID == 4)
}

// NumSubsequences returns the number of subsequences of descriptor id under
// this view.
func (v View) NumSubsequences(id descriptor.ID) int {
	return descriptor.NumSubsequences(v.Class, id, v.QVCodebooksAligned)
}
