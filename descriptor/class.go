// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package descriptor

import (
	"fmt"
	"strings"
)

// Class is the read class of an access unit (AU_type).
type Class uint8

// Class values as they appear in access-unit headers.
const (
	ClassP  Class = 1 // perfect match
	ClassN  Class = 2 // mismatches limited to N
	ClassM  Class = 3 // substitutions
	ClassI  Class = 4 // indels, clips, splices
	ClassHM Class = 5 // half-mapped pairs
	ClassU  Class = 6 // unmapped

	NumClasses = 6
)

var classNames = [...]string{"", "P", "N", "M", "I", "HM", "U"}

// String returns the class mnemonic, e.g., "HM".
func (c Class) String() string {
	if c >= ClassP && c <= ClassU {
		return classNames[c]
	}
	return fmt.Sprintf("CLASS%d", uint8(c))
}

// Valid reports whether c is one of the six read classes.
func (c Class) Valid() bool { return c >= ClassP && c <= ClassU }

// Clipped reports whether records of this class may carry clips and splices.
func (c Class) Clipped() bool { return c == ClassI || c == ClassHM }

// ParseClass parses a class mnemonic ("P", "hm", ...) or its numeric value
// ("1".."6").
func ParseClass(s string) (Class, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i := ClassP; i <= ClassU; i++ {
		if classNames[i] == s {
			return i, nil
		}
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '6' {
		return Class(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("unknown read class %q", s)
}

// numSubsequences is the subsequence count per descriptor, as listed in the
// standard for every read class. QV is resolved per parameter set.
var numSubsequences = [NumDescriptors]int{
	2, // POS
	1, // RCOMP
	3, // FLAGS
	2, // MMPOS
	3, // MMTYPE
	4, // CLIPS
	1, // UREADS
	1, // RLEN
	8, // PAIR
	1, // MSCORE
	5, // MMAP
	2, // MSAR
	1, // RTYPE
	1, // RGROUP
	0, // QV
	2, // RNAME
	1, // RFTP
	1, // RFTT
}

// NumSubsequences returns the number of subsequences of descriptor id for
// class c. qvCodebooksAligned is only consulted for QV, which has a second
// subsequence (codebook ids) when more than one aligned codebook exists.
func NumSubsequences(c Class, id ID, qvCodebooksAligned int) int {
	if !c.Valid() || int(id) >= NumDescriptors {
		return 0
	}
	if id == QV {
		if qvCodebooksAligned > 1 {
			return 2
		}
		return 1
	}
	return numSubsequences[id]
}
