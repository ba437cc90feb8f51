// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package reference provides the raw reference view used to materialize read
// sequences: for each MPEG-G sequence id, the offset of the first available
// base and the bases themselves.
//
// References are read from FASTA. Sequence ids are assigned in order of
// appearance, starting at 0. A reference may be an excerpt of a longer
// sequence; a "start=N" token in the description marks the 0-based position
// of its first base. For example:
//
// >chr7 start=10000
// ACGTAC
// GAGGAC
// >chr8
// ACGT
package reference

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

const bufferInitSize = 1024 * 1024 * 300 // 300 MB

// Raw is a read-only view of reference sequences. Implementations must be safe
// for concurrent use.
type Raw interface {
	// Start returns the position of the first base available for seqID.
	Start(seqID uint64) (uint64, error)

	// Slice returns length bases of seqID starting at offset, which is
	// relative to Start(seqID).
	Slice(seqID, offset, length uint64) (string, error)
}

// Sequence is one reference sequence (or excerpt).
type Sequence struct {
	Name  string
	Start uint64
	Bases string
}

// Reference is an in-memory Raw.
type Reference struct {
	seqs []Sequence
	ids  map[string]uint64
}

// New creates a reference from the given sequences. Sequence i gets id i.
func New(seqs ...Sequence) *Reference {
	r := &Reference{seqs: seqs, ids: make(map[string]uint64, len(seqs))}
	for i, s := range seqs {
		r.ids[s.Name] = uint64(i)
	}
	return r
}

func (r *Reference) get(seqID uint64) (*Sequence, error) {
	if seqID >= uint64(len(r.seqs)) {
		return nil, errors.Errorf("sequence id %d not found (%d sequences)", seqID, len(r.seqs))
	}
	return &r.seqs[seqID], nil
}

// Start implements Raw.
func (r *Reference) Start(seqID uint64) (uint64, error) {
	s, err := r.get(seqID)
	if err != nil {
		return 0, err
	}
	return s.Start, nil
}

// Slice implements Raw. A zero length yields an empty string as long as offset
// lies within the sequence.
func (r *Reference) Slice(seqID, offset, length uint64) (string, error) {
	s, err := r.get(seqID)
	if err != nil {
		return "", err
	}
	n := uint64(len(s.Bases))
	if offset > n || length > n-offset {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			offset, offset+length, s.Name, n)
	}
	return s.Bases[offset : offset+length], nil
}

// ID returns the sequence id of the named sequence.
func (r *Reference) ID(name string) (uint64, bool) {
	id, ok := r.ids[name]
	return id, ok
}

// Sequences returns all sequences in id order.
func (r *Reference) Sequences() []Sequence { return r.seqs }

// Read parses FASTA data.
func Read(in io.Reader) (*Reference, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(nil, bufferInitSize)
	var (
		seqs []Sequence
		cur  *Sequence
		seq  strings.Builder
	)
	flush := func() {
		if cur != nil {
			cur.Bases = seq.String()
			seqs = append(seqs, *cur)
			seq.Reset()
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] != '>' {
			if cur == nil {
				return nil, errors.Errorf("malformed FASTA file: bases before the first header")
			}
			seq.WriteString(strings.TrimSpace(line))
			continue
		}
		flush()
		fields := strings.Fields(line[1:])
		if len(fields) == 0 {
			return nil, errors.Errorf("malformed FASTA file: empty sequence name")
		}
		cur = &Sequence{Name: fields[0]}
		for _, f := range fields[1:] {
			if !strings.HasPrefix(f, "start=") {
				continue
			}
			v, err := strconv.ParseUint(f[len("start="):], 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "sequence %s: bad start", cur.Name)
			}
			cur.Start = v
		}
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	flush()
	if len(seqs) == 0 {
		return nil, errors.Errorf("empty FASTA file")
	}
	return New(seqs...), nil
}

// Open reads a FASTA file from path.
func Open(ctx context.Context, path string) (r *Reference, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open reference %s", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if r, err = Read(in.Reader(ctx)); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return r, nil
}

// String summarizes the reference for logging.
func (r *Reference) String() string {
	var total uint64
	for _, s := range r.seqs {
		total += uint64(len(s.Bases))
	}
	return fmt.Sprintf("reference{%d sequences, %d bases}", len(r.seqs), total)
}
