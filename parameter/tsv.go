// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package parameter

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// setRow is one line of a parameter-set TSV. Boolean columns hold 0 or 1.
type setRow struct {
	ID                    int64 `tsv:"PARAMETER_SET_ID"`
	AlphabetID            int64 `tsv:"ALPHABET_ID"`
	ReadLength            int64 `tsv:"READ_LENGTH"`
	TemplateSegments      int64 `tsv:"TEMPLATE_SEGMENTS"`
	SplicedReads          int64 `tsv:"SPLICED_READS"`
	MultipleAlignments    int64 `tsv:"MULTIPLE_ALIGNMENTS"`
	NumGroups             int64 `tsv:"NUM_GROUPS"`
	QVDepth               int64 `tsv:"QV_DEPTH"`
	ASDepth               int64 `tsv:"AS_DEPTH"`
	QVCodebooks           int64 `tsv:"QV_CODEBOOKS"`
	MultipleSignatureBase int64 `tsv:"MULTIPLE_SIGNATURE_BASE"`
	CRPS                  int64 `tsv:"CRPS"`
	CRAlgID               int64 `tsv:"CR_ALG_ID"`
}

func checkRange(name string, v, max int64) error {
	if v < 0 || v > max {
		return fmt.Errorf("%s=%d out of range [0,%d]", name, v, max)
	}
	return nil
}

func checkBool(name string, v int64) (bool, error) {
	if v != 0 && v != 1 {
		return false, fmt.Errorf("%s=%d; expect 0 or 1", name, v)
	}
	return v == 1, nil
}

func (r *setRow) toSet() (*Set, error) {
	for _, c := range []struct {
		name string
		v    int64
		max  int64
	}{
		{"PARAMETER_SET_ID", r.ID, 255},
		{"ALPHABET_ID", r.AlphabetID, 255},
		{"READ_LENGTH", r.ReadLength, 1<<32 - 1},
		{"TEMPLATE_SEGMENTS", r.TemplateSegments, 255},
		{"NUM_GROUPS", r.NumGroups, 1<<16 - 1},
		{"QV_DEPTH", r.QVDepth, 255},
		{"AS_DEPTH", r.ASDepth, 255},
		{"QV_CODEBOOKS", r.QVCodebooks, 255},
		{"MULTIPLE_SIGNATURE_BASE", r.MultipleSignatureBase, 1<<32 - 1},
		{"CR_ALG_ID", r.CRAlgID, 255},
	} {
		if err := checkRange(c.name, c.v, c.max); err != nil {
			return nil, err
		}
	}
	s := &Set{
		ID:                    uint8(r.ID),
		AlphabetID:            uint8(r.AlphabetID),
		ReadLength:            uint32(r.ReadLength),
		TemplateSegments:      uint8(r.TemplateSegments),
		NumGroups:             uint16(r.NumGroups),
		QVDepth:               uint8(r.QVDepth),
		ASDepth:               uint8(r.ASDepth),
		QVCodebooks:           uint8(r.QVCodebooks),
		MultipleSignatureBase: uint32(r.MultipleSignatureBase),
		CRAlgID:               uint8(r.CRAlgID),
	}
	var err error
	if s.SplicedReads, err = checkBool("SPLICED_READS", r.SplicedReads); err != nil {
		return nil, err
	}
	if s.MultipleAlignments, err = checkBool("MULTIPLE_ALIGNMENTS", r.MultipleAlignments); err != nil {
		return nil, err
	}
	if s.CRPS, err = checkBool("CRPS", r.CRPS); err != nil {
		return nil, err
	}
	return s, s.Validate()
}

// Sets maps parameter-set ids to parameter sets.
type Sets map[uint8]*Set

// Get returns the parameter set with the given id.
func (m Sets) Get(id uint8) (*Set, error) {
	s, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("parameter set %d not found", id)
	}
	return s, nil
}

// IDs returns the parameter-set ids in increasing order.
func (m Sets) IDs() []uint8 {
	ids := make([]uint8, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ReadTSV parses parameter sets from a TSV with a header row. Column order is
// free; column names follow the tsv tags of setRow.
func ReadTSV(in io.Reader) (Sets, error) {
	r := tsv.NewReader(in)
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	sets := Sets{}
	for nLine := 1; ; nLine++ {
		var row setRow
		if err := r.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		s, err := row.toSet()
		if err != nil {
			return nil, fmt.Errorf("row %d: %v", nLine, err)
		}
		if _, ok := sets[s.ID]; ok {
			return nil, fmt.Errorf("row %d: duplicate parameter set %d", nLine, s.ID)
		}
		sets[s.ID] = s
	}
	return sets, nil
}

// Open reads a parameter-set TSV from path.
func Open(ctx context.Context, path string) (sets Sets, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open parameter sets", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if sets, err = ReadTSV(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, path)
	}
	log.Debug.Printf("%s: read %d parameter sets", path, len(sets))
	return sets, nil
}
