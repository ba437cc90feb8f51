// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package accessunit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/mpegg/descriptor"
)

// Entry is one manifest row.
type Entry struct {
	Header
	// SymbolsPath names the symbol file of the access unit. See
	// symbols.Open for the accepted formats.
	SymbolsPath string
}

// Manifest lists access units in decoding order.
type Manifest []Entry

type manifestRow struct {
	ID             int64  `tsv:"AU_ID"`
	Class          string `tsv:"CLASS"`
	ParameterSetID int64  `tsv:"PARAMETER_SET_ID"`
	SequenceID     int64  `tsv:"SEQUENCE_ID"`
	StartPosition  int64  `tsv:"AU_START_POSITION"`
	ReadsCount     int64  `tsv:"READS_COUNT"`
	Symbols        string `tsv:"SYMBOLS"`
}

func (r *manifestRow) entry() (Entry, error) {
	class, err := descriptor.ParseClass(r.Class)
	if err != nil {
		return Entry{}, err
	}
	if r.ID < 0 || r.SequenceID < 0 || r.StartPosition < 0 || r.ReadsCount < 0 {
		return Entry{}, fmt.Errorf("negative value in %+v", *r)
	}
	if r.ParameterSetID < 0 || r.ParameterSetID > 255 {
		return Entry{}, fmt.Errorf("PARAMETER_SET_ID=%d out of range", r.ParameterSetID)
	}
	if r.Symbols == "" {
		return Entry{}, fmt.Errorf("AU %d: empty SYMBOLS", r.ID)
	}
	return Entry{
		Header: Header{
			ID:             uint64(r.ID),
			Class:          class,
			ParameterSetID: uint8(r.ParameterSetID),
			SequenceID:     uint64(r.SequenceID),
			StartPosition:  uint64(r.StartPosition),
			ReadsCount:     uint64(r.ReadsCount),
		},
		SymbolsPath: r.Symbols,
	}, nil
}

// ReadManifest parses a manifest TSV with a header row. Relative SYMBOLS
// paths are resolved against dir unless dir is empty.
func ReadManifest(in io.Reader, dir string) (Manifest, error) {
	r := tsv.NewReader(in)
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	var m Manifest
	seen := map[uint64]bool{}
	for nLine := 1; ; nLine++ {
		var row manifestRow
		if err := r.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		e, err := row.entry()
		if err != nil {
			return nil, fmt.Errorf("row %d: %v", nLine, err)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("row %d: duplicate AU %d", nLine, e.ID)
		}
		seen[e.ID] = true
		if dir != "" && !isAbs(e.SymbolsPath) {
			e.SymbolsPath = file.Join(dir, e.SymbolsPath)
		}
		m = append(m, e)
	}
	return m, nil
}

func isAbs(path string) bool {
	return strings.HasPrefix(path, "/") || strings.Contains(path, "://")
}

// OpenManifest reads a manifest from path. Relative symbol paths are
// resolved against the directory of the manifest.
func OpenManifest(ctx context.Context, path string) (m Manifest, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open manifest", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if m, err = ReadManifest(in.Reader(ctx), file.Dir(path)); err != nil {
		return nil, errors.E(err, path)
	}
	log.Debug.Printf("%s: %d access units", path, len(m))
	return m, nil
}

// NumReads returns the total number of reads declared by the manifest.
func (m Manifest) NumReads() uint64 {
	var n uint64
	for _, e := range m {
		n += e.ReadsCount
	}
	return n
}
