// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package symbols

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/mpegg/descriptor"
	"github.com/klauspost/compress/gzip"
)

// The text dump lists columns as whitespace-separated groups
//
//   <descriptor> <subsequence> <count> <v1> ... <vcount>
//
// The dump ends at EOF or at a descriptor value of -1. A column may appear in
// several groups; their symbols are concatenated.

// ReadText parses a text dump into a new store.
func ReadText(r io.Reader) (*Store, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 1<<20)
	sc.Split(bufio.ScanWords)
	nWords := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		nWords++
		return sc.Text(), true
	}
	parse := func(what string) (uint64, error) {
		w, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("symbols: truncated dump: missing %s after word %d", what, nWords)
		}
		v, err := strconv.ParseUint(w, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("symbols: word %d: bad %s %q", nWords, what, w)
		}
		return v, nil
	}

	s := NewStore()
	for {
		w, ok := next()
		if !ok {
			break
		}
		if w == "-1" {
			break
		}
		id, err := strconv.ParseUint(w, 10, 8)
		if err != nil || !descriptor.ID(id).Valid() {
			return nil, fmt.Errorf("symbols: word %d: bad descriptor id %q", nWords, w)
		}
		sub, err := parse("subsequence")
		if err != nil {
			return nil, err
		}
		if sub >= descriptor.MaxSubsequences {
			return nil, fmt.Errorf("symbols: word %d: subsequence %d out of range", nWords, sub)
		}
		n, err := parse("symbol count")
		if err != nil {
			return nil, err
		}
		c := s.column(descriptor.ID(id), int(sub))
		for i := uint64(0); i < n; i++ {
			v, err := parse("symbol")
			if err != nil {
				return nil, err
			}
			c.values = append(c.values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteText writes every non-empty column of s as a text dump, followed by the
// -1 terminator.
func WriteText(w io.Writer, s *Store) error {
	bw := bufio.NewWriter(w)
	for _, k := range s.Keys() {
		vals := s.Values(k.Descriptor, k.Subsequence)
		fmt.Fprintf(bw, "%d %d %d", k.Descriptor, k.Subsequence, len(vals))
		for _, v := range vals {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatUint(v, 10))
		}
		bw.WriteByte('\n')
	}
	bw.WriteString("-1\n")
	return bw.Flush()
}

// OpenText reads a text dump from path. Paths ending in ".gz" are
// gunzipped.
func OpenText(ctx context.Context, path string) (s *Store, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open symbol dump", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.E(err, "gunzip symbol dump", path)
		}
		defer gz.Close() // nolint: errcheck
		r = gz
	}
	if s, err = ReadText(r); err != nil {
		return nil, errors.E(err, path)
	}
	return s, nil
}

// CreateText writes s as a text dump to a new file at path, gzipped if the
// path ends in ".gz".
func CreateText(ctx context.Context, path string, s *Store) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create symbol dump", path)
	}
	e := errors.Once{}
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(out.Writer(ctx))
		e.Set(WriteText(gz, s))
		e.Set(gz.Close())
	} else {
		e.Set(WriteText(out.Writer(ctx), s))
	}
	e.Set(out.Close(ctx))
	return e.Err()
}
