// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package symbols

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/mpegg/descriptor"
)

const (
	// ColumnFileMagic is stored in the header of every column file.
	ColumnFileMagic = "mpegg-symbols-v1"

	magicHeader = "magic"
	labelHeader = "label"
)

func init() {
	recordiozstd.Init()
}

// columnItem is one recordio item: a whole column.
type columnItem struct {
	key    Key
	values []uint64
}

// Item layout: uvarint descriptor, uvarint subsequence, uvarint count, then
// count uvarint symbols.
func marshalColumn(scratch []byte, v interface{}) ([]byte, error) {
	item := v.(*columnItem)
	need := (3 + len(item.values)) * binary.MaxVarintLen64
	buf := scratch
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]
	n := binary.PutUvarint(buf, uint64(item.key.Descriptor))
	n += binary.PutUvarint(buf[n:], uint64(item.key.Subsequence))
	n += binary.PutUvarint(buf[n:], uint64(len(item.values)))
	for _, v := range item.values {
		n += binary.PutUvarint(buf[n:], v)
	}
	return buf[:n], nil
}

func unmarshalColumn(in []byte) (interface{}, error) {
	var hdr [3]uint64
	for i := range hdr {
		v, n := binary.Uvarint(in)
		if n <= 0 {
			return nil, fmt.Errorf("symbols: corrupt column header")
		}
		hdr[i] = v
		in = in[n:]
	}
	if hdr[0] > descriptor.MaxID || hdr[1] >= descriptor.MaxSubsequences {
		return nil, fmt.Errorf("symbols: column (%d,%d) out of range", hdr[0], hdr[1])
	}
	item := &columnItem{
		key:    Key{descriptor.ID(hdr[0]), int(hdr[1])},
		values: make([]uint64, hdr[2]),
	}
	for i := range item.values {
		v, n := binary.Uvarint(in)
		if n <= 0 {
			return nil, fmt.Errorf("symbols: column (%v,%d): corrupt symbol %d", item.key.Descriptor, item.key.Subsequence, i)
		}
		item.values[i] = v
		in = in[n:]
	}
	return item, nil
}

// WriteRIO writes every non-empty column of s to w as a zstd-compressed
// recordio file, one item per column. Label is stored in the header and shown
// in log messages when the file is read back.
func WriteRIO(w io.Writer, s *Store, label string) error {
	rio := recordio.NewWriter(w, recordio.WriterOpts{
		Marshal:      marshalColumn,
		Transformers: []string{recordiozstd.Name},
	})
	rio.AddHeader(magicHeader, ColumnFileMagic)
	rio.AddHeader(labelHeader, label)
	for _, k := range s.Keys() {
		rio.Append(&columnItem{key: k, values: s.Values(k.Descriptor, k.Subsequence)})
	}
	return rio.Finish()
}

// ReadRIO reads a column file written by WriteRIO.
func ReadRIO(r io.ReadSeeker) (*Store, error) {
	sc := recordio.NewScanner(r, recordio.ScannerOpts{Unmarshal: unmarshalColumn})
	defer sc.Finish() // nolint: errcheck
	var magic, label string
	for _, kv := range sc.Header() {
		switch kv.Key {
		case magicHeader:
			magic, _ = kv.Value.(string)
		case labelHeader:
			label, _ = kv.Value.(string)
		}
	}
	if magic != ColumnFileMagic {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("symbols: wrong column file magic %q; expect %q", magic, ColumnFileMagic)
	}
	s := NewStore()
	for sc.Scan() {
		item := sc.Get().(*columnItem)
		c := s.column(item.key.Descriptor, item.key.Subsequence)
		c.values = append(c.values, item.values...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	log.Debug.Printf("%s: read %d symbols in %d columns", label, s.NumSymbols(), len(s.Keys()))
	return s, nil
}

// OpenRIO reads a column file from path.
func OpenRIO(ctx context.Context, path string) (s *Store, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open column file", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if s, err = ReadRIO(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, path)
	}
	return s, nil
}

// CreateRIO writes s to a new column file at path.
func CreateRIO(ctx context.Context, path string, s *Store) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create column file", path)
	}
	e := errors.Once{}
	e.Set(WriteRIO(out.Writer(ctx), s, path))
	e.Set(out.Close(ctx))
	return e.Err()
}

// Open reads a store from path, choosing the format by suffix: ".rio" for
// column files, anything else for text dumps.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.HasSuffix(path, ".rio") {
		return OpenRIO(ctx, path)
	}
	return OpenText(ctx, path)
}
