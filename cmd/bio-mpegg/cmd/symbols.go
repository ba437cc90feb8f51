// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/mpegg/encoding/symbols"
)

func convertSymbols(ctx context.Context, srcPath, destPath string) error {
	s, err := symbols.Open(ctx, srcPath)
	if err != nil {
		return err
	}
	log.Printf("%s: %d columns, %d symbols", srcPath, len(s.Keys()), s.NumSymbols())
	if strings.HasSuffix(destPath, ".rio") {
		return symbols.CreateRIO(ctx, destPath, s)
	}
	return symbols.CreateText(ctx, destPath, s)
}

func statSymbols(ctx context.Context, path string, w io.Writer) error {
	s, err := symbols.Open(ctx, path)
	if err != nil {
		return err
	}
	out := tsv.NewWriter(w)
	out.WriteString("#DESCRIPTOR\tSUBSEQUENCE\tSYMBOLS")
	if err := out.EndLine(); err != nil {
		return err
	}
	for _, k := range s.Keys() {
		out.WriteString(k.Descriptor.String())
		out.WriteInt64(int64(k.Subsequence))
		out.WriteInt64(int64(len(s.Values(k.Descriptor, k.Subsequence))))
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}
