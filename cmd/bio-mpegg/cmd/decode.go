// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/mpegg/accessunit"
	"github.com/grailbio/mpegg/encoding/reference"
	"github.com/grailbio/mpegg/parameter"
	"github.com/grailbio/mpegg/reconstruct"
)

type inputOpts struct {
	manifestPath string
	paramsPath   string
	// refPath is optional.
	refPath     string
	parallelism int
}

type decodeOpts struct {
	*inputOpts
	// format is "tsv" or "sam".
	format  string
	outPath string
}

// inputs is everything needed to decode a manifest.
type inputs struct {
	manifest accessunit.Manifest
	sets     parameter.Sets
	ref      *reference.Reference
}

func (in *inputs) raw() reference.Raw {
	if in.ref == nil {
		return nil
	}
	return in.ref
}

func loadInputs(ctx context.Context, opts inputOpts) (*inputs, error) {
	if opts.paramsPath == "" {
		return nil, fmt.Errorf("-params must be set")
	}
	in := &inputs{}
	var err error
	if in.sets, err = parameter.Open(ctx, opts.paramsPath); err != nil {
		return nil, err
	}
	if in.manifest, err = accessunit.OpenManifest(ctx, opts.manifestPath); err != nil {
		return nil, err
	}
	if opts.refPath != "" {
		if in.ref, err = reference.Open(ctx, opts.refPath); err != nil {
			return nil, err
		}
		log.Printf("%s: %v", opts.refPath, in.ref)
	}
	log.Printf("%s: %d access units, %d reads", opts.manifestPath, len(in.manifest), in.manifest.NumReads())
	return in, nil
}

// decode writes the records of the manifest to opts.outPath, or to stdout if
// the path is empty.
func decode(ctx context.Context, opts decodeOpts, stdout io.Writer) (err error) {
	in, err := loadInputs(ctx, *opts.inputOpts)
	if err != nil {
		return err
	}
	w := stdout
	if opts.outPath != "" {
		out, cerr := file.Create(ctx, opts.outPath)
		if cerr != nil {
			return errors.E(cerr, "create", opts.outPath)
		}
		defer file.CloseAndReport(ctx, out, &err)
		w = out.Writer(ctx)
	}

	var (
		sink  reconstruct.RecordSink
		flush = func() error { return nil }
	)
	switch opts.format {
	case "tsv":
		s, err := reconstruct.NewTSVSink(w)
		if err != nil {
			return err
		}
		sink, flush = s, s.Flush
	case "sam":
		if in.ref == nil {
			return fmt.Errorf("sam output needs -reference")
		}
		refs, err := reconstruct.SAMReferences(in.ref)
		if err != nil {
			return err
		}
		if sink, err = reconstruct.NewSAMSink(w, refs); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", opts.format)
	}
	e := errors.Once{}
	e.Set(reconstruct.DecodeManifest(ctx, in.manifest, in.sets, in.raw(),
		reconstruct.Opts{Parallelism: opts.parallelism}, sink))
	e.Set(flush())
	return e.Err()
}

// checksum prints the JSON digest of the records of the manifest.
func checksum(ctx context.Context, opts inputOpts, stdout io.Writer) error {
	in, err := loadInputs(ctx, opts)
	if err != nil {
		return err
	}
	sink := reconstruct.NewChecksumSink()
	if err := reconstruct.DecodeManifest(ctx, in.manifest, in.sets, in.raw(),
		reconstruct.Opts{Parallelism: opts.parallelism}, sink); err != nil {
		return err
	}
	js, err := json.Marshal(sink.Checksum)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(js))
	return err
}
