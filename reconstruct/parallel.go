// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package reconstruct

import (
	"context"
	"runtime"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/mpegg/accessunit"
	"github.com/grailbio/mpegg/encoding/reference"
	"github.com/grailbio/mpegg/parameter"
)

// Opts controls multi-access-unit decoding.
type Opts struct {
	// Parallelism is the number of access units decoded at once. Zero means
	// runtime.NumCPU().
	Parallelism int
}

// DefaultOpts are the default decoding options.
var DefaultOpts = Opts{}

func (o Opts) parallelism() int {
	if o.Parallelism <= 0 {
		return runtime.NumCPU()
	}
	return o.Parallelism
}

// DecodeAll reconstructs the records of units and passes them to sink,
// unit by unit in slice order. Units are decoded in parallel, each on its own
// copy of the symbol cursors, so units are left untouched and DecodeAll may
// be called again with the same arguments. Decoding stops at the first unit
// that fails: records of the units before it are emitted, and those of the
// failing unit and any later unit are not. ctx is checked between batches of
// units.
func DecodeAll(ctx context.Context, units []*accessunit.Unit, ref reference.Raw, opts Opts, sink RecordSink) error {
	return decodeBatches(ctx, len(units), func(i int) (*accessunit.Unit, error) {
		return units[i].Clone(), nil
	}, ref, opts, sink)
}

// DecodeManifest is DecodeAll for the access units of a manifest. Symbol files
// are read by the decoding workers.
func DecodeManifest(ctx context.Context, m accessunit.Manifest, sets parameter.Sets, ref reference.Raw, opts Opts, sink RecordSink) error {
	return decodeBatches(ctx, len(m), func(i int) (*accessunit.Unit, error) {
		return accessunit.Load(ctx, m[i], sets)
	}, ref, opts, sink)
}

func decodeBatches(ctx context.Context, n int, load func(i int) (*accessunit.Unit, error),
	ref reference.Raw, opts Opts, sink RecordSink) error {
	batchSize := opts.parallelism()
	var nRecords int
	for start := 0; start < n; start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + batchSize
		if end > n {
			end = n
		}
		var (
			results = make([]Collector, end-start)
			errs    = make([]error, end-start)
		)
		err := traverse.Each(end-start, func(i int) error {
			u, err := load(start + i)
			if err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = NewDecoder(u, ref).Run(ctx, &results[i])
			return nil
		})
		if err != nil {
			return err
		}
		for i := range results {
			if errs[i] != nil {
				log.Printf("decoded %d records from %d access units", nRecords, start+i)
				return errs[i]
			}
			for _, rec := range results[i].Records {
				if err := sink.Accept(rec); err != nil {
					return err
				}
			}
			nRecords += len(results[i].Records)
		}
	}
	log.Printf("decoded %d records from %d access units", nRecords, n)
	return nil
}
