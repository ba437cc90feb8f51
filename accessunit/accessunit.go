// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package accessunit describes MPEG-G access units: the header facts that
// record reconstruction needs, and a manifest that lists the access units of a
// dataset together with the files holding their decoded symbols.
package accessunit

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/mpegg/descriptor"
	"github.com/grailbio/mpegg/encoding/symbols"
	"github.com/grailbio/mpegg/parameter"
)

// Header holds the immutable facts of one access unit.
type Header struct {
	ID             uint64
	Class          descriptor.Class
	ParameterSetID uint8
	// SequenceID is the reference sequence the records are aligned to.
	SequenceID uint64
	// StartPosition is the position that the first POS symbol is relative
	// to.
	StartPosition uint64
	// ReadsCount is the number of record segments in the access unit.
	ReadsCount uint64
}

// String returns a short description for log messages.
func (h Header) String() string {
	return fmt.Sprintf("AU %d (class %v, seq %d, start %d, %d reads)",
		h.ID, h.Class, h.SequenceID, h.StartPosition, h.ReadsCount)
}

// Unit is an access unit ready for reconstruction: its header, the parameter
// view resolved for its class, and its symbol columns.
type Unit struct {
	Header
	Params  parameter.View
	Symbols *symbols.Store
}

// NewUnit resolves the parameter set of h in sets and combines it with store.
func NewUnit(h Header, sets parameter.Sets, store *symbols.Store) (*Unit, error) {
	if !h.Class.Valid() {
		return nil, fmt.Errorf("%v: invalid class", h)
	}
	ps, err := sets.Get(h.ParameterSetID)
	if err != nil {
		return nil, fmt.Errorf("%v: %v", h, err)
	}
	if err := ps.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %v", h, err)
	}
	return &Unit{Header: h, Params: ps.Resolve(h.Class), Symbols: store}, nil
}

// Load reads the symbols named by e and returns the resulting unit.
func Load(ctx context.Context, e Entry, sets parameter.Sets) (*Unit, error) {
	store, err := symbols.Open(ctx, e.SymbolsPath)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("load AU %d", e.ID))
	}
	return NewUnit(e.Header, sets, store)
}

// Clone returns a unit that shares everything with u except the symbol
// cursors, which start at the first symbol.
func (u *Unit) Clone() *Unit {
	c := *u
	c.Symbols = u.Symbols.Clone()
	return &c
}
