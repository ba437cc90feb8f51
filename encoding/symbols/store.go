// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package symbols stores the entropy-decoded symbols of one access unit. Each
// (descriptor, subsequence) pair owns one column of uint64 symbols and one read
// cursor. Columns are filled before record reconstruction starts and are never
// modified afterwards; reconstruction only moves the cursors forward.
package symbols

import (
	"fmt"

	"github.com/grailbio/mpegg/descriptor"
)

// Column is one subsequence of decoded symbols together with its read cursor.
type Column struct {
	values []uint64
	pos    int
}

// Len returns the number of symbols in the column.
func (c *Column) Len() int { return len(c.values) }

// Pos returns the cursor position, i.e., the number of symbols pulled so far.
func (c *Column) Pos() int { return c.pos }

// IsEnd reports whether every symbol has been pulled.
func (c *Column) IsEnd() bool { return c.pos >= len(c.values) }

// ExhaustedError is returned when a symbol is requested past the end of a
// column.
type ExhaustedError struct {
	Descriptor  descriptor.ID
	Subsequence int
	// Pos is the index that was requested.
	Pos int
	// Len is the column length.
	Len int
}

// Error implements error.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("symbols: column (%v,%d) exhausted: requested symbol %d of %d",
		e.Descriptor, e.Subsequence, e.Pos, e.Len)
}

// Store holds every column of one access unit.
//
// A Store is not safe for concurrent use. Access units decoded in parallel
// must each own a Store; Clone gives a fresh set of cursors over shared,
// read-only symbols.
type Store struct {
	cols [descriptor.MaxID + 1][descriptor.MaxSubsequences]Column
}

// NewStore creates an empty store.
func NewStore() *Store { return &Store{} }

func (s *Store) column(id descriptor.ID, sub int) *Column {
	if !id.Valid() || sub < 0 || sub >= descriptor.MaxSubsequences {
		panic(fmt.Sprintf("symbols: invalid column (%d,%d)", id, sub))
	}
	return &s.cols[id][sub]
}

// Column returns the column for (id, sub). It panics if the pair is outside
// the addressable range.
func (s *Store) Column(id descriptor.ID, sub int) *Column { return s.column(id, sub) }

// Append adds symbols to the end of a column. It must not be called once
// reconstruction has started.
func (s *Store) Append(id descriptor.ID, sub int, values ...uint64) {
	c := s.column(id, sub)
	c.values = append(c.values, values...)
}

// Set replaces the contents of a column and rewinds its cursor. The store keeps
// a reference to values.
func (s *Store) Set(id descriptor.ID, sub int, values []uint64) {
	c := s.column(id, sub)
	c.values = values
	c.pos = 0
}

// Values returns the symbols of a column. The caller must not modify them.
func (s *Store) Values(id descriptor.ID, sub int) []uint64 { return s.column(id, sub).values }

// Pull returns the symbol under the cursor and advances the cursor.
func (s *Store) Pull(id descriptor.ID, sub int) (uint64, error) {
	c := s.column(id, sub)
	if c.pos >= len(c.values) {
		return 0, &ExhaustedError{Descriptor: id, Subsequence: sub, Pos: c.pos, Len: len(c.values)}
	}
	v := c.values[c.pos]
	c.pos++
	return v, nil
}

// Peek returns the symbol lookahead positions past the cursor without moving
// it.
func (s *Store) Peek(id descriptor.ID, sub, lookahead int) (uint64, error) {
	c := s.column(id, sub)
	i := c.pos + lookahead
	if lookahead < 0 || i >= len(c.values) {
		return 0, &ExhaustedError{Descriptor: id, Subsequence: sub, Pos: i, Len: len(c.values)}
	}
	return c.values[i], nil
}

// IsEnd reports whether the cursor of (id, sub) is past the last symbol.
func (s *Store) IsEnd(id descriptor.ID, sub int) bool { return s.column(id, sub).IsEnd() }

// Pos returns the cursor position of (id, sub).
func (s *Store) Pos(id descriptor.ID, sub int) int { return s.column(id, sub).pos }

// Remaining returns the number of symbols of (id, sub) not yet pulled.
func (s *Store) Remaining(id descriptor.ID, sub int) int {
	c := s.column(id, sub)
	return len(c.values) - c.pos
}

// HasDescriptor reports whether any subsequence of id holds symbols.
func (s *Store) HasDescriptor(id descriptor.ID) bool {
	for sub := range s.cols[id] {
		if len(s.cols[id][sub].values) > 0 {
			return true
		}
	}
	return false
}

// Rewind moves every cursor back to the first symbol.
func (s *Store) Rewind() {
	for id := range s.cols {
		for sub := range s.cols[id] {
			s.cols[id][sub].pos = 0
		}
	}
}

// Clone returns a store that shares the symbols of s but has its own cursors,
// all at the first symbol.
func (s *Store) Clone() *Store {
	n := &Store{}
	for id := range s.cols {
		for sub := range s.cols[id] {
			n.cols[id][sub].values = s.cols[id][sub].values
		}
	}
	return n
}

// Key names one column.
type Key struct {
	Descriptor  descriptor.ID
	Subsequence int
}

// Keys lists the non-empty columns in (descriptor, subsequence) order.
func (s *Store) Keys() []Key {
	var keys []Key
	for id := range s.cols {
		for sub := range s.cols[id] {
			if len(s.cols[id][sub].values) > 0 {
				keys = append(keys, Key{descriptor.ID(id), sub})
			}
		}
	}
	return keys
}

// NumSymbols returns the total number of symbols in the store.
func (s *Store) NumSymbols() int {
	n := 0
	for id := range s.cols {
		for sub := range s.cols[id] {
			n += len(s.cols[id][sub].values)
		}
	}
	return n
}
