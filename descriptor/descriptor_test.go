package descriptor_test

import (
	"testing"

	"github.com/grailbio/mpegg/descriptor"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestIDNumbering(t *testing.T) {
	// Column addressing depends on these exact values.
	expect.EQ(t, int(descriptor.POS), 0)
	expect.EQ(t, int(descriptor.RCOMP), 1)
	expect.EQ(t, int(descriptor.CLIPS), 5)
	expect.EQ(t, int(descriptor.RLEN), 7)
	expect.EQ(t, int(descriptor.PAIR), 8)
	expect.EQ(t, int(descriptor.MMAP), 10)
	expect.EQ(t, int(descriptor.RGROUP), 13)
	expect.EQ(t, int(descriptor.RFTT), 17)
	expect.EQ(t, descriptor.MMAP.String(), "MMAP")
	expect.EQ(t, descriptor.ID(18).String(), "DESC18")
	expect.True(t, descriptor.ID(18).Valid())
	expect.False(t, descriptor.ID(19).Valid())
}

func TestParseClass(t *testing.T) {
	tests := []struct {
		in   string
		want descriptor.Class
		err  bool
	}{
		{"P", descriptor.ClassP, false},
		{"hm", descriptor.ClassHM, false},
		{" U ", descriptor.ClassU, false},
		{"4", descriptor.ClassI, false},
		{"7", 0, true},
		{"X", 0, true},
	}
	for _, tt := range tests {
		got, err := descriptor.ParseClass(tt.in)
		if tt.err {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
		require.Equal(t, tt.want, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) descriptor.Class {
	c, err := descriptor.ParseClass(s)
	require.NoError(t, err)
	return c
}

func TestNumSubsequences(t *testing.T) {
	expect.EQ(t, descriptor.NumSubsequences(descriptor.ClassP, descriptor.PAIR, 0), 8)
	expect.EQ(t, descriptor.NumSubsequences(descriptor.ClassI, descriptor.CLIPS, 0), 4)
	expect.EQ(t, descriptor.NumSubsequences(descriptor.ClassP, descriptor.QV, 1), 1)
	expect.EQ(t, descriptor.NumSubsequences(descriptor.ClassP, descriptor.QV, 3), 2)
	expect.EQ(t, descriptor.NumSubsequences(descriptor.Class(0), descriptor.POS, 0), 0)
}
