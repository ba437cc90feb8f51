package reconstruct_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/mpegg/accessunit"
	"github.com/grailbio/mpegg/descriptor"
	"github.com/grailbio/mpegg/encoding/symbols"
	"github.com/grailbio/mpegg/parameter"
	"github.com/grailbio/mpegg/reconstruct"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simpleUnit holds n single-segment class P records, one base apart.
func simpleUnit(t *testing.T, id uint64, n int) *accessunit.Unit {
	s := symbols.NewStore()
	for i := 0; i < n; i++ {
		s.Append(descriptor.POS, descriptor.PosFirst, 1)
		s.Append(descriptor.RCOMP, 0, uint64(i%2))
	}
	return newUnit(t, unitOpts{id: id, class: descriptor.ClassP, start: 1000, reads: uint64(n),
		params: parameter.Set{ReadLength: 4}}, s)
}

func TestTSVSink(t *testing.T) {
	var buf bytes.Buffer
	sink, err := reconstruct.NewTSVSink(&buf)
	require.NoError(t, err)
	require.NoError(t, reconstruct.NewDecoder(simpleUnit(t, 3, 2), testRef).Run(vcontext.Background(), sink))
	require.NoError(t, sink.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	expect.EQ(t, lines[0], reconstruct.TSVHeader)
	expect.EQ(t, lines[1], "3\t0\t0\t0\t1001\t4\t4\t0,-,-,0\t+\t*\t*\tACCG")
	expect.EQ(t, lines[2], "3\t1\t0\t16\t1002\t4\t4\t0,-,-,0\t-\t*\t*\tCCGG")
}

func TestTSVSinkPaired(t *testing.T) {
	var buf bytes.Buffer
	sink, err := reconstruct.NewTSVSink(&buf)
	require.NoError(t, err)
	u := newUnit(t, unitOpts{class: descriptor.ClassM, start: 1000, reads: 2, params: pairedParams}, pairedStore())
	require.NoError(t, reconstruct.NewDecoder(u, testRef).Run(vcontext.Background(), sink))
	require.NoError(t, sink.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	expect.EQ(t, lines[1], "0\t0\t0\t1123\t1010\t4\t4\t0,-,-,0\t+-\tnone:0:1030:*:*\t1\tCCGG")
	expect.EQ(t, lines[2], "0\t0\t1\t1171\t1030\t4\t4\t0,-,-,0\t-+\tnone:0:1030:*:*\t1\tTTAA")
}

func TestSAMSink(t *testing.T) {
	refs, err := reconstruct.SAMReferences(testRef)
	require.NoError(t, err)
	var buf bytes.Buffer
	sink, err := reconstruct.NewSAMSink(&buf, refs)
	require.NoError(t, err)
	require.NoError(t, reconstruct.NewDecoder(simpleUnit(t, 0, 1), testRef).Run(vcontext.Background(), sink))

	out := buf.String()
	assert.Contains(t, out, "@SQ\tSN:chr1\tLN:1056")
	var records []string
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if !strings.HasPrefix(line, "@") {
			records = append(records, line)
		}
	}
	require.Len(t, records, 1)
	assert.True(t, strings.HasPrefix(records[0], "au0.0\t0\tchr1\t1002\t255\t4M\t"), records[0])
	assert.Contains(t, records[0], "\tACCG\t")
}

func TestSAMSinkUnknownSequence(t *testing.T) {
	var buf bytes.Buffer
	sink, err := reconstruct.NewSAMSink(&buf, nil)
	require.NoError(t, err)
	err = reconstruct.NewDecoder(simpleUnit(t, 0, 1), testRef).Run(vcontext.Background(), sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in SAM header")
}

func checksum(t *testing.T, recs []*reconstruct.Record) reconstruct.Checksum {
	s := reconstruct.NewChecksumSink()
	for _, r := range recs {
		require.NoError(t, s.Accept(r))
	}
	return s.Checksum
}

func TestChecksumMerge(t *testing.T) {
	recs := decodeAll(t, simpleUnit(t, 0, 6), testRef)
	all := checksum(t, recs)
	expect.EQ(t, all.NRecs, uint64(6))
	expect.EQ(t, all.NSegments, uint64(6))

	// Order of accumulation does not matter.
	merged := checksum(t, recs[3:])
	merged.Merge(checksum(t, recs[:3]))
	expect.EQ(t, merged, all)

	// Any field change shows up.
	recs[2].Positions[0][0].Value++
	changed := checksum(t, recs)
	expect.EQ(t, changed.SumLengths, all.SumLengths)
	assert.NotEqual(t, changed.SumPos, all.SumPos)
}

func TestDecodeAll(t *testing.T) {
	units := []*accessunit.Unit{simpleUnit(t, 0, 3), simpleUnit(t, 1, 1), simpleUnit(t, 2, 2)}
	for _, parallelism := range []int{1, 2, 8} {
		c := reconstruct.Collector{}
		require.NoError(t, reconstruct.DecodeAll(vcontext.Background(), units, testRef,
			reconstruct.Opts{Parallelism: parallelism}, &c))
		var ids [][2]uint64
		for _, r := range c.Records {
			ids = append(ids, [2]uint64{r.AU, r.Index})
		}
		expect.EQ(t, ids, [][2]uint64{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {2, 0}, {2, 1}})
	}

	// Units are left untouched, so decoding twice gives the same digest.
	sum1, sum2 := reconstruct.NewChecksumSink(), reconstruct.NewChecksumSink()
	require.NoError(t, reconstruct.DecodeAll(vcontext.Background(), units, testRef, reconstruct.DefaultOpts, sum1))
	require.NoError(t, reconstruct.DecodeAll(vcontext.Background(), units, testRef, reconstruct.DefaultOpts, sum2))
	expect.EQ(t, sum1.Checksum, sum2.Checksum)
	expect.EQ(t, sum1.NRecs, uint64(6))
	for _, u := range units {
		expect.EQ(t, u.Symbols.Pos(descriptor.POS, descriptor.PosFirst), 0)
	}
}

func TestDecodeAllErrors(t *testing.T) {
	bad := newUnit(t, unitOpts{id: 1, class: descriptor.ClassP, reads: 1, params: parameter.Set{ReadLength: 4}},
		symbols.NewStore())
	for _, units := range [][]*accessunit.Unit{
		{simpleUnit(t, 0, 2), bad},
		{simpleUnit(t, 0, 2), bad, simpleUnit(t, 2, 3)},
	} {
		for _, parallelism := range []int{1, 2, 8} {
			c := reconstruct.Collector{}
			err := reconstruct.DecodeAll(vcontext.Background(), units, nil, reconstruct.Opts{Parallelism: parallelism}, &c)
			require.Error(t, err)
			expect.True(t, reconstruct.IsKind(err, reconstruct.ColumnExhausted), err)
			// Units before the failing one are emitted, even from the same batch.
			require.Len(t, c.Records, 2, "parallelism %d", parallelism)
			for _, r := range c.Records {
				expect.EQ(t, r.AU, uint64(0))
			}
		}
	}

	ctx, cancel := context.WithCancel(vcontext.Background())
	cancel()
	c := reconstruct.Collector{}
	err := reconstruct.DecodeAll(ctx, []*accessunit.Unit{simpleUnit(t, 0, 1)}, nil, reconstruct.DefaultOpts, &c)
	expect.EQ(t, err, context.Canceled)
	expect.EQ(t, len(c.Records), 0)
}
