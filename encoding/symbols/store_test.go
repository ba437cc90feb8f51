package symbols_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/mpegg/descriptor"
	"github.com/grailbio/mpegg/encoding/symbols"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPullPeek(t *testing.T) {
	s := symbols.NewStore()
	s.Append(descriptor.POS, 0, 5, 3)

	v, err := s.Peek(descriptor.POS, 0, 1)
	require.NoError(t, err)
	expect.EQ(t, v, uint64(3))
	expect.EQ(t, s.Pos(descriptor.POS, 0), 0)

	v, err = s.Pull(descriptor.POS, 0)
	require.NoError(t, err)
	expect.EQ(t, v, uint64(5))
	v, err = s.Pull(descriptor.POS, 0)
	require.NoError(t, err)
	expect.EQ(t, v, uint64(3))
	expect.True(t, s.IsEnd(descriptor.POS, 0))

	_, err = s.Pull(descriptor.POS, 0)
	require.Error(t, err)
	exhausted, ok := err.(*symbols.ExhaustedError)
	require.True(t, ok)
	assert.Equal(t, descriptor.POS, exhausted.Descriptor)
	assert.Equal(t, 2, exhausted.Pos)
	// A failed pull does not move the cursor.
	expect.EQ(t, s.Pos(descriptor.POS, 0), 2)

	_, err = s.Peek(descriptor.PAIR, 0, 0)
	require.Error(t, err)
	expect.True(t, s.IsEnd(descriptor.PAIR, 0))
}

func TestCloneAndRewind(t *testing.T) {
	s := symbols.NewStore()
	s.Append(descriptor.RLEN, 0, 1, 2, 3)
	s.Append(descriptor.MMAP, 2, 0)
	_, err := s.Pull(descriptor.RLEN, 0)
	require.NoError(t, err)

	c := s.Clone()
	expect.EQ(t, c.Pos(descriptor.RLEN, 0), 0)
	expect.EQ(t, c.Values(descriptor.RLEN, 0), []uint64{1, 2, 3})
	expect.EQ(t, s.Pos(descriptor.RLEN, 0), 1)

	s.Rewind()
	expect.EQ(t, s.Pos(descriptor.RLEN, 0), 0)
	expect.True(t, s.HasDescriptor(descriptor.MMAP))
	expect.False(t, s.HasDescriptor(descriptor.FLAGS))
	expect.EQ(t, s.NumSymbols(), 4)
	expect.EQ(t, s.Keys(), []symbols.Key{{descriptor.RLEN, 0}, {descriptor.MMAP, 2}})
}

func TestReadText(t *testing.T) {
	s, err := symbols.ReadText(strings.NewReader(`
0 0 2 5 3
8 0 1 5
0 0 1 7
-1
1 0 1 1`))
	require.NoError(t, err)
	expect.EQ(t, s.Values(descriptor.POS, 0), []uint64{5, 3, 7})
	expect.EQ(t, s.Values(descriptor.PAIR, 0), []uint64{5})
	// Groups after the terminator are ignored.
	expect.EQ(t, len(s.Values(descriptor.RCOMP, 0)), 0)

	for _, bad := range []string{"0 0 3 1 2", "19 0 0", "0 11 0", "0 0 x"} {
		_, err := symbols.ReadText(strings.NewReader(bad))
		assert.Error(t, err, bad)
	}
}

func TestTextRoundTrip(t *testing.T) {
	s := symbols.NewStore()
	s.Append(descriptor.CLIPS, 1, 0, 8)
	s.Append(descriptor.CLIPS, 2, 3, 4)
	var buf bytes.Buffer
	require.NoError(t, symbols.WriteText(&buf, s))
	expect.EQ(t, buf.String(), "5 1 2 0 8\n5 2 2 3 4\n-1\n")
	got, err := symbols.ReadText(&buf)
	require.NoError(t, err)
	expect.EQ(t, got.Keys(), s.Keys())
}

func TestOpenFiles(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	s := symbols.NewStore()
	s.Append(descriptor.POS, 0, 100, 2, 9)
	s.Append(descriptor.MMAP, 2, 0, 0, 0)
	s.Append(descriptor.RGROUP, 0, 1<<40)

	rioPath := filepath.Join(tempDir, "au0.rio")
	require.NoError(t, symbols.CreateRIO(ctx, rioPath, s))
	got, err := symbols.Open(ctx, rioPath)
	require.NoError(t, err)
	for _, k := range s.Keys() {
		expect.EQ(t, got.Values(k.Descriptor, k.Subsequence), s.Values(k.Descriptor, k.Subsequence))
	}
	expect.EQ(t, got.Keys(), s.Keys())

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	require.NoError(t, symbols.WriteText(gz, s))
	require.NoError(t, gz.Close())
	gzPath := filepath.Join(tempDir, "au0.txt.gz")
	require.NoError(t, ioutil.WriteFile(gzPath, buf.Bytes(), 0644))
	got, err = symbols.Open(ctx, gzPath)
	require.NoError(t, err)
	expect.EQ(t, got.Values(descriptor.RGROUP, 0), []uint64{1 << 40})

	_, err = symbols.Open(ctx, filepath.Join(tempDir, "missing.rio"))
	require.Error(t, err)
}
