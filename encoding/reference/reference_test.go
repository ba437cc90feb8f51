package reference_test

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/mpegg/encoding/reference"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const fastaData = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 excerpt start=100\n" + "ACGT\n" + "ACGT\n"

func TestSlice(t *testing.T) {
	ref, err := reference.Read(strings.NewReader(fastaData))
	assert.NoError(t, err)

	tests := []struct {
		seqID  uint64
		offset uint64
		length uint64
		want   string
		err    bool
	}{
		{0, 1, 1, "C", false},
		{0, 1, 5, "CGTAC", false},
		{0, 0, 12, "ACGTACGTACGT", false},
		{0, 12, 0, "", false},
		{1, 2, 3, "GTA", false},
		{1, 0, 8, "ACGTACGT", false},
		{0, 10, 3, "", true},
		{0, 13, 0, "", true},
		{2, 0, 1, "", true},
	}
	for _, tt := range tests {
		got, err := ref.Slice(tt.seqID, tt.offset, tt.length)
		if tt.err {
			expect.NotNil(t, err, "%+v", tt)
			continue
		}
		expect.NoError(t, err)
		expect.EQ(t, got, tt.want)
	}

	start, err := ref.Start(1)
	assert.NoError(t, err)
	expect.EQ(t, start, uint64(100))
	start, err = ref.Start(0)
	assert.NoError(t, err)
	expect.EQ(t, start, uint64(0))

	id, ok := ref.ID("seq2")
	expect.True(t, ok)
	expect.EQ(t, id, uint64(1))
	expect.EQ(t, ref.String(), "reference{2 sequences, 20 bases}")
}

func TestMalformed(t *testing.T) {
	for _, data := range []string{"", "ACGT\n>seq1\nA\n", ">\nACGT\n", ">seq1 start=x\nA\n"} {
		_, err := reference.Read(strings.NewReader(data))
		expect.NotNil(t, err, data)
	}
}

func TestOpen(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "ref.fa")
	assert.NoError(t, ioutil.WriteFile(path, []byte(fastaData), 0644))
	ref, err := reference.Open(ctx, path)
	assert.NoError(t, err)
	expect.EQ(t, len(ref.Sequences()), 2)
	_, err = reference.Open(ctx, filepath.Join(tempDir, "missing.fa"))
	expect.NotNil(t, err)
}
