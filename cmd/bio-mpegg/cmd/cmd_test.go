package cmd

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/mpegg/reconstruct"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testParams = "PARAMETER_SET_ID\tALPHABET_ID\tREAD_LENGTH\tTEMPLATE_SEGMENTS\tSPLICED_READS\tMULTIPLE_ALIGNMENTS\tNUM_GROUPS\tQV_DEPTH\tAS_DEPTH\tQV_CODEBOOKS\tMULTIPLE_SIGNATURE_BASE\tCRPS\tCR_ALG_ID\n" +
		"0\t0\t4\t1\t0\t0\t0\t0\t0\t0\t0\t0\t0\n"
	manifestHeader = "AU_ID\tCLASS\tPARAMETER_SET_ID\tSEQUENCE_ID\tAU_START_POSITION\tREADS_COUNT\tSYMBOLS\n"
	// Two class P records at deltas 1 and 1, the second one reversed.
	testSymbols = "0 0 2 1 1\n1 0 2 0 1\n-1\n"
	testFasta   = ">chr1 start=1000\nAACCGGTT\nAACCGGTT\n"
)

type testFiles struct {
	dir                  string
	params, manifest, fa string
}

func writeTestFiles(t *testing.T, dir, symbolsName string) testFiles {
	f := testFiles{
		dir:      dir,
		params:   filepath.Join(dir, "params.tsv"),
		manifest: filepath.Join(dir, "manifest-"+symbolsName+".tsv"),
		fa:       filepath.Join(dir, "ref.fa"),
	}
	require.NoError(t, ioutil.WriteFile(f.params, []byte(testParams), 0644))
	require.NoError(t, ioutil.WriteFile(f.fa, []byte(testFasta), 0644))
	manifest := manifestHeader + "0\tP\t0\t0\t1000\t2\t" + symbolsName + "\n"
	require.NoError(t, ioutil.WriteFile(f.manifest, []byte(manifest), 0644))
	return f
}

func TestDecode(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	require.NoError(t, ioutil.WriteFile(filepath.Join(tempDir, "au0.txt"), []byte(testSymbols), 0644))
	files := writeTestFiles(t, tempDir, "au0.txt")
	ctx := vcontext.Background()

	outPath := filepath.Join(tempDir, "out.tsv")
	opts := decodeOpts{
		inputOpts: &inputOpts{manifestPath: files.manifest, paramsPath: files.params, refPath: files.fa},
		format:    "tsv",
		outPath:   outPath,
	}
	require.NoError(t, decode(ctx, opts, nil))
	data, err := ioutil.ReadFile(outPath)
	require.NoError(t, err)
	expect.EQ(t, string(data), reconstruct.TSVHeader+"\n"+
		"0\t0\t0\t0\t1001\t4\t4\t0,-,-,0\t+\t*\t*\tACCG\n"+
		"0\t1\t0\t16\t1002\t4\t4\t0,-,-,0\t-\t*\t*\tCCGG\n")

	var buf bytes.Buffer
	opts.format, opts.outPath = "sam", ""
	require.NoError(t, decode(ctx, opts, &buf))
	assert.Contains(t, buf.String(), "@SQ\tSN:chr1\tLN:1016")
	assert.Contains(t, buf.String(), "au0.1\t16\tchr1\t1003\t255\t4M\t")

	// Without a reference, no bases are reconstructed.
	buf.Reset()
	opts.format, opts.refPath = "tsv", ""
	require.NoError(t, decode(ctx, opts, &buf))
	assert.Contains(t, buf.String(), "\t-\t*\t*\t*\n")

	opts.format = "sam"
	assert.Error(t, decode(ctx, opts, &buf))
	opts.format = "bam"
	opts.refPath = files.fa
	assert.Error(t, decode(ctx, opts, &buf))
	opts.paramsPath = ""
	assert.Error(t, decode(ctx, opts, &buf))
}

func runChecksum(t *testing.T, files testFiles) reconstruct.Checksum {
	var buf bytes.Buffer
	opts := inputOpts{manifestPath: files.manifest, paramsPath: files.params, refPath: files.fa, parallelism: 2}
	require.NoError(t, checksum(vcontext.Background(), opts, &buf))
	var c reconstruct.Checksum
	require.NoError(t, json.Unmarshal(buf.Bytes(), &c))
	return c
}

func TestChecksumAcrossFormats(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	textPath := filepath.Join(tempDir, "au0.txt")
	require.NoError(t, ioutil.WriteFile(textPath, []byte(testSymbols), 0644))
	require.NoError(t, convertSymbols(ctx, textPath, filepath.Join(tempDir, "au0.rio")))
	require.NoError(t, convertSymbols(ctx, filepath.Join(tempDir, "au0.rio"), filepath.Join(tempDir, "au0.txt.gz")))

	text := runChecksum(t, writeTestFiles(t, tempDir, "au0.txt"))
	expect.EQ(t, text.NRecs, uint64(2))
	expect.EQ(t, text.NSegments, uint64(2))
	expect.EQ(t, runChecksum(t, writeTestFiles(t, tempDir, "au0.rio")), text)
	expect.EQ(t, runChecksum(t, writeTestFiles(t, tempDir, "au0.txt.gz")), text)
}

func TestStatSymbols(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "au0.txt")
	require.NoError(t, ioutil.WriteFile(path, []byte(testSymbols), 0644))
	var buf bytes.Buffer
	require.NoError(t, statSymbols(vcontext.Background(), path, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	expect.EQ(t, lines, []string{"#DESCRIPTOR\tSUBSEQUENCE\tSYMBOLS", "POS\t0\t2", "RCOMP\t0\t2"})
}
