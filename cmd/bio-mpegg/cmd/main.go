// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"log"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

// inputFlags are shared by the commands that decode a manifest.
func inputFlags(cmd *cmdline.Command) *inputOpts {
	opts := &inputOpts{}
	cmd.Flags.StringVar(&opts.paramsPath, "params", "", "Parameter-set TSV file. Required.")
	cmd.Flags.StringVar(&opts.refPath, "reference", "", `FASTA reference. Sequences are numbered in file order.
A "start=N" token in a header line marks an excerpt that starts at position N.
If empty, no bases are reconstructed.`)
	cmd.Flags.IntVar(&opts.parallelism, "parallelism", 0, "Number of access units decoded at once; 0 = runtime.NumCPU()")
	return opts
}

func newCmdDecode() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "decode",
		Short:    "Reconstruct the records of every access unit in a manifest",
		ArgsName: "manifest",
	}
	opts := decodeOpts{inputOpts: inputFlags(cmd)}
	cmd.Flags.StringVar(&opts.format, "format", "tsv", `Output format, "tsv" or "sam". SAM output needs -reference.`)
	cmd.Flags.StringVar(&opts.outPath, "out", "", "Output path. If empty, records are written to stdout.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("decode takes one manifest path, but got %v", argv)
		}
		opts.manifestPath = argv[0]
		return decode(vcontext.Background(), opts, env.Stdout)
	})
	return cmd
}

func newCmdChecksum() *cmdline.Command {
	cmd := &cmdline.Command{
		Name: "checksum",
		Short: `Compute a checksum of the records of a manifest.
The checksum is a JSON string of per-field hash sums; it does not depend on the
order in which access units are decoded`,
		ArgsName: "manifest",
	}
	opts := inputFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("checksum takes one manifest path, but got %v", argv)
		}
		opts.manifestPath = argv[0]
		return checksum(vcontext.Background(), *opts, env.Stdout)
	})
	return cmd
}

func newCmdSymbols() *cmdline.Command {
	convert := &cmdline.Command{
		Name: "convert",
		Short: `Convert a symbol file. The format of each path is chosen by suffix:
".rio" for recordio column files, anything else for text dumps (gzipped if ".gz")`,
		ArgsName: "srcpath destpath",
	}
	convert.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("convert takes srcpath destpath, but found %v", argv)
		}
		return convertSymbols(vcontext.Background(), argv[0], argv[1])
	})
	stat := &cmdline.Command{
		Name:     "stat",
		Short:    "List the columns of a symbol file and their lengths",
		ArgsName: "path",
	}
	stat.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("stat takes one pathname argument, but got %v", argv)
		}
		return statSymbols(vcontext.Background(), argv[0], env.Stdout)
	})
	return &cmdline.Command{
		Name:     "symbols",
		Short:    "Inspect and convert symbol files",
		Children: []*cmdline.Command{convert, stat},
	}
}

// Run is the entry point of bio-mpegg.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-mpegg",
			Short:    "Tools for reconstructing records from MPEG-G descriptor streams",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdDecode(),
				newCmdChecksum(),
				newCmdSymbols(),
			},
		})
}
