// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// bio-mpegg reconstructs genomic records from the decoded descriptor streams
// of MPEG-G access units.
//
// Example:
//
//   bio-mpegg decode -params params.tsv -reference ref.fa -format sam -out out.sam manifest.tsv
//   bio-mpegg checksum -params params.tsv manifest.tsv
//   bio-mpegg symbols convert au0.txt au0.rio
package main

import "github.com/grailbio/mpegg/cmd/bio-mpegg/cmd"

func main() {
	cmd.Run()
}
