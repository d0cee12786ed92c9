// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// hnsm is a minimizer-based sequence analysis toolkit: BGZF
// compression, FASTA random access, pairwise minimizer distance and
// vector similarity, all operating in constant or bounded memory over
// streamed input.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("hnsm: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var run func([]string) int
	switch cmd {
	case "gz":
		run = runGz
	case "range":
		run = runRange
	case "distance":
		run = runDistance
	case "similarity":
		run = runSimilarity
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "hnsm: unknown command %q\n", cmd)
		usage()
		os.Exit(1)
	}

	os.Exit(run(args))
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: hnsm <command> [arguments]

Commands:
  gz          write BGZF with a companion block index
  range       extract sequence ranges from an indexed FASTA file
  distance    compute pairwise or merged minimizer distance
  similarity  compute vector similarity

Run "hnsm <command> -h" for command-specific options.
`)
}

// flagSet returns a FlagSet whose usage message is prefixed with the
// command name, matching the rest of the toolkit's flag.Usage
// convention.
func flagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: hnsm %s %s\n\nOptions:\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}
