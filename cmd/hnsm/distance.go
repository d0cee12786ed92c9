// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"log"
	"os"

	"github.com/kortschak/hnsm/distance"
	"github.com/kortschak/hnsm/sketch"
)

func runDistance(args []string) int {
	fs := flagSet("distance", "<query.fa[.gz]> [target.fa[.gz]] [-k K] [-w W] [--hasher rapid|murmur3|fx|mod] [--alphabet dna|protein] [--merge] [--list] [--zero] [-p N]")
	k := fs.Int("k", 21, "k-mer length")
	w := fs.Int("w", 1, "minimizer window size, or ModHash scale factor with --hasher mod")
	hasher := fs.String("hasher", "rapid", "hash function: rapid, murmur3, fx")
	alpha := fs.String("alphabet", "dna", "sequence alphabet: dna (canonical k-mers) or protein (literal k-mers)")
	merge := fs.Bool("merge", false, "compare one union sketch per file instead of per-record")
	list := fs.Bool("list", false, "read file paths from query and compare all ordered pairs in merged mode")
	zero := fs.Bool("zero", false, "drop pairs with zero intersection")
	p := fs.Int("p", 1, "number of worker threads")
	spill := fs.String("spill", "", "path for an on-disk sketch spill database (list mode only)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	mode := sketch.WindowMinimizer
	h := sketch.Rapid
	switch *hasher {
	case "rapid":
		h = sketch.Rapid
	case "murmur3":
		h = sketch.Murmur3
	case "fx":
		h = sketch.Fx
	case "mod":
		mode = sketch.ModHash
	default:
		log.Printf("unknown hasher %q", *hasher)
		return 2
	}

	var alphabet sketch.Alphabet
	switch *alpha {
	case "dna":
		alphabet = sketch.DNA
	case "protein":
		alphabet = sketch.Protein
	default:
		log.Printf("unknown alphabet %q", *alpha)
		return 2
	}

	cfg := distance.Config{
		Sketch: sketch.Params{
			K:        *k,
			W:        *w,
			Alphabet: alphabet,
			Hasher:   h,
			Mode:     mode,
		},
		Merge:     *merge,
		List:      *list,
		Zero:      *zero,
		Workers:   *p,
		SpillPath: *spill,
	}
	e := distance.NewEngine(cfg)
	ctx := context.Background()

	if *list {
		var in *os.File = os.Stdin
		if fs.Arg(0) != "stdin" {
			f, err := os.Open(fs.Arg(0))
			if err != nil {
				log.Print(err)
				return 2
			}
			defer f.Close()
			in = f
		}
		if err := e.RunList(ctx, in, os.Stdout); err != nil {
			log.Print(err)
			return 2
		}
		return 0
	}

	query := fs.Arg(0)
	target := query
	if fs.NArg() >= 2 {
		target = fs.Arg(1)
	}

	var err error
	if *merge {
		err = e.RunMerged(query, target, os.Stdout)
	} else {
		err = e.RunPairwise(ctx, query, target, os.Stdout)
	}
	if err != nil {
		log.Print(err)
		return 2
	}
	return 0
}
