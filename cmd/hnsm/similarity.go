// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/kortschak/hnsm/vecsim"
)

func runSimilarity(args []string) int {
	fs := flagSet("similarity", "<vecs.tsv> [--mode euclid|cosine|jaccard] [--bin] [--dis] [--threshold T] [-p N]")
	mode := fs.String("mode", "euclid", "similarity measure: euclid, cosine, jaccard")
	bin := fs.Bool("bin", false, "threshold and pack values into bit vectors before comparing")
	dis := fs.Bool("dis", false, "emit raw Euclidean distance instead of similarity")
	threshold := fs.Float64("threshold", 0, "only emit pairs with similarity >= threshold")
	self := fs.Bool("self", false, "include self-pairs")
	p := fs.Int("p", 1, "number of worker threads")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	hasThreshold := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			hasThreshold = true
		}
	})

	var m vecsim.Mode
	switch *mode {
	case "euclid":
		m = vecsim.Euclidean
	case "cosine":
		m = vecsim.CosineMode
	case "jaccard":
		m = vecsim.JaccardMode
	default:
		log.Printf("unknown mode %q", *mode)
		return 2
	}

	in := os.Stdin
	if fs.Arg(0) != "stdin" {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			log.Print(err)
			return 2
		}
		defer f.Close()
		in = f
	}

	vecs, err := vecsim.ReadVectors(in)
	if err != nil {
		log.Print(err)
		return 2
	}

	cfg := vecsim.Config{
		Mode:      m,
		Bin:       *bin,
		Dis:       *dis,
		Threshold: *threshold,
		HasThresh: hasThreshold,
		SelfPairs: *self,
		Workers:   *p,
	}
	e := vecsim.NewEngine(cfg)
	if err := e.Run(context.Background(), vecs, os.Stdout); err != nil {
		log.Print(err)
		return 2
	}
	return 0
}
