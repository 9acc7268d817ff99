// internal/app/app.go

// Package app is the chunkfold k-mer counter: chunked parallel counting
// with checkpointed partial maps, merged by per-key addition.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"chunkfold-core/chunk"
	"chunkfold-core/kmer"

	"chunkfold/internal/appcore"
	"chunkfold/internal/cli"
	"chunkfold/internal/codec"
	"chunkfold/internal/manifest"
	"chunkfold/internal/version"
	"chunkfold/internal/writers"
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("chunkfold", "chunked parallel k-mer counter with checkpointed partials")
	fs.SetOutput(stderr)

	var c cli.Common
	cli.Register(fs, &c)
	k := fs.Int("k", 31, "k-mer length [31]")
	minCount := fs.Uint64("min-count", 0, "drop k-mers below this count from the final output [0]")
	fs.StringVar(&c.Format, "format", "tsv", "output format: tsv | json [tsv]")

	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return appcore.ExitOK
		}
		return appcore.ExitUsage
	}
	if c.Version {
		fmt.Fprintf(stdout, "chunkfold version %s\n", version.Version)
		return appcore.ExitOK
	}
	if err := c.Validate("tsv", "json"); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return appcore.ExitUsage
	}
	if *k < 1 {
		fmt.Fprintf(stderr, "error: --k must be >= 1, got %d\n", *k)
		return appcore.ExitUsage
	}

	kk := *k
	return appcore.Run(parent, appcore.App[kmer.Counts]{
		Common: &c,
		Params: manifest.Params{
			Tool:      "chunkfold",
			Inputs:    c.SeqFiles,
			ChunkSize: c.ChunkSize,
			K:         kk,
			Aggregate: "counts",
		},
		Zero: kmer.Counts{},
		Process: func(_ context.Context, ch chunk.Chunk) (kmer.Counts, error) {
			counts := make(kmer.Counts)
			for _, rec := range ch.Records {
				counts.Add(rec.Seq, kk)
			}
			return counts, nil
		},
		Codec: codec.NewSnappyJSON[kmer.Counts](),
		Write: func(w io.Writer, merged kmer.Counts) error {
			out := merged.Filter(*minCount)
			if c.Format == "json" {
				return writers.JSON(w, out)
			}
			return writers.CountsTSV(w, out)
		},
	}, stdout, stderr)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
