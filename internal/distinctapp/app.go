// internal/distinctapp/app.go

// Package distinctapp is chunkfold-distinct: the distinct-k-mer tool.
// Exact mode keeps a set per chunk and merges by union; --sketch swaps in a
// Bloom-filter sketch with bitwise-union merge for constant memory.
package distinctapp

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
	fs := cli.NewFlagSet("chunkfold-distinct", "distinct k-mers via chunked set union or Bloom sketch")
	fs.SetOutput(stderr)

	var c cli.Common
	cli.Register(fs, &c)
	k := fs.Int("k", 31, "k-mer length [31]")
	sketch := fs.Bool("sketch", false, "estimate with a Bloom sketch instead of an exact set [false]")
	sketchBits := fs.Uint("sketch-bits", 1<<24, "Bloom filter size in bits [16777216]")
	sketchHashes := fs.Uint("sketch-hashes", 5, "Bloom filter hash functions [5]")
	fs.StringVar(&c.Format, "format", "text", "output format: text | json (sketch output is always json) [text]")

	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return appcore.ExitOK
		}
		return appcore.ExitUsage
	}
	if c.Version {
		fmt.Fprintf(stdout, "chunkfold-distinct version %s\n", version.Version)
		return appcore.ExitOK
	}
	if err := c.Validate("text", "json"); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return appcore.ExitUsage
	}
	if *k < 1 {
		fmt.Fprintf(stderr, "error: --k must be >= 1, got %d\n", *k)
		return appcore.ExitUsage
	}
	if *sketch && (*sketchBits == 0 || *sketchHashes == 0) {
		fmt.Fprintln(stderr, "error: --sketch-bits and --sketch-hashes must be > 0")
		return appcore.ExitUsage
	}

	kk := *k
	params := manifest.Params{
		Tool:      "chunkfold-distinct",
		Inputs:    c.SeqFiles,
		ChunkSize: c.ChunkSize,
		K:         kk,
		Aggregate: "set",
	}

	if *sketch {
		bits, hashes := *sketchBits, *sketchHashes
		params.Aggregate = fmt.Sprintf("sketch:%d:%d", bits, hashes)
		return appcore.Run(parent, appcore.App[*kmer.Sketch]{
			Common: &c,
			Params: params,
			Zero:   kmer.NewSketch(bits, hashes),
			Process: func(_ context.Context, ch chunk.Chunk) (*kmer.Sketch, error) {
				s := kmer.NewSketch(bits, hashes)
				for _, rec := range ch.Records {
					s.Add(rec.Seq, kk)
				}
				return s, nil
			},
			Codec: codec.NewSnappyJSON[*kmer.Sketch](),
			Write: func(w io.Writer, merged *kmer.Sketch) error {
				return writers.SketchJSON(w, merged)
			},
		}, stdout, stderr)
	}

	return appcore.Run(parent, appcore.App[kmer.DistinctSet]{
		Common: &c,
		Params: params,
		Zero:   kmer.DistinctSet{},
		Process: func(_ context.Context, ch chunk.Chunk) (kmer.DistinctSet, error) {
			s := make(kmer.DistinctSet)
			for _, rec := range ch.Records {
				s.Add(rec.Seq, kk)
			}
			return s, nil
		},
		Codec: codec.NewSnappyJSON[kmer.DistinctSet](),
		Write: func(w io.Writer, merged kmer.DistinctSet) error {
			if c.Format == "json" {
				return writers.SetJSON(w, merged)
			}
			return writers.SetText(w, merged)
		},
	}, stdout, stderr)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
