// internal/dbgapp/app.go

// Package dbgapp is chunkfold-dbg: chunked de Bruijn graph construction.
// Partial graphs merge by per-edge count addition; the coverage threshold is
// applied only after the final merge so edges split across chunks survive.
package dbgapp

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"chunkfold-core/chunk"
	"chunkfold-core/debruijn"

	"chunkfold/internal/appcore"
	"chunkfold/internal/cli"
	"chunkfold/internal/codec"
	"chunkfold/internal/manifest"
	"chunkfold/internal/version"
	"chunkfold/internal/writers"
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("chunkfold-dbg", "chunked de Bruijn graph builder with checkpointed partial graphs")
	fs.SetOutput(stderr)

	var c cli.Common
	cli.Register(fs, &c)
	k := fs.Int("k", 31, "k-mer length (prefix nodes are k-1 long) [31]")
	threshold := fs.Uint64("threshold", 2, "minimum edge count kept after the final merge [2]")
	fs.StringVar(&c.Format, "format", "json", "output format: json | tsv [json]")

	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return appcore.ExitOK
		}
		return appcore.ExitUsage
	}
	if c.Version {
		fmt.Fprintf(stdout, "chunkfold-dbg version %s\n", version.Version)
		return appcore.ExitOK
	}
	if err := c.Validate("json", "tsv"); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return appcore.ExitUsage
	}
	if *k < 2 {
		fmt.Fprintf(stderr, "error: --k must be >= 2, got %d\n", *k)
		return appcore.ExitUsage
	}

	kk := *k
	return appcore.Run(parent, appcore.App[*debruijn.Graph]{
		Common: &c,
		Params: manifest.Params{
			Tool:      "chunkfold-dbg",
			Inputs:    c.SeqFiles,
			ChunkSize: c.ChunkSize,
			K:         kk,
			Aggregate: "debruijn",
		},
		Zero: debruijn.New(kk),
		Process: func(_ context.Context, ch chunk.Chunk) (*debruijn.Graph, error) {
			g := debruijn.New(kk)
			for _, rec := range ch.Records {
				g.AddSeq(rec.Seq)
			}
			return g, nil
		},
		Codec: codec.NewSnappyJSON[*debruijn.Graph](),
		Write: func(w io.Writer, merged *debruijn.Graph) error {
			final := merged.Threshold(*threshold)
			if c.Format == "tsv" {
				return writers.GraphTSV(w, final)
			}
			return writers.JSON(w, final)
		},
	}, stdout, stderr)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
