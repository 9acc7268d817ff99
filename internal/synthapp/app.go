// internal/synthapp/app.go

// Package synthapp is chunkfold-synth: a synthetic read generator for
// exercising the other tools without real sequencing data.
package synthapp

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/brianvoe/gofakeit/v7"

	"chunkfold/internal/appcore"
	"chunkfold/internal/cli"
	"chunkfold/internal/version"
	"chunkfold/internal/writers"
)

var bases = []string{"A", "C", "G", "T"}

func RunContext(_ context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("chunkfold-synth", "synthetic FASTA/FASTQ read generator")
	fs.SetOutput(stderr)

	reads := fs.Int("reads", 1000, "number of reads to generate [1000]")
	length := fs.Int("length", 100, "read length in bases [100]")
	seed := fs.Uint64("seed", 0, "RNG seed (0 = non-deterministic) [0]")
	fastq := fs.Bool("fastq", false, "emit FASTQ with fake qualities instead of FASTA [false]")
	output := fs.String("output", "-", "output path, '-' for stdout [-]")
	showVersion := fs.Bool("version", false, "print version and exit [false]")

	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return appcore.ExitOK
		}
		return appcore.ExitUsage
	}
	if *showVersion {
		fmt.Fprintf(stdout, "chunkfold-synth version %s\n", version.Version)
		return appcore.ExitOK
	}
	if *reads < 1 || *length < 1 {
		fmt.Fprintln(stderr, "error: --reads and --length must be >= 1")
		return appcore.ExitUsage
	}

	faker := gofakeit.New(*seed)
	err := writers.ToPathOrStdout(*output, stdout, func(w io.Writer) error {
		return generate(w, faker, *reads, *length, *fastq)
	})
	if writers.IsBrokenPipe(err) {
		return appcore.ExitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return appcore.ExitIO
	}
	return appcore.ExitOK
}

func generate(w io.Writer, faker *gofakeit.Faker, reads, length int, fastq bool) error {
	seq := make([]byte, length)
	qual := make([]byte, length)
	for i := 0; i < reads; i++ {
		for j := range seq {
			seq[j] = bases[faker.IntRange(0, 3)][0]
		}
		if fastq {
			for j := range qual {
				qual[j] = byte(33 + faker.IntRange(20, 40)) // plausible Phred range
			}
			if _, err := fmt.Fprintf(w, "@read_%06d\n%s\n+\n%s\n", i, seq, qual); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ">read_%06d\n%s\n", i, seq); err != nil {
			return err
		}
	}
	return nil
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
