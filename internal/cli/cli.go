// internal/cli/cli.go

// Package cli registers and validates the flags shared by all chunkfold
// tools. Tool-specific flags live with the tool's app package.
package cli

import (
	"flag"
	"fmt"
	"time"

	"chunkfold/internal/pipeline"
	"chunkfold/internal/version"
)

// Store backends selectable with --store.
const (
	StoreFS   = "fs"
	StoreBolt = "bolt"
)

// Common holds the fields every tool exposes.
type Common struct {
	// Input
	SeqFiles  []string
	ChunkSize int

	// Checkpointing
	PartialDir string
	StoreKind  string
	Cleanup    bool

	// Output
	Output string // path or "-"
	Format string

	// Execution
	Threads      int
	Retries      int
	RetryBackoff time.Duration
	ChunkTimeout time.Duration
	BestEffort   bool

	// Misc
	Quiet   bool
	Verbose bool
	Version bool
}

// sliceValue appends each occurrence to a *[]string (for --sequences/-s).
type sliceValue struct{ dst *[]string }

func (s *sliceValue) String() string {
	if s.dst == nil {
		return ""
	}
	return fmt.Sprint(*s.dst)
}

func (s *sliceValue) Set(v string) error {
	*s.dst = append(*s.dst, v)
	return nil
}

// NewFlagSet returns a FlagSet with the shared usage header.
func NewFlagSet(name, tagline string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `%s: %s

Version: %s

Usage of %s:
`, name, tagline, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// Register wires the shared flags onto fs.
func Register(fs *flag.FlagSet, c *Common) {
	seqVal := &sliceValue{dst: &c.SeqFiles}
	fs.Var(seqVal, "sequences", "FASTA/FASTQ file(s), .gz ok (repeatable) or '-'")
	fs.Var(seqVal, "s", "alias of --sequences")
	fs.IntVar(&c.ChunkSize, "chunk-size", 10000, "records per chunk [10000]")

	fs.StringVar(&c.PartialDir, "partial-dir", "partials", "directory for checkpointed partial results [partials]")
	fs.StringVar(&c.StoreKind, "store", StoreFS, "partial store backend: fs | bolt [fs]")
	fs.BoolVar(&c.Cleanup, "cleanup", false, "delete partials after a fully successful merge [false]")

	fs.StringVar(&c.Output, "output", "-", "merged output path, '-' for stdout [-]")
	fs.StringVar(&c.Output, "o", "-", "alias of --output")

	fs.IntVar(&c.Threads, "threads", 0, "worker threads (0 = all CPUs) [0]")
	fs.IntVar(&c.Retries, "retries", pipeline.DefaultRetries, "retries per failed chunk [1]")
	fs.DurationVar(&c.RetryBackoff, "retry-backoff", 100*time.Millisecond, "base retry backoff, doubled per attempt [100ms]")
	fs.DurationVar(&c.ChunkTimeout, "chunk-timeout", 0, "per-chunk wall-clock timeout (0 = none) [0]")
	fs.BoolVar(&c.BestEffort, "best-effort", false, "merge whatever chunks completed instead of failing [false]")

	fs.BoolVar(&c.Quiet, "quiet", false, "log warnings and errors only [false]")
	fs.BoolVar(&c.Verbose, "verbose", false, "log per-chunk progress [false]")
	fs.BoolVar(&c.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&c.Version, "v", false, "print version and exit (shorthand) [false]")
}

// Validate checks the shared flags. Formats are tool-specific and validated
// by the caller against its own set.
func (c *Common) Validate(validFormats ...string) error {
	if len(c.SeqFiles) == 0 {
		return fmt.Errorf("at least one --sequences file is required")
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("--chunk-size must be >= 1, got %d", c.ChunkSize)
	}
	if c.PartialDir == "" {
		return fmt.Errorf("--partial-dir is required")
	}
	if c.StoreKind != StoreFS && c.StoreKind != StoreBolt {
		return fmt.Errorf("unknown --store %q (want fs or bolt)", c.StoreKind)
	}
	if c.Retries < 0 {
		return fmt.Errorf("--retries must be >= 0, got %d", c.Retries)
	}
	for _, f := range validFormats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown --format %q (want one of %v)", c.Format, validFormats)
}
