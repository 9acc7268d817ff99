// internal/appcore/core.go

// Package appcore wires one tool invocation end to end: store, manifest,
// chunk source, worker pool, merge, and final output. Each tool supplies its
// aggregate type, processor, codec, and writer.
package appcore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"chunkfold-core/chunk"
	"chunkfold-core/fasta"

	"chunkfold/internal/cli"
	"chunkfold/internal/codec"
	"chunkfold/internal/manifest"
	"chunkfold/internal/merge"
	"chunkfold/internal/pipeline"
	"chunkfold/internal/store"
	"chunkfold/internal/writers"
)

// Exit codes shared by all tools.
const (
	ExitOK        = 0
	ExitDataError = 1 // failed/missing chunks or malformed input
	ExitUsage     = 2
	ExitIO        = 3
	ExitCancelled = 130
)

// App is one tool's wiring.
type App[P merge.Mergeable[P]] struct {
	Common  *cli.Common
	Params  manifest.Params // chunk-identity parameters, checked on resume
	Zero    P
	Process pipeline.Func[P]
	Codec   codec.Codec[P]
	Write   func(w io.Writer, merged P) error
}

// Run executes the full chunked map-merge flow and returns the process exit
// code. Successful partials are always left on disk after a partial failure;
// that is the resume contract.
func Run[P merge.Mergeable[P]](ctx context.Context, a App[P], stdout, stderr io.Writer) int {
	c := a.Common
	configureLogging(c, stderr)

	st, code := openStore(c, stderr)
	if code != ExitOK {
		return code
	}
	defer func() { _ = st.Close() }()

	man, code := loadOrCreateManifest(c, a.Params, stderr)
	if code != ExitOK {
		return code
	}
	log := logrus.WithField("run_id", man.RunID)

	reader := fasta.OpenFiles(c.SeqFiles...)
	defer func() { _ = reader.Close() }()
	src, err := chunk.NewSource(reader, c.ChunkSize)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitUsage
	}

	rep, perr := pipeline.Run(ctx, pipeline.Config{
		Workers:      c.Threads,
		Retries:      c.Retries,
		RetryBackoff: c.RetryBackoff,
		ChunkTimeout: c.ChunkTimeout,
	}, src, a.Process, a.Codec, st)
	if perr != nil {
		if errors.Is(perr, context.Canceled) {
			return ExitCancelled
		}
		var serr *chunk.SourceError
		if errors.As(perr, &serr) {
			fmt.Fprintln(stderr, perr)
			return ExitDataError
		}
		fmt.Fprintln(stderr, perr)
		return ExitIO
	}

	// The source ran to exhaustion, so the expected chunk count is now known
	// and recorded for auditing and out-of-band merges.
	man.ExpectedChunks = rep.Chunks
	man.TotalRecords = rep.Records
	if err := man.Write(c.PartialDir); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitIO
	}
	log.WithFields(logrus.Fields{
		"chunks":    rep.Chunks,
		"records":   rep.Records,
		"completed": len(rep.Completed),
		"skipped":   len(rep.Skipped),
		"failed":    len(rep.Failed),
	}).Info("map phase done")

	if len(rep.Failed) > 0 {
		for _, f := range rep.Failed {
			log.WithField("chunk", f.Index).WithError(f.Err).Error("chunk not checkpointed")
		}
		if !c.BestEffort {
			fmt.Fprintf(stderr, "%d chunk(s) failed: %v (successful partials kept in %s; re-run to retry only those)\n",
				len(rep.Failed), rep.FailedIndices(), c.PartialDir)
			return ExitDataError
		}
		log.Warnf("continuing best-effort without %d failed chunk(s)", len(rep.Failed))
	}

	merged, missing, err := merge.Merge(ctx, st, a.Codec, a.Zero, merge.Options{
		Expected:   rep.Chunks,
		BestEffort: c.BestEffort,
	})
	if err != nil {
		var inc *merge.IncompleteError
		if errors.As(err, &inc) {
			fmt.Fprintf(stderr, "%v (successful partials kept in %s; re-run to retry only those)\n", err, c.PartialDir)
			return ExitDataError
		}
		fmt.Fprintln(stderr, err)
		return ExitIO
	}
	if len(missing) > 0 {
		log.Warnf("best-effort merge without chunk(s) %v", missing)
	}

	err = writers.ToPathOrStdout(c.Output, stdout, func(w io.Writer) error {
		return a.Write(w, merged)
	})
	if writers.IsBrokenPipe(err) {
		return ExitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitIO
	}

	if c.Cleanup && len(missing) == 0 && len(rep.Failed) == 0 {
		if err := cleanup(ctx, st); err != nil {
			log.WithError(err).Warn("cleanup failed; partials left behind")
		}
	}
	return ExitOK
}

func configureLogging(c *cli.Common, stderr io.Writer) {
	logrus.SetOutput(stderr)
	switch {
	case c.Verbose:
		logrus.SetLevel(logrus.DebugLevel)
	case c.Quiet:
		logrus.SetLevel(logrus.WarnLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func openStore(c *cli.Common, stderr io.Writer) (store.Store, int) {
	switch c.StoreKind {
	case cli.StoreBolt:
		if err := os.MkdirAll(c.PartialDir, 0o755); err != nil {
			fmt.Fprintln(stderr, err)
			return nil, ExitIO
		}
		st, err := store.NewBolt(filepath.Join(c.PartialDir, "partials.db"))
		if err != nil {
			fmt.Fprintln(stderr, err)
			return nil, ExitIO
		}
		return st, ExitOK
	default:
		st, err := store.NewFS(c.PartialDir)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return nil, ExitIO
		}
		return st, ExitOK
	}
}

func loadOrCreateManifest(c *cli.Common, p manifest.Params, stderr io.Writer) (*manifest.Manifest, int) {
	man, err := manifest.Load(c.PartialDir)
	switch {
	case err == nil:
		if cerr := man.Compatible(p); cerr != nil {
			fmt.Fprintf(stderr, "error: %v (use a fresh --partial-dir)\n", cerr)
			return nil, ExitUsage
		}
		logrus.WithField("run_id", man.RunID).Info("resuming existing partial dir")
		return man, ExitOK
	case os.IsNotExist(err):
		man = manifest.New(p)
		if werr := man.Write(c.PartialDir); werr != nil {
			fmt.Fprintln(stderr, werr)
			return nil, ExitIO
		}
		return man, ExitOK
	default:
		fmt.Fprintln(stderr, err)
		return nil, ExitIO
	}
}

func cleanup(ctx context.Context, st store.Store) error {
	present, err := st.List(ctx)
	if err != nil {
		return err
	}
	for _, idx := range present {
		if err := st.Delete(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
