package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"chunkfold/internal/appcore"
	"chunkfold/internal/manifest"
)

func init() {
	logrus.SetLevel(logrus.PanicLevel)
}

func writeFasta(t *testing.T, records int) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < records; i++ {
		fmt.Fprintf(&b, ">read_%d\nACGTACGTAC\n", i)
	}
	path := filepath.Join(t.TempDir(), "reads.fasta")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestEndToEndCounts(t *testing.T) {
	input := writeFasta(t, 10)
	dir := filepath.Join(t.TempDir(), "partials")

	code, stdout, stderr := run(t,
		"-s", input,
		"-chunk-size", "3",
		"-partial-dir", dir,
		"-k", "4",
		"-quiet",
	)
	if code != appcore.ExitOK {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}

	// Each 10bp read of ACGTACGTAC holds 7 4-mers; ACGT appears twice, so
	// across 10 records ACGT counts 20.
	if !strings.Contains(stdout, "ACGT\t20\n") {
		t.Fatalf("stdout missing expected row:\n%s", stdout)
	}

	// 10 records at chunk size 3 → 4 chunks, all checkpointed.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var partials int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "partial-") {
			partials++
		}
	}
	if partials != 4 {
		t.Fatalf("partial files = %d, want 4", partials)
	}

	man, err := manifest.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if man.ExpectedChunks != 4 || man.TotalRecords != 10 {
		t.Fatalf("manifest = (%d chunks, %d records), want (4, 10)", man.ExpectedChunks, man.TotalRecords)
	}
}

func TestResumeRecomputesOnlyMissing(t *testing.T) {
	input := writeFasta(t, 10)
	dir := filepath.Join(t.TempDir(), "partials")
	args := []string{"-s", input, "-chunk-size", "3", "-partial-dir", dir, "-k", "4", "-quiet"}

	code, first, stderr := run(t, args...)
	if code != appcore.ExitOK {
		t.Fatalf("first run exit %d: %s", code, stderr)
	}

	// Simulate a partially failed first run.
	if err := os.Remove(filepath.Join(dir, "partial-0000000002.bin")); err != nil {
		t.Fatal(err)
	}

	code, second, stderr := run(t, args...)
	if code != appcore.ExitOK {
		t.Fatalf("resume exit %d: %s", code, stderr)
	}
	if first != second {
		t.Fatalf("resume changed the output:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestResumeRejectsChangedParams(t *testing.T) {
	input := writeFasta(t, 6)
	dir := filepath.Join(t.TempDir(), "partials")

	code, _, stderr := run(t, "-s", input, "-chunk-size", "3", "-partial-dir", dir, "-k", "4", "-quiet")
	if code != appcore.ExitOK {
		t.Fatalf("first run exit %d: %s", code, stderr)
	}

	code, _, stderr = run(t, "-s", input, "-chunk-size", "2", "-partial-dir", dir, "-k", "4", "-quiet")
	if code != appcore.ExitUsage {
		t.Fatalf("exit %d for incompatible chunk size, want %d", code, appcore.ExitUsage)
	}
	if !strings.Contains(stderr, "--chunk-size") {
		t.Fatalf("stderr does not name the mismatch: %s", stderr)
	}
}

func TestCleanupRemovesPartials(t *testing.T) {
	input := writeFasta(t, 6)
	dir := filepath.Join(t.TempDir(), "partials")

	code, _, stderr := run(t, "-s", input, "-chunk-size", "2", "-partial-dir", dir, "-k", "4", "-cleanup", "-quiet")
	if code != appcore.ExitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "partial-") {
			t.Fatalf("partial %s left behind after --cleanup", e.Name())
		}
	}
}

func TestBoltBackend(t *testing.T) {
	input := writeFasta(t, 10)
	dir := filepath.Join(t.TempDir(), "partials")

	code, stdout, stderr := run(t,
		"-s", input,
		"-chunk-size", "3",
		"-partial-dir", dir,
		"-store", "bolt",
		"-k", "4",
		"-quiet",
	)
	if code != appcore.ExitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "ACGT\t20\n") {
		t.Fatalf("stdout missing expected row:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "partials.db")); err != nil {
		t.Fatal(err)
	}
}

func TestOutputFile(t *testing.T) {
	input := writeFasta(t, 4)
	dir := t.TempDir()
	out := filepath.Join(dir, "counts.tsv")

	code, stdout, stderr := run(t,
		"-s", input,
		"-partial-dir", filepath.Join(dir, "partials"),
		"-k", "4",
		"-o", out,
		"-quiet",
	)
	if code != appcore.ExitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if stdout != "" {
		t.Fatalf("stdout not empty with -o: %q", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ACGT\t") {
		t.Fatalf("output file content: %q", data)
	}
}

func TestMinCountFiltersOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "reads.fasta")
	// AAAA appears 3 times, ACGT once.
	content := ">r0\nAAAAAA\n>r1\nACGT\n"
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := run(t,
		"-s", input,
		"-partial-dir", filepath.Join(dir, "partials"),
		"-k", "4",
		"-min-count", "2",
		"-quiet",
	)
	if code != appcore.ExitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "AAAA\t3\n") || strings.Contains(stdout, "ACGT") {
		t.Fatalf("min-count filter not applied:\n%s", stdout)
	}
}

func TestUsageErrors(t *testing.T) {
	cases := [][]string{
		{},                                  // no inputs
		{"-s", "reads.fa", "-k", "0"},       // bad k
		{"-s", "reads.fa", "-format", "xml"}, // bad format
	}
	for _, args := range cases {
		if code, _, _ := run(t, args...); code != appcore.ExitUsage {
			t.Fatalf("args %v: exit %d, want %d", args, code, appcore.ExitUsage)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	code, stdout, _ := run(t, "-version")
	if code != appcore.ExitOK {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "chunkfold version") {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestMissingInputFileIsDataError(t *testing.T) {
	dir := t.TempDir()
	code, _, _ := run(t,
		"-s", filepath.Join(dir, "no-such.fasta"),
		"-partial-dir", filepath.Join(dir, "partials"),
		"-quiet",
	)
	if code != appcore.ExitDataError {
		t.Fatalf("exit %d, want %d", code, appcore.ExitDataError)
	}
}

func TestContextCancelled(t *testing.T) {
	input := writeFasta(t, 10)
	dir := filepath.Join(t.TempDir(), "partials")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := RunContext(ctx, []string{"-s", input, "-partial-dir", dir, "-quiet"}, &stdout, &stderr)
	if code != appcore.ExitCancelled {
		t.Fatalf("exit %d, want %d", code, appcore.ExitCancelled)
	}
}
