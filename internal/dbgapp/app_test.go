package dbgapp

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"chunkfold/internal/appcore"
)

func init() {
	logrus.SetLevel(logrus.PanicLevel)
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestThresholdCountsAcrossChunks(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "reads.fasta")
	// The AC→G edge appears once per record. At chunk size 1 each partial
	// graph holds a count of 1; only the merged count clears threshold 2.
	content := ">r0\nACGT\n>r1\nACGA\n"
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := run(t,
		"-s", input,
		"-chunk-size", "1",
		"-partial-dir", filepath.Join(dir, "partials"),
		"-k", "3",
		"-threshold", "2",
		"-format", "tsv",
		"-quiet",
	)
	if code != appcore.ExitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if stdout != "AC\tG\t2\n" {
		t.Fatalf("got %q, want the cross-chunk edge only", stdout)
	}
}

func TestJSONOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "reads.fasta")
	if err := os.WriteFile(input, []byte(">r0\nACGT\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := run(t,
		"-s", input,
		"-partial-dir", filepath.Join(dir, "partials"),
		"-k", "3",
		"-threshold", "1",
		"-quiet",
	)
	if code != appcore.ExitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var g struct {
		K         int                          `json:"k"`
		Adjacency map[string]map[string]uint64 `json:"adjacency"`
	}
	if err := json.Unmarshal([]byte(stdout), &g); err != nil {
		t.Fatalf("output not graph JSON: %v\n%s", err, stdout)
	}
	if g.K != 3 {
		t.Fatalf("k = %d", g.K)
	}
	if g.Adjacency["AC"]["G"] != 1 || g.Adjacency["CG"]["T"] != 1 {
		t.Fatalf("adjacency = %v", g.Adjacency)
	}
}

func TestKValidation(t *testing.T) {
	code, _, stderr := run(t, "-s", "reads.fa", "-k", "1")
	if code != appcore.ExitUsage {
		t.Fatalf("exit %d, want %d", code, appcore.ExitUsage)
	}
	if !strings.Contains(stderr, "--k") {
		t.Fatalf("stderr: %s", stderr)
	}
}
