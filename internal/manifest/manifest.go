// internal/manifest/manifest.go

// Package manifest records run identity and parameters next to the partial
// results, so a resumed run can refuse a directory produced under different
// settings instead of silently merging incompatible partials.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// FileName is the manifest's name inside the partial directory.
const FileName = "manifest.json"

// Params are the settings that determine chunk identity. Any mismatch makes
// existing partials unusable.
type Params struct {
	Tool      string   `json:"tool"`
	Inputs    []string `json:"inputs"`
	ChunkSize int      `json:"chunk_size"`
	K         int      `json:"k,omitempty"`
	Aggregate string   `json:"aggregate"`
}

// Manifest describes one run (or a chain of resumed runs) over a partial
// directory.
type Manifest struct {
	RunID          string    `json:"run_id"`
	CreatedAt      time.Time `json:"created_at"`
	Params         Params    `json:"params"`
	ExpectedChunks int       `json:"expected_chunks"` // -1 until the source has been exhausted once
	TotalRecords   int       `json:"total_records"`
}

// New assigns a fresh ULID run id. ULIDs sort by creation time, which keeps
// log correlation cheap.
func New(p Params) *Manifest {
	return &Manifest{
		RunID:          ulid.Make().String(),
		CreatedAt:      time.Now().UTC(),
		Params:         p,
		ExpectedChunks: -1,
	}
}

// Load reads the manifest from dir. A missing file surfaces as an
// os.IsNotExist error for the caller to branch on.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return &m, nil
}

// Write persists the manifest atomically (temp file + rename).
func (m *Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, FileName)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// Compatible reports whether a new invocation with params p may reuse this
// manifest's partials. The first mismatching field is named in the error.
func (m *Manifest) Compatible(p Params) error {
	if m.Params.Tool != p.Tool {
		return fmt.Errorf("partial dir was written by %q, not %q", m.Params.Tool, p.Tool)
	}
	if m.Params.ChunkSize != p.ChunkSize {
		return fmt.Errorf("partial dir used --chunk-size %d, not %d", m.Params.ChunkSize, p.ChunkSize)
	}
	if m.Params.K != p.K {
		return fmt.Errorf("partial dir used --k %d, not %d", m.Params.K, p.K)
	}
	if m.Params.Aggregate != p.Aggregate {
		return fmt.Errorf("partial dir holds %q partials, not %q", m.Params.Aggregate, p.Aggregate)
	}
	if len(m.Params.Inputs) != len(p.Inputs) {
		return fmt.Errorf("partial dir was built from %d input(s), not %d", len(m.Params.Inputs), len(p.Inputs))
	}
	for i := range p.Inputs {
		if m.Params.Inputs[i] != p.Inputs[i] {
			return fmt.Errorf("partial dir was built from input %q, not %q", m.Params.Inputs[i], p.Inputs[i])
		}
	}
	return nil
}
