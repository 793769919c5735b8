package triage

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ManifestEntry describes one input or output file by content address.
type ManifestEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Rows   int    `json:"rows"`
	Bytes  int64  `json:"bytes"`
}

// Manifest is the content-addressed record of one run: every file read or
// written, with its hash and row count, so a run can be reproduced and
// verified independently.
type Manifest struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Inputs    []ManifestEntry `json:"inputs"`
	Outputs   []ManifestEntry `json:"outputs"`
}

// NewManifest creates a Manifest with a fresh run ID.
func NewManifest() *Manifest {
	return &Manifest{RunID: uuid.NewString(), CreatedAt: time.Now().UTC()}
}

// hashFile computes the sha256, newline-delimited row count, and size of a
// file in one pass.
func hashFile(path string) (ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("manifest: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	rows := 0
	var size int64
	r := bufio.NewReader(io.TeeReader(f, h))
	for {
		line, err := r.ReadBytes('\n')
		size += int64(len(line))
		if len(line) > 0 {
			rows++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return ManifestEntry{}, fmt.Errorf("manifest: read %s: %w", path, err)
		}
	}
	return ManifestEntry{
		Path:   path,
		SHA256: hex.EncodeToString(h.Sum(nil)),
		Rows:   rows,
		Bytes:  size,
	}, nil
}

// AddInput hashes a file and records it as a run input.
func (m *Manifest) AddInput(path string) error {
	e, err := hashFile(path)
	if err != nil {
		return err
	}
	m.Inputs = append(m.Inputs, e)
	return nil
}

// AddOutput hashes a file and records it as a run output.
func (m *Manifest) AddOutput(path string) error {
	e, err := hashFile(path)
	if err != nil {
		return err
	}
	m.Outputs = append(m.Outputs, e)
	return nil
}

// Write serializes the manifest to path. Entries are sorted by path so the
// manifest itself is byte-stable for a given set of files.
func (m *Manifest) Write(path string) error {
	sort.SliceStable(m.Inputs, func(i, j int) bool { return m.Inputs[i].Path < m.Inputs[j].Path })
	sort.SliceStable(m.Outputs, func(i, j int) bool { return m.Outputs[i].Path < m.Outputs[j].Path })

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
