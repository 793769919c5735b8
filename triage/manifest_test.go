package triage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_HashAndRowCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n3,4\n"), 0o644))

	m := NewManifest()
	require.NoError(t, m.AddInput(path))
	require.Len(t, m.Inputs, 1)

	e := m.Inputs[0]
	assert.Equal(t, path, e.Path)
	assert.Equal(t, 3, e.Rows)
	assert.Equal(t, int64(12), e.Bytes)
	assert.Len(t, e.SHA256, 64)
}

func TestManifest_HashStableAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x":1}`), 0o644))

	a := NewManifest()
	require.NoError(t, a.AddInput(path))
	b := NewManifest()
	require.NoError(t, b.AddInput(path))

	assert.Equal(t, a.Inputs[0].SHA256, b.Inputs[0].SHA256)
	// Run IDs are unique per manifest.
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestManifest_Write_SortedEntries(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "zz.txt")
	p2 := filepath.Join(dir, "aa.txt")
	require.NoError(t, os.WriteFile(p1, []byte("z\n"), 0o644))
	require.NoError(t, os.WriteFile(p2, []byte("a\n"), 0o644))

	m := NewManifest()
	require.NoError(t, m.AddOutput(p1))
	require.NoError(t, m.AddOutput(p2))

	out := filepath.Join(dir, "manifest.json")
	require.NoError(t, m.Write(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded Manifest
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Outputs, 2)
	assert.Equal(t, p2, decoded.Outputs[0].Path)
	assert.Equal(t, p1, decoded.Outputs[1].Path)
	assert.Equal(t, m.RunID, decoded.RunID)
}

func TestManifest_MissingFile_Errors(t *testing.T) {
	m := NewManifest()
	assert.Error(t, m.AddInput(filepath.Join(t.TempDir(), "absent.csv")))
}
