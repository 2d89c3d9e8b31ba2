package sqlite

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONL_MissingFile(t *testing.T) {
	records, skipped, err := readJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, skipped)
}

func TestWriteThenReadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subjects.jsonl")
	in := []map[string]any{
		{"id": int64(1), "name": "Aria", "description": nil},
		{"id": int64(2), "name": "Bob", "description": "baker"},
	}
	require.NoError(t, writeJSONL(path, in))

	out, skipped, err := readJSONL(path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, out, 2)
	assert.Equal(t, json.Number("2"), out[1]["id"])
	assert.Equal(t, "Bob", out[1]["name"])
	assert.Nil(t, out[0]["description"])
}

func TestReadJSONL_SkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.jsonl")
	data := "{\"id\":1,\"name\":\"a\"}\n[1,2]\n\n   \n{broken\n{\"id\":2,\"name\":\"b\"}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	out, skipped, err := readJSONL(path)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 2, skipped)
}

func TestWriteAtomic_FailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	err := writeAtomic(path, func(w *bufio.Writer) error {
		w.WriteString("partial")
		return errors.New("boom")
	})
	require.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestSQLValue(t *testing.T) {
	assert.Equal(t, int64(12), sqlValue(json.Number("12")))
	assert.Equal(t, 1.5, sqlValue(json.Number("1.5")))
	assert.Equal(t, "x", sqlValue("x"))
	assert.Nil(t, sqlValue(nil))
	assert.Equal(t, `{"a":1}`, sqlValue(map[string]any{"a": json.Number("1")}))
}
