package conftree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalFormats(t *testing.T) {
	root := MustCreate(map[string]any{
		"server": map[string]any{"host": "localhost", "port": 8080},
	})

	for _, format := range []string{"toml", "json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			data, err := Marshal(root, format, false)
			require.NoError(t, err)

			native, err := parseConfigData(data, format)
			require.NoError(t, err)

			again, err := Create(native)
			require.NoError(t, err)
			assert.True(t, root.Equal(again))
		})
	}

	_, err := Marshal(root, "xml", false)
	assert.Error(t, err)
}

func TestMarshalPreservesReferences(t *testing.T) {
	root := MustCreate(map[string]any{"a": "x", "b": "${a}"})

	data, err := Marshal(root, "yaml", false)
	require.NoError(t, err)
	assert.Contains(t, string(data), "${a}")

	resolved, err := Marshal(root, "yaml", true)
	require.NoError(t, err)
	assert.NotContains(t, string(resolved), "${a}")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	root := MustCreate(map[string]any{
		"server": map[string]any{"host": "localhost", "port": 8080},
		"alias":  "${server.host}",
	})

	for _, name := range []string{"out.toml", "out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(root, path, false))

			again, err := LoadFile(path)
			require.NoError(t, err)
			assert.True(t, root.Equal(again))

			alias, err := Select(again, "alias")
			require.NoError(t, err)
			assert.Equal(t, "localhost", alias)
		})
	}
}

func TestSaveCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "config.toml")
	require.NoError(t, Save(MustCreate(map[string]any{"a": 1}), path, false))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Save(MustCreate(map[string]any{"a": 1}), path, false))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}
