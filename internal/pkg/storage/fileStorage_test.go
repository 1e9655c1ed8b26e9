package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	require.NoError(t, fs.Save("presets/a.json", strings.NewReader(`{"a":1}`)))
	require.NoError(t, fs.Save("presets/b.json", strings.NewReader(`{"b":2}`)))
	assert.True(t, fs.Exists("presets/a.json"))

	r, err := fs.Get("presets/a.json")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	r.Close()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	names, err := fs.List("presets")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.json", "b.json"}, names)

	require.NoError(t, fs.Delete("presets/a.json"))
	assert.False(t, fs.Exists("presets/a.json"))

	names, err = fs.List("missing")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileStorageRejectsEscapingPaths(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	for _, path := range []string{"../outside.json", "/etc/passwd", "a/../../b"} {
		t.Run(path, func(t *testing.T) {
			assert.ErrorIs(t, fs.Save(path, strings.NewReader("x")), ErrInvalidPath)
			_, err := fs.Get(path)
			assert.ErrorIs(t, err, ErrInvalidPath)
			assert.False(t, fs.Exists(path))
		})
	}
}
