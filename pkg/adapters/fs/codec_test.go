package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/padnote/pkg/core"
)

type sample struct {
	Name  string         `json:"name" yaml:"name"`
	Count int            `json:"count" yaml:"count"`
	Tags  map[string]int `json:"tags" yaml:"tags"`
}

func TestDocumentRoundTrip(t *testing.T) {
	codecs := map[string]Codec{
		"json": NewJSONCodec(false),
		"yaml": NewYAMLCodec(),
	}

	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "doc"+codec.Ext())
			in := sample{Name: "padnote", Count: 3, Tags: map[string]int{"b": 2, "a": 1}}

			require.NoError(t, WriteDocument(path, codec, in))

			var out sample
			exists, err := ReadDocument(path, codec, &out)
			require.NoError(t, err)
			assert.True(t, exists)
			assert.Equal(t, in, out)
		})
	}
}

func TestEncodeIsStable(t *testing.T) {
	codec := NewYAMLCodec()
	doc := map[string]any{"z": 1, "a": map[string]any{"y": true, "b": "x"}}

	first, err := codec.Encode(doc)
	require.NoError(t, err)
	second, err := codec.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Equal(t, "a:\n  b: x\n  y: true\nz: 1\n", string(first))
}

func TestReadDocumentFailures(t *testing.T) {
	dir := t.TempDir()

	t.Run("Absent File", func(t *testing.T) {
		var out sample
		exists, err := ReadDocument(filepath.Join(dir, "missing.json"), NewJSONCodec(false), &out)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Empty File", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		var out sample
		exists, err := ReadDocument(path, NewYAMLCodec(), &out)
		assert.True(t, exists)
		assert.ErrorIs(t, err, core.ErrCorruptDocument)
	})

	t.Run("Garbage", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		var out sample
		_, err := ReadDocument(path, NewJSONCodec(false), &out)
		assert.ErrorIs(t, err, core.ErrCorruptDocument)
	})
}
