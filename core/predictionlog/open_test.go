package predictionlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	c := Config{}
	c.SetDefaults()
	assert.Equal(t, "jsonl", c.Backend)
	assert.Equal(t, "predictions.log", c.Path)
	require.NoError(t, c.Validate())

	c = Config{Backend: "sqlite"}
	c.SetDefaults()
	assert.Equal(t, "predictions.db", c.Path)

	c = Config{Backend: "rotating"}
	c.SetDefaults()
	assert.Equal(t, 50, c.MaxSizeMB)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Backend: "csv", Path: "x"}.Validate())
	assert.Error(t, Config{Backend: "jsonl"}.Validate())
	assert.Error(t, Config{Backend: "jsonl", Path: "x", ReplayHours: -1}.Validate())
	assert.NoError(t, Config{Backend: "memory"}.Validate())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]any{
		"jsonl":    &JSONLStore{},
		"rotating": &RotatingJSONLStore{},
		"sqlite":   &SQLiteStore{},
		"memory":   &MemoryStore{},
	}
	for backend, want := range cases {
		s, err := Open(Config{Backend: backend, Path: filepath.Join(dir, backend)})
		require.NoError(t, err, backend)
		assert.IsType(t, want, s)
		assert.NoError(t, s.Close())
	}
	_, err := Open(Config{Backend: "csv"})
	assert.Error(t, err)
}
