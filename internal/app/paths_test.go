package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/project")
	assert.Equal(t, filepath.Join("/project", ".xtags"), p.Root)
	assert.Equal(t, filepath.Join("/project", ".xtags", "tags.db"), p.DB)
	assert.Equal(t, filepath.Join("/project", ".xtags", "config.hcl"), p.Config)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	// First call creates the directory.
	require.NoError(t, p.EnsureDirs())
	info, err := os.Stat(p.Root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Second call is idempotent: no error.
	require.NoError(t, p.EnsureDirs())
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	_, ok := p.ConfigFile()
	assert.False(t, ok, "no .xtags directory yet")

	require.NoError(t, p.EnsureDirs())
	yml := filepath.Join(p.Root, "config.yml")
	require.NoError(t, os.WriteFile(yml, []byte("parser: x\n"), 0644))
	got, ok := p.ConfigFile()
	assert.True(t, ok)
	assert.Equal(t, yml, got)

	// HCL wins over YAML.
	require.NoError(t, os.WriteFile(p.Config, []byte(`parser = "x"`), 0644))
	got, ok = p.ConfigFile()
	assert.True(t, ok)
	assert.Equal(t, p.Config, got)
}
