package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dcm", cfg.Input.Extension)
	assert.Equal(t, 0.01, cfg.QA.SpacingTolerance)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Input.Extension = "ima"
	cfg.Tags.Populate = []string{"EchoTime"}
	cfg.Output.Verbose = false
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ima", loaded.Input.Extension)
	assert.Equal(t, []string{"EchoTime"}, loaded.Tags.Populate)
	assert.False(t, loaded.Output.Verbose)
}
