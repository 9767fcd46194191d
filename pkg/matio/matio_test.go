package matio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.mat")

	_, err := Load(path, "img")
	require.ErrorIs(t, err, ErrFileNotFound)
	assert.Contains(t, err.Error(), path)
}
