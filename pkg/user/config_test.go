package user

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigManager_EnsureHomeDirExists(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	c := NewConfigManager(fs)
	c.homeDirFunc = func() (string, error) { return "/home/test", nil }

	err := c.EnsureHomeDirExists()
	require.NoError(t, err)
	assert.Equal(t, "/home/test", c.userHomeDir)
	assert.Equal(t, filepath.Join("/home/test", toolHomeDir), c.toolHomeDir)

	fileInfo, err := fs.Stat(c.toolHomeDir)
	require.NoError(t, err)
	assert.True(t, fileInfo.IsDir())

	// repeated calls are safe
	dir, err := c.EnsureAndGetHomeDir()
	require.NoError(t, err)
	assert.Equal(t, c.toolHomeDir, dir)
}

func TestConfigManager_NoHomeDir(t *testing.T) {
	t.Parallel()

	c := NewConfigManager(afero.NewMemMapFs())
	c.homeDirFunc = func() (string, error) { return "", errors.New("$HOME is not defined") }

	_, err := c.EnsureAndGetHomeDir()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$HOME is not defined")
}
