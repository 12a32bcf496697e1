// Package user manages the per-user home directory of the tool.
package user

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/bruin-data/fivetran-provisioner/pkg/path"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	toolHomeDir        = ".fivetran-provisioner"
	homeDirPermissions = 0o755
)

type ConfigManager struct {
	fs afero.Fs

	lock sync.Mutex

	userHomeDir string
	toolHomeDir string

	homeDirFunc func() (string, error)
}

func NewConfigManager(fs afero.Fs) *ConfigManager {
	return &ConfigManager{
		fs:          fs,
		homeDirFunc: os.UserHomeDir,
	}
}

func (c *ConfigManager) EnsureHomeDirExists() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	homeDir, err := c.homeDirFunc()
	if err != nil {
		return errors.Wrap(err, "failed to find the user home directory")
	}

	configPath := filepath.Join(homeDir, toolHomeDir)
	if !path.DirExists(c.fs, configPath) {
		err = c.fs.MkdirAll(configPath, homeDirPermissions)
		if err != nil {
			return errors.Wrap(err, "failed to create the home directory of the tool")
		}
	}

	c.userHomeDir = homeDir
	c.toolHomeDir = configPath

	return nil
}

// EnsureAndGetHomeDir creates ~/.fivetran-provisioner if needed and returns its path.
func (c *ConfigManager) EnsureAndGetHomeDir() (string, error) {
	if err := c.EnsureHomeDirExists(); err != nil {
		return "", err
	}
	return c.toolHomeDir, nil
}
