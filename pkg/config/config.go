// Package config loads the project configuration: the Fivetran credentials, the group and destination
// to provision and the connector files, grouped in named environments.
package config

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
	path2 "github.com/bruin-data/fivetran-provisioner/pkg/path"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

const DefaultFileName = "provisioner.yml"

type Group struct {
	Name string `yaml:"name" validate:"required"`
}

type Destination struct {
	Service        string         `yaml:"service" validate:"required"`
	Region         string         `yaml:"region"`
	TimeZoneOffset string         `yaml:"time_zone_offset"`
	Config         map[string]any `yaml:"config" validate:"required"`
}

// Request returns the create request of the destination, the group is filled in at bootstrap.
func (d Destination) Request() fivetran.DestinationRequest {
	return fivetran.DestinationRequest{
		Service:        d.Service,
		Region:         d.Region,
		TimeZoneOffset: d.TimeZoneOffset,
		Config:         d.Config,
	}
}

type Environment struct {
	API         fivetran.Config `yaml:"api"`
	Group       Group           `yaml:"group"`
	Destination Destination     `yaml:"destination"`
	Connectors  []string        `yaml:"connectors"`
}

type Config struct {
	fs   afero.Fs
	path string

	DefaultEnvironmentName  string                 `yaml:"default_environment"`
	SelectedEnvironmentName string                 `yaml:"-"`
	SelectedEnvironment     *Environment           `yaml:"-"`
	Environments            map[string]Environment `yaml:"environments"`
}

func (c *Config) Path() string {
	return c.path
}

func (c *Config) Persist() error {
	return c.PersistToFs(c.fs)
}

func (c *Config) PersistToFs(fs afero.Fs) error {
	return path2.WriteYaml(fs, c.path, c)
}

// EnvironmentNames returns the configured environment names in sorted order.
func (c *Config) EnvironmentNames() []string {
	names := lo.Keys(c.Environments)
	sort.Strings(names)
	return names
}

// SelectEnvironment selects the named environment, or the default one when name is empty, and
// validates it. Connector paths are resolved relative to the config file.
func (c *Config) SelectEnvironment(name string) error {
	if name == "" {
		name = c.DefaultEnvironmentName
	}

	e, ok := c.Environments[name]
	if !ok {
		return &EnvironmentNotFoundError{
			Name:           name,
			ConfigFilePath: c.path,
			Available:      c.EnvironmentNames(),
		}
	}

	if err := validator.New().Struct(e); err != nil {
		return errors.Wrapf(err, "invalid environment '%s' in '%s'", name, c.path)
	}

	e.Connectors = lo.Map(e.Connectors, func(p string, _ int) string {
		if path.IsAbs(p) {
			return p
		}
		return path.Join(path.Dir(c.path), p)
	})

	c.SelectedEnvironment = &e
	c.SelectedEnvironmentName = name
	return nil
}

// LoadFromFile reads the config at path, expanding ${VAR} references from the process environment.
// No environment is selected yet.
func LoadFromFile(fs afero.Fs, filePath string) (*Config, error) {
	return load(fs, filePath, os.LookupEnv)
}

func load(fs afero.Fs, filePath string, lookup func(string) (string, bool)) (*Config, error) {
	var config Config
	if err := path2.ReadYaml(fs, filePath, &config, lookup); err != nil {
		return nil, errors.Wrap(err, "failed to load the config file")
	}

	config.fs = fs
	config.path = filePath
	return &config, nil
}

// Default returns the starter configuration written by LoadOrCreate.
func Default(fs afero.Fs, filePath string) *Config {
	env := Environment{
		API: fivetran.Config{
			BaseURL:   fivetran.DefaultBaseURL,
			APIKey:    "${FIVETRAN_API_KEY}",
			APISecret: "${FIVETRAN_API_SECRET}",
			Timeout:   fivetran.DefaultTimeout,
			Retries:   fivetran.DefaultRetries,
		},
		Group: Group{Name: "CLV_Analytics_group"},
		Destination: Destination{
			Service:        "snowflake",
			Region:         "US",
			TimeZoneOffset: "0",
			Config: map[string]any{
				"host":          "${SNOWFLAKE_HOST}",
				"port":          443,
				"database":      "BRONZE",
				"schema_prefix": "bronze",
				"warehouse":     "LOADING_WH",
				"auth":          "PASSWORD",
				"user":          "${SNOWFLAKE_USER}",
				"password":      "${SNOWFLAKE_PASSWORD}",
			},
		},
		Connectors: []string{"fivetran"},
	}

	return &Config{
		fs:                      fs,
		path:                    filePath,
		DefaultEnvironmentName:  "default",
		SelectedEnvironment:     &env,
		SelectedEnvironmentName: "default",
		Environments: map[string]Environment{
			"default": env,
		},
	}
}

// LoadOrCreate loads the config at path, writing the default one first if the file does not exist.
// The config file is added to the .gitignore next to it either way since it usually holds credentials.
func LoadOrCreate(fs afero.Fs, filePath string) (*Config, bool, error) {
	exists, err := afero.Exists(fs, filePath)
	if err != nil {
		return nil, false, err
	}

	if exists {
		config, err := LoadFromFile(fs, filePath)
		if err != nil {
			return nil, false, err
		}
		return config, false, ensureConfigIsInGitignore(fs, filePath)
	}

	config := Default(fs, filePath)
	if err := config.Persist(); err != nil {
		return nil, false, errors.Wrap(err, "failed to persist config")
	}

	return config, true, ensureConfigIsInGitignore(fs, filePath)
}

func ensureConfigIsInGitignore(fs afero.Fs, filePath string) (err error) {
	gitignorePath := path.Join(path.Dir(filePath), ".gitignore")
	exists, err := afero.Exists(fs, gitignorePath)
	if err != nil {
		return err
	}

	fileNameToIgnore := path.Base(filePath)
	if !exists {
		return afero.WriteFile(fs, gitignorePath, []byte(fileNameToIgnore), 0o644)
	}

	content, err := afero.ReadFile(fs, gitignorePath)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == fileNameToIgnore {
			return nil
		}
	}

	file, err := fs.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func(open afero.File) {
		if tempErr := open.Close(); tempErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", tempErr)
		}
	}(file)

	_, err = file.Write([]byte("\n" + fileNameToIgnore))
	return err
}
