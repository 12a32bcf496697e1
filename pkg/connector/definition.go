// Package connector reads the per-connector definition files that drive provisioning.
package connector

import (
	"os"
	"strings"

	"github.com/bruin-data/fivetran-provisioner/pkg/path"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const DefaultSyncFrequency = 1440

var FileSuffixes = []string{".yml", ".yaml"}

type File struct {
	Connector Definition `yaml:"connector" json:"connector" validate:"required"`
}

type Definition struct {
	Name          string         `yaml:"name" json:"name,omitempty" jsonschema:"description=Display name used in logs and the summary"`
	Service       string         `yaml:"service" json:"service" validate:"required" jsonschema:"description=Fivetran service type such as postgres or salesforce"`
	SyncFrequency int            `yaml:"sync_frequency" json:"sync_frequency,omitempty" validate:"omitempty,gte=5" jsonschema:"description=Sync frequency in minutes,default=1440"`
	Destination   Destination    `yaml:"destination" json:"destination"`
	Config        map[string]any `yaml:"config" json:"config" validate:"required"`
	Schemas       []Schema       `yaml:"schemas" json:"schemas,omitempty" validate:"dive"`

	// Path is the file the definition was loaded from.
	Path string `yaml:"-" json:"-"`
}

type Destination struct {
	Schema string `yaml:"schema" json:"schema" validate:"required" jsonschema:"description=Destination schema name used as the lowercased schema_prefix"`
}

type Schema struct {
	Name   string  `yaml:"name" json:"name" validate:"required"`
	Tables []Table `yaml:"tables" json:"tables,omitempty" validate:"dive"`
}

type Table struct {
	Name    string `yaml:"name" json:"name" validate:"required"`
	Enabled *bool  `yaml:"enabled" json:"enabled,omitempty" jsonschema:"default=true"`
}

func (t Table) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

func (d *Definition) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Path
}

func (d *Definition) EffectiveSyncFrequency() int {
	if d.SyncFrequency > 0 {
		return d.SyncFrequency
	}
	return DefaultSyncFrequency
}

// SourceConfig returns a copy of the static config with schema_prefix set from the destination schema.
func (d *Definition) SourceConfig() map[string]any {
	cfg := make(map[string]any, len(d.Config)+1)
	for k, v := range d.Config {
		cfg[k] = v
	}
	cfg["schema_prefix"] = strings.ToLower(d.Destination.Schema)
	return cfg
}

func Load(fs afero.Fs, filePath string) (*Definition, error) {
	var file File
	if err := path.ReadYaml(fs, filePath, &file, os.LookupEnv); err != nil {
		return nil, errors.Wrapf(err, "failed to load connector definition %s", filePath)
	}

	file.Connector.Path = filePath
	return &file.Connector, nil
}

// LoadAll loads the definitions in the given order, directories are expanded to the definition files they contain.
func LoadAll(fs afero.Fs, paths []string) ([]*Definition, error) {
	files, err := path.ExpandPaths(fs, paths, FileSuffixes)
	if err != nil {
		return nil, err
	}

	definitions := make([]*Definition, 0, len(files))
	for _, f := range files {
		def, err := Load(fs, f)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, def)
	}

	return definitions, nil
}
