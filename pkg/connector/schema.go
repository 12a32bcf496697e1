package connector

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// JSONSchema returns the JSON schema of connector definition files.
func JSONSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(&File{})
	schema.Title = "Connector definition"
	return schema
}

// Validate checks a definition file against JSONSchema and returns every violation found.
func Validate(fs afero.Fs, filePath string) ([]error, error) {
	buf, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %s", filePath)
	}

	var doc any
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return []error{errors.Wrap(err, "invalid YAML")}, nil
	}

	schemaJSON, err := json.Marshal(JSONSchema())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal connector schema")
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to validate %s", filePath)
	}

	issues := make([]error, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, fmt.Errorf("%s: %s", e.Field(), e.Description()))
	}

	if len(issues) == 0 {
		if _, err := Load(fs, filePath); err != nil {
			issues = append(issues, errors.Cause(err))
		}
	}

	return issues, nil
}
