package path

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ReadYaml reads the file at path into out. ${VAR} references inside string values are expanded with
// lookup after parsing, so the substituted text is never read as YAML.
func ReadYaml(fs afero.Fs, path string, out interface{}, lookup func(string) (string, bool)) error {
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "failed to read file %s", path)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return err
	}

	// an empty file parses to a zero node, which cannot be decoded
	if doc.Kind != 0 {
		ExpandEnv(&doc, lookup)
		if err := doc.Decode(out); err != nil {
			return err
		}
	}

	return validateStruct(out)
}

func WriteYaml(fs afero.Fs, path string, content interface{}) error {
	buf, err := yaml.Marshal(content)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal object to yaml")
	}

	err = afero.WriteFile(fs, path, buf, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to write YAML file to %s", path)
	}

	return nil
}

func validateStruct(out interface{}) error {
	validate := validator.New()

	err := validate.Struct(out)
	if err != nil {
		return err
	}

	return nil
}

func DirExists(fs afero.Fs, searchDir string) bool {
	res, err := afero.DirExists(fs, searchDir)
	return err == nil && res
}
