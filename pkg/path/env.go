package path

import (
	"regexp"

	"gopkg.in/yaml.v3"
)

var envReference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} references in the string scalars under node with their values. Expanded
// scalars are always decoded as strings, whatever the value looks like. Mapping keys are left alone.
// Unset variables expand to an empty string so the required field checks report them.
func ExpandEnv(node *yaml.Node, lookup func(string) (string, bool)) {
	if node == nil {
		return
	}

	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			ExpandEnv(child, lookup)
		}
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			ExpandEnv(node.Content[i], lookup)
		}
	case yaml.ScalarNode:
		if node.ShortTag() != "!!str" || !envReference.MatchString(node.Value) {
			return
		}
		node.Value = ExpandString(node.Value, lookup)
		node.Tag = "!!str"
		node.Style = yaml.DoubleQuotedStyle
	}
}

// ExpandString replaces ${VAR} references in s with their values.
func ExpandString(s string, lookup func(string) (string, bool)) string {
	return envReference.ReplaceAllStringFunc(s, func(match string) string {
		name := envReference.FindStringSubmatch(match)[1]
		value, _ := lookup(name)
		return value
	})
}
