package config

import (
	"fmt"
	"strings"
)

type EnvironmentNotFoundError struct {
	Name           string
	ConfigFilePath string
	Available      []string
}

func (e *EnvironmentNotFoundError) Error() string {
	configFilePath := strings.TrimSpace(e.ConfigFilePath)
	if configFilePath == "" {
		configFilePath = DefaultFileName
	}

	if e.Name == "" {
		return fmt.Sprintf("no environment given and no default_environment set in '%s'", configFilePath)
	}

	msg := fmt.Sprintf("environment '%s' not found in config file '%s'", e.Name, configFilePath)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(", available environments: %s", strings.Join(e.Available, ", "))
	}
	return msg
}
