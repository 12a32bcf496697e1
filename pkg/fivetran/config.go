package fivetran

import (
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://api.fivetran.com/v1"
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 3

	acceptHeader = "application/json;version=2"
	userAgent    = "fivetran-provisioner"
)

type Config struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	APIKey    string        `yaml:"api_key" json:"api_key" validate:"required"`
	APISecret string        `yaml:"api_secret" json:"api_secret" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	Retries   int           `yaml:"retries" json:"retries" validate:"gte=0"`
}

func (c Config) withDefaults() (Config, error) {
	if c.APIKey == "" || c.APISecret == "" {
		return c, errors.New("api_key and api_secret are required for the Fivetran API")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	return c, nil
}
