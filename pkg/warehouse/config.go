package warehouse

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/snowflakedb/gosnowflake"
)

const hostSuffix = ".snowflakecomputing.com"

// Config holds the Snowflake credentials found in the config block of the destination.
type Config struct {
	Host      string `mapstructure:"host"`
	Account   string `mapstructure:"account"`
	User      string `mapstructure:"user" validate:"required"`
	Password  string `mapstructure:"password" validate:"required"`
	Role      string `mapstructure:"role"`
	Database  string `mapstructure:"database" validate:"required"`
	Warehouse string `mapstructure:"warehouse"`
}

// ConfigFromDestination reads the Snowflake credentials from a destination config block. The
// account is derived from the host when it is not given explicitly.
func ConfigFromDestination(destination map[string]any) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(destination); err != nil {
		return nil, errors.Wrap(err, "failed to read the snowflake destination config")
	}

	if cfg.Account == "" {
		cfg.Account = strings.TrimSuffix(strings.ToLower(cfg.Host), hostSuffix)
	}
	if cfg.Account == "" {
		return nil, errors.New("the snowflake destination config needs either 'host' or 'account'")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid snowflake destination config")
	}

	return &cfg, nil
}

func (c Config) DSN() (string, error) {
	return gosnowflake.DSN(&gosnowflake.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Role:      c.Role,
		Database:  c.Database,
		Warehouse: c.Warehouse,
	})
}
