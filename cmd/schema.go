package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bruin-data/fivetran-provisioner/pkg/connector"
	"github.com/bruin-data/fivetran-provisioner/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Schema() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "print the JSON schema of connector definition files",
		Action: func(c *cli.Context) error {
			js, err := json.MarshalIndent(connector.JSONSchema(), "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to marshal the schema")
			}

			fmt.Println(string(js))
			return nil
		},
		Before: telemetry.BeforeCommand,
		After:  telemetry.AfterCommand,
	}
}
