package cmd

import (
	"strings"

	"github.com/bruin-data/fivetran-provisioner/pkg/config"
	"github.com/bruin-data/fivetran-provisioner/pkg/telemetry"
	"github.com/urfave/cli/v2"
)

func Init() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "create a starter provisioner.yml and add it to .gitignore",
		Flags: []cli.Flag{
			configFlag(),
			outputFlag(),
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()

			output := strings.ToLower(c.String("output"))
			configFilePath := c.String("config")

			_, created, err := config.LoadOrCreate(fs, configFilePath)
			if err != nil {
				printError(err, output, "Failed to initialize the config file at "+configFilePath)
				return cli.Exit("", 1)
			}

			if !created {
				printWarningForOutput(output, "The config file "+configFilePath+" already exists, it was left untouched.")
				return nil
			}

			printSuccessForOutput(output, "Created "+configFilePath+", set FIVETRAN_API_KEY and FIVETRAN_API_SECRET before provisioning.")
			return nil
		},
		Before: telemetry.BeforeCommand,
		After:  telemetry.AfterCommand,
	}
}
