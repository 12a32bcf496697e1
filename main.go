package main

import (
	"os"
	"time"

	"github.com/bruin-data/fivetran-provisioner/cmd"
	"github.com/bruin-data/fivetran-provisioner/pkg/telemetry"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = ""
)

func main() {
	isDebug := false
	color.NoColor = false

	telemetry.TelemetryKey = os.Getenv("TELEMETRY_KEY")
	telemetry.OptOut = os.Getenv("TELEMETRY_OPTOUT") != ""
	telemetry.AppVersion = version

	versionCommand := cmd.VersionCmd(commit)

	cli.VersionPrinter = func(cCtx *cli.Context) {
		err := versionCommand.Action(cCtx)
		if err != nil {
			panic(err)
		}
	}

	app := &cli.App{
		Name:     "fivetran-provisioner",
		Version:  version,
		Usage:    "Provision Fivetran groups, destinations and connectors from YAML definitions",
		Compiled: time.Now(),
		ExitErrHandler: func(context *cli.Context, err error) {
			if err != nil {
				telemetry.SendErrorEvent(context)
			}
			cli.HandleExitCoder(err)
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "debug",
				Value:       false,
				Usage:       "show debug information",
				Destination: &isDebug,
			},
		},
		Commands: []*cli.Command{
			cmd.Init(),
			cmd.Provision(&isDebug),
			cmd.Validate(),
			cmd.Schema(),
			cmd.Status(&isDebug),
			cmd.Verify(&isDebug),
			cmd.Environments(),
			versionCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
