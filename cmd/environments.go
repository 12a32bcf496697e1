package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bruin-data/fivetran-provisioner/pkg/config"
	"github.com/bruin-data/fivetran-provisioner/pkg/telemetry"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func Environments() *cli.Command {
	return &cli.Command{
		Name:  "environments",
		Usage: "manage environments defined in provisioner.yml",
		Subcommands: []*cli.Command{
			ListEnvironments(),
		},
		Before: telemetry.BeforeCommand,
		After:  telemetry.AfterCommand,
	}
}

func ListEnvironments() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list the environments of the config file",
		Flags: []cli.Flag{
			configFlag(),
			outputFlag(),
		},
		Action: func(c *cli.Context) error {
			r := EnvironmentListCommand{fs: fs, stdout: os.Stdout}
			return r.Run(strings.ToLower(c.String("output")), c.String("config"))
		},
	}
}

type EnvironmentListCommand struct {
	fs     afero.Fs
	stdout io.Writer
}

type environmentSummary struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	Destination string `json:"destination"`
	Connectors  int    `json:"connectors"`
}

func (r *EnvironmentListCommand) Run(output, configFilePath string) error {
	defer RecoverFromPanic()

	cm, err := config.LoadFromFile(r.fs, configFilePath)
	if err != nil {
		printError(err, output, "Failed to load the config file at "+configFilePath)
		return cli.Exit("", 1)
	}

	envs := make([]environmentSummary, 0, len(cm.Environments))
	for _, name := range cm.EnvironmentNames() {
		env := cm.Environments[name]
		envs = append(envs, environmentSummary{
			Name:        name,
			Group:       env.Group.Name,
			Destination: env.Destination.Service,
			Connectors:  len(env.Connectors),
		})
	}

	if output == "json" {
		type envResponse struct {
			DefaultEnvironment string               `json:"default_environment"`
			Environments       []environmentSummary `json:"environments"`
		}

		js, err := json.Marshal(envResponse{DefaultEnvironment: cm.DefaultEnvironmentName, Environments: envs})
		if err != nil {
			printErrorJSON(err)
			return err
		}

		fmt.Fprintln(r.stdout, string(js))
		return nil
	}

	fmt.Fprintln(r.stdout)
	infoPrinter.Fprintln(r.stdout, "Default environment: "+cm.DefaultEnvironmentName)

	t := table.NewWriter()
	t.SetOutputMirror(r.stdout)
	t.AppendHeader(table.Row{"Name", "Group", "Destination", "Connectors"})
	for _, env := range envs {
		t.AppendRow(table.Row{env.Name, env.Group, env.Destination, env.Connectors})
	}
	t.Render()
	return nil
}
