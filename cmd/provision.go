package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bruin-data/fivetran-provisioner/pkg/config"
	"github.com/bruin-data/fivetran-provisioner/pkg/connector"
	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
	"github.com/bruin-data/fivetran-provisioner/pkg/poll"
	"github.com/bruin-data/fivetran-provisioner/pkg/provision"
	"github.com/bruin-data/fivetran-provisioner/pkg/telemetry"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/raulk/clock"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"github.com/xlab/treeprint"
	"go.uber.org/zap"
)

func Provision(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:      "provision",
		Usage:     "create the group, the destination and every connector, then wait for their initial syncs",
		ArgsUsage: "[connector files or directories]",
		Flags: []cli.Flag{
			configFlag(),
			environmentFlag(),
			&cli.BoolFlag{
				Name:  "force",
				Usage: "skip the confirmation for production environments",
			},
			outputFlag(),
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()

			output := strings.ToLower(c.String("output"))
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := ProvisionCommand{
				fs:     fs,
				clock:  clock.New(),
				stdin:  os.Stdin,
				stdout: os.Stdout,
				logger: makeLoggerFor(*isDebug, output),
			}
			return r.Run(ctx, ProvisionOptions{
				ConfigFilePath: c.String("config"),
				Environment:    c.String("environment"),
				Force:          c.Bool("force"),
				Output:         output,
				Paths:          c.Args().Slice(),
			})
		},
		Before: telemetry.BeforeCommand,
		After:  telemetry.AfterCommand,
	}
}

type ProvisionOptions struct {
	ConfigFilePath string
	Environment    string
	Force          bool
	Output         string
	// Paths overrides the connectors of the environment when not empty.
	Paths []string
}

type ProvisionCommand struct {
	fs     afero.Fs
	clock  poll.Clock
	stdin  io.ReadCloser
	stdout io.Writer
	logger *zap.SugaredLogger
}

func (r *ProvisionCommand) Run(ctx context.Context, opts ProvisionOptions) error {
	cm, err := config.LoadFromFile(r.fs, opts.ConfigFilePath)
	if err != nil {
		printError(err, opts.Output, "Failed to load the config file at "+opts.ConfigFilePath)
		return cli.Exit("", 1)
	}

	if err := switchEnvironment(opts.Environment, opts.Force, cm, r.stdin); err != nil {
		printError(err, opts.Output, "Failed to use the environment")
		return cli.Exit("", 1)
	}
	env := cm.SelectedEnvironment

	paths := opts.Paths
	if len(paths) == 0 {
		paths = env.Connectors
	}
	definitions, err := connector.LoadAll(r.fs, paths)
	if err != nil {
		printError(err, opts.Output, "Failed to load the connector definitions")
		return cli.Exit("", 1)
	}
	if len(definitions) == 0 {
		printWarningForOutput(opts.Output, "No connector definitions given, only the group and the destination will be created.")
	}

	runID := NewRunID()
	logger := r.logger.With("run_id", runID)
	logger.Infof("provisioning %d connector(s) in environment '%s'", len(definitions), cm.SelectedEnvironmentName)

	client, err := fivetran.NewClient(env.API, logger, fivetran.WithClock(r.clock))
	if err != nil {
		printError(err, opts.Output, "Failed to create the Fivetran client")
		return cli.Exit("", 1)
	}

	provisioner := provision.NewProvisioner(
		provision.NewInfrastructure(client, logger, env.Group.Name, env.Destination.Request()),
		provision.NewActivator(client, r.clock, logger, provision.DefaultTimeouts()),
		logger,
	)

	summary, runErr := provisioner.Run(ctx, definitions)

	if opts.Output == "json" {
		js, err := json.Marshal(newProvisionResponse(runID, cm.SelectedEnvironmentName, summary, runErr))
		if err != nil {
			printErrorJSON(err)
			return cli.Exit("", 1)
		}
		fmt.Fprintln(r.stdout, string(js))
		if runErr != nil {
			return cli.Exit("", 1)
		}
		return nil
	}

	renderSummary(r.stdout, summary)
	if runErr != nil {
		printError(runErr, opts.Output, "Provisioning failed")
		return cli.Exit("", 1)
	}

	printSuccessForOutput(opts.Output, fmt.Sprintf("All %d connector(s) set up and synced.", len(definitions)))
	return nil
}

type connectorResponse struct {
	Name           string   `json:"name"`
	File           string   `json:"file"`
	ConnectionID   string   `json:"connection_id"`
	Discovery      string   `json:"discovery"`
	EnabledTables  []string `json:"enabled_tables"`
	DisabledTables []string `json:"disabled_tables"`
	Error          string   `json:"error,omitempty"`
}

type provisionResponse struct {
	RunID       string              `json:"run_id"`
	Environment string              `json:"environment"`
	GroupID     string              `json:"group_id"`
	Connectors  []connectorResponse `json:"connectors"`
	Error       string              `json:"error,omitempty"`
}

func newProvisionResponse(runID, environment string, summary *provision.Summary, runErr error) provisionResponse {
	resp := provisionResponse{
		RunID:       runID,
		Environment: environment,
		GroupID:     summary.GroupID,
		Connectors:  make([]connectorResponse, 0, len(summary.Connectors)),
	}
	if runErr != nil {
		resp.Error = runErr.Error()
	}

	for _, c := range summary.Connectors {
		item := connectorResponse{
			Name:           c.Name,
			File:           c.Path,
			ConnectionID:   c.Result.ConnectionID,
			Discovery:      c.Result.Capture.String(),
			EnabledTables:  c.Result.Selection.EnabledTables(),
			DisabledTables: c.Result.Selection.DisabledTables(),
		}
		if c.Err != nil {
			item.Error = c.Err.Error()
		}
		resp.Connectors = append(resp.Connectors, item)
	}

	return resp
}

func renderSummary(w io.Writer, summary *provision.Summary) {
	if len(summary.Connectors) == 0 {
		return
	}

	fmt.Fprintln(w)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Connector", "File", "Connection ID", "Discovery", "Result"})
	for _, c := range summary.Connectors {
		result := color.New(color.FgGreen).Sprint("synced")
		if c.Err != nil {
			result = color.New(color.FgRed).Sprint("failed")
		}
		t.AppendRow(table.Row{c.Name, c.Path, c.Result.ConnectionID, c.Result.Capture, result})
	}
	t.AppendFooter(table.Row{"", "", "group " + summary.GroupID, "", ""})
	t.Render()

	tree := treeprint.NewWithRoot("Table selection")
	for _, c := range summary.Connectors {
		branch := tree.AddBranch(color.New(color.FgYellow).Sprint(c.Name))
		if c.Result.Selection == nil {
			branch.AddNode(faint("default selection of the service"))
			continue
		}

		for _, name := range c.Result.Selection.EnabledTables() {
			branch.AddNode(color.New(color.FgGreen).Sprint(name))
		}
		for _, name := range c.Result.Selection.DisabledTables() {
			branch.AddNode(fmt.Sprintf("%s %s", faint(name), faint("(disabled)")))
		}
		if c.Result.Selection.ChangeHandling == fivetran.AllowAll {
			branch.AddNode(faint("new tables are synced automatically"))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, tree.String())
}
