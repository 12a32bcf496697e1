package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bruin-data/fivetran-provisioner/pkg/config"
	"github.com/bruin-data/fivetran-provisioner/pkg/connector"
	"github.com/bruin-data/fivetran-provisioner/pkg/telemetry"
	"github.com/bruin-data/fivetran-provisioner/pkg/warehouse"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func Verify(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check that the tables of every connector landed in the Snowflake destination",
		ArgsUsage: "[connector files or directories]",
		Flags: []cli.Flag{
			configFlag(),
			environmentFlag(),
			outputFlag(),
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()

			output := strings.ToLower(c.String("output"))
			r := VerifyCommand{
				fs:      fs,
				stdout:  os.Stdout,
				logger:  makeLoggerFor(*isDebug, output),
				connect: connectSnowflake,
			}
			return r.Run(c.Context, c.Args().Slice(), c.String("config"), c.String("environment"), output)
		},
		Before: telemetry.BeforeCommand,
		After:  telemetry.AfterCommand,
	}
}

type tableListerCloser interface {
	warehouse.TableLister
	io.Closer
}

func connectSnowflake(cfg *warehouse.Config) (tableListerCloser, error) {
	db, err := warehouse.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	return db, nil
}

type VerifyCommand struct {
	fs      afero.Fs
	stdout  io.Writer
	logger  *zap.SugaredLogger
	connect func(cfg *warehouse.Config) (tableListerCloser, error)
}

func (r *VerifyCommand) Run(ctx context.Context, paths []string, configFilePath, environment, output string) error {
	cm, err := config.LoadFromFile(r.fs, configFilePath)
	if err != nil {
		printError(err, output, "Failed to load the config file at "+configFilePath)
		return cli.Exit("", 1)
	}
	if err := cm.SelectEnvironment(environment); err != nil {
		printError(err, output, "Failed to use the environment")
		return cli.Exit("", 1)
	}
	env := cm.SelectedEnvironment

	if !strings.EqualFold(env.Destination.Service, "snowflake") {
		printError(errors.Errorf("destination service '%s' is not supported", env.Destination.Service), output, "Cannot verify the destination")
		return cli.Exit("", 1)
	}

	if len(paths) == 0 {
		paths = env.Connectors
	}
	definitions, err := connector.LoadAll(r.fs, paths)
	if err != nil {
		printError(err, output, "Failed to load the connector definitions")
		return cli.Exit("", 1)
	}

	whCfg, err := warehouse.ConfigFromDestination(env.Destination.Config)
	if err != nil {
		printError(err, output, "Failed to read the destination credentials")
		return cli.Exit("", 1)
	}

	db, err := r.connect(whCfg)
	if err != nil {
		printError(err, output, "Failed to connect to the destination")
		return cli.Exit("", 1)
	}
	defer db.Close()

	r.logger.Infof("verifying %d connector(s) in database %s", len(definitions), whCfg.Database)
	reports, err := warehouse.Verify(ctx, db, lo.Map(definitions, func(d *connector.Definition, _ int) warehouse.Expectation {
		return warehouse.Expect(d)
	}))
	if err != nil {
		printError(err, output, "Verification failed")
		return cli.Exit("", 1)
	}

	failed := lo.CountBy(reports, func(report warehouse.Report) bool { return !report.OK() })

	if output == "json" {
		js, err := json.Marshal(reports)
		if err != nil {
			printErrorJSON(err)
			return cli.Exit("", 1)
		}
		fmt.Fprintln(r.stdout, string(js))
	} else {
		renderReports(r.stdout, reports)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func renderReports(w io.Writer, reports []warehouse.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Connector", "Schema Prefix", "Tables", "Rows", "Missing", "Result"})
	for _, r := range reports {
		rows := lo.SumBy(r.Landed, func(lt warehouse.LandedTable) int64 { return lt.RowCount })
		result := color.New(color.FgGreen).Sprint("ok")
		if !r.OK() {
			result = color.New(color.FgRed).Sprint("incomplete")
		}
		t.AppendRow(table.Row{r.Connector, r.SchemaPrefix, len(r.Landed), rows, strings.Join(r.Missing, ", "), result})
	}
	t.Render()
}
