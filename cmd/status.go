package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bruin-data/fivetran-provisioner/pkg/config"
	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
	"github.com/bruin-data/fivetran-provisioner/pkg/provision"
	"github.com/bruin-data/fivetran-provisioner/pkg/telemetry"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func Status(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "show the schema and sync state of existing connections",
		ArgsUsage: "<connection id...>",
		Flags: []cli.Flag{
			configFlag(),
			environmentFlag(),
			outputFlag(),
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()

			output := strings.ToLower(c.String("output"))
			if c.NArg() == 0 {
				printError(errors.New("at least one connection id is required"), output, "Missing arguments")
				return cli.Exit("", 1)
			}

			r := StatusCommand{fs: fs, stdout: os.Stdout, logger: makeLoggerFor(*isDebug, output)}
			return r.Run(c.Context, c.Args().Slice(), c.String("config"), c.String("environment"), output)
		},
		Before: telemetry.BeforeCommand,
		After:  telemetry.AfterCommand,
	}
}

type StatusCommand struct {
	fs     afero.Fs
	stdout io.Writer
	logger *zap.SugaredLogger
}

type connectionStatus struct {
	ID           string     `json:"id"`
	Service      string     `json:"service"`
	Schema       string     `json:"schema"`
	Paused       bool       `json:"paused"`
	SchemaStatus string     `json:"schema_status"`
	SyncState    string     `json:"sync_state"`
	SucceededAt  *time.Time `json:"succeeded_at"`
	FailedAt     *time.Time `json:"failed_at"`
	LastSync     string     `json:"last_sync"`
}

func newConnectionStatus(conn *fivetran.Connection) connectionStatus {
	lastSync := "succeeded"
	switch {
	case conn.Status.SyncState == fivetran.SyncStateSyncing:
		lastSync = "running"
	case provision.SyncFailed(conn):
		lastSync = "failed"
	case conn.SucceededAt == nil:
		lastSync = "never"
	}

	return connectionStatus{
		ID:           conn.ID,
		Service:      conn.Service,
		Schema:       conn.Schema,
		Paused:       conn.Paused,
		SchemaStatus: string(conn.SchemaStatus),
		SyncState:    conn.Status.SyncState,
		SucceededAt:  conn.SucceededAt,
		FailedAt:     conn.FailedAt,
		LastSync:     lastSync,
	}
}

func (r *StatusCommand) Run(ctx context.Context, ids []string, configFilePath, environment, output string) error {
	cm, err := config.LoadFromFile(r.fs, configFilePath)
	if err != nil {
		printError(err, output, "Failed to load the config file at "+configFilePath)
		return cli.Exit("", 1)
	}
	if err := cm.SelectEnvironment(environment); err != nil {
		printError(err, output, "Failed to use the environment")
		return cli.Exit("", 1)
	}

	client, err := fivetran.NewClient(cm.SelectedEnvironment.API, r.logger)
	if err != nil {
		printError(err, output, "Failed to create the Fivetran client")
		return cli.Exit("", 1)
	}

	statuses := make([]connectionStatus, 0, len(ids))
	for _, id := range ids {
		conn, err := client.GetConnection(ctx, id)
		if err != nil {
			printError(err, output, "Failed to fetch connection "+id)
			return cli.Exit("", 1)
		}
		statuses = append(statuses, newConnectionStatus(conn))
	}

	if output == "json" {
		js, err := json.Marshal(statuses)
		if err != nil {
			printErrorJSON(err)
			return cli.Exit("", 1)
		}
		fmt.Fprintln(r.stdout, string(js))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.stdout)
	t.AppendHeader(table.Row{"Connection ID", "Service", "Schema", "Paused", "Schema Status", "Sync State", "Last Sync", "Succeeded At", "Failed At"})
	for _, s := range statuses {
		t.AppendRow(table.Row{s.ID, s.Service, s.Schema, s.Paused, s.SchemaStatus, s.SyncState, s.LastSync, formatTime(s.SucceededAt), formatTime(s.FailedAt)})
	}
	t.Render()
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
