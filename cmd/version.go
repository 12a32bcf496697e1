package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/bruin-data/fivetran-provisioner/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const releasesURL = "https://github.com/bruin-data/fivetran-provisioner/releases"

type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Latest    string `json:"latest"`
	GoVersion string `json:"go_version"`
}

func VersionCmd(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print the version of the tool and the latest release",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "the output type, possible values are: plain, json",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "timeout for fetching version info",
				Value: 5 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			r := VersionCommand{
				stdout:      os.Stdout,
				httpClient:  &http.Client{Timeout: c.Duration("timeout")},
				releasesURL: releasesURL,
				logger:      makeLogger(c.Bool("debug")),
			}
			return r.Run(c.App.Version, commit, c.String("output"))
		},
		Before: telemetry.BeforeCommand,
		After:  telemetry.AfterCommand,
	}
}

type VersionCommand struct {
	stdout      io.Writer
	httpClient  *http.Client
	releasesURL string
	logger      *zap.SugaredLogger
}

func (r *VersionCommand) Run(version, commit, output string) error {
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		Latest:    fetchLatestVersion(r.httpClient, r.releasesURL, r.logger),
		GoVersion: runtime.Version(),
	}

	if output == "json" {
		js, err := json.Marshal(info)
		if err != nil {
			return errors.Wrap(err, "failed to marshal the output")
		}
		fmt.Fprintln(r.stdout, string(js))
		return nil
	}

	fmt.Fprintf(r.stdout, "Telemetry opt out: %t, Telemetry Key (%s)\n", telemetry.OptOut, strings.Repeat("X", len(telemetry.TelemetryKey)))
	fmt.Fprintf(r.stdout, "Current: %s (%s, %s)\n", info.Version, info.Commit, info.GoVersion)
	fmt.Fprintln(r.stdout, "Latest: "+info.Latest)
	if isNewerRelease(info.Version, info.Latest) {
		fmt.Fprintln(r.stdout, warningPrinter.Sprintf("A newer release is available at %s/tag/%s", r.releasesURL, info.Latest))
	}
	return nil
}

// fetchLatestVersion follows the redirect of the latest release page to its tag.
func fetchLatestVersion(httpClient *http.Client, baseURL string, logger *zap.SugaredLogger) string {
	res, err := httpClient.Get(baseURL + "/latest") //nolint
	if err != nil {
		logger.Debugf("error fetching version information: %v", err)
		return "<unknown: error fetching version information>"
	}
	res.Body.Close()
	return strings.TrimPrefix(res.Request.URL.String(), baseURL+"/tag/")
}

func isNewerRelease(current, latest string) bool {
	if current == "dev" || strings.HasPrefix(latest, "<unknown") || strings.Contains(latest, "/") {
		return false
	}
	return strings.TrimPrefix(current, "v") != strings.TrimPrefix(latest, "v")
}
