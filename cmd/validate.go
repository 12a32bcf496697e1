package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bruin-data/fivetran-provisioner/pkg/config"
	"github.com/bruin-data/fivetran-provisioner/pkg/connector"
	"github.com/bruin-data/fivetran-provisioner/pkg/path"
	"github.com/bruin-data/fivetran-provisioner/pkg/telemetry"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"github.com/xlab/treeprint"
)

var errNoConnectors = errors.New("no connector files given and the environment lists no connectors")

func Validate() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate connector definition files without calling the Fivetran API",
		ArgsUsage: "[connector files or directories]",
		Flags: []cli.Flag{
			configFlag(),
			environmentFlag(),
			outputFlag(),
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()

			r := ValidateCommand{fs: fs, stdout: os.Stdout}
			return r.Run(c.Args().Slice(), c.String("config"), c.String("environment"), strings.ToLower(c.String("output")))
		},
		Before: telemetry.BeforeCommand,
		After:  telemetry.AfterCommand,
	}
}

type ValidateCommand struct {
	fs     afero.Fs
	stdout io.Writer
}

type fileIssues struct {
	Path   string   `json:"path"`
	Issues []string `json:"issues"`
}

// Run validates the given paths, falling back to the connectors of the selected environment.
func (r *ValidateCommand) Run(paths []string, configFilePath, environment, output string) error {
	if len(paths) == 0 {
		cm, err := config.LoadFromFile(r.fs, configFilePath)
		if err != nil {
			printError(err, output, "Failed to load the config file at "+configFilePath)
			return cli.Exit("", 1)
		}
		if err := cm.SelectEnvironment(environment); err != nil {
			printError(err, output, "Failed to use the environment")
			return cli.Exit("", 1)
		}
		paths = cm.SelectedEnvironment.Connectors
	}
	if len(paths) == 0 {
		printError(errNoConnectors, output, "Nothing to validate")
		return cli.Exit("", 1)
	}

	files, err := path.ExpandPaths(r.fs, paths, connector.FileSuffixes)
	if err != nil {
		printError(err, output, "Failed to find connector files")
		return cli.Exit("", 1)
	}

	results := make([]fileIssues, 0, len(files))
	for _, file := range files {
		issues, err := connector.Validate(r.fs, file)
		if err != nil {
			printError(err, output, "Failed to validate "+file)
			return cli.Exit("", 1)
		}
		results = append(results, fileIssues{
			Path:   file,
			Issues: lo.Map(issues, func(e error, _ int) string { return e.Error() }),
		})
	}

	failed := lo.Filter(results, func(f fileIssues, _ int) bool { return len(f.Issues) > 0 })

	if output == "json" {
		js, err := json.Marshal(results)
		if err != nil {
			printErrorJSON(err)
			return cli.Exit("", 1)
		}
		fmt.Fprintln(r.stdout, string(js))
	} else {
		renderIssues(r.stdout, results, len(failed))
	}

	if len(failed) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func renderIssues(w io.Writer, results []fileIssues, failedCount int) {
	if failedCount == 0 {
		fmt.Fprintln(w, color.New(color.FgGreen, color.Bold).Sprintf("✓ %d connector definition(s) are valid.", len(results)))
		return
	}

	tree := treeprint.NewWithRoot(color.New(color.FgRed).Sprintf("%d of %d connector definition(s) have issues", failedCount, len(results)))
	for _, result := range results {
		if len(result.Issues) == 0 {
			continue
		}
		branch := tree.AddBranch(color.New(color.FgYellow).Sprint(result.Path))
		for _, issue := range result.Issues {
			branch.AddNode(issue)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, tree.String())
}
