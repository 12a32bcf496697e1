package telemetry

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func TestCommandProperties(t *testing.T) {
	t.Parallel()

	app := cli.NewApp()
	set := flag.NewFlagSet("provision", flag.ContinueOnError)
	c := cli.NewContext(app, set, nil)
	c.Command = &cli.Command{Name: "provision"}

	assert.Equal(t, "provision", commandProperties(c)["command"])

	c.Command = nil
	assert.Equal(t, "", commandProperties(c)["command"])
}
