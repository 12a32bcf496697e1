package telemetry

import (
	"runtime"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/rudderlabs/analytics-go/v4"
	"github.com/urfave/cli/v2"
)

const url = "https://fivetran-provisioner.dataplane.rudderstack.com"

var (
	TelemetryKey = ""
	OptOut       = false
	AppVersion   = ""
)

var startedAt time.Time

func Enabled() bool {
	return !OptOut && TelemetryKey != ""
}

func SendEvent(event string, properties analytics.Properties) {
	if !Enabled() {
		return
	}
	id, _ := machineid.ID()

	if properties == nil {
		properties = analytics.Properties{}
	}
	if state, isNew, err := loadOrCreateInstallState(AppVersion); err == nil {
		properties["install_id"] = state.InstallID
		properties["first_run"] = isNew
	}

	client := analytics.New(TelemetryKey, url)
	defer func() { _ = client.Close() }()

	// Enqueues a track event that will be flushed on Close.
	_ = client.Enqueue(analytics.Track{
		AnonymousId:       id,
		Event:             event,
		OriginalTimestamp: time.Now().In(time.UTC),
		Context: &analytics.Context{
			App: analytics.AppInfo{
				Name:    "fivetran-provisioner",
				Version: AppVersion,
			},
			OS: analytics.OSInfo{
				Name: runtime.GOOS + " " + runtime.GOARCH,
			},
		},
		Properties: properties,
	})
}

// commandProperties never carries arguments or flag values, they contain connector names and paths.
func commandProperties(c *cli.Context) analytics.Properties {
	name := ""
	if c.Command != nil {
		name = c.Command.Name
	}
	return analytics.Properties{"command": name}
}

func BeforeCommand(c *cli.Context) error {
	startedAt = time.Now()
	SendEvent("command_start", commandProperties(c))
	return nil
}

func AfterCommand(c *cli.Context) error {
	props := commandProperties(c)
	props["duration_ms"] = time.Since(startedAt).Milliseconds()
	SendEvent("command_end", props)
	return nil
}

func SendErrorEvent(c *cli.Context) {
	props := commandProperties(c)
	props["duration_ms"] = time.Since(startedAt).Milliseconds()
	SendEvent("command_error", props)
}
