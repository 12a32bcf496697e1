package provision

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bruin-data/fivetran-provisioner/pkg/connector"
	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
	"github.com/bruin-data/fivetran-provisioner/pkg/logger"
	"github.com/bruin-data/fivetran-provisioner/pkg/poll"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type Stage int

const (
	StageCreate Stage = iota + 1
	StageSetupTests
	StageDiscover
	StageWaitSchema
	StageConfigureSchema
	StageSchemaReady
	StageTriggerSync
	StageWaitSync
)

const stageCount = 8

var stageNames = map[Stage]string{
	StageCreate:          "create connection",
	StageSetupTests:      "setup tests",
	StageDiscover:        "schema discovery",
	StageWaitSchema:      "schema wait",
	StageConfigureSchema: "table selection",
	StageSchemaReady:     "schema ready",
	StageTriggerSync:     "initial sync",
	StageWaitSync:        "sync wait",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage %d", int(s))
}

// Label is the progress prefix of the stage, e.g. "[3/8]".
func (s Stage) Label() string {
	return fmt.Sprintf("[%d/%d]", int(s), stageCount)
}

type Wait struct {
	Timeout  time.Duration
	Interval time.Duration
}

type Timeouts struct {
	SchemaCapture   Wait
	SchemaDiscovery Wait
	Sync            Wait
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		SchemaCapture:   Wait{Timeout: 300 * time.Second, Interval: 10 * time.Second},
		SchemaDiscovery: Wait{Timeout: 300 * time.Second, Interval: 15 * time.Second},
		Sync:            Wait{Timeout: 7200 * time.Second, Interval: 30 * time.Second},
	}
}

type ActivationResult struct {
	ConnectionID string
	Capture      fivetran.Capability
	// Selection is nil when no table selection was applied.
	Selection *Selection
	Sync      *fivetran.Connection
}

// Activator takes a single connector definition from creation to a finished initial sync.
type Activator struct {
	api      API
	clock    poll.Clock
	logger   logger.Logger
	timeouts Timeouts
}

func NewActivator(api API, clk poll.Clock, log logger.Logger, timeouts Timeouts) *Activator {
	return &Activator{
		api:      api,
		clock:    clk,
		logger:   log,
		timeouts: timeouts,
	}
}

func (a *Activator) stage(stage Stage, format string, args ...any) {
	a.logger.Infof("%s %s", stage.Label(), fmt.Sprintf(format, args...))
}

// Activate runs all stages for the definition in order. The returned result is filled as far as
// the stages got, so a failed activation still reports the connection id once it exists.
func (a *Activator) Activate(ctx context.Context, groupID string, def *connector.Definition) (*ActivationResult, error) {
	result := &ActivationResult{}

	id, err := a.CreateConnection(ctx, groupID, def)
	if err != nil {
		return result, err
	}
	result.ConnectionID = id

	if err := a.RunSetupTests(ctx, id); err != nil {
		return result, err
	}

	capability, err := a.TriggerDiscovery(ctx, id)
	if err != nil {
		return result, err
	}
	result.Capture = capability

	switch capability {
	case fivetran.CaptureSupported:
		if err := a.WaitForSchemaCapture(ctx, id); err != nil {
			return result, err
		}
		result.Selection, err = a.ConfigureCapturedSchema(ctx, id, def.Schemas)
		if err != nil {
			return result, err
		}
		if err := a.MarkSchemaReady(ctx, id); err != nil {
			return result, err
		}
	case fivetran.CaptureUnsupported:
		result.Selection, err = a.ConfigureDiscoveredSchema(ctx, id, def.Schemas)
		if err != nil {
			return result, err
		}
	}

	if err := a.TriggerInitialSync(ctx, id); err != nil {
		return result, err
	}

	result.Sync, err = a.WaitForSync(ctx, id)
	return result, err
}

func (a *Activator) CreateConnection(ctx context.Context, groupID string, def *connector.Definition) (string, error) {
	a.stage(StageCreate, "creating %s connection (paused)", def.Service)

	conn, err := a.api.CreateConnection(ctx, fivetran.CreateConnectionRequest{
		Service:       def.Service,
		GroupID:       groupID,
		Paused:        true,
		RunSetupTests: false,
		SyncFrequency: def.EffectiveSyncFrequency(),
		ScheduleType:  fivetran.ScheduleTypeAuto,
		Config:        def.SourceConfig(),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to %s", StageCreate)
	}
	if conn.ID == "" {
		return "", errors.Errorf("no connection id returned for %s connection", def.Service)
	}

	a.logger.Infow("connection created", "connection_id", conn.ID)
	return conn.ID, nil
}

func (a *Activator) RunSetupTests(ctx context.Context, connectionID string) error {
	a.stage(StageSetupTests, "running setup tests")

	result, err := a.api.RunSetupTests(ctx, connectionID)
	if err != nil {
		return errors.Wrapf(err, "failed to run %s", StageSetupTests)
	}

	failed := lo.Filter(result.SetupTests, func(t fivetran.SetupTest, _ int) bool {
		return t.Status == fivetran.SetupTestFailed
	})
	for _, t := range failed {
		a.logger.Warnf("setup test failed: %s: %s", t.Title, t.Message)
	}
	if len(failed) > 0 {
		return &SetupTestError{ConnectionID: connectionID, Failed: failed}
	}

	a.logger.Infof("all %d setup test(s) passed", len(result.SetupTests))
	return nil
}

func (a *Activator) TriggerDiscovery(ctx context.Context, connectionID string) (fivetran.Capability, error) {
	a.stage(StageDiscover, "triggering schema discovery")

	capability, err := a.api.TriggerSchemaCapture(ctx, connectionID)
	if err != nil {
		return capability, errors.Wrapf(err, "failed to trigger %s", StageDiscover)
	}

	a.logger.Infof("connection uses %s", capability)
	return capability, nil
}

// WaitForSchemaCapture polls until the connection blocks on the customer for the table selection.
func (a *Activator) WaitForSchemaCapture(ctx context.Context, connectionID string) error {
	a.stage(StageWaitSchema, "waiting for schema capture")

	wait := a.timeouts.SchemaCapture
	return poll.Until(ctx, a.clock, poll.Options{
		Stage:    "schema capture of " + connectionID,
		Timeout:  wait.Timeout,
		Interval: wait.Interval,
	}, func(ctx context.Context) (bool, error) {
		conn, err := a.api.GetConnection(ctx, connectionID)
		if err != nil {
			return false, err
		}

		switch conn.SchemaStatus {
		case fivetran.SchemaStatusBlockedOnCustomer:
			return true, nil
		case fivetran.SchemaStatusBlockedOnCapture, fivetran.SchemaStatusUnset:
			a.logger.Debugw("schema capture in progress", "connection_id", connectionID, "schema_status", conn.SchemaStatus)
			return false, nil
		default:
			return false, &UnexpectedStatusError{ConnectionID: connectionID, Status: conn.SchemaStatus}
		}
	})
}

// ConfigureCapturedSchema applies the definition's tables to a captured schema with ALLOW_ALL.
func (a *Activator) ConfigureCapturedSchema(ctx context.Context, connectionID string, schemas []connector.Schema) (*Selection, error) {
	a.stage(StageConfigureSchema, "applying table selection")

	discovered, err := a.api.GetSchemas(ctx, connectionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch discovered schemas")
	}
	a.logger.Infow("discovered schemas", "schemas", sortedKeys(discovered.Schemas))

	selection := SelectConfiguredTables(schemas)
	if err := a.api.UpdateSchemas(ctx, connectionID, selection.SchemaConfig()); err != nil {
		return nil, errors.Wrapf(err, "failed to apply %s", StageConfigureSchema)
	}

	a.logger.Infow("tables enabled", "tables", selection.EnabledTables())
	return selection, nil
}

func (a *Activator) MarkSchemaReady(ctx context.Context, connectionID string) error {
	a.stage(StageSchemaReady, "setting schema status to ready")

	_, err := a.api.UpdateConnection(ctx, connectionID, fivetran.ConnectionUpdate{
		SchemaStatus: fivetran.SchemaStatusReady,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to set %s", StageSchemaReady)
	}
	return nil
}

// ConfigureDiscoveredSchema unpauses a database connection, waits for its background discovery and
// applies the definition's tables with ALLOW_COLUMNS. Definitions without schemas keep whatever
// the service selects by default and get a nil selection.
func (a *Activator) ConfigureDiscoveredSchema(ctx context.Context, connectionID string, schemas []connector.Schema) (*Selection, error) {
	a.stage(StageWaitSchema, "unpausing and waiting for background schema discovery")

	paused := false
	if _, err := a.api.UpdateConnection(ctx, connectionID, fivetran.ConnectionUpdate{Paused: &paused}); err != nil {
		return nil, errors.Wrap(err, "failed to unpause connection")
	}

	if len(schemas) == 0 {
		a.logger.Infof("no schemas configured, keeping the default selection")
		return nil, nil
	}

	if err := a.waitForDiscovery(ctx, connectionID); err != nil {
		return nil, err
	}

	a.stage(StageConfigureSchema, "applying table selection")
	discovered, err := a.api.GetSchemas(ctx, connectionID)
	switch {
	case err == nil:
	case fivetran.IsSchemaNotReady(err):
		discovered = &fivetran.SchemaConfig{}
	default:
		return nil, errors.Wrap(err, "failed to fetch discovered schemas")
	}

	selection := SelectDiscoveredTables(discovered.Schemas, schemas)
	if err := a.api.UpdateSchemas(ctx, connectionID, selection.SchemaConfig()); err != nil {
		return nil, errors.Wrapf(err, "failed to apply %s", StageConfigureSchema)
	}

	a.logger.Infow("tables enabled", "tables", selection.EnabledTables())
	a.logger.Infow("tables disabled", "tables", selection.DisabledTables())
	return selection, nil
}

// waitForDiscovery polls the schemas endpoint until it reports at least one schema. Running out of
// time is logged and otherwise ignored.
func (a *Activator) waitForDiscovery(ctx context.Context, connectionID string) error {
	wait := a.timeouts.SchemaDiscovery
	err := poll.Until(ctx, a.clock, poll.Options{
		Stage:    "schema discovery of " + connectionID,
		Timeout:  wait.Timeout,
		Interval: wait.Interval,
	}, func(ctx context.Context) (bool, error) {
		discovered, err := a.api.GetSchemas(ctx, connectionID)
		if err != nil {
			if fivetran.IsSchemaNotReady(err) {
				a.logger.Debugw("schema not discovered yet", "connection_id", connectionID)
				return false, nil
			}
			return false, errors.Wrap(err, "failed to poll discovered schemas")
		}
		return len(discovered.Schemas) > 0, nil
	})

	var timeoutErr *poll.TimeoutError
	if errors.As(err, &timeoutErr) {
		a.logger.Warnf("%s, applying the table selection anyway", timeoutErr)
		return nil
	}
	return err
}

func (a *Activator) TriggerInitialSync(ctx context.Context, connectionID string) error {
	a.stage(StageTriggerSync, "triggering initial sync")

	if err := a.api.TriggerSync(ctx, connectionID); err != nil {
		return errors.Wrapf(err, "failed to trigger %s", StageTriggerSync)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
