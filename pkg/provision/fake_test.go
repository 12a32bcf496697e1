package provision

import (
	"context"
	"fmt"
	"testing"

	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
	"github.com/bruin-data/fivetran-provisioner/pkg/poll/polltest"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type schemaResponse struct {
	schemas map[string]fivetran.SchemaEntry
	err     error
}

// fakeAPI serves scripted responses. GetConnection and GetSchemas consume their queues in order and
// keep answering with the last entry once the queue is drained.
type fakeAPI struct {
	calls []string

	groupID       string
	failedTests   map[string][]fivetran.SetupTest
	capability    map[string]fivetran.Capability
	captureErr    error
	connections   []*fivetran.Connection
	connectionErr error
	schemas       []schemaResponse

	created        []fivetran.CreateConnectionRequest
	destinations   []fivetran.DestinationRequest
	updates        []fivetran.ConnectionUpdate
	appliedSchemas []fivetran.SchemaConfig
}

func (f *fakeAPI) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeAPI) count(call string) int {
	return lo.Count(f.calls, call)
}

func (f *fakeAPI) CreateGroup(_ context.Context, name string) (*fivetran.Group, error) {
	f.record("CreateGroup %s", name)
	return &fivetran.Group{ID: f.groupID, Name: name}, nil
}

func (f *fakeAPI) CreateDestination(_ context.Context, req fivetran.DestinationRequest) (*fivetran.Destination, error) {
	f.record("CreateDestination %s", req.GroupID)
	f.destinations = append(f.destinations, req)
	return &fivetran.Destination{ID: req.GroupID, GroupID: req.GroupID, Service: req.Service}, nil
}

func (f *fakeAPI) CreateConnection(_ context.Context, req fivetran.CreateConnectionRequest) (*fivetran.Connection, error) {
	f.record("CreateConnection %s", req.Service)
	f.created = append(f.created, req)
	return &fivetran.Connection{ID: "conn_" + req.Service, Service: req.Service, Paused: req.Paused}, nil
}

func (f *fakeAPI) RunSetupTests(_ context.Context, connectionID string) (*fivetran.SetupTestResult, error) {
	f.record("RunSetupTests %s", connectionID)
	tests := []fivetran.SetupTest{{Title: "Connecting to host", Status: "PASSED"}}
	tests = append(tests, f.failedTests[connectionID]...)
	return &fivetran.SetupTestResult{SetupTests: tests}, nil
}

func (f *fakeAPI) TriggerSchemaCapture(_ context.Context, connectionID string) (fivetran.Capability, error) {
	f.record("TriggerSchemaCapture %s", connectionID)
	if f.captureErr != nil {
		return fivetran.CaptureSupported, f.captureErr
	}
	return f.capability[connectionID], nil
}

func (f *fakeAPI) UpdateConnection(_ context.Context, connectionID string, update fivetran.ConnectionUpdate) (*fivetran.Connection, error) {
	f.record("UpdateConnection %s", connectionID)
	f.updates = append(f.updates, update)
	return &fivetran.Connection{ID: connectionID}, nil
}

func (f *fakeAPI) GetConnection(_ context.Context, connectionID string) (*fivetran.Connection, error) {
	f.record("GetConnection %s", connectionID)
	if f.connectionErr != nil {
		return nil, f.connectionErr
	}
	if len(f.connections) == 0 {
		return &fivetran.Connection{ID: connectionID}, nil
	}

	conn := f.connections[0]
	if len(f.connections) > 1 {
		f.connections = f.connections[1:]
	}
	return conn, nil
}

func (f *fakeAPI) GetSchemas(_ context.Context, connectionID string) (*fivetran.SchemaConfig, error) {
	f.record("GetSchemas %s", connectionID)
	if len(f.schemas) == 0 {
		return &fivetran.SchemaConfig{}, nil
	}

	resp := f.schemas[0]
	if len(f.schemas) > 1 {
		f.schemas = f.schemas[1:]
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return &fivetran.SchemaConfig{Schemas: resp.schemas}, nil
}

func (f *fakeAPI) UpdateSchemas(_ context.Context, connectionID string, cfg fivetran.SchemaConfig) error {
	f.record("UpdateSchemas %s", connectionID)
	f.appliedSchemas = append(f.appliedSchemas, cfg)
	return nil
}

func (f *fakeAPI) TriggerSync(_ context.Context, connectionID string) error {
	f.record("TriggerSync %s", connectionID)
	return nil
}

func newTestActivator(t *testing.T, api API) (*Activator, *polltest.StepClock) {
	t.Helper()

	clk := polltest.NewStepClock()
	return NewActivator(api, clk, zap.NewNop().Sugar(), DefaultTimeouts()), clk
}

func withSchemaStatus(statuses ...fivetran.SchemaStatus) []*fivetran.Connection {
	return lo.Map(statuses, func(status fivetran.SchemaStatus, _ int) *fivetran.Connection {
		return &fivetran.Connection{ID: "c1", SchemaStatus: status}
	})
}

var schemaNotReady = &fivetran.APIError{StatusCode: 404, Code: "NotFound_SchemaConfig"}
