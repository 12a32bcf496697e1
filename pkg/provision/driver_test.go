package provision

import (
	"context"
	"testing"
	"time"

	"github.com/bruin-data/fivetran-provisioner/pkg/connector"
	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvisioner(t *testing.T, api *fakeAPI) *Provisioner {
	t.Helper()

	log := zap.NewNop().Sugar()
	infra := NewInfrastructure(api, log, "CLV_Analytics_group", fivetran.DestinationRequest{
		Service:        "snowflake",
		Region:         "US",
		TimeZoneOffset: "0",
		Config:         map[string]any{"database": "BRONZE"},
	})
	activator, _ := newTestActivator(t, api)
	return NewProvisioner(infra, activator, log)
}

func definition(service, path string) *connector.Definition {
	return &connector.Definition{
		Name:        "clv_analytics_" + service,
		Service:     service,
		Destination: connector.Destination{Schema: service},
		Config:      map[string]any{},
		Path:        path,
	}
}

func TestInfrastructure(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{groupID: "group_1"}
	infra := NewInfrastructure(api, zap.NewNop().Sugar(), "CLV_Analytics_group", fivetran.DestinationRequest{Service: "snowflake"})

	groupID, err := infra.CreateGroup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "group_1", groupID)

	require.NoError(t, infra.CreateDestination(context.Background(), groupID))
	require.Len(t, api.destinations, 1)
	assert.Equal(t, "group_1", api.destinations[0].GroupID)
	assert.Empty(t, infra.Destination.GroupID)

	_, err = NewInfrastructure(&fakeAPI{}, zap.NewNop().Sugar(), "g", fivetran.DestinationRequest{}).CreateGroup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no group id")
}

func TestProvisioner_Run(t *testing.T) {
	t.Parallel()

	succeeded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		groupID: "group_1",
		capability: map[string]fivetran.Capability{
			"conn_postgres": fivetran.CaptureUnsupported,
		},
		connections: []*fivetran.Connection{
			{SchemaStatus: fivetran.SchemaStatusBlockedOnCustomer, Status: fivetran.ConnectionStatus{SyncState: "scheduled"}, SucceededAt: &succeeded},
		},
	}
	p := newTestProvisioner(t, api)

	summary, err := p.Run(context.Background(), []*connector.Definition{
		definition("postgres", "fivetran/erp.yaml"),
		definition("salesforce", "fivetran/crm.yaml"),
	})
	require.NoError(t, err)

	assert.Equal(t, "group_1", summary.GroupID)
	require.Len(t, summary.Connectors, 2)
	assert.Equal(t, "clv_analytics_postgres", summary.Connectors[0].Name)
	assert.Equal(t, "fivetran/erp.yaml", summary.Connectors[0].Path)
	assert.Equal(t, "conn_postgres", summary.Connectors[0].Result.ConnectionID)
	assert.Equal(t, "conn_salesforce", summary.Connectors[1].Result.ConnectionID)
	assert.NoError(t, summary.Connectors[1].Err)

	assert.Equal(t, []string{"CreateGroup CLV_Analytics_group", "CreateDestination group_1"}, api.calls[:2])
}

func TestProvisioner_Run_StopsAtTheFirstFailingConnector(t *testing.T) {
	t.Parallel()

	succeeded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		groupID: "group_1",
		failedTests: map[string][]fivetran.SetupTest{
			"conn_salesforce": {{Title: "Validating credentials", Status: fivetran.SetupTestFailed, Message: "invalid token"}},
		},
		connections: []*fivetran.Connection{
			{SchemaStatus: fivetran.SchemaStatusBlockedOnCustomer, Status: fivetran.ConnectionStatus{SyncState: "scheduled"}, SucceededAt: &succeeded},
		},
	}
	p := newTestProvisioner(t, api)

	summary, err := p.Run(context.Background(), []*connector.Definition{
		definition("postgres", "fivetran/erp.yaml"),
		definition("salesforce", "fivetran/crm.yaml"),
		definition("hubspot", "fivetran/marketing.yaml"),
	})

	var setupErr *SetupTestError
	require.ErrorAs(t, err, &setupErr)
	assert.Contains(t, err.Error(), "connector 'clv_analytics_salesforce' failed")
	assert.Contains(t, err.Error(), "Validating credentials")

	assert.Equal(t, 1, api.count("CreateConnection postgres"))
	assert.Equal(t, 1, api.count("CreateConnection salesforce"))
	assert.Zero(t, api.count("CreateConnection hubspot"))
	assert.Zero(t, api.count("TriggerSchemaCapture conn_salesforce"))

	require.Len(t, summary.Connectors, 2)
	assert.NoError(t, summary.Connectors[0].Err)
	assert.Equal(t, "conn_salesforce", summary.Connectors[1].Result.ConnectionID)
	require.Error(t, summary.Connectors[1].Err)
}

func TestProvisioner_Run_BootstrapFailureAttemptsNoConnector(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	p := newTestProvisioner(t, api)

	_, err := p.Run(context.Background(), []*connector.Definition{definition("postgres", "fivetran/erp.yaml")})
	require.Error(t, err)
	assert.Equal(t, []string{"CreateGroup CLV_Analytics_group"}, api.calls)
}
