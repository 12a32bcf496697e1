// Package provision drives a Fivetran account from nothing to synced connections: it bootstraps the
// group and destination, then activates every configured connector one after the other.
package provision

import (
	"context"

	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
)

// API is the part of the Fivetran API provisioning relies on, implemented by *fivetran.Client.
type API interface {
	CreateGroup(ctx context.Context, name string) (*fivetran.Group, error)
	CreateDestination(ctx context.Context, req fivetran.DestinationRequest) (*fivetran.Destination, error)
	CreateConnection(ctx context.Context, req fivetran.CreateConnectionRequest) (*fivetran.Connection, error)
	RunSetupTests(ctx context.Context, connectionID string) (*fivetran.SetupTestResult, error)
	TriggerSchemaCapture(ctx context.Context, connectionID string) (fivetran.Capability, error)
	UpdateConnection(ctx context.Context, connectionID string, update fivetran.ConnectionUpdate) (*fivetran.Connection, error)
	GetConnection(ctx context.Context, connectionID string) (*fivetran.Connection, error)
	GetSchemas(ctx context.Context, connectionID string) (*fivetran.SchemaConfig, error)
	UpdateSchemas(ctx context.Context, connectionID string, cfg fivetran.SchemaConfig) error
	TriggerSync(ctx context.Context, connectionID string) error
}

var _ API = (*fivetran.Client)(nil)
