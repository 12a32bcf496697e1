package provision

import (
	"context"

	"github.com/bruin-data/fivetran-provisioner/pkg/connector"
	"github.com/bruin-data/fivetran-provisioner/pkg/logger"
	"github.com/pkg/errors"
)

type ConnectorResult struct {
	Name   string
	Path   string
	Result *ActivationResult
	// Err is set on the connector that stopped the run.
	Err error
}

type Summary struct {
	GroupID    string
	Connectors []ConnectorResult
}

type activator interface {
	Activate(ctx context.Context, groupID string, def *connector.Definition) (*ActivationResult, error)
}

type bootstrapper interface {
	CreateGroup(ctx context.Context) (string, error)
	CreateDestination(ctx context.Context, groupID string) error
}

// Provisioner bootstraps the group and destination once and then activates every definition in
// order. The first failing definition stops the run.
type Provisioner struct {
	infra     bootstrapper
	activator activator
	logger    logger.Logger
}

func NewProvisioner(infra *Infrastructure, activator *Activator, log logger.Logger) *Provisioner {
	return &Provisioner{
		infra:     infra,
		activator: activator,
		logger:    log,
	}
}

// Run returns the summary of everything provisioned so far, also when an error stops the run.
func (p *Provisioner) Run(ctx context.Context, definitions []*connector.Definition) (*Summary, error) {
	summary := &Summary{}

	groupID, err := p.infra.CreateGroup(ctx)
	if err != nil {
		return summary, err
	}
	summary.GroupID = groupID

	if err := p.infra.CreateDestination(ctx, groupID); err != nil {
		return summary, err
	}

	for i, def := range definitions {
		name := def.DisplayName()
		p.logger.Infof("connector %d/%d: %s", i+1, len(definitions), name)

		result, err := p.activator.Activate(ctx, groupID, def)
		if err != nil {
			if result != nil && result.ConnectionID != "" {
				summary.Connectors = append(summary.Connectors, ConnectorResult{Name: name, Path: def.Path, Result: result, Err: err})
			}
			return summary, errors.Wrapf(err, "connector '%s' failed", name)
		}

		summary.Connectors = append(summary.Connectors, ConnectorResult{Name: name, Path: def.Path, Result: result})
		p.logger.Infof("'%s' fully configured and initial sync complete", name)
	}

	return summary, nil
}
