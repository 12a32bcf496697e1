package provision

import (
	"context"

	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
	"github.com/bruin-data/fivetran-provisioner/pkg/logger"
	"github.com/pkg/errors"
)

// Infrastructure creates the group and warehouse destination every connector is attached to.
// Both calls are safe to repeat, existing objects are left untouched.
type Infrastructure struct {
	api    API
	logger logger.Logger

	GroupName   string
	Destination fivetran.DestinationRequest
}

func NewInfrastructure(api API, log logger.Logger, groupName string, destination fivetran.DestinationRequest) *Infrastructure {
	return &Infrastructure{
		api:         api,
		logger:      log,
		GroupName:   groupName,
		Destination: destination,
	}
}

func (i *Infrastructure) CreateGroup(ctx context.Context) (string, error) {
	i.logger.Infof("creating group '%s'", i.GroupName)

	group, err := i.api.CreateGroup(ctx, i.GroupName)
	if err != nil {
		return "", errors.Wrap(err, "failed to create group")
	}
	if group.ID == "" {
		return "", errors.Errorf("no group id returned for group '%s'", i.GroupName)
	}

	i.logger.Infow("group ready", "group_id", group.ID)
	return group.ID, nil
}

func (i *Infrastructure) CreateDestination(ctx context.Context, groupID string) error {
	req := i.Destination
	req.GroupID = groupID

	i.logger.Infof("creating %s destination for group %s", req.Service, groupID)
	if _, err := i.api.CreateDestination(ctx, req); err != nil {
		return errors.Wrapf(err, "failed to create %s destination", req.Service)
	}

	i.logger.Infof("%s destination configured", req.Service)
	return nil
}
