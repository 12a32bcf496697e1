package provision

import (
	"context"

	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
	"github.com/bruin-data/fivetran-provisioner/pkg/poll"
	"github.com/pkg/errors"
)

// WaitForSync polls the connection until it stops syncing and reports whether the sync succeeded.
// The last seen connection state is returned in both cases.
func (a *Activator) WaitForSync(ctx context.Context, connectionID string) (*fivetran.Connection, error) {
	a.stage(StageWaitSync, "waiting for the initial sync to finish")

	var last *fivetran.Connection
	wait := a.timeouts.Sync
	err := poll.Until(ctx, a.clock, poll.Options{
		Stage:    "sync of " + connectionID,
		Timeout:  wait.Timeout,
		Interval: wait.Interval,
	}, func(ctx context.Context) (bool, error) {
		conn, err := a.api.GetConnection(ctx, connectionID)
		if err != nil {
			return false, errors.Wrap(err, "failed to poll sync state")
		}

		last = conn
		if conn.Status.SyncState == fivetran.SyncStateSyncing {
			a.logger.Debugw("sync in progress", "connection_id", connectionID)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return last, err
	}

	if SyncFailed(last) {
		return last, &SyncFailedError{
			ConnectionID: connectionID,
			FailedAt:     *last.FailedAt,
			SucceededAt:  last.SucceededAt,
		}
	}

	if last.SucceededAt != nil {
		a.logger.Infof("sync completed successfully at %s", last.SucceededAt.Format("2006-01-02 15:04:05 MST"))
	} else {
		a.logger.Infof("sync completed")
	}
	return last, nil
}

// SyncFailed reports whether the latest sync attempt of a connection that is no longer syncing failed,
// i.e. it has a failure that is not followed by a success.
func SyncFailed(conn *fivetran.Connection) bool {
	if conn.FailedAt == nil {
		return false
	}
	return conn.SucceededAt == nil || conn.FailedAt.After(*conn.SucceededAt)
}
