package provision

import (
	"fmt"
	"strings"
	"time"

	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
)

type SetupTestError struct {
	ConnectionID string
	Failed       []fivetran.SetupTest
}

func (e *SetupTestError) Error() string {
	details := make([]string, 0, len(e.Failed))
	for _, t := range e.Failed {
		details = append(details, fmt.Sprintf("%s: %s", t.Title, t.Message))
	}
	return fmt.Sprintf("setup tests failed for connection %s: %s", e.ConnectionID, strings.Join(details, "; "))
}

// UnexpectedStatusError is returned when a connection reports a schema status the capture wait does not expect.
type UnexpectedStatusError struct {
	ConnectionID string
	Status       fivetran.SchemaStatus
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected schema_status during capture for connection %s: %q", e.ConnectionID, e.Status)
}

type SyncFailedError struct {
	ConnectionID string
	FailedAt     time.Time
	SucceededAt  *time.Time
}

func (e *SyncFailedError) Error() string {
	return fmt.Sprintf("sync failed for connection %s (failed_at=%s)", e.ConnectionID, e.FailedAt.Format(time.RFC3339))
}
