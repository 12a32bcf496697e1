package fivetran

import "time"

type SchemaStatus string

const (
	SchemaStatusUnset             SchemaStatus = ""
	SchemaStatusBlockedOnCapture  SchemaStatus = "blocked_on_capture"
	SchemaStatusBlockedOnCustomer SchemaStatus = "blocked_on_customer"
	SchemaStatusReady             SchemaStatus = "ready"
)

type SchemaChangeHandling string

const (
	// AllowAll enables new schemas, tables and columns automatically.
	AllowAll SchemaChangeHandling = "ALLOW_ALL"
	// AllowColumns enables new columns automatically, new tables stay disabled until selected.
	AllowColumns SchemaChangeHandling = "ALLOW_COLUMNS"
)

const (
	SyncStateSyncing   = "syncing"
	SetupTestFailed    = "FAILED"
	ScheduleTypeAuto   = "auto"
	DefaultSyncMinutes = 1440
)

// Capability tells how a connection discovers its schema.
type Capability int

const (
	// CaptureSupported connections expose schema_status and block on the customer after capture.
	CaptureSupported Capability = iota
	// CaptureUnsupported connections, typically databases, discover their schema in the background once unpaused.
	CaptureUnsupported
)

func (c Capability) String() string {
	if c == CaptureUnsupported {
		return "background discovery"
	}
	return "schema capture"
}

type Group struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at"`
}

type Destination struct {
	ID             string         `json:"id"`
	GroupID        string         `json:"group_id"`
	Service        string         `json:"service"`
	Region         string         `json:"region"`
	TimeZoneOffset string         `json:"time_zone_offset"`
	SetupStatus    string         `json:"setup_status"`
	Config         map[string]any `json:"config"`
}

type DestinationRequest struct {
	GroupID        string         `json:"group_id"`
	Service        string         `json:"service"`
	Region         string         `json:"region,omitempty"`
	TimeZoneOffset string         `json:"time_zone_offset,omitempty"`
	Config         map[string]any `json:"config"`
}

type ConnectionStatus struct {
	SetupState       string `json:"setup_state"`
	SyncState        string `json:"sync_state"`
	UpdateState      string `json:"update_state"`
	IsHistoricalSync bool   `json:"is_historical_sync"`
}

type Connection struct {
	ID            string           `json:"id"`
	GroupID       string           `json:"group_id"`
	Service       string           `json:"service"`
	Schema        string           `json:"schema"`
	Paused        bool             `json:"paused"`
	SyncFrequency int              `json:"sync_frequency"`
	SchemaStatus  SchemaStatus     `json:"schema_status"`
	Status        ConnectionStatus `json:"status"`
	SucceededAt   *time.Time       `json:"succeeded_at"`
	FailedAt      *time.Time       `json:"failed_at"`
}

type CreateConnectionRequest struct {
	Service       string         `json:"service"`
	GroupID       string         `json:"group_id"`
	Paused        bool           `json:"paused"`
	RunSetupTests bool           `json:"run_setup_tests"`
	SyncFrequency int            `json:"sync_frequency"`
	ScheduleType  string         `json:"schedule_type"`
	Config        map[string]any `json:"config"`
}

// ConnectionUpdate is a PATCH body; unset fields are left untouched.
type ConnectionUpdate struct {
	Paused       *bool        `json:"paused,omitempty"`
	SchemaStatus SchemaStatus `json:"schema_status,omitempty"`
}

type SetupTest struct {
	Title   string `json:"title"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SetupTestResult struct {
	SetupTests []SetupTest `json:"setup_tests"`
}

type TableEntry struct {
	Enabled bool `json:"enabled"`
}

type SchemaEntry struct {
	Enabled bool                  `json:"enabled"`
	Tables  map[string]TableEntry `json:"tables"`
}

type SchemaConfig struct {
	SchemaChangeHandling SchemaChangeHandling   `json:"schema_change_handling,omitempty"`
	Schemas              map[string]SchemaEntry `json:"schemas"`
}
