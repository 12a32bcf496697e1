package fivetran

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

func decode(data map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return decoder.Decode(data)
}

func connectionPath(connectionID string, suffix ...string) string {
	p := "/connections/" + url.PathEscape(connectionID)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *Client) CreateGroup(ctx context.Context, name string) (*Group, error) {
	data, err := c.Call(ctx, http.MethodPost, "/groups", map[string]any{"name": name})
	if err != nil {
		return nil, err
	}

	var group Group
	if err := decode(data, &group); err != nil {
		return nil, errors.Wrap(err, "failed to decode group")
	}
	return &group, nil
}

func (c *Client) CreateDestination(ctx context.Context, req DestinationRequest) (*Destination, error) {
	data, err := c.Call(ctx, http.MethodPost, "/destinations", req)
	if err != nil {
		return nil, err
	}

	var destination Destination
	if err := decode(data, &destination); err != nil {
		return nil, errors.Wrap(err, "failed to decode destination")
	}
	return &destination, nil
}

func (c *Client) CreateConnection(ctx context.Context, req CreateConnectionRequest) (*Connection, error) {
	data, err := c.Call(ctx, http.MethodPost, "/connections", req)
	if err != nil {
		return nil, err
	}

	var conn Connection
	if err := decode(data, &conn); err != nil {
		return nil, errors.Wrap(err, "failed to decode connection")
	}
	return &conn, nil
}

func (c *Client) GetConnection(ctx context.Context, connectionID string) (*Connection, error) {
	data, err := c.Call(ctx, http.MethodGet, connectionPath(connectionID), nil)
	if err != nil {
		return nil, err
	}

	var conn Connection
	if err := decode(data, &conn); err != nil {
		return nil, errors.Wrapf(err, "failed to decode connection %s", connectionID)
	}
	return &conn, nil
}

func (c *Client) UpdateConnection(ctx context.Context, connectionID string, update ConnectionUpdate) (*Connection, error) {
	data, err := c.Call(ctx, http.MethodPatch, connectionPath(connectionID), update)
	if err != nil {
		return nil, err
	}

	var conn Connection
	if err := decode(data, &conn); err != nil {
		return nil, errors.Wrapf(err, "failed to decode connection %s", connectionID)
	}
	return &conn, nil
}

// RunSetupTests runs the connection's setup tests, trusting the source's certificates and SSH fingerprints.
func (c *Client) RunSetupTests(ctx context.Context, connectionID string) (*SetupTestResult, error) {
	data, err := c.Call(ctx, http.MethodPost, connectionPath(connectionID, "test"), map[string]any{
		"trust_certificates": true,
		"trust_fingerprints": true,
	})
	if err != nil {
		return nil, err
	}

	var result SetupTestResult
	if err := decode(data, &result); err != nil {
		return nil, errors.Wrapf(err, "failed to decode setup tests of %s", connectionID)
	}
	return &result, nil
}

// TriggerSchemaCapture unpauses the connection and asks for its schema to be captured. Services that
// cannot capture on request are reported as CaptureUnsupported rather than as an error.
func (c *Client) TriggerSchemaCapture(ctx context.Context, connectionID string) (Capability, error) {
	paused := false
	_, err := c.UpdateConnection(ctx, connectionID, ConnectionUpdate{
		Paused:       &paused,
		SchemaStatus: SchemaStatusBlockedOnCapture,
	})
	if err == nil {
		return CaptureSupported, nil
	}
	if isUnsupportedCapture(err) {
		return CaptureUnsupported, nil
	}
	return CaptureSupported, err
}

func (c *Client) GetSchemas(ctx context.Context, connectionID string) (*SchemaConfig, error) {
	data, err := c.Call(ctx, http.MethodGet, connectionPath(connectionID, "schemas"), nil)
	if err != nil {
		return nil, err
	}

	var cfg SchemaConfig
	if err := decode(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode schemas of %s", connectionID)
	}
	return &cfg, nil
}

func (c *Client) UpdateSchemas(ctx context.Context, connectionID string, cfg SchemaConfig) error {
	_, err := c.Call(ctx, http.MethodPatch, connectionPath(connectionID, "schemas"), cfg)
	return err
}

// TriggerSync starts a sync immediately, even if one is already running.
func (c *Client) TriggerSync(ctx context.Context, connectionID string) error {
	_, err := c.Call(ctx, http.MethodPost, connectionPath(connectionID, "sync"), map[string]any{"force": true})
	return err
}
