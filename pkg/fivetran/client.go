// Package fivetran is a client for the Fivetran connector-management REST API.
package fivetran

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bruin-data/fivetran-provisioner/pkg/logger"
	"github.com/bruin-data/fivetran-provisioner/pkg/poll"
	"github.com/pkg/errors"
	"github.com/raulk/clock"
	"github.com/samber/lo"
)

const (
	transportBackoff = 5 * time.Second
	rateLimitBackoff = 60 * time.Second
)

var secretKeyFragments = []string{"password", "secret", "private_key", "token", "api_key"}

type Client struct {
	config     Config
	httpClient *http.Client
	clock      poll.Clock
	logger     logger.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock replaces the clock used for retry backoff.
func WithClock(clk poll.Clock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

func NewClient(c Config, log logger.Logger, opts ...Option) (*Client, error) {
	c, err := c.withDefaults()
	if err != nil {
		return nil, err
	}

	client := &Client{
		config: c,
		httpClient: &http.Client{
			Timeout: c.Timeout,
		},
		clock:  clock.New(),
		logger: log,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Call performs a request with the configured number of retries and returns the `data` envelope of the response.
func (c *Client) Call(ctx context.Context, method, path string, payload any) (map[string]any, error) {
	return c.CallWithRetries(ctx, method, path, payload, c.config.Retries)
}

// CallWithRetries performs a request with up to retries attempts.
//
// A POST answered with 409, or with 400 and an "already exists" body, is treated as success and whatever
// data came back is returned. A 429 waits 60s times the attempt number before the next attempt. Transport
// failures and 2xx bodies that are not valid JSON are retried after 5s. Any other non-2xx response fails
// immediately with *APIError.
func (c *Client) CallWithRetries(ctx context.Context, method, path string, payload any, retries int) (map[string]any, error) {
	if retries < 1 {
		retries = 1
	}

	url := c.config.BaseURL + path

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal payload for %s %s", method, path)
		}
		c.logger.Infow("api request", "method", method, "url", url, "payload", redactedJSON(body))
	} else {
		c.logger.Infow("api request", "method", method, "url", url)
	}

	for attempt := 1; attempt <= retries; attempt++ {
		status, respBody, err := c.do(ctx, method, url, body)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Wrapf(ctxErr, "%s %s cancelled", method, path)
			}
			if attempt == retries {
				return nil, &TransportError{Method: method, Path: path, Attempts: retries, Err: err}
			}
			if err := c.waitBeforeRetry(ctx, method, url, attempt, err); err != nil {
				return nil, err
			}
			continue
		}

		c.logger.Infow("api response", "method", method, "url", url, "status", status, "body", string(respBody))

		if isAlreadyExists(method, status, respBody) {
			c.logger.Warnf("object already exists (%s), skipping creation", path)
			data, err := decodeEnvelope(respBody)
			if err != nil {
				return map[string]any{}, nil
			}
			return data, nil
		}

		if status == http.StatusTooManyRequests {
			wait := rateLimitBackoff * time.Duration(attempt)
			c.logger.Warnf("rate limited on %s %s, waiting %s", method, path, wait)
			if err := poll.Sleep(ctx, c.clock, wait); err != nil {
				return nil, err
			}
			continue
		}

		if status < 200 || status > 299 {
			return nil, newAPIError(method, path, status, respBody)
		}

		data, err := decodeEnvelope(respBody)
		if err == nil {
			return data, nil
		}

		// a truncated or non-JSON success body is retried like a dropped connection
		err = errors.Wrapf(err, "failed to decode response of %s %s", method, path)
		if attempt == retries {
			return nil, &TransportError{Method: method, Path: path, Attempts: retries, Err: err}
		}
		if err := c.waitBeforeRetry(ctx, method, url, attempt, err); err != nil {
			return nil, err
		}
	}

	return nil, &RateLimitError{Method: method, Path: path, Attempts: retries}
}

func (c *Client) waitBeforeRetry(ctx context.Context, method, url string, attempt int, cause error) error {
	c.logger.Warnw("request failed, retrying", "method", method, "url", url, "attempt", attempt, "error", cause)
	return poll.Sleep(ctx, c.clock, transportBackoff)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to create request")
	}

	req.SetBasicAuth(c.config.APIKey, c.config.APISecret)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to read response body")
	}

	return resp.StatusCode, respBody, nil
}

func decodeEnvelope(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	var envelope struct {
		Data any `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	if data, ok := envelope.Data.(map[string]any); ok {
		return data, nil
	}
	return map[string]any{}, nil
}

func redactedJSON(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}

	out, err := json.Marshal(redact(v))
	if err != nil {
		return string(body)
	}
	return string(out)
}

func redact(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		for key, value := range typed {
			lower := strings.ToLower(key)
			isSecret := lo.SomeBy(secretKeyFragments, func(fragment string) bool {
				return strings.Contains(lower, fragment)
			})
			if isSecret {
				typed[key] = "***"
				continue
			}
			typed[key] = redact(value)
		}
		return typed
	case []any:
		for i := range typed {
			typed[i] = redact(typed[i])
		}
		return typed
	default:
		return v
	}
}
