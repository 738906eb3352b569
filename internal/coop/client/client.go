// Package client talks to the coop HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coop-server/internal/coop/domain"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrBusy matches responses from a server whose bus was busy. The call
	// can be retried.
	ErrBusy = errors.New("coop bus busy")
	// ErrUpstream matches transport faults between the server and the board.
	ErrUpstream = errors.New("coop board unreachable")
)

// APIError is returned for any non 2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("coop api: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("coop api: %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrBusy:
		return e.StatusCode == http.StatusServiceUnavailable
	case ErrUpstream:
		return e.StatusCode == http.StatusBadGateway
	default:
		return false
	}
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func (c *Client) CommandDoor(ctx context.Context, dir domain.DoorDirection) (int64, error) {
	var value int64
	err := c.do(ctx, http.MethodPut, "/coop/door", map[string]string{"dir": string(dir)}, &value)
	return value, err
}

func (c *Client) Reset(ctx context.Context) (int64, error) {
	var value int64
	err := c.do(ctx, http.MethodPut, "/coop/reset", nil, &value)
	return value, err
}

func (c *Client) Echo(ctx context.Context, data string) (int64, error) {
	var value int64
	err := c.do(ctx, http.MethodPost, "/coop/echo", map[string]string{"data": data}, &value)
	return value, err
}

// Reading returns the last polled value of kind, or a live one when fresh is set.
func (c *Client) Reading(ctx context.Context, kind domain.ReadingKind, fresh bool) (int64, error) {
	path := "/coop/" + string(kind)
	if fresh {
		path += "?fresh=true"
	}

	var value int64
	err := c.do(ctx, http.MethodGet, path, nil, &value)
	return value, err
}

func (c *Client) DoorState(ctx context.Context) (int64, error) {
	return c.Reading(ctx, domain.ReadingDoor, false)
}

func (c *Client) Uptime(ctx context.Context) (int64, error) {
	return c.Reading(ctx, domain.ReadingUptime, false)
}

func (c *Client) Light(ctx context.Context) (int64, error) {
	return c.Reading(ctx, domain.ReadingLight, false)
}

func (c *Client) Temp(ctx context.Context) (int64, error) {
	return c.Reading(ctx, domain.ReadingTemp, false)
}

func (c *Client) OpeningTime(ctx context.Context) (time.Time, error) {
	return c.time(ctx, "/coop/opentime")
}

func (c *Client) ClosingTime(ctx context.Context) (time.Time, error) {
	return c.time(ctx, "/coop/closetime")
}

func (c *Client) Status(ctx context.Context) (domain.Status, error) {
	var status domain.Status
	err := c.do(ctx, http.MethodGet, "/coop/status", nil, &status)
	return status, err
}

func (c *Client) time(ctx context.Context, path string) (time.Time, error) {
	var value string
	if err := c.do(ctx, http.MethodGet, path, nil, &value); err != nil {
		return time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, output any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(output); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		apiErr.Message = payload.Message
		apiErr.Code = payload.Code
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}
