package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonmsawyer/cmdb/internal/protocol"
)

// APIError is a structured error returned by the server in a 200 body.
type APIError struct{ Message string }

func (e *APIError) Error() string { return e.Message }

// APIClient speaks the wire protocol against one server.
type APIClient struct {
	cfg  *Config
	http *http.Client
}

// NewAPIClient builds a client with a best-effort transport deadline.
func NewAPIClient(cfg *Config) *APIClient {
	return &APIClient{cfg: cfg, http: &http.Client{Timeout: 30 * time.Second}}
}

// Register registers this host and returns its credentials.
func (c *APIClient) Register(ctx context.Context, fqdn string) (*protocol.StatusResponse, error) {
	var resp protocol.StatusResponse
	err := c.post(ctx, "/clients/register", protocol.RegisterRequest{FQDN: fqdn}, &resp)
	return &resp, err
}

// Unregister disables this host on the server.
func (c *APIClient) Unregister(ctx context.Context) (*protocol.UnregisterResponse, error) {
	var resp protocol.UnregisterResponse
	err := c.post(ctx, "/clients/unregister", protocol.UnregisterRequest{APIKey: c.cfg.APIKey}, &resp)
	return &resp, err
}

// Info returns client details and the tracked-path count.
func (c *APIClient) Info(ctx context.Context) (*protocol.InfoResponse, error) {
	var resp protocol.InfoResponse
	err := c.get(ctx, "/clients/info", nil, &resp)
	return &resp, err
}

// ConfigStatus returns the per-path status snapshot.
func (c *APIClient) ConfigStatus(ctx context.Context) (*protocol.ConfigStatusResponse, error) {
	var resp protocol.ConfigStatusResponse
	err := c.get(ctx, "/clients/config_status", nil, &resp)
	return &resp, err
}

// Poll returns the authoritative snapshot of all tracked configurations.
func (c *APIClient) Poll(ctx context.Context) (*protocol.PollResponse, error) {
	var resp protocol.PollResponse
	err := c.get(ctx, "/clients/poll", nil, &resp)
	return &resp, err
}

// Fetch returns the latest revision content for one path.
func (c *APIClient) Fetch(ctx context.Context, filePath string) (*protocol.FetchResponse, error) {
	var resp protocol.FetchResponse
	err := c.get(ctx, "/clients/fetch", url.Values{"file_path": {filePath}}, &resp)
	return &resp, err
}

// Push submits a new revision of one path.
func (c *APIClient) Push(ctx context.Context, req protocol.PushRequest) (*protocol.PushResponse, error) {
	req.APIKey = c.cfg.APIKey
	var resp protocol.PushResponse
	err := c.post(ctx, "/clients/push", req, &resp)
	return &resp, err
}

// Add starts tracking a path.
func (c *APIClient) Add(ctx context.Context, body protocol.ConfigurationBody) (*protocol.AddRemoveResponse, error) {
	return c.addRemove(ctx, "/clients/add", body)
}

// Remove stops tracking a path.
func (c *APIClient) Remove(ctx context.Context, body protocol.ConfigurationBody) (*protocol.AddRemoveResponse, error) {
	return c.addRemove(ctx, "/clients/remove", body)
}

func (c *APIClient) addRemove(ctx context.Context, path string, body protocol.ConfigurationBody) (*protocol.AddRemoveResponse, error) {
	req := protocol.AddRemoveRequest{APIKey: c.cfg.APIKey, Type: "configuration", Configuration: body}
	var resp protocol.AddRemoveResponse
	err := c.post(ctx, path, req, &resp)
	return &resp, err
}

func (c *APIClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL(path)+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *APIClient) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL(path), bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do sends the request and decodes the body. Errors ride in a 200 body as
// {"error": ...}; any non-200 status is a transport failure.
func (c *APIClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}
	var apiErr protocol.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return &APIError{Message: apiErr.Error}
	}
	return json.Unmarshal(body, out)
}
