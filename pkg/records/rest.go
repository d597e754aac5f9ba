package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
)

// RESTConfig configures the REST record client.
type RESTConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// RESTClient talks to a PostgREST style data service. Rows are filtered with
// `column=eq.value` query parameters and inserts ask for the created row back.
type RESTClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRESTClient builds a client for the remote data service.
func NewRESTClient(cfg RESTConfig) (*RESTClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("records: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RESTClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

func (c *RESTClient) ListLeads(ctx context.Context, agentID string) ([]dashboard.Lead, error) {
	var rows []dashboard.Lead
	err := c.do(ctx, http.MethodGet, listPath("leads", "agent_id", agentID), nil, &rows)
	return rows, err
}

// ListProperties reads every listing when agentID is empty.
func (c *RESTClient) ListProperties(ctx context.Context, agentID string) ([]dashboard.Property, error) {
	var rows []dashboard.Property
	err := c.do(ctx, http.MethodGet, listPath("properties", "agent_id", agentID), nil, &rows)
	return rows, err
}

func (c *RESTClient) ListDeals(ctx context.Context, agentID string) ([]dashboard.Deal, error) {
	var rows []dashboard.Deal
	err := c.do(ctx, http.MethodGet, listPath("deals", "agent_id", agentID), nil, &rows)
	return rows, err
}

func (c *RESTClient) ListTasks(ctx context.Context, assigneeID string) ([]dashboard.Task, error) {
	var rows []dashboard.Task
	err := c.do(ctx, http.MethodGet, listPath("tasks", "assigned_to", assigneeID), nil, &rows)
	return rows, err
}

func (c *RESTClient) InsertLead(ctx context.Context, input dashboard.NewLead) (dashboard.Lead, error) {
	return insertOne[dashboard.Lead](ctx, c, "leads", input)
}

func (c *RESTClient) InsertProperty(ctx context.Context, input dashboard.NewProperty) (dashboard.Property, error) {
	return insertOne[dashboard.Property](ctx, c, "properties", input)
}

func (c *RESTClient) InsertTask(ctx context.Context, input dashboard.NewTask) (dashboard.Task, error) {
	return insertOne[dashboard.Task](ctx, c, "tasks", input)
}

// UpdateTaskStatus patches one task. An empty representation means no row
// matched the id.
func (c *RESTClient) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	var rows []dashboard.Task
	path := "/tasks?id=eq." + url.QueryEscape(taskID)
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"status": status}, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", dashboard.ErrTaskNotFound, taskID)
	}
	return nil
}

func insertOne[T any](ctx context.Context, c *RESTClient, table string, payload any) (T, error) {
	var rows []T
	var zero T
	if err := c.do(ctx, http.MethodPost, "/"+table, payload, &rows); err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("records: insert into %s returned no row", table)
	}
	return rows[0], nil
}

func listPath(table, column, value string) string {
	if value == "" {
		return "/" + table
	}
	query := url.Values{}
	query.Set(column, "eq."+value)
	return "/" + table + "?" + query.Encode()
}

func (c *RESTClient) do(ctx context.Context, method, path string, payload any, target any) error {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("records: encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("records: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("records: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeRemoteError(resp)
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("records: decode response: %w", err)
	}
	return nil
}

// RemoteError carries the service message so it can be surfaced to the user.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("records: remote error %d: %s", e.Status, e.Message)
}

func decodeRemoteError(resp *http.Response) error {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	var payload struct {
		Message string `json:"message"`
	}
	message := strings.TrimSpace(buf.String())
	if json.Unmarshal(buf.Bytes(), &payload) == nil && payload.Message != "" {
		message = payload.Message
	}
	return &RemoteError{Status: resp.StatusCode, Message: message}
}

var _ dashboard.RecordStore = (*RESTClient)(nil)
