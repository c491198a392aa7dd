// Package client is a small Go client for the engine's HTTP API, used by
// integration tests and tooling that drive a running server
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

	"github.com/fieldline/engine"
	"github.com/fieldline/engine/internal/archive"
	"github.com/fieldline/engine/internal/session"
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/run"
)

// Client calls one engine server. Methods are safe for concurrent use
type Client struct {
	base string
	http *http.Client
}

// ErrHTTPError wraps any non-2xx response, with the server's error message
// appended when one was returned
var ErrHTTPError = errors.New("engine returned HTTP error")

// New creates a client for the server at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Health reports the server's health status
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	res := &api.HealthResponse{}
	if err := c.do(ctx, http.MethodGet, "/health", nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Register stores a new workflow definition. The server rejects IDs that
// already exist
func (c *Client) Register(
	ctx context.Context, wf *api.Workflow,
) (*api.Workflow, error) {
	res := &api.WorkflowRegisteredResponse{}
	if err := c.do(ctx, http.MethodPost, "/workflow", wf, res); err != nil {
		return nil, err
	}
	return res.Workflow, nil
}

// Update replaces a workflow definition, archiving the previous revision
func (c *Client) Update(
	ctx context.Context, wf *api.Workflow,
) (*api.Workflow, error) {
	res := &api.WorkflowRegisteredResponse{}
	path := "/workflow/" + string(wf.ID)
	if err := c.do(ctx, http.MethodPut, path, wf, res); err != nil {
		return nil, err
	}
	return res.Workflow, nil
}

// Workflow fetches one workflow definition
func (c *Client) Workflow(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, error) {
	res := &api.Workflow{}
	path := "/workflow/" + string(id)
	if err := c.do(ctx, http.MethodGet, path, nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Workflows lists the digests of every stored workflow
func (c *Client) Workflows(
	ctx context.Context,
) ([]*api.WorkflowDigest, error) {
	res := &api.WorkflowsListResponse{}
	if err := c.do(ctx, http.MethodGet, "/workflow", nil, res); err != nil {
		return nil, err
	}
	return res.Workflows, nil
}

// Remove deletes a workflow definition, archiving its final revision
func (c *Client) Remove(ctx context.Context, id api.WorkflowID) error {
	path := "/workflow/" + string(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Revisions returns a workflow's archived revisions, oldest first
func (c *Client) Revisions(
	ctx context.Context, id api.WorkflowID,
) ([]*archive.Record, error) {
	var res struct {
		Revisions []*archive.Record `json:"revisions"`
	}
	path := "/workflow/" + string(id) + "/revisions"
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Revisions, nil
}

// Evaluate derives the workflow's view for the given answers
func (c *Client) Evaluate(
	ctx context.Context, id api.WorkflowID, data api.DataMap,
) (*run.View, error) {
	res := &run.View{}
	path := "/workflow/" + string(id) + "/evaluate"
	req := api.EvaluateRequest{Data: data}
	if err := c.do(ctx, http.MethodPost, path, req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// NextSection resolves the section a run moves to from current. A nil
// current asks for the first visible section
func (c *Client) NextSection(
	ctx context.Context, id api.WorkflowID, current *api.SectionID,
	data api.DataMap,
) (*api.NextSectionResponse, error) {
	res := &api.NextSectionResponse{}
	path := "/workflow/" + string(id) + "/next"
	req := api.NextSectionRequest{Current: current, Data: data}
	if err := c.do(ctx, http.MethodPost, path, req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Validate checks the answers against the workflow's required steps
func (c *Client) Validate(
	ctx context.Context, id api.WorkflowID, data api.DataMap,
) (*api.Validation, error) {
	res := &api.Validation{}
	path := "/workflow/" + string(id) + "/validate"
	req := api.EvaluateRequest{Data: data}
	if err := c.do(ctx, http.MethodPost, path, req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// DescribeCondition renders a condition expression as text
func (c *Client) DescribeCondition(
	ctx context.Context, expr *api.ConditionExpression,
	labels map[api.Key]string,
) (string, error) {
	res := &api.DescribeResponse{}
	req := api.DescribeRequest{Condition: expr, Labels: labels}
	if err := c.do(ctx, http.MethodPost, "/describe", req, res); err != nil {
		return "", err
	}
	return res.Description, nil
}

// Run fetches the current state of a live run
func (c *Client) Run(
	ctx context.Context, id api.RunID,
) (*session.Session, error) {
	res := &session.Session{}
	path := "/run/" + string(id)
	if err := c.do(ctx, http.MethodGet, path, nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

// EndRun terminates a live run
func (c *Client) EndRun(ctx context.Context, id api.RunID) error {
	return c.do(ctx, http.MethodDelete, "/run/"+string(id), nil, nil)
}

func (c *Client) do(
	ctx context.Context, method, path string, in, out any,
) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", engine.Name+"/"+engine.Version)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func decodeError(status int, body []byte) error {
	var er api.ErrorResponse
	if json.Unmarshal(body, &er) == nil && er.Error != "" {
		return fmt.Errorf("%w: %d: %s", ErrHTTPError, status, er.Error)
	}
	return fmt.Errorf("%w: %d", ErrHTTPError, status)
}
