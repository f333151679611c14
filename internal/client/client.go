// Package client talks to the candidate service's REST API: candidate listing,
// the stage-change command, and workflow configuration lookups.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "PipelineBoard/1.0"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Options configures the client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	APIToken  string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client is a candidate service client.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	opts    *Options
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: baseURL, Message: "invalid base URL", Cause: err}
	}
	return &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: opts.Timeout},
		opts:    opts,
	}, nil
}

// ListCandidatesByCompany returns every candidate of a company in retrieval order.
func (c *Client) ListCandidatesByCompany(ctx context.Context, companyID uuid.UUID) ([]directory.Candidate, error) {
	var out []directory.Candidate
	path := fmt.Sprintf("/companies/%s/candidates", companyID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type changeStageRequest struct {
	NewStageID uuid.UUID `json:"new_stage_id"`
}

// ChangeStage asks the service to move a candidate. A refusal comes back as *StatusError.
func (c *Client) ChangeStage(ctx context.Context, candidateID, newStageID uuid.UUID) (*directory.Candidate, error) {
	var out directory.Candidate
	path := fmt.Sprintf("/candidates/%s/stage", candidateID)
	if err := c.do(ctx, http.MethodPatch, path, nil, changeStageRequest{NewStageID: newStageID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPhase returns one phase of a company, or nil when the service reports 404.
func (c *Client) GetPhase(ctx context.Context, companyID, phaseID uuid.UUID) (*workflow.Phase, error) {
	var out workflow.Phase
	path := fmt.Sprintf("/companies/%s/phases/%s", companyID, phaseID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// ListStagesByPhase returns a phase's stages.
func (c *Client) ListStagesByPhase(ctx context.Context, phaseID uuid.UUID, workflowType string) ([]workflow.Stage, error) {
	var out []workflow.Stage
	path := fmt.Sprintf("/phases/%s/stages", phaseID)
	query := url.Values{}
	if workflowType != "" {
		query.Set("workflow_type", workflowType)
	}
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()
	urlStr := u.String()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{URL: urlStr, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
	if err != nil {
		return &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIToken)
	}
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		// the service itself never answered; not a rejection
		return &Error{URL: urlStr, Message: fmt.Sprintf("service unavailable (HTTP %d)", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: urlStr, StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{URL: urlStr, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// errorMessage extracts the service's error text, falling back to the raw body or status.
func errorMessage(raw []byte, status string) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return status
}
