// Package n8n reads workflow execution history from the n8n public API and
// derives the automation health metrics shown on the dashboard.
package n8n

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

const (
	defaultTimeout = 20 * time.Second
	executionLimit = 100
)

// Execution statuses reported by n8n.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Execution is one workflow run.
type Execution struct {
	ID         int64     `json:"id"`
	Finished   bool      `json:"finished"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	WorkflowID string    `json:"workflowId"`
	StartedAt  time.Time `json:"startedAt"`
	StoppedAt  time.Time `json:"stoppedAt"`
}

type executionsResponse struct {
	Data []Execution `json:"data"`
}

// Client calls the n8n REST API of the automation instance.
type Client struct {
	apiURL     string
	apiKey     string
	workflowID string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates an n8n API client scoped to one workflow.
func NewClient(apiURL, apiKey, workflowID string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		workflowID: workflowID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger.Component("n8n"),
	}
}

// FetchExecutions lists the most recent executions of the configured
// workflow, newest first, capped at the API's page limit.
func (c *Client) FetchExecutions(ctx context.Context) ([]Execution, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprint(executionLimit))
	if c.workflowID != "" {
		query.Set("workflowId", c.workflowID)
	}
	endpoint := fmt.Sprintf("%s/api/v1/executions?%s", c.apiURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-N8N-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("n8n: executions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("n8n: executions: status %d: %s", resp.StatusCode, detail)
	}

	var out executionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("n8n: executions: decode: %w", err)
	}
	return out.Data, nil
}
