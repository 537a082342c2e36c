package airtable

import (
	"bytes"
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
	defaultTimeout  = 20 * time.Second
	defaultPageSize = 100
)

// Client reads the client-records table from the Airtable API.
type Client struct {
	baseURL    string
	apiKey     string
	baseID     string
	tableName  string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates an Airtable client for one base/table.
func NewClient(baseURL, apiKey, baseID, tableName string, logger *logging.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		baseID:    baseID,
		tableName: tableName,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger.Component("airtable"),
	}
}

// FetchAllClients lists every client record, following the offset cursor
// until Airtable stops returning one. On a failed page the records collected
// so far are returned together with the error.
func (c *Client) FetchAllClients(ctx context.Context) ([]ClientRecord, error) {
	var clients []ClientRecord
	offset := ""
	for {
		page, nextOffset, err := c.fetchPage(ctx, offset)
		if err != nil {
			return clients, fmt.Errorf("airtable: page: %w", err)
		}
		for _, rec := range page {
			clients = append(clients, rec.toClientRecord())
		}
		if nextOffset == "" {
			return clients, nil
		}
		offset = nextOffset
	}
}

// CreateRecord adds a new row to the table.
func (c *Client) CreateRecord(ctx context.Context, fields RecordFields) error {
	if err := c.write(ctx, http.MethodPost, "", fields); err != nil {
		return fmt.Errorf("airtable: create record: %w", err)
	}
	return nil
}

// UpdateRecord patches an existing row, leaving unlisted columns untouched.
func (c *Client) UpdateRecord(ctx context.Context, recordID string, fields RecordFields) error {
	if err := c.write(ctx, http.MethodPatch, "/"+recordID, fields); err != nil {
		return fmt.Errorf("airtable: update record %s: %w", recordID, err)
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, suffix string, fields RecordFields) error {
	payload, err := json.Marshal(upsertRequest{Fields: fields})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/%s/%s%s", c.baseURL, c.baseID, url.PathEscape(c.tableName), suffix)

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

func (c *Client) fetchPage(ctx context.Context, offset string) ([]record, string, error) {
	query := url.Values{}
	query.Set("pageSize", fmt.Sprint(defaultPageSize))
	if offset != "" {
		query.Set("offset", offset)
	}
	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.baseID, url.PathEscape(c.tableName), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("status %d: %s", resp.StatusCode, detail)
	}

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, "", fmt.Errorf("decode: %w", err)
	}
	return out.Records, out.Offset, nil
}
