package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/clinicalopez/dashboard-api/internal/conversation"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultPageSize = 1000
)

// Client reads the conversation log through the Supabase REST API (PostgREST).
type Client struct {
	baseURL    string
	anonKey    string
	pageSize   int
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a Supabase REST client. pageSize <= 0 selects the default.
func NewClient(baseURL, anonKey string, pageSize int, logger *logging.Logger) *Client {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:  baseURL,
		anonKey:  anonKey,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger.Component("supabase"),
	}
}

// FetchAllMessages retrieves the full message log in ascending id order,
// paging until the provider returns a short page. On a failed page fetch the
// messages collected so far are returned together with the error, so callers
// can keep the partial result.
func (c *Client) FetchAllMessages(ctx context.Context) ([]conversation.Message, error) {
	var messages []conversation.Message
	offset := 0
	for {
		query := url.Values{}
		query.Set("select", "*")
		query.Set("order", "id.asc")
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		page, err := c.fetchPage(ctx, query)
		if err != nil {
			return messages, fmt.Errorf("supabase: page at offset %d: %w", offset, err)
		}
		messages = append(messages, mapRows(page)...)

		if len(page) < c.pageSize {
			return messages, nil
		}
		offset += c.pageSize
	}
}

// FetchSessionMessages retrieves every message of one session in ascending id
// order.
func (c *Client) FetchSessionMessages(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "id.asc")
	query.Set("session_id", "eq."+sessionID)

	rows, err := c.fetchPage(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("supabase: session %s: %w", sessionID, err)
	}
	return mapRows(rows), nil
}

func (c *Client) fetchPage(ctx context.Context, query url.Values) ([]row, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, messagesTable, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var rows []row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return rows, nil
}
