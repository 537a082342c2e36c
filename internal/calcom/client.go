package calcom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// Client is a thin Cal.com v1 REST client. The API key travels as a query
// parameter, which is how the v1 API authenticates.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a Cal.com client. An empty baseURL selects the public API.
func NewClient(baseURL, apiKey string, logger *logging.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger.Component("calcom"),
	}
}

// FetchBookings lists bookings in one status bucket.
func (c *Client) FetchBookings(ctx context.Context, status string) ([]Booking, error) {
	var out bookingsResponse
	query := url.Values{"status": {status}}
	if err := c.do(ctx, http.MethodGet, "/bookings", query, nil, &out); err != nil {
		return nil, fmt.Errorf("calcom: bookings %s: %w", status, err)
	}
	return out.Bookings, nil
}

// FetchAllBookings lists upcoming, past and cancelled bookings, tags each with
// its bucket, and sorts by start time descending. A failing bucket is skipped
// and its error joined into the return, so callers keep the partial list.
func (c *Client) FetchAllBookings(ctx context.Context) ([]Booking, error) {
	var all []Booking
	var errs []error
	for _, status := range []string{StatusUpcoming, StatusPast, StatusCancelled} {
		bookings, err := c.FetchBookings(ctx, status)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for i := range bookings {
			bookings[i].BookingStatus = status
		}
		all = append(all, bookings...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return startOf(all[i]).After(startOf(all[j]))
	})
	return all, errors.Join(errs...)
}

// startOf parses a booking's start for ordering. Timestamps may carry mixed
// UTC offsets, so string comparison is not chronological; unparseable values
// sort last.
func startOf(b Booking) time.Time {
	t, err := time.Parse(time.RFC3339, b.StartTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EventTypes lists the account's event types.
func (c *Client) EventTypes(ctx context.Context) ([]EventType, error) {
	var out eventTypesResponse
	if err := c.do(ctx, http.MethodGet, "/event-types", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("calcom: event types: %w", err)
	}
	return out.EventTypes, nil
}

// FirstActiveEventType returns the id of the first non-hidden event type.
func (c *Client) FirstActiveEventType(ctx context.Context) (int64, error) {
	eventTypes, err := c.EventTypes(ctx)
	if err != nil {
		return 0, err
	}
	for _, et := range eventTypes {
		if !et.Hidden {
			return et.ID, nil
		}
	}
	return 0, errors.New("calcom: no active event type")
}

// AvailableSlots returns the provider's availability map for an event type in
// a window. The slot map is passed through untouched; its shape belongs to
// the UI.
func (c *Client) AvailableSlots(ctx context.Context, eventTypeID int64, startTime, endTime string) (json.RawMessage, error) {
	var out slotsResponse
	query := url.Values{
		"eventTypeId": {fmt.Sprint(eventTypeID)},
		"startTime":   {startTime},
		"endTime":     {endTime},
	}
	if err := c.do(ctx, http.MethodGet, "/slots/available", query, nil, &out); err != nil {
		return nil, fmt.Errorf("calcom: slots: %w", err)
	}
	if out.Slots == nil {
		return json.RawMessage(`{}`), nil
	}
	return out.Slots, nil
}

// CreateBooking creates a booking, compiling the intake extras into the notes
// blob the way the booking form expects them.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (json.RawMessage, error) {
	fullName := req.Name + " " + req.LastName
	notes := compileNotes(req)

	body := map[string]any{
		"eventTypeId": req.EventTypeID,
		"start":       req.StartTime,
		"responses": map[string]any{
			"name":         fullName,
			"email":        req.Email,
			"phone":        req.Phone,
			"notes":        notes,
			"lastName":     req.LastName,
			"dateOfBirth":  req.DateOfBirth,
			"hasInsurance": req.HasInsurance,
			"address":      req.Address,
			"services":     req.Services,
		},
		"timeZone": "America/New_York",
		"language": "es",
		"metadata": map[string]any{
			"source":       "dashboard",
			"lastName":     req.LastName,
			"dateOfBirth":  req.DateOfBirth,
			"hasInsurance": req.HasInsurance,
			"address":      req.Address,
			"services":     req.Services,
		},
	}

	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/bookings", nil, body, &out); err != nil {
		return nil, fmt.Errorf("calcom: create booking: %w", err)
	}
	return out, nil
}

// CancelBooking cancels a booking with a free-text reason.
func (c *Client) CancelBooking(ctx context.Context, bookingID, reason string) error {
	if reason == "" {
		reason = "Cancelado desde el dashboard"
	}
	body := map[string]any{"cancellationReason": reason}
	if err := c.do(ctx, http.MethodDelete, "/bookings/"+bookingID+"/cancel", nil, body, nil); err != nil {
		return fmt.Errorf("calcom: cancel booking %s: %w", bookingID, err)
	}
	return nil
}

// RescheduleBooking moves a booking to a new start time.
func (c *Client) RescheduleBooking(ctx context.Context, bookingID, startTime, reason string) (json.RawMessage, error) {
	if reason == "" {
		reason = "Reagendado desde el dashboard"
	}
	body := map[string]any{
		"startTime":         startTime,
		"rescheduledReason": reason,
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPatch, "/bookings/"+bookingID, nil, body, &out); err != nil {
		return nil, fmt.Errorf("calcom: reschedule booking %s: %w", bookingID, err)
	}
	return out, nil
}

func compileNotes(req CreateBookingRequest) string {
	parts := make([]string, 0, 5)
	if req.Notes != "" {
		parts = append(parts, req.Notes)
	}
	parts = append(parts,
		"Fecha de Nacimiento: "+req.DateOfBirth,
		"Seguro Médico: "+req.HasInsurance,
		"Dirección: "+req.Address,
	)
	if req.Services != "" {
		parts = append(parts, "Servicios: "+req.Services)
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n"
		}
		out += p
	}
	return out
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("apiKey", c.apiKey)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, detail)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
