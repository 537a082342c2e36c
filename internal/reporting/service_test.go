package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicalopez/dashboard-api/internal/airtable"
	"github.com/clinicalopez/dashboard-api/internal/cache"
	"github.com/clinicalopez/dashboard-api/internal/calcom"
	"github.com/clinicalopez/dashboard-api/internal/conversation"
	"github.com/clinicalopez/dashboard-api/internal/n8n"
	"github.com/clinicalopez/dashboard-api/internal/source"
)

type fakeMessageStore struct {
	messages []conversation.Message
}

func (f *fakeMessageStore) FetchAllMessages(ctx context.Context) ([]conversation.Message, error) {
	return f.messages, nil
}

func (f *fakeMessageStore) FetchSessionMessages(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	return nil, nil
}

type fakeBookingStore struct {
	all        []calcom.Booking
	allErr     error
	allCalls   int
	buckets    map[string][]calcom.Booking
	bucketErrs map[string]error
}

func (f *fakeBookingStore) FetchAllBookings(ctx context.Context) ([]calcom.Booking, error) {
	f.allCalls++
	return f.all, f.allErr
}

func (f *fakeBookingStore) FetchBookings(ctx context.Context, status string) ([]calcom.Booking, error) {
	if err := f.bucketErrs[status]; err != nil {
		return nil, err
	}
	return f.buckets[status], nil
}

type fakeClientStore struct {
	clients []airtable.ClientRecord
	err     error
}

func (f *fakeClientStore) FetchAllClients(ctx context.Context) ([]airtable.ClientRecord, error) {
	return f.clients, f.err
}

type fakeExecutionStore struct {
	executions []n8n.Execution
	err        error
	calls      int
}

func (f *fakeExecutionStore) FetchExecutions(ctx context.Context) ([]n8n.Execution, error) {
	f.calls++
	return f.executions, f.err
}

func conversationService(messages []conversation.Message) *conversation.Service {
	return conversation.NewService(&fakeMessageStore{messages: messages}, nil, nil, nil)
}

func chatLog() []conversation.Message {
	return []conversation.Message{
		{ID: 1, SessionID: "14075551234@s.whatsapp.net", Role: conversation.RoleHuman, Text: "Nombre: Ana Lopez\nquiero botox"},
		{ID: 2, SessionID: "14075551234@s.whatsapp.net", Role: conversation.RoleAI, Text: "agenda en https://cal.com/clinica"},
	}
}

func TestServiceMetricsEndToEnd(t *testing.T) {
	bookings := &fakeBookingStore{all: []calcom.Booking{
		{Attendees: []calcom.Attendee{{Name: "Ana Lopez"}}},
	}}
	svc := NewService(conversationService(chatLog()), bookings, nil, nil, nil, nil, nil)

	report, err := svc.ServiceMetrics(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Services, 1)
	assert.Equal(t, "Botox", report.Services[0].Service)
	assert.Equal(t, 1, report.Services[0].BookingsConfirmed)
	assert.Equal(t, 1, report.CalcomStats.TotalBookings)
}

func TestServiceMetricsExcludesCancelledBookings(t *testing.T) {
	bookings := &fakeBookingStore{all: []calcom.Booking{
		{BookingStatus: calcom.StatusCancelled, Attendees: []calcom.Attendee{{Name: "Ana Lopez"}}},
	}}
	svc := NewService(conversationService(chatLog()), bookings, nil, nil, nil, nil, nil)

	report, err := svc.ServiceMetrics(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Services, 1)
	assert.Equal(t, 0, report.Services[0].BookingsConfirmed, "a cancelled booking is not a conversion")
	assert.Equal(t, 0, report.CalcomStats.TotalBookings)
	assert.Equal(t, 0, report.CalcomStats.OverallConversionRate)
}

func TestServiceMetricsConversationLogRequired(t *testing.T) {
	svc := NewService(conversation.NewService(nil, nil, nil, nil), nil, nil, nil, nil, nil, nil)

	_, err := svc.ServiceMetrics(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrNotConfigured)
}

func TestServiceMetricsDegradesWithoutBookingProvider(t *testing.T) {
	svc := NewService(conversationService(chatLog()), nil, nil, nil, nil, nil, nil)

	report, err := svc.ServiceMetrics(context.Background())
	require.NoError(t, err, "a missing booking provider must not fail the funnel")
	assert.Equal(t, 0, report.Services[0].BookingsConfirmed)
	assert.Equal(t, 0, report.CalcomStats.TotalBookings)
}

func TestLoadBookingsUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", time.Minute, nil)
	bookings := &fakeBookingStore{all: []calcom.Booking{{ID: 7}}}
	svc := NewService(nil, bookings, nil, nil, c, nil, nil)

	first := svc.LoadBookings(context.Background())
	require.False(t, first.Failed())
	second := svc.LoadBookings(context.Background())
	require.False(t, second.Failed())

	assert.Equal(t, 1, bookings.allCalls, "second load should be served from cache")
	assert.Equal(t, int64(7), second.Value[0].ID)
}

func TestLoadBookingsPartialOnFailure(t *testing.T) {
	bookings := &fakeBookingStore{all: []calcom.Booking{{ID: 1}}, allErr: errors.New("cancelled bucket failed")}
	svc := NewService(nil, bookings, nil, nil, nil, nil, nil)

	result := svc.LoadBookings(context.Background())
	require.True(t, result.Failed())
	assert.Len(t, result.Value, 1)
}

func TestStatsNotConfigured(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, nil, nil)
	_, err := svc.Stats(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrNotConfigured)
}

func TestStats(t *testing.T) {
	bookings := &fakeBookingStore{buckets: map[string][]calcom.Booking{
		calcom.StatusUpcoming:  {{StartTime: "2026-09-07T14:30:00Z"}},
		calcom.StatusPast:      {{}, {}},
		calcom.StatusCancelled: {{Rescheduled: true}},
	}}
	clients := &fakeClientStore{clients: []airtable.ClientRecord{{LinkSent: true}}}
	svc := NewService(nil, bookings, clients, nil, nil, nil, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ConfirmedBookings)
	assert.Equal(t, 1, stats.RescheduledBookings)
	assert.Equal(t, 0, stats.CancelledBookings)
	assert.Equal(t, 1, stats.LinksSent)
}

func TestStatsDegradesOnBucketFailure(t *testing.T) {
	bookings := &fakeBookingStore{
		buckets:    map[string][]calcom.Booking{calcom.StatusUpcoming: {{}}},
		bucketErrs: map[string]error{calcom.StatusPast: errors.New("timeout")},
	}
	svc := NewService(nil, bookings, nil, nil, nil, nil, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err, "one failing bucket must not fail the endpoint")
	assert.Equal(t, 1, stats.UpcomingBookings)
	assert.Equal(t, 0, stats.PastBookings)
}

func TestClientsNotConfigured(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, nil, nil)
	_, err := svc.Clients(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrNotConfigured)
}

func TestClients(t *testing.T) {
	store := &fakeClientStore{clients: []airtable.ClientRecord{
		{ID: "1", Name: "Ana", LinkSent: true},
		{ID: "2", Name: "Maria"},
	}}
	svc := NewService(nil, nil, store, nil, nil, nil, nil)

	report, err := svc.Clients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.WithLinkSent)
}

func TestN8NMetrics(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeExecutionStore{executions: []n8n.Execution{
		{ID: 1, Status: n8n.StatusSuccess, StartedAt: now.Add(-time.Hour), StoppedAt: now.Add(-time.Hour).Add(30 * time.Second)},
		{ID: 2, Status: n8n.StatusError, StartedAt: now.Add(-2 * time.Hour)},
	}}
	svc := NewService(nil, nil, nil, store, nil, nil, nil)

	metrics, err := svc.N8NMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.TotalExecutionsAllTime)
	assert.Equal(t, "50.0", metrics.SuccessRate7Days)
}

func TestN8NMetricsFetchError(t *testing.T) {
	svc := NewService(nil, nil, nil, &fakeExecutionStore{err: errors.New("api down")}, nil, nil, nil)
	_, err := svc.N8NMetrics(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, source.ErrNotConfigured)
}

func TestN8NMetricsNotConfigured(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, nil, nil)
	_, err := svc.N8NMetrics(context.Background())
	assert.ErrorIs(t, err, source.ErrNotConfigured)
}

func TestN8NMetricsUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", time.Minute, nil)
	store := &fakeExecutionStore{executions: []n8n.Execution{{ID: 1, Status: n8n.StatusSuccess, StartedAt: time.Now()}}}
	svc := NewService(nil, nil, nil, store, c, nil, nil)

	_, err := svc.N8NMetrics(context.Background())
	require.NoError(t, err)
	_, err = svc.N8NMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls, "second build should be served from cache")
}
