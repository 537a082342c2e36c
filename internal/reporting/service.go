package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/clinicalopez/dashboard-api/internal/airtable"
	"github.com/clinicalopez/dashboard-api/internal/cache"
	"github.com/clinicalopez/dashboard-api/internal/calcom"
	"github.com/clinicalopez/dashboard-api/internal/conversation"
	"github.com/clinicalopez/dashboard-api/internal/n8n"
	obsmetrics "github.com/clinicalopez/dashboard-api/internal/observability/metrics"
	"github.com/clinicalopez/dashboard-api/internal/source"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

var tracer = otel.Tracer("dashboard.internal.reporting")

// Source names used in results, logs and metrics.
const (
	sourceCalcom   = "calcom"
	sourceAirtable = "airtable"
	sourceN8N      = "n8n"
)

const (
	cacheKeyBookings   = "raw:calcom:bookings"
	cacheKeyClients    = "raw:airtable:clients"
	cacheKeyExecutions = "raw:n8n:executions"
)

// BookingStore reads the scheduling provider. *calcom.Client satisfies it.
type BookingStore interface {
	FetchBookings(ctx context.Context, status string) ([]calcom.Booking, error)
	FetchAllBookings(ctx context.Context) ([]calcom.Booking, error)
}

// ClientStore reads the client roster. *airtable.Client satisfies it.
type ClientStore interface {
	FetchAllClients(ctx context.Context) ([]airtable.ClientRecord, error)
}

// ExecutionStore reads workflow execution history. *n8n.Client satisfies it.
type ExecutionStore interface {
	FetchExecutions(ctx context.Context) ([]n8n.Execution, error)
}

// Service builds the cross-source reports. Any store may be nil when its
// upstream is not configured; endpoints whose primary source is missing fail
// with source.ErrNotConfigured, while secondary sources degrade to empty data.
type Service struct {
	conversations *conversation.Service
	bookings      BookingStore
	clients       ClientStore
	executions    ExecutionStore
	cache         *cache.Cache
	metrics       *obsmetrics.UpstreamMetrics
	logger        *logging.Logger
}

// NewService creates the reporting service.
func NewService(
	conversations *conversation.Service,
	bookings BookingStore,
	clients ClientStore,
	executions ExecutionStore,
	c *cache.Cache,
	m *obsmetrics.UpstreamMetrics,
	logger *logging.Logger,
) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		conversations: conversations,
		bookings:      bookings,
		clients:       clients,
		executions:    executions,
		cache:         c,
		metrics:       m,
		logger:        logger.Component("reporting"),
	}
}

// LoadBookings fetches every booking bucket, memoized through the short-TTL
// cache. Bucket failures degrade to the buckets that did arrive.
func (s *Service) LoadBookings(ctx context.Context) source.Result[[]calcom.Booking] {
	if s.bookings == nil {
		return source.Fail[[]calcom.Booking](sourceCalcom, source.ErrNotConfigured)
	}

	var cached []calcom.Booking
	if s.cache.GetJSON(ctx, cacheKeyBookings, &cached) {
		return source.OK(cached)
	}

	start := time.Now()
	bookings, err := s.bookings.FetchAllBookings(ctx)
	s.metrics.ObserveFetch(sourceCalcom, err != nil, time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("booking fetch failed, continuing with partial data",
			"error", err, "bookings", len(bookings))
		return source.Result[[]calcom.Booking]{Value: bookings, Err: &source.FetchError{Source: sourceCalcom, Err: err}}
	}

	s.cache.SetJSON(ctx, cacheKeyBookings, bookings)
	return source.OK(bookings)
}

// LoadClients fetches the full client roster through the cache.
func (s *Service) LoadClients(ctx context.Context) source.Result[[]airtable.ClientRecord] {
	if s.clients == nil {
		return source.Fail[[]airtable.ClientRecord](sourceAirtable, source.ErrNotConfigured)
	}

	var cached []airtable.ClientRecord
	if s.cache.GetJSON(ctx, cacheKeyClients, &cached) {
		return source.OK(cached)
	}

	start := time.Now()
	clients, err := s.clients.FetchAllClients(ctx)
	s.metrics.ObserveFetch(sourceAirtable, err != nil, time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("client fetch failed, continuing with partial data",
			"error", err, "clients", len(clients))
		return source.Result[[]airtable.ClientRecord]{Value: clients, Err: &source.FetchError{Source: sourceAirtable, Err: err}}
	}

	s.cache.SetJSON(ctx, cacheKeyClients, clients)
	return source.OK(clients)
}

// ServiceMetrics builds the per-service funnel. The conversation log is the
// primary source; a missing or failing booking provider degrades to zero
// confirmed bookings rather than failing the report. Cancelled bookings are
// not conversions, so only the upcoming and past buckets feed the funnel.
func (s *Service) ServiceMetrics(ctx context.Context) (*ServiceMetricsReport, error) {
	if s.conversations == nil {
		return nil, fmt.Errorf("conversation log %w", source.ErrNotConfigured)
	}

	ctx, span := tracer.Start(ctx, "reporting.service_metrics")
	defer span.End()

	conversations, err := s.conversations.LoadConversations(ctx)
	if err != nil {
		return nil, err
	}

	bookings := withoutCancelled(s.LoadBookings(ctx).OrZero())
	report := BuildServiceMetrics(conversations, bookings)
	return &report, nil
}

func withoutCancelled(bookings []calcom.Booking) []calcom.Booking {
	kept := make([]calcom.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.BookingStatus == calcom.StatusCancelled {
			continue
		}
		kept = append(kept, b)
	}
	return kept
}

// Stats builds the headline numbers. The booking provider is the primary
// source here; the client roster only contributes the links-sent counter and
// degrades to zero when unavailable.
func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	if s.bookings == nil {
		return nil, fmt.Errorf("booking provider %w", source.ErrNotConfigured)
	}

	ctx, span := tracer.Start(ctx, "reporting.stats")
	defer span.End()

	buckets := make(map[string][]calcom.Booking, 3)
	var fetchErrs []error
	start := time.Now()
	for _, status := range []string{calcom.StatusUpcoming, calcom.StatusPast, calcom.StatusCancelled} {
		bookings, err := s.bookings.FetchBookings(ctx, status)
		if err != nil {
			fetchErrs = append(fetchErrs, err)
			continue
		}
		buckets[status] = bookings
	}
	s.metrics.ObserveFetch(sourceCalcom, len(fetchErrs) > 0, time.Since(start).Seconds())
	if len(fetchErrs) > 0 {
		s.logger.Warn("booking bucket fetch failed, stats are partial", "error", errors.Join(fetchErrs...))
	}

	clients := s.LoadClients(ctx).OrZero()

	stats := BuildStats(
		buckets[calcom.StatusUpcoming],
		buckets[calcom.StatusPast],
		buckets[calcom.StatusCancelled],
		clients,
	)
	return &stats, nil
}

// Clients builds the roster report. The client roster is the primary source.
func (s *Service) Clients(ctx context.Context) (*ClientsReport, error) {
	if s.clients == nil {
		return nil, fmt.Errorf("client roster %w", source.ErrNotConfigured)
	}

	ctx, span := tracer.Start(ctx, "reporting.clients")
	defer span.End()

	result := s.LoadClients(ctx)
	if result.Failed() && !errors.Is(result.Err, source.ErrNotConfigured) {
		s.logger.Warn("client roster partially fetched", "error", result.Err)
	}
	report := BuildClientsReport(result.Value, time.Now())
	return &report, nil
}

// N8NMetrics builds workflow health numbers from recent execution history.
// Unlike the list sources, a fetch failure here is surfaced as an error since
// partial execution history would silently skew the success rates.
func (s *Service) N8NMetrics(ctx context.Context) (*n8n.Metrics, error) {
	if s.executions == nil {
		return nil, fmt.Errorf("workflow engine %w", source.ErrNotConfigured)
	}

	ctx, span := tracer.Start(ctx, "reporting.n8n_metrics")
	defer span.End()

	var executions []n8n.Execution
	if !s.cache.GetJSON(ctx, cacheKeyExecutions, &executions) {
		start := time.Now()
		fetched, err := s.executions.FetchExecutions(ctx)
		s.metrics.ObserveFetch(sourceN8N, err != nil, time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("reporting: executions: %w", err)
		}
		s.cache.SetJSON(ctx, cacheKeyExecutions, fetched)
		executions = fetched
	}

	metrics := n8n.BuildMetrics(executions, time.Now())
	return &metrics, nil
}
