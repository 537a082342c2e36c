package reporting

import (
	"math"
	"sort"
	"time"

	"github.com/clinicalopez/dashboard-api/internal/calcom"
	"github.com/clinicalopez/dashboard-api/internal/conversation"
)

// topServicesLimit caps the service table for list views; totals are always
// computed over the full set.
const topServicesLimit = 15

// ServiceMetric is one row of the per-service funnel table.
type ServiceMetric struct {
	Service           string `json:"service"`
	Consultations     int    `json:"consultations"`
	LinksSent         int    `json:"linksSent"`
	BookingsConfirmed int    `json:"bookingsConfirmed"`
	ConversionRate    int    `json:"conversionRate"`
}

// Totals aggregates the funnel across all services.
type Totals struct {
	TotalConsultations       int `json:"totalConsultations"`
	TotalLinksSent           int `json:"totalLinksSent"`
	TotalBookings            int `json:"totalBookings"`
	UniqueServices           int `json:"uniqueServices"`
	TotalConversations       int `json:"totalConversations"`
	ConversationsWithCalLink int `json:"conversationsWithCalLink"`
	TotalCalcomBookings      int `json:"totalCalcomBookings"`
}

// CalcomStats summarizes how the booking list correlates with conversations.
type CalcomStats struct {
	TotalBookings         int `json:"totalBookings"`
	MatchedBookings       int `json:"matchedBookings"`
	OverallConversionRate int `json:"overallConversionRate"`
}

// ServiceMetricsReport is the service-metrics endpoint payload.
type ServiceMetricsReport struct {
	Services    []ServiceMetric `json:"services"`
	Totals      Totals          `json:"totals"`
	CalcomStats CalcomStats     `json:"calcomStats"`
	Source      string          `json:"source"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

type serviceAccumulator struct {
	consultations int
	linksSent     int
	clientNames   []string
}

// BuildServiceMetrics joins conversations and bookings by service label.
// Bookings-confirmed counts deduplicate contributing conversations by
// normalized name before fuzzy-matching against attendee names, so one person
// chatting twice about the same service counts once. The numbers inherit the
// matcher's permissiveness and are estimates by design.
func BuildServiceMetrics(conversations []*conversation.Conversation, bookings []calcom.Booking) ServiceMetricsReport {
	attendeeNames := make([]string, 0, len(bookings))
	for _, b := range bookings {
		if name := b.AttendeeName(); name != "" {
			attendeeNames = append(attendeeNames, name)
		}
	}

	accumulators := make(map[string]*serviceAccumulator)
	var serviceOrder []string
	conversationsWithLink := 0

	for _, conv := range conversations {
		if conv.LinkSent {
			conversationsWithLink++
		}
		for _, svc := range conv.ServicesConsulted {
			acc, ok := accumulators[svc]
			if !ok {
				acc = &serviceAccumulator{}
				accumulators[svc] = acc
				serviceOrder = append(serviceOrder, svc)
			}
			acc.consultations++
			if conv.LinkSent {
				acc.linksSent++
			}
			acc.clientNames = append(acc.clientNames, conv.DisplayName)
		}
	}

	services := make([]ServiceMetric, 0, len(serviceOrder))
	for _, svc := range serviceOrder {
		acc := accumulators[svc]

		bookingsConfirmed := 0
		checked := make(map[string]struct{})
		for _, name := range acc.clientNames {
			normalized := conversation.NormalizeName(name)
			if _, done := checked[normalized]; done {
				continue
			}
			if conversation.HasBooking(name, attendeeNames) {
				bookingsConfirmed++
				checked[normalized] = struct{}{}
			}
		}

		services = append(services, ServiceMetric{
			Service:           svc,
			Consultations:     acc.consultations,
			LinksSent:         acc.linksSent,
			BookingsConfirmed: bookingsConfirmed,
			ConversionRate:    roundedRate(bookingsConfirmed, acc.linksSent),
		})
	}

	sort.SliceStable(services, func(i, j int) bool {
		if services[i].Consultations != services[j].Consultations {
			return services[i].Consultations > services[j].Consultations
		}
		return services[i].Service < services[j].Service
	})

	totals := Totals{
		UniqueServices:           len(services),
		TotalConversations:       len(conversations),
		ConversationsWithCalLink: conversationsWithLink,
		TotalCalcomBookings:      len(bookings),
	}
	for _, s := range services {
		totals.TotalConsultations += s.Consultations
		totals.TotalLinksSent += s.LinksSent
		totals.TotalBookings += s.BookingsConfirmed
	}

	display := services
	if len(display) > topServicesLimit {
		display = display[:topServicesLimit]
	}

	return ServiceMetricsReport{
		Services: display,
		Totals:   totals,
		CalcomStats: CalcomStats{
			TotalBookings:         len(bookings),
			MatchedBookings:       totals.TotalBookings,
			OverallConversionRate: roundedRate(len(bookings), conversationsWithLink),
		},
		Source:      conversation.SourceName,
		LastUpdated: time.Now().UTC(),
	}
}

// roundedRate returns part/whole as a rounded percentage, 0 when whole is 0.
func roundedRate(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
