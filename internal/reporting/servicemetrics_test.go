package reporting

import (
	"fmt"
	"testing"

	"github.com/clinicalopez/dashboard-api/internal/calcom"
	"github.com/clinicalopez/dashboard-api/internal/conversation"
)

func conv(name string, linkSent bool, services ...string) *conversation.Conversation {
	return &conversation.Conversation{
		SessionID:         name + "@s.whatsapp.net",
		DisplayName:       name,
		LinkSent:          linkSent,
		ServicesConsulted: services,
		MessageCount:      1,
	}
}

func booking(attendee string) calcom.Booking {
	return calcom.Booking{Attendees: []calcom.Attendee{{Name: attendee}}}
}

func TestBuildServiceMetrics(t *testing.T) {
	conversations := []*conversation.Conversation{
		conv("Ana Lopez", true, "Botox"),
		conv("Maria Garcia", true, "Botox", "Rellenos"),
		conv("Pedro Ruiz", false, "Rellenos"),
	}
	bookings := []calcom.Booking{booking("Ana Lopez")}

	report := BuildServiceMetrics(conversations, bookings)

	if len(report.Services) != 2 {
		t.Fatalf("got %d services, want 2", len(report.Services))
	}

	botox := report.Services[0]
	if botox.Service != "Botox" {
		t.Fatalf("first service = %q, want Botox", botox.Service)
	}
	if botox.Consultations != 2 || botox.LinksSent != 2 {
		t.Errorf("botox = %+v", botox)
	}
	if botox.BookingsConfirmed != 1 {
		t.Errorf("bookingsConfirmed = %d, want 1", botox.BookingsConfirmed)
	}
	if botox.ConversionRate != 50 {
		t.Errorf("conversionRate = %d, want 50", botox.ConversionRate)
	}

	rellenos := report.Services[1]
	if rellenos.LinksSent != 1 || rellenos.BookingsConfirmed != 0 || rellenos.ConversionRate != 0 {
		t.Errorf("rellenos = %+v", rellenos)
	}

	if report.Totals.TotalConversations != 3 {
		t.Errorf("totalConversations = %d", report.Totals.TotalConversations)
	}
	if report.Totals.ConversationsWithCalLink != 2 {
		t.Errorf("conversationsWithCalLink = %d", report.Totals.ConversationsWithCalLink)
	}
	if report.Totals.TotalBookings != 1 {
		t.Errorf("totalBookings = %d", report.Totals.TotalBookings)
	}
	if report.CalcomStats.OverallConversionRate != 50 {
		t.Errorf("overallConversionRate = %d", report.CalcomStats.OverallConversionRate)
	}
}

func TestBuildServiceMetricsDeduplicatesClients(t *testing.T) {
	// The same person in two sessions must count as one confirmed booking.
	conversations := []*conversation.Conversation{
		conv("Ana Lopez", true, "Botox"),
		conv("ana lópez", true, "Botox"),
	}
	report := BuildServiceMetrics(conversations, []calcom.Booking{booking("Ana Lopez")})

	if got := report.Services[0].BookingsConfirmed; got != 1 {
		t.Errorf("bookingsConfirmed = %d, want 1", got)
	}
}

func TestBuildServiceMetricsUnknownNamesNeverMatch(t *testing.T) {
	conversations := []*conversation.Conversation{conv("Unknown", true, "Botox")}
	report := BuildServiceMetrics(conversations, []calcom.Booking{booking("Unknown")})

	if got := report.Services[0].BookingsConfirmed; got != 0 {
		t.Errorf("sentinel name matched a booking: %d", got)
	}
}

func TestBuildServiceMetricsTruncatesDisplay(t *testing.T) {
	var conversations []*conversation.Conversation
	for i := 0; i < 20; i++ {
		conversations = append(conversations, conv(fmt.Sprintf("Client %d", i), false, fmt.Sprintf("Servicio %02d", i)))
	}
	report := BuildServiceMetrics(conversations, nil)

	if len(report.Services) != topServicesLimit {
		t.Errorf("display rows = %d, want %d", len(report.Services), topServicesLimit)
	}
	if report.Totals.UniqueServices != 20 {
		t.Errorf("uniqueServices = %d, totals must cover the full set", report.Totals.UniqueServices)
	}
	if report.Totals.TotalConsultations != 20 {
		t.Errorf("totalConsultations = %d", report.Totals.TotalConsultations)
	}
}

func TestRoundedRate(t *testing.T) {
	cases := []struct{ part, whole, want int }{
		{0, 0, 0},
		{5, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
	}
	for _, tc := range cases {
		if got := roundedRate(tc.part, tc.whole); got != tc.want {
			t.Errorf("roundedRate(%d, %d) = %d, want %d", tc.part, tc.whole, got, tc.want)
		}
	}
}
