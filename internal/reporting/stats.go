package reporting

import (
	"fmt"
	"time"

	"github.com/clinicalopez/dashboard-api/internal/airtable"
	"github.com/clinicalopez/dashboard-api/internal/calcom"
)

const recentUpcomingLimit = 5

// Spanish short labels used for the recent-upcoming cards.
var (
	spanishDays   = [...]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}
	spanishMonths = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}
)

// RecentBooking is a compact card for an upcoming appointment.
type RecentBooking struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Attendee string `json:"attendee"`
	Status   string `json:"status"`
}

// DashboardStats is the headline-numbers payload for the landing view.
type DashboardStats struct {
	TotalChats          int             `json:"totalChats"`
	LinksSent           int             `json:"linksSent"`
	ConfirmedBookings   int             `json:"confirmedBookings"`
	UpcomingBookings    int             `json:"upcomingBookings"`
	PastBookings        int             `json:"pastBookings"`
	CancelledBookings   int             `json:"cancelledBookings"`
	RescheduledBookings int             `json:"rescheduledBookings"`
	BookingRate         string          `json:"bookingRate"`
	CancelRate          string          `json:"cancelRate"`
	RecentUpcoming      []RecentBooking `json:"recentUpcoming"`
	LastUpdated         time.Time       `json:"lastUpdated"`
}

// BuildStats folds booking buckets and client records into headline numbers.
// Rescheduled bookings arrive inside the cancelled bucket, so pure
// cancellations are cancelled minus rescheduled.
func BuildStats(upcoming, past, cancelled []calcom.Booking, clients []airtable.ClientRecord) DashboardStats {
	rescheduled := 0
	for _, b := range cancelled {
		if b.Rescheduled {
			rescheduled++
		}
	}
	pureCancelled := len(cancelled) - rescheduled

	linksSent := 0
	for _, c := range clients {
		if c.LinkSent {
			linksSent++
		}
	}

	confirmed := len(upcoming) + len(past)
	total := confirmed + len(cancelled)

	recent := make([]RecentBooking, 0, recentUpcomingLimit)
	for _, b := range upcoming {
		if len(recent) == recentUpcomingLimit {
			break
		}
		recent = append(recent, toRecentBooking(b))
	}

	return DashboardStats{
		TotalChats:          len(clients),
		LinksSent:           linksSent,
		ConfirmedBookings:   confirmed,
		UpcomingBookings:    len(upcoming),
		PastBookings:        len(past),
		CancelledBookings:   pureCancelled,
		RescheduledBookings: rescheduled,
		BookingRate:         percentLabel(confirmed, linksSent),
		CancelRate:          percentLabel(pureCancelled, total),
		RecentUpcoming:      recent,
		LastUpdated:         time.Now().UTC(),
	}
}

func toRecentBooking(b calcom.Booking) RecentBooking {
	card := RecentBooking{
		Date:     b.StartTime,
		Attendee: b.AttendeeName(),
		Status:   "Confirmado",
	}
	if card.Attendee == "" {
		card.Attendee = "Sin nombre"
	}
	if b.Rescheduled {
		card.Status = "Reagendado"
	}
	if start, err := time.Parse(time.RFC3339, b.StartTime); err == nil {
		card.Date = fmt.Sprintf("%s, %d %s", spanishDays[start.Weekday()], start.Day(), spanishMonths[start.Month()-1])
		card.Time = start.Format("15:04")
	}
	return card
}

// percentLabel formats part/whole as a one-decimal percentage string, "0%"
// when the denominator is zero.
func percentLabel(part, whole int) string {
	if whole <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}
