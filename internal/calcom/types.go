package calcom

import "encoding/json"

const defaultBaseURL = "https://api.cal.com/v1"

// Booking statuses understood by the v1 bookings endpoint.
const (
	StatusUpcoming  = "upcoming"
	StatusPast      = "past"
	StatusCancelled = "cancelled"
)

// Attendee is one booking participant.
type Attendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Booking is a Cal.com booking record. Only AttendeeName participates in
// conversation correlation; the rest is carried for the dashboard tables.
// Times stay as the provider's ISO strings since they are display-only.
type Booking struct {
	ID          int64      `json:"id"`
	UID         string     `json:"uid"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Rescheduled bool       `json:"rescheduled"`
	StartTime   string     `json:"startTime"`
	EndTime     string     `json:"endTime"`
	Attendees   []Attendee `json:"attendees"`

	// BookingStatus is the list bucket (upcoming/past/cancelled) the booking
	// was fetched from, not a provider field.
	BookingStatus string `json:"bookingStatus,omitempty"`
}

// AttendeeName returns the primary attendee's name, or "".
func (b Booking) AttendeeName() string {
	if len(b.Attendees) == 0 {
		return ""
	}
	return b.Attendees[0].Name
}

// EventType is a bookable Cal.com event type.
type EventType struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Length      int    `json:"length"`
	Description string `json:"description"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// CreateBookingRequest is the intake form payload for a new appointment.
type CreateBookingRequest struct {
	Name         string `json:"name"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	DateOfBirth  string `json:"dateOfBirth"`
	HasInsurance string `json:"hasInsurance"`
	Address      string `json:"address"`
	Services     string `json:"services"`
	Notes        string `json:"notes"`
	StartTime    string `json:"startTime"`
	EventTypeID  int64  `json:"eventTypeId"`
}

type bookingsResponse struct {
	Bookings []Booking `json:"bookings"`
}

type eventTypesResponse struct {
	EventTypes []EventType `json:"event_types"`
}

type slotsResponse struct {
	Slots json.RawMessage `json:"slots"`
}
