package reporting

import (
	"sort"
	"time"

	"github.com/clinicalopez/dashboard-api/internal/airtable"
)

const topClientServicesLimit = 5

// TopService is one entry of the most-consulted-services ranking.
type TopService struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
}

// ClientStats summarizes the client roster.
type ClientStats struct {
	Total              int          `json:"total"`
	NewToday           int          `json:"newToday"`
	NewThisWeek        int          `json:"newThisWeek"`
	WithLinkSent       int          `json:"withLinkSent"`
	LinkSentPercentage int          `json:"linkSentPercentage"`
	TopServices        []TopService `json:"topServices"`
}

// ClientsReport is the clients endpoint payload.
type ClientsReport struct {
	Clients     []airtable.ClientRecord `json:"clients"`
	Stats       ClientStats             `json:"stats"`
	LastUpdated time.Time               `json:"lastUpdated"`
}

// BuildClientsReport sorts client records newest first and derives roster
// stats. The new-today and new-this-week counters use rolling 24-hour and
// 7-day windows ending at now; records whose first-contact date cannot be
// parsed simply do not count toward either.
func BuildClientsReport(clients []airtable.ClientRecord, now time.Time) ClientsReport {
	sorted := make([]airtable.ClientRecord, len(clients))
	copy(sorted, clients)
	sort.SliceStable(sorted, func(i, j int) bool {
		return recencyKey(sorted[i]).After(recencyKey(sorted[j]))
	})

	stats := ClientStats{Total: len(sorted)}
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	serviceCounts := make(map[string]int)
	var serviceOrder []string

	for _, c := range sorted {
		if c.LinkSent {
			stats.WithLinkSent++
		}
		if first, ok := parseClientDate(c.FirstContact); ok {
			if !first.Before(dayAgo) {
				stats.NewToday++
			}
			if !first.Before(weekAgo) {
				stats.NewThisWeek++
			}
		}
		for _, svc := range c.Services {
			if _, seen := serviceCounts[svc]; !seen {
				serviceOrder = append(serviceOrder, svc)
			}
			serviceCounts[svc]++
		}
	}

	if stats.Total > 0 {
		stats.LinkSentPercentage = roundedRate(stats.WithLinkSent, stats.Total)
	}

	ranking := make([]TopService, 0, len(serviceOrder))
	for _, svc := range serviceOrder {
		ranking = append(ranking, TopService{Service: svc, Count: serviceCounts[svc]})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Service < ranking[j].Service
	})
	if len(ranking) > topClientServicesLimit {
		ranking = ranking[:topClientServicesLimit]
	}
	stats.TopServices = ranking

	return ClientsReport{
		Clients:     sorted,
		Stats:       stats,
		LastUpdated: time.Now().UTC(),
	}
}

// recencyKey orders records by last update, falling back to first contact.
// Records without a parseable date sink to the end.
func recencyKey(c airtable.ClientRecord) time.Time {
	if t, ok := parseClientDate(c.LastUpdate); ok {
		return t
	}
	if t, ok := parseClientDate(c.FirstContact); ok {
		return t
	}
	return time.Time{}
}

func parseClientDate(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
