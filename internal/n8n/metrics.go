package n8n

import (
	"fmt"
	"sort"
	"time"
)

// DayCount is one chart bucket of executions per calendar day.
type DayCount struct {
	Date    string `json:"date"`
	Success int    `json:"success"`
	Error   int    `json:"error"`
}

// RecentExecution is one row of the recent-runs table.
type RecentExecution struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
	// DurationSeconds is nil when the run never stopped.
	DurationSeconds *int `json:"duration"`
}

// Metrics is the derived automation health payload.
type Metrics struct {
	TotalExecutions7Days      int    `json:"totalExecutions7Days"`
	SuccessfulExecutions7Days int    `json:"successfulExecutions7Days"`
	FailedExecutions7Days     int    `json:"failedExecutions7Days"`
	SuccessRate7Days          string `json:"successRate7Days"`

	TotalExecutions30Days      int    `json:"totalExecutions30Days"`
	SuccessfulExecutions30Days int    `json:"successfulExecutions30Days"`
	FailedExecutions30Days     int    `json:"failedExecutions30Days"`
	SuccessRate30Days          string `json:"successRate30Days"`

	ExecutionsByDay  []DayCount        `json:"executionsByDay"`
	RecentExecutions []RecentExecution `json:"recentExecutions"`

	TotalExecutionsAllTime int `json:"totalExecutionsAllTime"`
}

// BuildMetrics folds the execution list into the dashboard payload. now is a
// parameter so the window math stays testable.
func BuildMetrics(executions []Execution, now time.Time) Metrics {
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	m := Metrics{TotalExecutionsAllTime: len(executions)}

	byDay := make(map[string]*DayCount)
	for _, e := range executions {
		if e.StartedAt.After(monthAgo) {
			m.TotalExecutions30Days++
			switch e.Status {
			case StatusSuccess:
				m.SuccessfulExecutions30Days++
			case StatusError:
				m.FailedExecutions30Days++
			}
		}
		if !e.StartedAt.After(weekAgo) {
			continue
		}
		m.TotalExecutions7Days++
		day := e.StartedAt.UTC().Format("2006-01-02")
		bucket, ok := byDay[day]
		if !ok {
			bucket = &DayCount{Date: day}
			byDay[day] = bucket
		}
		if e.Status == StatusSuccess {
			m.SuccessfulExecutions7Days++
			bucket.Success++
		} else {
			if e.Status == StatusError {
				m.FailedExecutions7Days++
			}
			bucket.Error++
		}
	}

	m.SuccessRate7Days = ratePercent(m.SuccessfulExecutions7Days, m.TotalExecutions7Days)
	m.SuccessRate30Days = ratePercent(m.SuccessfulExecutions30Days, m.TotalExecutions30Days)

	m.ExecutionsByDay = make([]DayCount, 0, len(byDay))
	for _, bucket := range byDay {
		m.ExecutionsByDay = append(m.ExecutionsByDay, *bucket)
	}
	sort.Slice(m.ExecutionsByDay, func(i, j int) bool {
		return m.ExecutionsByDay[i].Date < m.ExecutionsByDay[j].Date
	})

	recent := executions
	if len(recent) > 10 {
		recent = recent[:10]
	}
	m.RecentExecutions = make([]RecentExecution, 0, len(recent))
	for _, e := range recent {
		row := RecentExecution{ID: e.ID, Status: e.Status, StartedAt: e.StartedAt}
		if !e.StoppedAt.IsZero() && !e.StartedAt.IsZero() {
			secs := int(e.StoppedAt.Sub(e.StartedAt).Round(time.Second).Seconds())
			row.DurationSeconds = &secs
		}
		m.RecentExecutions = append(m.RecentExecutions, row)
	}

	return m
}

func ratePercent(part, total int) string {
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f", float64(part)/float64(total)*100)
}
