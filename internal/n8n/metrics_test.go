package n8n

import (
	"testing"
	"time"
)

func TestBuildMetricsWindows(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	executions := []Execution{
		{ID: 1, Status: StatusSuccess, StartedAt: now.Add(-1 * time.Hour), StoppedAt: now.Add(-1*time.Hour + 42*time.Second)},
		{ID: 2, Status: StatusError, StartedAt: now.AddDate(0, 0, -2)},
		{ID: 3, Status: StatusSuccess, StartedAt: now.AddDate(0, 0, -10)},
		{ID: 4, Status: StatusError, StartedAt: now.AddDate(0, 0, -40)},
	}

	m := BuildMetrics(executions, now)

	if m.TotalExecutions7Days != 2 || m.SuccessfulExecutions7Days != 1 || m.FailedExecutions7Days != 1 {
		t.Errorf("7-day counts = %d/%d/%d", m.TotalExecutions7Days, m.SuccessfulExecutions7Days, m.FailedExecutions7Days)
	}
	if m.TotalExecutions30Days != 3 || m.SuccessfulExecutions30Days != 2 {
		t.Errorf("30-day counts = %d/%d", m.TotalExecutions30Days, m.SuccessfulExecutions30Days)
	}
	if m.SuccessRate7Days != "50.0" {
		t.Errorf("7-day rate = %q", m.SuccessRate7Days)
	}
	if m.SuccessRate30Days != "66.7" {
		t.Errorf("30-day rate = %q", m.SuccessRate30Days)
	}
	if m.TotalExecutionsAllTime != 4 {
		t.Errorf("all-time = %d", m.TotalExecutionsAllTime)
	}

	if len(m.ExecutionsByDay) != 2 {
		t.Fatalf("byDay buckets = %d, want 2", len(m.ExecutionsByDay))
	}
	if m.ExecutionsByDay[0].Date >= m.ExecutionsByDay[1].Date {
		t.Error("byDay not sorted ascending")
	}

	if len(m.RecentExecutions) != 4 {
		t.Fatalf("recent = %d", len(m.RecentExecutions))
	}
	if m.RecentExecutions[0].DurationSeconds == nil || *m.RecentExecutions[0].DurationSeconds != 42 {
		t.Errorf("duration = %v", m.RecentExecutions[0].DurationSeconds)
	}
	if m.RecentExecutions[1].DurationSeconds != nil {
		t.Error("unfinished run should have nil duration")
	}
}

func TestBuildMetricsEmpty(t *testing.T) {
	m := BuildMetrics(nil, time.Now())
	if m.SuccessRate7Days != "0" || m.SuccessRate30Days != "0" {
		t.Errorf("empty rates = %q / %q", m.SuccessRate7Days, m.SuccessRate30Days)
	}
	if m.TotalExecutionsAllTime != 0 || len(m.RecentExecutions) != 0 {
		t.Error("empty input should produce zero metrics")
	}
}

func TestBuildMetricsRecentCap(t *testing.T) {
	now := time.Now()
	executions := make([]Execution, 25)
	for i := range executions {
		executions[i] = Execution{ID: int64(i), Status: StatusSuccess, StartedAt: now.Add(-time.Duration(i) * time.Hour)}
	}
	m := BuildMetrics(executions, now)
	if len(m.RecentExecutions) != 10 {
		t.Errorf("recent = %d, want 10", len(m.RecentExecutions))
	}
}
