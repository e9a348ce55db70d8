package store

import (
	"testing"
	"time"

	"github.com/tinytelemetry/vigil/internal/model"
)

func seedEvents(t *testing.T, s *Store) {
	t.Helper()
	insertTestEvents(t, s, []model.SystemEvent{
		{Timestamp: baseTime, EventType: "info", Severity: 40, Source: "journald"},
		{Timestamp: baseTime.Add(time.Minute), EventType: "warning", Severity: 60, Source: "journald", Category: "network"},
		{Timestamp: baseTime.Add(2 * time.Minute), EventType: "error", Severity: 70, Source: "journald"},
		{Timestamp: baseTime.Add(3 * time.Minute), EventType: "critical", Severity: 90, Source: "journald", Category: "security"},
	})
}

func TestEventsByRange_Filters(t *testing.T) {
	s := newTestStore(t)
	seedEvents(t, s)

	start := baseTime.Add(-time.Minute)
	end := baseTime.Add(time.Hour)

	tests := []struct {
		name        string
		types       []string
		minSeverity int
		want        int
	}{
		{"all", nil, 0, 4},
		{"min severity", nil, 60, 3},
		{"single type", []string{"error"}, 0, 1},
		{"multiple types", []string{"error", "critical"}, 0, 2},
		{"type and severity", []string{"warning", "critical"}, 70, 1},
		{"no match", []string{"audit"}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.EventsByRange(start, end, tt.types, tt.minSeverity)
			if err != nil {
				t.Fatalf("EventsByRange: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEventsByRange_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	seedEvents(t, s)

	got, err := s.EventsByRange(baseTime.Add(-time.Minute), baseTime.Add(time.Hour), nil, 0)
	if err != nil {
		t.Fatalf("EventsByRange: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("events not in descending order at index %d", i)
		}
	}
}

func TestEventsByRange_EndExclusive(t *testing.T) {
	s := newTestStore(t)
	seedEvents(t, s)

	got, err := s.EventsByRange(baseTime, baseTime.Add(time.Minute), nil, 0)
	if err != nil {
		t.Fatalf("EventsByRange: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d events in [T, T+1m), want 1", len(got))
	}
}

func TestUnifiedTimeline(t *testing.T) {
	s := newTestStore(t)

	insertTestIntervals(t, s, []model.Interval{
		testInterval(0, 12*time.Second, "firefox", "w1", false),
	})
	insertTestEvents(t, s, []model.SystemEvent{
		{Timestamp: baseTime.Add(time.Minute), EventType: "error", Severity: 70,
			Source: "journald", Message: "disk i/o error", Category: "storage"},
	})

	got, err := s.UnifiedTimeline(baseTime.Add(-time.Minute), baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("UnifiedTimeline: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}

	// Newest first: the event precedes the interval.
	if got[0].Kind != "system_event" {
		t.Errorf("entry 0 kind = %q, want system_event", got[0].Kind)
	}
	if got[0].Severity != 70 || got[0].Message != "disk i/o error" {
		t.Errorf("event entry = %+v", got[0])
	}
	if got[1].Kind != "activity" {
		t.Errorf("entry 1 kind = %q, want activity", got[1].Kind)
	}
	if got[1].ProcessName != "firefox" || got[1].WindowHash != "w1" {
		t.Errorf("activity entry = %+v", got[1])
	}
}

func TestDailyAppUsage(t *testing.T) {
	s := newTestStore(t)

	insertTestIntervals(t, s, []model.Interval{
		testInterval(0, 60*time.Second, "firefox", "w1", false),
		testInterval(2*time.Minute, 30*time.Second, "firefox", "w1", true),
		testInterval(5*time.Minute, 10*time.Second, "code", "w2", false),
	})

	got, err := s.DailyAppUsage("2026-03-14")
	if err != nil {
		t.Fatalf("DailyAppUsage: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}

	// Ordered by total seconds descending, firefox first.
	ff := got[0]
	if ff.ProcessName != "firefox" {
		t.Fatalf("top app = %q, want firefox", ff.ProcessName)
	}
	if ff.TotalSeconds != 90 {
		t.Errorf("firefox total = %d, want 90", ff.TotalSeconds)
	}
	if ff.ActiveSeconds != 60 {
		t.Errorf("firefox active = %d, want 60", ff.ActiveSeconds)
	}
	if ff.IntervalCount != 2 {
		t.Errorf("firefox intervals = %d, want 2", ff.IntervalCount)
	}
}

func TestHourlyActivity(t *testing.T) {
	s := newTestStore(t)

	insertTestIntervals(t, s, []model.Interval{
		testInterval(0, 60*time.Second, "firefox", "w1", false),
		testInterval(10*time.Minute, 120*time.Second, "firefox", "w1", true),
		testInterval(time.Hour, 30*time.Second, "firefox", "w1", false),
	})

	got, err := s.HourlyActivity(baseTime, baseTime.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("HourlyActivity: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d hours, want 2", len(got))
	}

	first := got[0]
	if !first.Hour.Equal(baseTime) {
		t.Errorf("first bucket = %v, want %v", first.Hour, baseTime)
	}
	if first.ActiveSeconds != 60 || first.IdleSeconds != 120 {
		t.Errorf("first bucket active/idle = %d/%d, want 60/120",
			first.ActiveSeconds, first.IdleSeconds)
	}
	if got[1].ActiveSeconds != 30 || got[1].IdleSeconds != 0 {
		t.Errorf("second bucket active/idle = %d/%d, want 30/0",
			got[1].ActiveSeconds, got[1].IdleSeconds)
	}
}

func TestDailyEventSummary(t *testing.T) {
	s := newTestStore(t)

	insertTestEvents(t, s, []model.SystemEvent{
		{Timestamp: baseTime, EventType: "error", Severity: 70, Source: "journald", Category: "storage"},
		{Timestamp: baseTime.Add(time.Minute), EventType: "error", Severity: 80, Source: "journald", Category: "storage"},
		{Timestamp: baseTime.Add(2 * time.Minute), EventType: "info", Severity: 40, Source: "journald"},
	})

	got, err := s.DailyEventSummary("2026-03-14")
	if err != nil {
		t.Fatalf("DailyEventSummary: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}

	errors := got[0] // ordered by event_count descending
	if errors.EventType != "error" || errors.EventCount != 2 {
		t.Fatalf("top row = %+v, want error x2", errors)
	}
	if errors.MaxSeverity != 80 || errors.MinSeverity != 70 {
		t.Errorf("severity range = [%d, %d], want [70, 80]", errors.MinSeverity, errors.MaxSeverity)
	}
	if errors.AvgSeverity != 75 {
		t.Errorf("avg severity = %v, want 75", errors.AvgSeverity)
	}
	if errors.Category != "storage" {
		t.Errorf("category = %q, want storage", errors.Category)
	}
}
