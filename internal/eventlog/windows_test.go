package eventlog

import (
	"testing"

	"github.com/tinytelemetry/vigil/internal/privacy"
)

func newTestWinCollector(t *testing.T) *winEventCollector {
	t.Helper()
	return &winEventCollector{
		logNames:   []string{"Application", "System"},
		classifier: newTestClassifier(t),
		policy:     privacy.Policy{},
	}
}

func TestWinParseOutputArray(t *testing.T) {
	c := newTestWinCollector(t)

	out := `[{"TimeCreated":"2026-03-14T10:00:00","Id":3001,"Level":"","Message":"service crashed","MachineName":"DESKTOP","UserName":"S-1-5-18"},
{"TimeCreated":"2026-03-14T10:01:00","Id":1001,"Level":"","Message":"service started","MachineName":"DESKTOP","UserName":""}]`

	events := c.parseOutput(out)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].EventType != "error" || events[0].Severity != 70 {
		t.Errorf("id 3001 mapped to %s/%d, want error/70", events[0].EventType, events[0].Severity)
	}
	if events[0].EventID != 3001 {
		t.Errorf("event id = %d, want 3001", events[0].EventID)
	}
	if events[1].EventType != "info" || events[1].Severity != 40 {
		t.Errorf("id 1001 mapped to %s/%d, want info/40", events[1].EventType, events[1].Severity)
	}
}

func TestWinParseOutputSingleObject(t *testing.T) {
	c := newTestWinCollector(t)

	// ConvertTo-Json emits a bare object when exactly one record matches.
	out := `{"TimeCreated":"2026-03-14T10:00:00","Id":4625,"Level":"","Message":"an account failed to log on","MachineName":"DESKTOP","UserName":"S-1-5-18"}`

	events := c.parseOutput(out)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.EventType != "critical" || ev.Severity != 90 {
		t.Errorf("id 4625 mapped to %s/%d, want critical/90", ev.EventType, ev.Severity)
	}
	// "log on" does not trip the security keywords; "account failed" does not
	// either, so category stays default.
	if ev.MachineName != "DESKTOP" {
		t.Errorf("machine = %q", ev.MachineName)
	}
}

func TestWinParseOutputLevelOverridesID(t *testing.T) {
	c := newTestWinCollector(t)

	out := `{"TimeCreated":"2026-03-14T10:00:00","Id":1001,"Level":"Error","Message":"component failure","MachineName":"DESKTOP","UserName":""}`

	events := c.parseOutput(out)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].EventType != "error" || events[0].Severity != 70 {
		t.Errorf("level Error should override id band: got %s/%d", events[0].EventType, events[0].Severity)
	}
}

func TestWinParseOutputEmpty(t *testing.T) {
	c := newTestWinCollector(t)
	if events := c.parseOutput(""); len(events) != 0 {
		t.Errorf("empty output produced %d events", len(events))
	}
}

func TestWinParseOutputMalformed(t *testing.T) {
	c := newTestWinCollector(t)
	if events := c.parseOutput("{ not json"); len(events) != 0 {
		t.Errorf("malformed output produced %d events", len(events))
	}
}

func TestSupportedLogSources(t *testing.T) {
	c := newTestWinCollector(t)
	got := c.SupportedLogSources()
	if len(got) != 2 || got[0] != "Application" {
		t.Errorf("SupportedLogSources = %v", got)
	}
}
