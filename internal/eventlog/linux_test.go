package eventlog

import (
	"testing"
	"time"

	"github.com/tinytelemetry/vigil/internal/privacy"
)

func newTestJournalCollector(t *testing.T) *journalCollector {
	t.Helper()
	return &journalCollector{
		facilities:  []string{"kern"},
		priorityMin: "warning",
		classifier:  newTestClassifier(t),
		policy:      privacy.Policy{},
	}
}

func TestJournalParseOutput(t *testing.T) {
	c := newTestJournalCollector(t)

	out := []byte(`{"__REALTIME_TIMESTAMP":"1773482400000000","PRIORITY":"3","MESSAGE":"disk i/o error on sda","_COMM":"kernel","_HOSTNAME":"workstation"}
{"__REALTIME_TIMESTAMP":"1773482460000000","PRIORITY":"4","MESSAGE":"connection reset","_COMM":"sshd","_UID":"1000","_HOSTNAME":"workstation"}
`)

	events, skipped := c.parseOutput(out)
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	first := events[0]
	if first.EventType != "error" || first.Severity != 70 {
		t.Errorf("priority 3 mapped to %s/%d, want error/70", first.EventType, first.Severity)
	}
	if first.Category != "storage" {
		t.Errorf("category = %q, want storage", first.Category)
	}
	if first.ProcessName != "kernel" || first.MachineName != "workstation" {
		t.Errorf("identity fields = %+v", first)
	}
	want := time.UnixMicro(1773482400000000).UTC()
	if !first.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", first.Timestamp, want)
	}
	if first.RawJSON == "" {
		t.Error("raw journal line not retained")
	}

	second := events[1]
	if second.EventType != "warning" || second.Severity != 60 {
		t.Errorf("priority 4 mapped to %s/%d, want warning/60", second.EventType, second.Severity)
	}
	if second.Category != "network" {
		t.Errorf("category = %q, want network", second.Category)
	}
}

func TestJournalParseSkipsMalformedLines(t *testing.T) {
	c := newTestJournalCollector(t)

	out := []byte(`{"PRIORITY":"3","MESSAGE":"good line"}
not json at all
{"PRIORITY":"4","MESSAGE":"another good line"}
`)

	events, skipped := c.parseOutput(out)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestJournalParseEmptyOutput(t *testing.T) {
	c := newTestJournalCollector(t)
	events, skipped := c.parseOutput(nil)
	if len(events) != 0 || skipped != 0 {
		t.Errorf("empty output produced %d events, %d skipped", len(events), skipped)
	}
}

func TestJournalTime(t *testing.T) {
	if got := journalTime("1773482400000000"); !got.Equal(time.UnixMicro(1773482400000000).UTC()) {
		t.Errorf("journalTime = %v", got)
	}
	if got := journalTime("garbage"); !got.IsZero() {
		t.Errorf("journalTime on garbage = %v, want zero", got)
	}
	if got := journalTime(""); !got.IsZero() {
		t.Errorf("journalTime on empty = %v, want zero", got)
	}
}
