package classify

import "testing"

func sev(n int) *int { return &n }

func newTestClassifier(t *testing.T, rules []Rule) *Classifier {
	t.Helper()
	c, err := New(rules)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClassifyDefaults(t *testing.T) {
	c := newTestClassifier(t, nil)

	eventType, severity, category := c.Classify(Input{Message: "routine message"})
	if eventType != "info" || severity != 50 || category != "other" {
		t.Errorf("got (%s, %d, %s), want (info, 50, other)", eventType, severity, category)
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	c := newTestClassifier(t, []Rule{
		{Pattern: "disk", EventType: "error", Severity: sev(80), Category: "storage"},
		{Pattern: "disk failure", EventType: "critical", Severity: sev(99), Category: "storage"},
	})

	eventType, severity, _ := c.Classify(Input{Message: "Disk failure on /dev/sda"})
	if eventType != "error" || severity != 80 {
		t.Errorf("got (%s, %d), want first rule (error, 80)", eventType, severity)
	}
}

func TestClassifyCaseInsensitivePattern(t *testing.T) {
	c := newTestClassifier(t, []Rule{
		{Pattern: "TIMEOUT", EventType: "warning", Severity: sev(55)},
	})

	eventType, _, _ := c.Classify(Input{Message: "request timeout after 30s"})
	if eventType != "warning" {
		t.Errorf("eventType = %s, want warning", eventType)
	}
}

func TestClassifyEventIDBands(t *testing.T) {
	c := newTestClassifier(t, nil)

	tests := []struct {
		eventID      int64
		wantType     string
		wantSeverity int
	}{
		{1500, "info", 40},
		{2500, "warning", 60},
		{3500, "error", 70},
		{4000, "critical", 90},
		{7045, "critical", 90},
	}

	for _, tt := range tests {
		eventType, severity, _ := c.Classify(Input{Message: "plain", EventID: tt.eventID})
		if eventType != tt.wantType || severity != tt.wantSeverity {
			t.Errorf("event id %d: got (%s, %d), want (%s, %d)",
				tt.eventID, eventType, severity, tt.wantType, tt.wantSeverity)
		}
	}
}

func TestClassifyEventIDOverridesRule(t *testing.T) {
	c := newTestClassifier(t, []Rule{
		{Pattern: "whatever", EventType: "info", Severity: sev(10)},
	})

	eventType, severity, _ := c.Classify(Input{Message: "whatever happened", EventID: 3200})
	if eventType != "error" || severity != 70 {
		t.Errorf("got (%s, %d), want ID band to override rule (error, 70)", eventType, severity)
	}
}

func TestClassifyLevelOverridesEventID(t *testing.T) {
	c := newTestClassifier(t, nil)

	eventType, severity, _ := c.Classify(Input{Message: "plain", EventID: 4999, Level: "warn"})
	if eventType != "warning" || severity != 60 {
		t.Errorf("got (%s, %d), want level to override ID band (warning, 60)", eventType, severity)
	}
}

func TestClassifyLevelStrings(t *testing.T) {
	c := newTestClassifier(t, nil)

	tests := []struct {
		level        string
		wantType     string
		wantSeverity int
	}{
		{"error", "error", 70},
		{"err", "error", 70},
		{"warning", "warning", 60},
		{"warn", "warning", 60},
		{"critical", "critical", 90},
		{"crit", "critical", 90},
		{"info", "info", 40},
		{"CRIT", "critical", 90},
	}

	for _, tt := range tests {
		eventType, severity, _ := c.Classify(Input{Message: "plain", Level: tt.level})
		if eventType != tt.wantType || severity != tt.wantSeverity {
			t.Errorf("level %q: got (%s, %d), want (%s, %d)",
				tt.level, eventType, severity, tt.wantType, tt.wantSeverity)
		}
	}
}

func TestClassifyKeywordCategories(t *testing.T) {
	c := newTestClassifier(t, nil)

	tests := []struct {
		message      string
		wantCategory string
	}{
		{"user login from 10.0.0.5", "security"},
		{"connection reset by peer", "network"},
		{"disk quota exceeded", "storage"},
		{"slow query detected", "performance"},
		{"nothing of note", "other"},
	}

	for _, tt := range tests {
		_, _, category := c.Classify(Input{Message: tt.message})
		if category != tt.wantCategory {
			t.Errorf("message %q: category = %s, want %s", tt.message, category, tt.wantCategory)
		}
	}
}

func TestClassifySecurityRaisesSeverity(t *testing.T) {
	c := newTestClassifier(t, nil)

	_, severity, category := c.Classify(Input{Message: "auth token refreshed", Level: "info"})
	if category != "security" {
		t.Fatalf("category = %s, want security", category)
	}
	if severity < 70 {
		t.Errorf("severity = %d, want >= 70 for security events", severity)
	}
}

func TestClassifySeverityClamp(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want int
	}{
		{"above range", Rule{Pattern: "boom", Severity: sev(250)}, 100},
		{"below range", Rule{Pattern: "boom", Severity: sev(-5)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(t, []Rule{tt.rule})
			_, severity, _ := c.Classify(Input{Message: "boom"})
			if severity != tt.want {
				t.Errorf("severity = %d, want %d", severity, tt.want)
			}
		})
	}
}

func TestClassifyExplicitZeroSeverity(t *testing.T) {
	c := newTestClassifier(t, []Rule{
		{Pattern: "heartbeat", EventType: "info", Severity: sev(0)},
	})

	_, severity, _ := c.Classify(Input{Message: "heartbeat ok"})
	if severity != 0 {
		t.Errorf("severity = %d, want explicit 0 to override the default", severity)
	}
}

func TestClassifyUnsetSeverityKeptFromDefault(t *testing.T) {
	c := newTestClassifier(t, []Rule{
		{Pattern: "heartbeat", EventType: "warning"},
	})

	eventType, severity, _ := c.Classify(Input{Message: "heartbeat ok"})
	if eventType != "warning" || severity != 50 {
		t.Errorf("got (%s, %d), want (warning, 50): omitted severity keeps the running value", eventType, severity)
	}
}

func TestClassifyInvalidPattern(t *testing.T) {
	if _, err := New([]Rule{{Pattern: "(unclosed"}}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestClassifyEmptyPatternSkipped(t *testing.T) {
	c := newTestClassifier(t, []Rule{
		{Pattern: "", EventType: "critical", Severity: sev(99)},
		{Pattern: "match", EventType: "warning", Severity: sev(55)},
	})

	eventType, _, _ := c.Classify(Input{Message: "a match here"})
	if eventType != "warning" {
		t.Errorf("eventType = %s, want warning (empty-pattern rule must be dropped)", eventType)
	}
}
