package probe

import (
	"testing"

	"github.com/tinytelemetry/vigil/internal/privacy"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name    string
		process string
		title   string
		want    string
	}{
		{"plain domain", "firefox", "Example Site - example.com - Mozilla Firefox", "example.com"},
		{"full url", "chrome", "https://github.com/golang/go - Google Chrome", "github.com"},
		{"www stripped", "firefox", "News - www.nytimes.com", "nytimes.com"},
		{"subdomain kept", "chromium", "Mail - mail.google.com", "mail.google.com"},
		{"uppercase title", "firefox", "DOCS.EXAMPLE.ORG - Firefox", "docs.example.org"},
		{"windows exe suffix", "msedge.exe", "Portal - portal.azure.com", "portal.azure.com"},
		{"no domain in title", "firefox", "New Tab", ""},
		{"non-browser process", "code", "main.go - vigil - example.com", ""},
		{"terminal with url-like text", "bash", "curl example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractDomain(tt.process, tt.title); got != tt.want {
				t.Errorf("extractDomain(%q, %q) = %q, want %q", tt.process, tt.title, got, tt.want)
			}
		})
	}
}

func TestNewInfoHashesRawValues(t *testing.T) {
	info := newInfo("firefox", "/usr/lib/firefox/firefox", "Secret Page - example.com - Mozilla Firefox")

	if info.ProcessName != "firefox" {
		t.Errorf("process name = %q, want firefox", info.ProcessName)
	}
	if info.ProcessPathHash != privacy.HashSHA256("/usr/lib/firefox/firefox") {
		t.Error("path hash does not match SHA-256 of the raw path")
	}
	if info.WindowHash != privacy.HashSHA256("Secret Page - example.com - Mozilla Firefox") {
		t.Error("window hash does not match SHA-256 of the raw title")
	}
	if info.Domain != "example.com" {
		t.Errorf("domain = %q, want example.com", info.Domain)
	}

	// Raw title must never survive into the observation.
	if info.WindowHash == "Secret Page - example.com - Mozilla Firefox" {
		t.Error("window title stored unhashed")
	}
}

func TestNewInfoIdentityStability(t *testing.T) {
	a := newInfo("code", "/usr/bin/code", "main.go - vigil")
	b := newInfo("code", "/usr/bin/code", "main.go - vigil")
	if a.WindowHash != b.WindowHash || a.ProcessPathHash != b.ProcessPathHash {
		t.Error("identical raw observations must hash identically")
	}

	c := newInfo("code", "/usr/bin/code", "other.go - vigil")
	if a.WindowHash == c.WindowHash {
		t.Error("different window titles must not collide")
	}
}
