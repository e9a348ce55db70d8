// Package privacy implements the redaction policy applied between raw
// collection and storage. Hashing here is what makes long-term retention of
// window titles, executable paths, and system log messages acceptable.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Policy holds the configured privacy switches. The zero value stores
// everything in plaintext except message hashes, which are always computed.
type Policy struct {
	ExcludeProcesses     []string
	SensitiveKeywords    []string
	HashMessages         bool
	HashUserNames        bool
	StoreMessageHashOnly bool
}

// HashSHA256 returns the lowercase hex SHA-256 digest of s.
func HashSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ExcludesProcess reports whether a process must never be sampled: either an
// exact (case-insensitive) member of the exclude list or containing one of
// the sensitive keywords as a substring.
func (p Policy) ExcludesProcess(processName string) bool {
	name := strings.ToLower(processName)
	for _, excluded := range p.ExcludeProcesses {
		if name == strings.ToLower(excluded) {
			return true
		}
	}
	for _, keyword := range p.SensitiveKeywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(name, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// RedactMessage applies the message policy: the hash is always computed from
// the original text; the plaintext survives only when hash-only storage is
// not requested.
func (p Policy) RedactMessage(message string) (stored string, hash string) {
	hash = HashSHA256(message)
	if p.HashMessages && p.StoreMessageHashOnly {
		return "", hash
	}
	return message, hash
}

// RedactUserName hashes the user name when the policy requests it. Empty
// names pass through untouched.
func (p Policy) RedactUserName(userName string) string {
	if userName == "" || !p.HashUserNames {
		return userName
	}
	return HashSHA256(userName)
}
