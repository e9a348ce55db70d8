package store

import (
	"errors"
	"testing"
)

func TestIsLockError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"busy", errors.New("stepping, SQLITE_BUSY: database busy"), true},
		{"table locked", errors.New("database table is locked"), true},
		{"constraint", errors.New("constraint failed: CHECK constraint failed"), false},
		{"syntax", errors.New("near \"SELEKT\": syntax error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLockError(tt.err); got != tt.want {
				t.Errorf("isLockError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithLockRetry_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := withLockRetry(func() error {
		attempts++
		if attempts < 2 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withLockRetry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestWithLockRetry_NonLockErrorNotRetried(t *testing.T) {
	attempts := 0
	wantErr := errors.New("constraint failed")
	err := withLockRetry(func() error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
