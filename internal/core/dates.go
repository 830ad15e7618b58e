package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateFmt)
}

// ParseDate parses a YYYY-MM-DD string into a time.Time (date only, midnight UTC).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFmt, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s' (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// WindowLabel describes an analysis window for cache keys, e.g. "30days".
func WindowLabel(days int) string {
	return fmt.Sprintf("%ddays", days)
}

// AnalysisWindow returns the [start, end] date range covering the last n days
// ending at asOf (inclusive).
func AnalysisWindow(asOf time.Time, days int) (time.Time, time.Time) {
	end := DateOnly(asOf)
	start := end.AddDate(0, 0, -days)
	return start, end
}

// DefaultCacheDir returns the default cache directory under the user's home.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, DefaultCacheDirName, "cache")
}
