package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneSessionLogs removes session log files in dir whose session started
// more than retentionDays ago and returns how many were removed. Age comes
// from the start time in the file name; files not named by
// Session.LogFileName are left alone, as is the file at current.
// A retentionDays value of 0 disables pruning.
func PruneSessionLogs(logger *slog.Logger, dir string, retentionDays int, current string) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	logger = NewComponentLogger(logger, "logging")
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	if abs, err := filepath.Abs(current); err == nil && current != "" {
		current = abs
	}

	matches, err := filepath.Glob(filepath.Join(dir, SessionLogPattern))
	if err != nil {
		return 0
	}
	removed := 0
	for _, path := range matches {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if path == current {
			continue
		}
		started, _, ok := ParseSessionLogName(path)
		if !ok || !started.Before(cutoff) {
			continue
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "session log removal failed; file remains", "log_retention_failed",
				Path(path),
				Error(err),
				String(FieldErrorHint, "check permissions on the logging dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		logger.Debug("session log pruned",
			Path(path),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}
