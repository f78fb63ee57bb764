package logging

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// FieldSessionID tags every record of one CLI invocation. The same ID keys
// the invocation's rows in the exported inventory.
const FieldSessionID = "session_id"

// SessionLogPattern matches the per-session log files written by NewFromConfig.
const SessionLogPattern = "asmref-*.log"

const (
	sessionLogPrefix   = "asmref-"
	sessionLogSuffix   = ".log"
	sessionStampLayout = "20060102-150405"
	shortIDLength      = 8
)

// Session identifies one CLI invocation.
type Session struct {
	ID      string
	Started time.Time
}

// NewSession returns a session started now.
func NewSession(id string) Session {
	return Session{ID: id, Started: time.Now()}
}

// ShortID returns the first eight characters of the ID, or "session" when
// the ID is empty.
func (s Session) ShortID() string {
	short := strings.TrimSpace(s.ID)
	if len(short) > shortIDLength {
		short = short[:shortIDLength]
	}
	if short == "" {
		return "session"
	}
	return short
}

// LogFileName returns "asmref-<YYYYMMDD-HHMMSS>-<id8>.log".
func (s Session) LogFileName() string {
	return fmt.Sprintf("%s%s-%s%s", sessionLogPrefix, s.Started.Format(sessionStampLayout), s.ShortID(), sessionLogSuffix)
}

// ParseSessionLogName reads the start time and short ID back from a log
// file name. ok is false for names LogFileName cannot produce.
func ParseSessionLogName(name string) (started time.Time, shortID string, ok bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, sessionLogPrefix) || !strings.HasSuffix(base, sessionLogSuffix) {
		return time.Time{}, "", false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(base, sessionLogPrefix), sessionLogSuffix)
	if len(rest) < len(sessionStampLayout)+2 || rest[len(sessionStampLayout)] != '-' {
		return time.Time{}, "", false
	}
	started, err := time.ParseInLocation(sessionStampLayout, rest[:len(sessionStampLayout)], time.Local)
	if err != nil {
		return time.Time{}, "", false
	}
	shortID = rest[len(sessionStampLayout)+1:]
	if len(shortID) > shortIDLength {
		return time.Time{}, "", false
	}
	return started, shortID, true
}

// sessionHandler stamps every record with the session ID.
type sessionHandler struct {
	base slog.Handler
	id   string
}

func newSessionHandler(base slog.Handler, session Session) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	if session.ID == "" {
		return base
	}
	return &sessionHandler{base: base, id: session.ID}
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *sessionHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String(FieldSessionID, h.id))
	return h.base.Handle(ctx, record)
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sessionHandler{base: h.base.WithAttrs(attrs), id: h.id}
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	return &sessionHandler{base: h.base.WithGroup(name), id: h.id}
}
