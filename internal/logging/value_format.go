package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// identityKeys hold assembly display names. Their commas and '=' signs are
// part of the value, so they are printed unquoted.
var identityKeys = map[string]struct{}{
	FieldAssemblyID: {},
	"sanitized":     {},
}

// formatFieldValue is formatValue with identity strings left unquoted.
func formatFieldValue(key string, v slog.Value) string {
	v = v.Resolve()
	if _, ok := identityKeys[key]; ok && v.Kind() == slog.KindString && v.String() != "" {
		return v.String()
	}
	return formatValue(v)
}

// attrString renders v without quoting.
func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		return anyString(v.Any())
	default:
		return formatValue(v)
	}
}

// formatValue renders v as a console field value, quoting it when it would
// not read back as a single token.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		return quoteIfNeeded(anyString(v.Any()))
	default:
		return quoteIfNeeded(v.String())
	}
}

// anyString handles the non-scalar values the resolver logs: errors, path
// lists, and Stringers such as assembly versions and records.
func anyString(value any) string {
	switch x := value.(type) {
	case error:
		return x.Error()
	case []string:
		return strings.Join(x, ",")
	default:
		return fmt.Sprint(value)
	}
}

func quoteIfNeeded(s string) string {
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
