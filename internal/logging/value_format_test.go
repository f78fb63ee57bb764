package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"asmref/internal/assembly"
)

func TestFormatValueDomainTypes(t *testing.T) {
	record := &assembly.Info{
		Name:           "System.Runtime",
		Version:        assembly.NewVersion(8, 0, 0, 0),
		Culture:        assembly.NeutralCulture,
		PublicKeyToken: "b03f5f7f11d50a3a",
	}
	decodeErr := &assembly.DecodeError{Path: "/refs/bad.dll", Err: assembly.ErrNotAssembly}

	tests := []struct {
		name  string
		value slog.Value
		want  string
	}{
		{"version", slog.AnyValue(assembly.NewVersion(8, 0, 1, 2)), "8.0.1.2"},
		{"undefined version", slog.AnyValue(assembly.Version{}), `""`},
		{"record", slog.AnyValue(record), `"System.Runtime, Version=8.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a"`},
		{"nil record", slog.AnyValue((*assembly.Info)(nil)), "<nil>"},
		{"roots", slog.AnyValue([]string{"/refs", "/usr/share/dotnet/shared"}), "/refs,/usr/share/dotnet/shared"},
		{"roots with spaces", slog.AnyValue([]string{"/Program Files/dotnet"}), `"/Program Files/dotnet"`},
		{"decode error", slog.AnyValue(decodeErr), `"read assembly info from /refs/bad.dll: not a PE image"`},
		{"plain error", slog.AnyValue(errors.New("eof")), "eof"},
		{"count", slog.IntValue(42), "42"},
		{"elapsed", slog.DurationValue(1500 * time.Millisecond), "1.5s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.value); got != tt.want {
				t.Errorf("formatValue = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatFieldValueLeavesIdentitiesUnquoted(t *testing.T) {
	id := "Foo, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null"
	if got := formatFieldValue(FieldAssemblyID, slog.StringValue(id)); got != id {
		t.Fatalf("assembly_id rendered as %s", got)
	}
	if got := formatFieldValue("sanitized", slog.StringValue(id)); got != id {
		t.Fatalf("sanitized rendered as %s", got)
	}
	if got := formatFieldValue(FieldPath, slog.StringValue(id)); got != fmt.Sprintf("%q", id) {
		t.Fatalf("non-identity key should be quoted, got %s", got)
	}
	if got := formatFieldValue(FieldAssemblyID, slog.StringValue("")); got != `""` {
		t.Fatalf("empty identity should be quoted, got %s", got)
	}
}

func TestFormatValueForKeyUsesHumanDurations(t *testing.T) {
	if got := formatValueForKey("duration", slog.DurationValue(2500*time.Millisecond)); got != "2.5s" {
		t.Fatalf("duration = %s", got)
	}
	if got := formatValueForKey(FieldAssemblyID, slog.StringValue("A, Version=2.0.0.0")); got != "A, Version=2.0.0.0" {
		t.Fatalf("identity = %s", got)
	}
}
