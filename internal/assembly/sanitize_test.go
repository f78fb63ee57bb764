package assembly_test

import (
	"testing"

	"asmref/internal/assembly"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantID   string
		wantName string
	}{
		{
			name:     "fully qualified",
			in:       "System.Runtime, Version=8.0.0.0, Culture=neutral, PublicKeyToken=B03F5F7F11D50A3A",
			wantID:   "System.Runtime, Version=8.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a",
			wantName: "System.Runtime",
		},
		{
			name:     "spacing and key case",
			in:       " Foo ,version = 1.0 , processorArchitecture=MSIL",
			wantID:   "Foo, Version=1.0",
			wantName: "Foo",
		},
		{
			name:     "attribute order",
			in:       "Bar, PublicKeyToken=null, Culture=en-US, Version=2.1.0.0",
			wantID:   "Bar, Version=2.1.0.0, Culture=en-US, PublicKeyToken=null",
			wantName: "Bar",
		},
		{
			name:     "neutral culture case folded",
			in:       "Foo, Version=1.0.0.0, Culture=NEUTRAL, PublicKeyToken=null",
			wantID:   "Foo, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null",
			wantName: "Foo",
		},
		{
			name:     "other cultures kept as written",
			in:       "Foo.resources, Version=1.0.0.0, Culture=de-DE",
			wantID:   "Foo.resources, Version=1.0.0.0, Culture=de-DE",
			wantName: "Foo.resources",
		},
		{
			name:     "unparsable version dropped",
			in:       "Foo, Version=latest",
			wantID:   "Foo",
			wantName: "Foo",
		},
		{
			name:     "bare",
			in:       "Newtonsoft.Json",
			wantID:   "Newtonsoft.Json",
			wantName: "Newtonsoft.Json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, name := assembly.Sanitize(tt.in)
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
		})
	}
}

func TestSanitizeIsStableOnIndexStrings(t *testing.T) {
	info := &assembly.Info{
		Name:           "Contoso.Core",
		Version:        assembly.NewVersion(1, 2, 3, 4),
		Culture:        assembly.NeutralCulture,
		PublicKeyToken: "0123456789abcdef",
	}
	for _, id := range info.IndexStrings() {
		if got, _ := assembly.Sanitize(id); got != id {
			t.Errorf("Sanitize(%q) = %q", id, got)
		}
	}
}

func TestIndexStrings(t *testing.T) {
	info := &assembly.Info{
		Name:           "Foo",
		Version:        assembly.NewVersion(1, 2, 3, 4),
		Culture:        assembly.NeutralCulture,
		PublicKeyToken: assembly.NullPublicKeyToken,
	}
	want := []string{
		"Foo, Version=1.2.3.4, Culture=neutral, PublicKeyToken=null",
		"Foo, Version=1.2.3.4, Culture=neutral",
		"Foo, Version=1.2.3.4, PublicKeyToken=null",
		"Foo, Version=1.2.3.4",
		"Foo",
		"foo",
	}
	got := info.IndexStrings()
	if len(got) != len(want) {
		t.Fatalf("IndexStrings() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IndexStrings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if info.String() != want[0] {
		t.Errorf("String() = %q", info.String())
	}

	mixed := (&assembly.Info{Name: "Foo", Version: assembly.NewVersion(1, 2, 3, 4), Culture: "Neutral"}).IndexStrings()
	if mixed[0] != "Foo, Version=1.2.3.4, Culture=neutral" {
		t.Errorf("neutral culture not folded: %q", mixed)
	}

	bare := (&assembly.Info{Name: "lower"}).IndexStrings()
	if len(bare) != 1 || bare[0] != "lower" {
		t.Errorf("bare IndexStrings() = %q", bare)
	}
}

func TestFoldName(t *testing.T) {
	for in, want := range map[string]string{
		"System.IO":   "system.io",
		"ÄBC.Ünicode": "äbc.ünicode",
		"already":     "already",
	} {
		if got := assembly.FoldName(in); got != want {
			t.Errorf("FoldName(%q) = %q, want %q", in, got, want)
		}
	}
}
