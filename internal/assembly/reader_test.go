package assembly_test

import (
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"asmref/internal/assembly"
	"asmref/internal/testsupport"
)

func TestReadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Contoso.Core.dll")
	testsupport.WriteAssembly(t, path, testsupport.AssemblySpec{
		Name:    "Contoso.Core",
		Version: [4]uint16{1, 2, 3, 4},
	})

	info, err := assembly.ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile: %v", err)
	}
	if info.Name != "Contoso.Core" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.Version.String() != "1.2.3.4" {
		t.Errorf("Version = %q", info.Version.String())
	}
	if info.Culture != assembly.NeutralCulture {
		t.Errorf("Culture = %q", info.Culture)
	}
	if info.PublicKeyToken != assembly.NullPublicKeyToken {
		t.Errorf("PublicKeyToken = %q", info.PublicKeyToken)
	}
	if info.TargetFramework != "" || !info.NetCoreVersion.IsZero() {
		t.Errorf("unexpected target framework %q / %q", info.TargetFramework, info.NetCoreVersion.String())
	}
	if info.Path != path {
		t.Errorf("Path = %q", info.Path)
	}
	if info.String() != "Contoso.Core, Version=1.2.3.4, Culture=neutral, PublicKeyToken=null" {
		t.Errorf("String() = %q", info.String())
	}
}

func TestReadFromFilePublicKeyAndCulture(t *testing.T) {
	key := []byte("0024000004800000940000000602000000240000525341310004000001000100")
	path := filepath.Join(t.TempDir(), "Signed.resources.dll")
	testsupport.WriteAssembly(t, path, testsupport.AssemblySpec{
		Name:      "Signed.resources",
		Version:   [4]uint16{4, 0, 0, 0},
		Culture:   "de-DE",
		PublicKey: key,
	})

	info, err := assembly.ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile: %v", err)
	}

	sum := sha1.Sum(key) //nolint:gosec
	token := sum[len(sum)-8:]
	slices.Reverse(token)
	if want := hex.EncodeToString(token); info.PublicKeyToken != want {
		t.Errorf("PublicKeyToken = %q, want %q", info.PublicKeyToken, want)
	}
	if info.Culture != "de-DE" {
		t.Errorf("Culture = %q", info.Culture)
	}
}

func TestReadFromFileTargetFramework(t *testing.T) {
	tests := []struct {
		moniker string
		netcore string
	}{
		{moniker: ".NETCoreApp,Version=v8.0", netcore: "8.0"},
		{moniker: ".NETCoreApp,Version=v10.0.1", netcore: "10.0.1"},
		{moniker: ".NETFramework,Version=v4.8", netcore: ""},
		{moniker: ".NETStandard,Version=v2.0", netcore: ""},
	}
	for _, tt := range tests {
		t.Run(tt.moniker, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Lib.dll")
			testsupport.WriteAssembly(t, path, testsupport.AssemblySpec{
				Name:            "Lib",
				Version:         [4]uint16{1, 0, 0, 0},
				TargetFramework: tt.moniker,
			})
			info, err := assembly.ReadFromFile(path)
			if err != nil {
				t.Fatalf("ReadFromFile: %v", err)
			}
			if info.TargetFramework != tt.moniker {
				t.Errorf("TargetFramework = %q", info.TargetFramework)
			}
			if got := info.NetCoreVersion.String(); got != tt.netcore {
				t.Errorf("NetCoreVersion = %q, want %q", got, tt.netcore)
			}
		})
	}
}

func TestReadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	notPE := filepath.Join(dir, "notes.dll")
	testsupport.WriteFile(t, notPE, 256)

	native := filepath.Join(dir, "native.dll")
	testsupport.WriteAssembly(t, native, testsupport.AssemblySpec{Name: "native", Native: true})

	badSignature := filepath.Join(dir, "badsig.dll")
	image := testsupport.BuildAssembly(testsupport.AssemblySpec{Name: "Broken", Version: [4]uint16{1, 0, 0, 0}})
	// Metadata root follows the 72 byte CLI header at the start of .text.
	image[0x200+72] = 'X'
	if err := os.WriteFile(badSignature, image, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "missing", path: filepath.Join(dir, "missing.dll"), want: fs.ErrNotExist},
		{name: "not a PE image", path: notPE, want: assembly.ErrNotAssembly},
		{name: "native image", path: native, want: assembly.ErrNoMetadata},
		{name: "bad metadata signature", path: badSignature, want: assembly.ErrMalformedMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := assembly.ReadFromFile(tt.path)
			if err == nil {
				t.Fatalf("ReadFromFile returned %v, want error", info)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			var decodeErr *assembly.DecodeError
			if !errors.As(err, &decodeErr) || decodeErr.Path != tt.path {
				t.Errorf("error %v is not a DecodeError for %s", err, tt.path)
			}
		})
	}
}
