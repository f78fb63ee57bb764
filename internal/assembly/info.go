package assembly

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// NeutralCulture is the culture recorded for assemblies without one.
	NeutralCulture = "neutral"
	// NullPublicKeyToken is the token recorded for unsigned assemblies.
	NullPublicKeyToken = "null"
)

// Info is the identity metadata of one assembly file. Values are not
// modified after ReadFromFile returns them.
type Info struct {
	Name           string
	Version        Version
	Culture        string
	PublicKeyToken string
	// TargetFramework is the TargetFrameworkAttribute moniker, e.g.
	// ".NETCoreApp,Version=v8.0". Empty when the attribute is absent.
	TargetFramework string
	// NetCoreVersion is the version taken from a .NETCoreApp moniker.
	NetCoreVersion Version
	Path           string
}

// String returns the display name, e.g.
// "System.Runtime, Version=8.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a".
func (i *Info) String() string {
	return formatID(i.Name, i.Version, i.Culture, i.PublicKeyToken)
}

// IndexStrings returns every identity string the assembly answers to, from
// the most to the least qualified. The last entry is the case-folded name.
func (i *Info) IndexStrings() []string {
	var ids []string
	seen := make(map[string]struct{}, 6)
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if !i.Version.IsZero() {
		if i.Culture != "" {
			if i.PublicKeyToken != "" {
				add(formatID(i.Name, i.Version, i.Culture, i.PublicKeyToken))
			}
			add(formatID(i.Name, i.Version, i.Culture, ""))
		}
		if i.PublicKeyToken != "" {
			add(formatID(i.Name, i.Version, "", i.PublicKeyToken))
		}
		add(formatID(i.Name, i.Version, "", ""))
	}
	add(i.Name)
	add(FoldName(i.Name))
	return ids
}

// FoldName lower-cases an assembly name using culture-invariant rules. The
// bare-name fallback index is keyed by this form.
func FoldName(name string) string {
	// A Caser holds state, so one is built per call.
	return cases.Lower(language.Und).String(name)
}

// formatID renders a display name. The neutral culture is always written in
// lower case so references match records regardless of how they spell it.
func formatID(name string, version Version, culture, token string) string {
	if strings.EqualFold(culture, NeutralCulture) {
		culture = NeutralCulture
	}
	var b strings.Builder
	b.WriteString(name)
	if !version.IsZero() {
		b.WriteString(", Version=")
		b.WriteString(version.String())
	}
	if culture != "" {
		b.WriteString(", Culture=")
		b.WriteString(culture)
	}
	if token != "" {
		b.WriteString(", PublicKeyToken=")
		b.WriteString(token)
	}
	return b.String()
}
