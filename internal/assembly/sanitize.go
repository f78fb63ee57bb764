package assembly

import "strings"

// Sanitize normalizes a requested assembly reference into the identity
// string format produced by IndexStrings and also returns its bare name.
//
// Recognised attributes are Version, Culture and PublicKeyToken (keys are
// matched case-insensitively, in any order). Other attributes such as
// processorArchitecture are ignored, as is a version that does not parse.
func Sanitize(id string) (sanitized string, name string) {
	sections := strings.Split(id, ",")
	name = strings.TrimSpace(sections[0])

	var (
		version Version
		culture string
		token   string
	)
	for _, section := range sections[1:] {
		key, value, ok := strings.Cut(section, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "version":
			if parsed, err := ParseVersion(value); err == nil {
				version = parsed
			}
		case "culture":
			culture = value
		case "publickeytoken":
			token = strings.ToLower(value)
		}
	}
	return formatID(name, version, culture, token), name
}
