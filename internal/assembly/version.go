package assembly

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a two to four component assembly version. Components beyond the
// parsed count are undefined and order before zero, so 1.0 < 1.0.0 < 1.0.0.0.
// The zero value is an undefined version.
type Version struct {
	Major    int
	Minor    int
	Build    int
	Revision int
	parts    int
}

// NewVersion returns a fully specified four component version.
func NewVersion(major, minor, build, revision int) Version {
	return Version{Major: major, Minor: minor, Build: build, Revision: revision, parts: 4}
}

// ParseVersion parses "major.minor[.build[.revision]]".
func ParseVersion(value string) (Version, error) {
	value = strings.TrimSpace(value)
	fields := strings.Split(value, ".")
	if len(fields) < 2 || len(fields) > 4 {
		return Version{}, fmt.Errorf("version %q: expected 2 to 4 components", value)
	}
	nums := make([]int, 4)
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("version %q: invalid component %q", value, field)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Build: nums[2], Revision: nums[3], parts: len(fields)}, nil
}

// IsZero reports whether the version is undefined.
func (v Version) IsZero() bool {
	return v.parts == 0
}

func (v Version) component(i int) int {
	if i >= v.parts {
		return -1
	}
	switch i {
	case 0:
		return v.Major
	case 1:
		return v.Minor
	case 2:
		return v.Build
	default:
		return v.Revision
	}
}

// Compare orders versions component by component. Undefined versions sort
// before every defined version.
func (v Version) Compare(other Version) int {
	if v.IsZero() || other.IsZero() {
		switch {
		case v.IsZero() && other.IsZero():
			return 0
		case v.IsZero():
			return -1
		default:
			return 1
		}
	}
	for i := 0; i < 4; i++ {
		a, b := v.component(i), other.component(i)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

// String renders the defined components joined by dots, or "" when undefined.
func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	parts := make([]string, 0, v.parts)
	for i := 0; i < v.parts; i++ {
		parts = append(parts, strconv.Itoa(v.component(i)))
	}
	return strings.Join(parts, ".")
}
