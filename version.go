package gpchw

import (
	"fmt"
	"strings"
)

// Version is a plate firmware or hardware revision.
// Minor and Patch are -1 when the revision string does not carry them.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses "X.Y.Z", "X.Y" or "X". Trailing text after the last
// number is ignored, so "2.1.0-beta" parses as {2, 1, 0}.
func ParseVersion(s string) (Version, error) {
	v := Version{Minor: -1, Patch: -1}
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch); err != nil {
		v.Minor, v.Patch = -1, -1
		if _, err = fmt.Sscanf(s, "%d.%d", &v.Major, &v.Minor); err != nil {
			v.Minor = -1
			if _, err = fmt.Sscanf(s, "%d", &v.Major); err != nil {
				return Version{}, fmt.Errorf("%w: bad version %q: %v", ErrValidation, s, err)
			}
		}
	}
	if v.Major < 0 || v.Minor < -1 || v.Patch < -1 {
		return Version{}, fmt.Errorf("%w: bad version %q", ErrValidation, s)
	}
	return v, nil
}

// ParseRevision parses a revision as reported by a plate, e.g. "1.03",
// "Rev 2.1" or "FW 1.0".
func ParseRevision(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		s = s[i+1:]
	}
	return ParseVersion(strings.TrimPrefix(strings.ToLower(s), "v"))
}

// Compare returns -1, 0 or 1 when v is older than, equal to or newer than
// other.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpInt(v.Minor, other.Minor)
	}
	return cmpInt(v.Patch, other.Patch)
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// String omits components that were not present when parsing.
func (v Version) String() string {
	if v.Patch != -1 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != -1 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d", v.Major)
}
