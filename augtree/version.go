package augtree

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a three-part engine version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion reads versions of the form "1.12.0". A missing patch
// component defaults to zero and trailing distribution suffixes are ignored,
// so "1.2" and "1.12.0-2ubuntu1" both parse.
func ParseVersion(s string) (Version, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ".", 3)
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("malformed engine version %q", s)
	}
	var nums [3]int
	for i, part := range parts {
		digits := part
		for j, r := range part {
			if r < '0' || r > '9' {
				digits = part[:j]
				break
			}
		}
		if digits == "" {
			if i < 2 {
				return Version{}, fmt.Errorf("malformed engine version %q", s)
			}
			break
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return Version{}, fmt.Errorf("malformed engine version %q", s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// AtLeast reports whether v is min or newer.
func (v Version) AtLeast(min Version) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	if v.Minor != min.Minor {
		return v.Minor > min.Minor
	}
	return v.Patch >= min.Patch
}

// String returns the dotted form, "1.12.0".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
