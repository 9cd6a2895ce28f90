// Package version compares filter grammar versions.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Current names the newest grammar the parser knows.
const Current = "current"

// Latest is the grammar version Current resolves to.
const Latest = "1.1"

// Compare returns -1, 0, or 1 based on comparing a vs b.
// "current" is always considered greater than any numeric version.
// Versions that are not valid semver sort after valid ones, then by string.
func Compare(a, b string) int {
	if a == Current && b == Current {
		return 0
	}
	if a == Current {
		return 1
	}
	if b == Current {
		return -1
	}

	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}

	if errA == nil {
		return -1
	}
	if errB == nil {
		return 1
	}

	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// GreaterOrEqual returns true if a >= b.
func GreaterOrEqual(a, b string) bool {
	return Compare(a, b) >= 0
}

// Validate checks that v is "current" or a released grammar version.
func Validate(v string) error {
	if v == Current {
		return nil
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid grammar version %q: %w", v, err)
	}
	if sv.GreaterThan(semver.MustParse(Latest)) {
		return fmt.Errorf("unknown grammar version %q (latest is %s)", v, Latest)
	}
	return nil
}
