package versions

import "github.com/Masterminds/semver/v3"

// IsNewer reports whether candidate is a strictly greater semantic version than
// current. Values that are not semantic versions never compare as newer, so a
// missing or free-form version on either side yields false.
func IsNewer(candidate, current string) bool {
	c, err := semver.NewVersion(candidate)
	if err != nil {
		return false
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return c.GreaterThan(cur)
}
