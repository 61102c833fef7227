// Package versions compares GBFS specification versions such as "2.3" or "3.0-RC2".
package versions

import "github.com/Masterminds/semver/v3"

// IsNewerVersion reports whether newVersion is strictly greater than oldVersion.
// It uses semantic versioning for comparison when both strings are valid semver,
// and falls back to lexicographic string comparison otherwise.
func IsNewerVersion(newVersion, oldVersion string) bool {
	newSemver, errNew := semver.NewVersion(newVersion)
	oldSemver, errOld := semver.NewVersion(oldVersion)

	if errNew != nil || errOld != nil {
		return newVersion > oldVersion
	}

	return newSemver.GreaterThan(oldSemver)
}

// AtLeast reports whether version is minimum or newer
func AtLeast(version, minimum string) bool {
	if version == minimum {
		return true
	}
	v, errV := semver.NewVersion(version)
	m, errM := semver.NewVersion(minimum)
	if errV != nil || errM != nil {
		return version > minimum
	}
	return !v.LessThan(m)
}

// Latest returns the newest of versions, or "" when there is none
func Latest(versions []string) string {
	latest := ""
	for _, v := range versions {
		if latest == "" || IsNewerVersion(v, latest) {
			latest = v
		}
	}
	return latest
}
