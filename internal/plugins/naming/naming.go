// Package naming derives cloud resource names. Every derivation is a pure
// function of the app name, the environment name, and the per-environment
// suffix, so repeated provisioning runs always target the same resources.
package naming

import (
	"strings"
	"unicode"
)

// Resource builds the default name for one resource kind:
// <app>-<env>-<kind>-<suffix>.
func Resource(appName, envName, kind, suffix string) string {
	return strings.Join([]string{Compact(appName), envName, kind, suffix}, "-")
}

// DisplayName builds the directory display name for an app identity.
func DisplayName(appName, envName string) string {
	return appName + "-" + envName
}

// StorageAccount builds a storage account name: lowercase letters and digits
// only, at most 24 characters. The suffix always survives truncation since it
// is what keeps names globally unique.
func StorageAccount(appName, envName, suffix string) string {
	const maxLen = 24
	name := Compact(appName) + Compact(envName) + "st" + suffix
	if len(name) <= maxLen {
		return name
	}
	return name[:maxLen-len(suffix)] + suffix
}

// Compact lowercases and strips everything but letters and digits.
func Compact(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
