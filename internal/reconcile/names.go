package reconcile

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// DefaultLocation is used when neither the config nor recorded state pins a
// region for a new resource group.
const DefaultLocation = "eastus"

// DefaultResourceGroupName derives the group name used when nothing pins one.
// The derivation is deterministic so repeated runs target the same group.
func DefaultResourceGroupName(appName, envName string) string {
	return snakeCase(appName) + "-" + envName + "-rg"
}

// snakeCase lowercases and joins words with underscores. Case boundaries and
// runs of non-alphanumeric characters both count as word breaks.
func snakeCase(s string) string {
	var out []rune
	var prev rune
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				out = append(out, '_')
			}
			out = append(out, unicode.ToLower(r))
		} else if len(out) > 0 && out[len(out)-1] != '_' {
			out = append(out, '_')
		}
		prev = r
	}
	return strings.Trim(string(out), "_")
}

// mintSuffix generates the per-environment resource name suffix: six hex
// characters, minted once and persisted, never re-derived.
func mintSuffix() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to mint resource name suffix: %w", err)
	}
	return hex.EncodeToString(b), nil
}
