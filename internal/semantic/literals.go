package semantic

import "regexp"

var (
	endpointRe = regexp.MustCompile("[\"'`](https?://[^\"'`\\s]+|/api/[^\"'`\\s]*)[\"'`]")
	storageRe  = regexp.MustCompile(`(?:localStorage|sessionStorage)\.(?:getItem|setItem|removeItem)\(\s*["']([^"']+)["']`)
	envRe      = regexp.MustCompile(`(?:process\.env|import\.meta\.env)\.([A-Za-z_][A-Za-z0-9_]*)`)
)

// endpoints collects HTTP(S) and /api/ string literals in document order,
// stopping at the cap.
func endpoints(text string) []string {
	return capturedLiterals(endpointRe, text, maxEndpoints)
}

// storageKeys collects keys passed to get/set/remove-style storage accessors.
func storageKeys(text string) []string {
	return capturedLiterals(storageRe, text, maxStorageKeys)
}

// envVars collects identifiers read through the two recognized environment
// access idioms.
func envVars(text string) []string {
	return capturedLiterals(envRe, text, maxEnvVars)
}

// capturedLiterals returns the first capture group of each match,
// deduplicated in document order, scanning no further once limit distinct
// values have been recorded.
func capturedLiterals(re *regexp.Regexp, text string, limit int) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 8)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		val := m[1]
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
		if len(out) >= limit {
			break
		}
	}
	return out
}
