// Package semantic derives heuristic per-file signals: a coarse feature
// classification, inferred routes, vocabulary tags, and bounded literal
// extraction for endpoints, storage keys, and environment variables.
// Everything here is a pure function of (path, content, external packages);
// the heuristics are explicitly approximate.
package semantic

import (
	"path"
	"sort"
	"strings"

	"github.com/jward/trellis/internal/snapshot"
)

// Caps bound literal extraction per file. Scanning stops once a cap is hit.
const (
	maxEndpoints   = 25
	maxStorageKeys = 25
	maxEnvVars     = 40
)

// Facts derives all semantic facts for one file. externals are the file's
// external package identities; extraTags is the optional configured
// keyword→tag overlay, applied after the built-in vocabulary.
func Facts(filePath string, content []byte, externals []string, extraTags map[string]string) *snapshot.SemanticFacts {
	text := string(content)
	return &snapshot.SemanticFacts{
		Classification: Classify(filePath),
		Routes:         Routes(filePath),
		Tags:           Tags(filePath, text, externals, extraTags),
		Endpoints:      endpoints(text),
		StorageKeys:    storageKeys(text),
		EnvVars:        envVars(text),
	}
}

// pageDirs are the conventional page directories for route inference.
var pageDirs = []string{"pages/", "src/pages/"}

// Routes maps files under a page directory to "/" + base filename, with
// index collapsing to "/".
func Routes(filePath string) []string {
	routes := make([]string, 0, 1)
	for _, dir := range pageDirs {
		if !strings.HasPrefix(filePath, dir) {
			continue
		}
		base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
		if base == "index" {
			routes = append(routes, "/")
		} else {
			routes = append(routes, "/"+base)
		}
		break
	}
	return routes
}

// classifyRule binds an ordered path-prefix list to a classification.
type classifyRule struct {
	prefixes []string
	class    string
}

var classifyRules = []classifyRule{
	{[]string{"pages/", "src/pages/"}, "page"},
	{[]string{"components/", "src/components/"}, "component"},
	{[]string{"utils/", "src/utils/", "lib/", "src/lib/"}, "utility"},
	{[]string{"workers/", "src/workers/"}, "worker"},
}

// entryNames are the base filenames treated as application entry points when
// they sit at the repository root or directly under src/.
var entryNames = map[string]bool{"main": true, "index": true, "app": true}

// Classify returns the file's coarse architectural role. Rules are evaluated
// in order; the first match wins.
func Classify(filePath string) string {
	for _, rule := range classifyRules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(filePath, prefix) {
				return rule.class
			}
		}
	}
	dir := path.Dir(filePath)
	base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	if (dir == "." || dir == "src") && entryNames[strings.ToLower(base)] {
		return "entry"
	}
	return "module"
}

// tagRule maps a keyword found in the path or text to a tag.
type tagRule struct {
	keyword string
	tag     string
}

// tagVocabulary is matched case-insensitively against both the path and the
// full text. Substring matching trades precision for simplicity.
var tagVocabulary = []tagRule{
	{"auth", "auth"},
	{"login", "auth"},
	{"websocket", "websocket"},
	{"canvas", "canvas"},
	{"chart", "chart"},
	{"modal", "modal"},
	{"drag", "drag"},
	{"theme", "theme"},
	{"i18n", "i18n"},
	{"locale", "i18n"},
	{"upload", "upload"},
	{"download", "download"},
	{"search", "search"},
	{"router", "routing"},
	{"qrcode", "qrcode"},
	{"zip", "zip"},
	{"audio", "audio"},
	{"video", "video"},
	{"animation", "animation"},
	{"storage", "storage"},
	{"clipboard", "clipboard"},
	{"notification", "notification"},
	{"worker", "worker"},
	{"webgl", "3d"},
}

// packageTagRules contribute tags from declared external package identities
// via substring match.
var packageTagRules = []tagRule{
	{"flow", "flow"},
	{"qrcode", "qrcode"},
	{"qr-code", "qrcode"},
	{"zip", "zip"},
	{"chart", "chart"},
	{"three", "3d"},
	{"socket", "websocket"},
	{"axios", "http"},
	{"redux", "state"},
	{"zustand", "state"},
	{"i18n", "i18n"},
}

// Tags evaluates the keyword vocabulary against path and text, then the
// package rules against the external identities. Output is deduplicated in
// rule order.
func Tags(filePath, text string, externals []string, extraTags map[string]string) []string {
	lowerPath := strings.ToLower(filePath)
	lowerText := strings.ToLower(text)

	seen := map[string]struct{}{}
	tags := make([]string, 0, 4)
	add := func(tag string) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, rule := range tagVocabulary {
		if strings.Contains(lowerPath, rule.keyword) || strings.Contains(lowerText, rule.keyword) {
			add(rule.tag)
		}
	}

	// Configured overlay, in sorted keyword order for determinism.
	if len(extraTags) > 0 {
		keywords := make([]string, 0, len(extraTags))
		for k := range extraTags {
			keywords = append(keywords, k)
		}
		sort.Strings(keywords)
		for _, k := range keywords {
			kw := strings.ToLower(k)
			if strings.Contains(lowerPath, kw) || strings.Contains(lowerText, kw) {
				add(extraTags[k])
			}
		}
	}

	for _, rule := range packageTagRules {
		for _, pkg := range externals {
			if strings.Contains(strings.ToLower(pkg), rule.keyword) {
				add(rule.tag)
				break
			}
		}
	}
	return tags
}
