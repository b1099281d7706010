// Package resolve turns raw import specifiers into local paths, unresolved
// locals, or external package identities, using project alias rules and the
// tracked-file set.
package resolve

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jward/trellis/internal/snapshot"
)

// configNames are tried in order; the first readable file wins.
var configNames = []string{"tsconfig.json", "jsconfig.json"}

// LoadAliases reads the project configuration once and extracts the
// wildcard-suffixed alias rules in declaration order. A missing or malformed
// configuration yields an empty rule set, never an error.
func LoadAliases(root string) []snapshot.AliasRule {
	for _, name := range configNames {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		if rules := parseAliasRules(data); rules != nil {
			return rules
		}
	}
	return nil
}

func parseAliasRules(data []byte) []snapshot.AliasRule {
	var shape struct {
		CompilerOptions struct {
			Paths json.RawMessage `json:"paths"`
		} `json:"compilerOptions"`
	}
	if err := json.Unmarshal(stripJSONC(data), &shape); err != nil {
		return nil
	}
	if len(shape.CompilerOptions.Paths) == 0 {
		return nil
	}

	// Decode the paths object token by token so rule precedence follows
	// declaration order, which a map decode would scramble.
	dec := json.NewDecoder(bytes.NewReader(shape.CompilerOptions.Paths))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var rules []snapshot.AliasRule
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		pattern, ok := keyTok.(string)
		if !ok {
			return nil
		}
		var targets []string
		if err := dec.Decode(&targets); err != nil {
			return nil
		}
		if strings.HasSuffix(pattern, "/*") && len(targets) > 0 {
			rules = append(rules, snapshot.AliasRule{Pattern: pattern, Targets: targets})
		}
	}
	return rules
}

// ApplyAlias substitutes spec through the first matching rule. Only the
// rule's first candidate target is consulted; later candidates are ignored
// on purpose. Returns ("", false) when no rule matches.
func ApplyAlias(rules []snapshot.AliasRule, spec string) (string, bool) {
	for _, rule := range rules {
		prefix := strings.TrimSuffix(rule.Pattern, "*")
		if !strings.HasPrefix(spec, prefix) {
			continue
		}
		suffix := strings.TrimPrefix(spec, prefix)
		target := rule.Targets[0]
		switch {
		case target == "./*":
			return suffix, true
		case strings.HasSuffix(target, "/*"):
			base := strings.TrimPrefix(strings.TrimSuffix(target, "/*"), "./")
			return base + "/" + suffix, true
		default:
			return strings.TrimPrefix(target, "./"), true
		}
	}
	return "", false
}

// stripJSONC removes // and /* */ comments plus trailing commas so the
// JSONC dialect used by tsconfig files survives a strict JSON decode.
func stripJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				i++
				out = append(out, data[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		case c == ',':
			// Drop the comma if the next significant byte closes the scope.
			j := i + 1
			for j < len(data) && (data[j] == ' ' || data[j] == '\t' || data[j] == '\n' || data[j] == '\r') {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}
