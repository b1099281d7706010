package resolve

import (
	"path"
	"sort"
	"strings"

	"github.com/jward/trellis/internal/extract"
	"github.com/jward/trellis/internal/snapshot"
)

// Resolver classifies specifiers against a fixed tracked-file set and alias
// rule set, both captured once per run. Candidate existence is a pure probe
// of the tracked set; target files are never parsed or inspected.
type Resolver struct {
	tracked map[string]struct{}
	rules   []snapshot.AliasRule
}

// New builds a Resolver over the repository's tracked paths (slash-separated,
// repo-relative) and its alias rules.
func New(tracked []string, rules []snapshot.AliasRule) *Resolver {
	set := make(map[string]struct{}, len(tracked))
	for _, p := range tracked {
		set[p] = struct{}{}
	}
	return &Resolver{tracked: set, rules: rules}
}

// File resolves all of one file's specifiers, static and dynamic merged, into
// the three classified sets, each deduplicated and sorted.
func (r *Resolver) File(importer string, facts extract.Facts) *snapshot.DepEntry {
	local := map[string]struct{}{}
	unresolved := map[string]struct{}{}
	external := map[string]struct{}{}

	resolveOne := func(spec string) {
		if spec == "" {
			return
		}
		switch kind, value := r.classify(importer, spec); kind {
		case depLocal:
			local[value] = struct{}{}
		case depLocalUnresolved:
			unresolved[value] = struct{}{}
		case depExternal:
			external[value] = struct{}{}
		}
	}
	for _, spec := range facts.Static {
		resolveOne(spec)
	}
	for _, spec := range facts.Dynamic {
		resolveOne(spec)
	}

	return &snapshot.DepEntry{
		Local:           setToSorted(local),
		LocalUnresolved: setToSorted(unresolved),
		External:        setToSorted(external),
	}
}

type depKind int

const (
	depLocal depKind = iota
	depLocalUnresolved
	depExternal
)

// classify applies the resolution precedence: relative, root-absolute, alias,
// else external. Local candidates that fail the existence cascade come back
// as LOCAL_UNRESOLVED carrying the raw specifier.
func (r *Resolver) classify(importer, spec string) (depKind, string) {
	var candidate string
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		candidate = path.Join(path.Dir(importer), spec)
		if candidate == ".." || strings.HasPrefix(candidate, "../") {
			return depLocalUnresolved, spec
		}
	case strings.HasPrefix(spec, "/"):
		candidate = path.Clean(strings.TrimPrefix(spec, "/"))
	default:
		substituted, ok := ApplyAlias(r.rules, spec)
		if !ok {
			return depExternal, PackageIdentity(spec)
		}
		candidate = path.Clean(substituted)
	}

	if resolved, ok := r.probe(candidate); ok {
		return depLocal, resolved
	}
	return depLocalUnresolved, spec
}

// probe runs the existence cascade: a candidate that already carries an
// extension is tested as-is; otherwise each recognized extension is appended
// directly, then each is appended to candidate/index, in fixed order.
func (r *Resolver) probe(candidate string) (string, bool) {
	if path.Ext(candidate) != "" {
		_, ok := r.tracked[candidate]
		return candidate, ok
	}
	for _, k := range extract.Kinds {
		p := candidate + "." + k
		if _, ok := r.tracked[p]; ok {
			return p, true
		}
	}
	for _, k := range extract.Kinds {
		p := candidate + "/index." + k
		if _, ok := r.tracked[p]; ok {
			return p, true
		}
	}
	return "", false
}

// PackageIdentity reduces an external specifier to its package identity:
// scoped names keep the first two path segments, unscoped names the first.
func PackageIdentity(spec string) string {
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
