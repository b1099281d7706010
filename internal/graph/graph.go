// Package graph aggregates per-file resolution results into forward and
// reverse adjacency maps. The graph is recomputed in full on every run:
// edges depend on resolution against the current file set, so per-file cache
// reuse never shortcuts this step.
package graph

import (
	"sort"

	"github.com/jward/trellis/internal/snapshot"
)

// Build constructs the bidirectional graph. indexed lists every indexed file;
// each gets a ReverseDeps entry even when nothing points at it. Local edge
// targets outside the indexed set (tracked assets) also receive an entry.
func Build(indexed []string, deps map[string]*snapshot.DepEntry) snapshot.Graph {
	g := snapshot.Graph{
		Deps:        make(map[string]*snapshot.DepEntry, len(deps)),
		ReverseDeps: make(map[string][]string, len(indexed)),
	}

	reverse := make(map[string]map[string]struct{}, len(indexed))
	for _, p := range indexed {
		reverse[p] = map[string]struct{}{}
	}

	for from, entry := range deps {
		g.Deps[from] = entry
		for _, to := range entry.Local {
			if reverse[to] == nil {
				reverse[to] = map[string]struct{}{}
			}
			reverse[to][from] = struct{}{}
		}
	}

	for p, importers := range reverse {
		sorted := make([]string, 0, len(importers))
		for imp := range importers {
			sorted = append(sorted, imp)
		}
		sort.Strings(sorted)
		g.ReverseDeps[p] = sorted
	}
	return g
}
