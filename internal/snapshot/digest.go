package snapshot

import (
	"fmt"
	"sort"
	"strings"
)

// RenderIndexDigest produces the condensed human-readable view of a snapshot:
// top tags, per-directory file counts, most-referenced files, alias rules.
func RenderIndexDigest(snap *IndexSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Index digest\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", snap.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Files indexed: %d (of %d tracked)\n", len(snap.Files), snap.TrackedCount)

	tagCounts := map[string]int{}
	dirCounts := map[string]int{}
	for path, rec := range snap.Files {
		dirCounts[topDir(path)]++
		if rec.Semantic == nil {
			continue
		}
		for _, tag := range rec.Semantic.Tags {
			tagCounts[tag]++
		}
	}

	b.WriteString("\n## Top tags\n\n")
	if len(tagCounts) == 0 {
		b.WriteString("(none)\n")
	}
	for _, kv := range topCounts(tagCounts, 15) {
		fmt.Fprintf(&b, "- %s (%d)\n", kv.key, kv.count)
	}

	b.WriteString("\n## Files by directory\n\n")
	for _, kv := range sortedCounts(dirCounts) {
		fmt.Fprintf(&b, "- %s: %d\n", kv.key, kv.count)
	}

	refCounts := map[string]int{}
	for path, refs := range snap.Graph.ReverseDeps {
		refCounts[path] = len(refs)
	}
	b.WriteString("\n## Most referenced\n\n")
	top := topCounts(refCounts, 10)
	listed := 0
	for _, kv := range top {
		if kv.count == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s (%d importers)\n", kv.key, kv.count)
		listed++
	}
	if listed == 0 {
		b.WriteString("(none)\n")
	}

	b.WriteString("\n## Alias rules\n\n")
	if len(snap.AliasRules) == 0 {
		b.WriteString("(none)\n")
	}
	for _, rule := range snap.AliasRules {
		fmt.Fprintf(&b, "- `%s` -> `%s`\n", rule.Pattern, strings.Join(rule.Targets, "`, `"))
	}

	return b.String()
}

// RenderDescriptionDigest produces the condensed view of the description set.
func RenderDescriptionDigest(set *DescriptionSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# File descriptions\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", set.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	paths := make([]string, 0, len(set.Files))
	needReview := 0
	for path, rec := range set.Files {
		paths = append(paths, path)
		if rec.NeedsReview {
			needReview++
		}
	}
	sort.Strings(paths)
	fmt.Fprintf(&b, "Files described: %d (%d pending review)\n\n", len(paths), needReview)

	for _, path := range paths {
		rec := set.Files[path]
		marker := ""
		if rec.NeedsReview {
			marker = " *(review)*"
		}
		fmt.Fprintf(&b, "- **%s** [%s]%s — %s\n", path, rec.Classification, marker, rec.Description)
	}
	return b.String()
}

type countEntry struct {
	key   string
	count int
}

// sortedCounts orders entries by key for stable directory listings.
func sortedCounts(m map[string]int) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, v := range m {
		out = append(out, countEntry{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// topCounts orders entries by descending count, ties broken by key, capped at n.
func topCounts(m map[string]int, n int) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, v := range m {
		out = append(out, countEntry{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topDir(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i] + "/"
	}
	return "./"
}
