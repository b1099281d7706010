// Package describe synthesizes short per-file summaries from the index
// snapshot. Generation is templated by feature classification and cached
// independently of the index under its own schema version.
package describe

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jward/trellis/internal/snapshot"
)

// Clause item limits for the fixed description template.
const (
	maxNamedExports = 6
	maxExternalDeps = 6
	maxLocalDeps    = 4
	maxRoutes       = 3
	maxTags         = 8
	maxEndpoints    = 2
	maxStorageKeys  = 2
	maxEnvVars      = 4
)

// Set produces the description set for a snapshot. Files whose hash matches
// a prior record (under a matching schema version) carry the prior
// description with provenance; everything else is freshly generated and
// flagged for review.
func Set(snap *snapshot.IndexSnapshot, prior *snapshot.DescriptionSet, now time.Time) *snapshot.DescriptionSet {
	out := &snapshot.DescriptionSet{
		SchemaVersion: snapshot.DescriptionSchemaVersion,
		GeneratedAt:   now,
		Files:         make(map[string]*snapshot.DescriptionRecord, len(snap.Files)),
	}

	paths := make([]string, 0, len(snap.Files))
	for p := range snap.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		rec := snap.Files[path]
		if priorRec := carryable(prior, path, rec.Hash); priorRec != nil {
			carried := *priorRec
			if carried.CarriedFrom == nil {
				from := prior.GeneratedAt
				carried.CarriedFrom = &from
			}
			out.Files[path] = &carried
			continue
		}
		out.Files[path] = &snapshot.DescriptionRecord{
			Path:           path,
			Hash:           rec.Hash,
			Classification: classification(rec),
			Description:    Render(rec, snap.Graph.Deps[path]),
			NeedsReview:    true,
		}
	}
	return out
}

// carryable returns the prior record usable for the given hash, or nil.
func carryable(prior *snapshot.DescriptionSet, path, hash string) *snapshot.DescriptionRecord {
	if prior == nil || prior.SchemaVersion != snapshot.DescriptionSchemaVersion {
		return nil
	}
	rec := prior.Files[path]
	if rec == nil || rec.Hash != hash || rec.Description == "" {
		return nil
	}
	return rec
}

func classification(rec *snapshot.FileRecord) string {
	if rec.Semantic == nil {
		return "module"
	}
	return rec.Semantic.Classification
}

// openings keys the template's first clause by feature classification.
var openings = map[string]string{
	"page":      "Page component",
	"component": "UI component",
	"utility":   "Utility module",
	"worker":    "Background worker",
	"entry":     "Application entry point",
	"module":    "Module",
}

// Render composes the fixed-template description: opening clause, exports
// summary, dependency summary, and an optional semantic clause.
func Render(rec *snapshot.FileRecord, deps *snapshot.DepEntry) string {
	class := classification(rec)
	opening, ok := openings[class]
	if !ok {
		opening = openings["module"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s.", opening, rec.Path)

	b.WriteString(" Exports: ")
	b.WriteString(exportsClause(rec.Exports))
	b.WriteString(".")

	if clause := depsClause(deps); clause != "" {
		b.WriteString(" ")
		b.WriteString(clause)
	}
	if clause := semanticClause(rec.Semantic); clause != "" {
		b.WriteString(" ")
		b.WriteString(clause)
	}
	return b.String()
}

func exportsClause(exp snapshot.ExportFacts) string {
	if len(exp.Named) == 0 && !exp.Default {
		return "none detected"
	}
	clause := strings.Join(truncate(exp.Named, maxNamedExports), ", ")
	if exp.Default {
		if clause == "" {
			return "default"
		}
		clause += " (+default)"
	}
	return clause
}

func depsClause(deps *snapshot.DepEntry) string {
	if deps == nil {
		return ""
	}
	var parts []string
	if len(deps.External) > 0 {
		parts = append(parts, "packages "+strings.Join(truncate(deps.External, maxExternalDeps), ", "))
	}
	if len(deps.Local) > 0 {
		parts = append(parts, "local modules "+strings.Join(truncate(deps.Local, maxLocalDeps), ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Depends on " + strings.Join(parts, " and ") + "."
}

func semanticClause(sem *snapshot.SemanticFacts) string {
	if sem == nil {
		return ""
	}
	var parts []string
	if len(sem.Routes) > 0 {
		parts = append(parts, "routes "+strings.Join(truncate(sem.Routes, maxRoutes), ", "))
	}
	if len(sem.Tags) > 0 {
		parts = append(parts, "tags "+strings.Join(truncate(sem.Tags, maxTags), ", "))
	}
	if len(sem.Endpoints) > 0 {
		parts = append(parts, "endpoints "+strings.Join(truncate(sem.Endpoints, maxEndpoints), ", "))
	}
	if len(sem.StorageKeys) > 0 {
		parts = append(parts, "storage keys "+strings.Join(truncate(sem.StorageKeys, maxStorageKeys), ", "))
	}
	if len(sem.EnvVars) > 0 {
		parts = append(parts, "env vars "+strings.Join(truncate(sem.EnvVars, maxEnvVars), ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Involves " + strings.Join(parts, "; ") + "."
}

func truncate(in []string, n int) []string {
	if len(in) <= n {
		return in
	}
	return in[:n]
}
