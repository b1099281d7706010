package trellis

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jward/trellis/internal/config"
	"github.com/jward/trellis/internal/describe"
	"github.com/jward/trellis/internal/extract"
	"github.com/jward/trellis/internal/graph"
	"github.com/jward/trellis/internal/resolve"
	"github.com/jward/trellis/internal/semantic"
	"github.com/jward/trellis/internal/snapshot"
)

// Engine orchestrates one batch run over a repository: discovery, hash-gated
// extraction, alias and import resolution, graph construction, semantic
// tagging, and snapshot emission. Processing is strictly sequential, one
// file at a time; the only shared mutable state is the snapshot being built.
type Engine struct {
	root  string
	cfg   config.Config
	log   *slog.Logger
	force bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithForce disables incremental reuse: every file is re-extracted and every
// description regenerated regardless of the prior snapshot.
func WithForce(force bool) Option {
	return func(e *Engine) { e.force = force }
}

// New creates an Engine rooted at the given repository directory. The
// optional .trellis.toml is loaded here; a malformed file degrades to
// defaults with a warning.
func New(root string, opts ...Option) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("root not found: %s", abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", abs)
	}

	e := &Engine{root: abs, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	cfg, err := config.Load(abs)
	if err != nil {
		e.log.Warn("run config unreadable, using defaults", "file", config.FileName, "error", err)
	}
	e.cfg = cfg
	return e, nil
}

// Root returns the absolute repository root.
func (e *Engine) Root() string { return e.root }

// Index performs one full run and atomically replaces the persisted snapshot
// and digest. The prior snapshot is consulted only for per-file reuse;
// the dependency graph is always recomputed against the current file set.
func (e *Engine) Index(ctx context.Context) (*IndexSnapshot, error) {
	tracked, err := e.trackedFiles(ctx)
	if err != nil {
		return nil, err
	}
	indexed := e.indexedSubset(tracked)

	var prior *snapshot.IndexSnapshot
	if !e.force {
		prior, _ = snapshot.LoadIndex(e.root)
	}

	rules := resolve.LoadAliases(e.root)
	resolver := resolve.New(tracked, rules)

	snap := &snapshot.IndexSnapshot{
		SchemaVersion: snapshot.IndexSchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Root:          e.root,
		AliasRules:    rules,
		TrackedCount:  len(tracked),
		Files:         make(map[string]*snapshot.FileRecord, len(indexed)),
	}

	reused := 0
	for _, path := range indexed {
		rec, carried, err := e.fileRecord(ctx, prior, path)
		if err != nil {
			return nil, err
		}
		if carried {
			reused++
		}
		snap.Files[path] = rec
	}

	deps := make(map[string]*snapshot.DepEntry, len(indexed))
	for _, path := range indexed {
		rec := snap.Files[path]
		deps[path] = resolver.File(path, extract.Facts{
			Static:  rec.Imports.Static,
			Dynamic: rec.Imports.Dynamic,
		})
	}
	snap.Graph = graph.Build(indexed, deps)

	if err := snapshot.WriteIndex(e.root, snap); err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}
	e.log.Info("index complete",
		"files", len(indexed), "tracked", len(tracked), "reused", reused)
	return snap, nil
}

// fileRecord returns the record for one file, carrying the prior record
// verbatim when the content hash and schema version allow it.
func (e *Engine) fileRecord(ctx context.Context, prior *snapshot.IndexSnapshot, path string) (*snapshot.FileRecord, bool, error) {
	content, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(path)))
	if err != nil {
		// A tracked file that cannot be read fails the whole run; no
		// partial snapshot is ever written.
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	hash := snapshot.HashBytes(content)

	if prior != nil {
		if old := prior.Files[path]; snapshot.Carryable(prior, old, hash) {
			e.log.Debug("carried", "path", path)
			return old, true, nil
		}
	}

	kind, _ := extract.KindForPath(path)
	rec := &snapshot.FileRecord{
		Path: path,
		Kind: kind,
		Size: len(content),
		Hash: hash,
	}

	facts, err := extract.File(ctx, path, content)
	if err != nil {
		// Malformed source degrades to an empty-facts record rather than
		// aborting the run; the file stays visible in output with no edges.
		e.log.Warn("parse failed, recording empty facts", "path", path, "error", err)
		facts = extract.Facts{}
	}
	rec.Imports = snapshot.ImportFacts{Static: facts.Static, Dynamic: facts.Dynamic}
	rec.Exports = snapshot.ExportFacts{Named: facts.Named, Default: facts.Default}

	var externals []string
	for _, spec := range append(append([]string{}, facts.Static...), facts.Dynamic...) {
		if !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/") {
			externals = append(externals, resolve.PackageIdentity(spec))
		}
	}
	rec.Semantic = semantic.Facts(path, content, externals, e.cfg.Semantic.ExtraTags)

	return rec, false, nil
}

// Describe runs the second pass: it loads the persisted snapshot and the
// prior description set, regenerates descriptions for changed files, carries
// the rest, and atomically replaces the description files.
func (e *Engine) Describe(ctx context.Context) (*DescriptionSet, error) {
	_ = ctx
	snap, err := snapshot.LoadIndex(e.root)
	if err != nil || snap == nil {
		return nil, fmt.Errorf("no index snapshot under %s; run index first", filepath.Join(e.root, snapshot.MetaDir))
	}

	var prior *snapshot.DescriptionSet
	if !e.force {
		prior, _ = snapshot.LoadDescriptions(e.root)
	}

	set := describe.Set(snap, prior, time.Now().UTC())
	if err := snapshot.WriteDescriptions(e.root, set); err != nil {
		return nil, fmt.Errorf("writing descriptions: %w", err)
	}

	fresh := 0
	for _, rec := range set.Files {
		if rec.CarriedFrom == nil {
			fresh++
		}
	}
	e.log.Info("describe complete", "files", len(set.Files), "generated", fresh)
	return set, nil
}

// trackedFiles returns the version-control-tracked path set, slash-separated
// and repo-relative. The tracking system being unavailable is fatal: without
// the authoritative file set no correct snapshot can be built.
func (e *Engine) trackedFiles(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "-z")
	cmd.Dir = e.root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("git ls-files: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, entry := range strings.Split(stdout.String(), "\x00") {
		if entry == "" {
			continue
		}
		paths = append(paths, filepath.ToSlash(entry))
	}
	sort.Strings(paths)
	return paths, nil
}

// indexedSubset filters the tracked set to recognized source kinds minus
// configured excludes.
func (e *Engine) indexedSubset(tracked []string) []string {
	indexed := make([]string, 0, len(tracked))
	for _, path := range tracked {
		if !extract.HasRecognizedExt(path) {
			continue
		}
		if e.cfg.Excluded(path) {
			continue
		}
		indexed = append(indexed, path)
	}
	return indexed
}
