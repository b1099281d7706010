package trellis

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jward/trellis/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a git repository in a temp dir.
func initRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = root
	require.NoError(t, cmd.Run(), "git init")
	return root
}

// writeTracked writes a file and stages it so git ls-files reports it.
func writeTracked(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cmd := exec.Command("git", "add", rel)
	cmd.Dir = root
	require.NoError(t, cmd.Run(), "git add %s", rel)
}

func newTestEngine(t *testing.T, root string, opts ...Option) *Engine {
	t.Helper()
	e, err := New(root, opts...)
	require.NoError(t, err)
	return e
}

func TestNew_RootValidation(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(file)
	require.Error(t, err)
}

func TestIndex_GitUnavailableIsFatal(t *testing.T) {
	// A plain directory with no repository: the tracked-file listing fails
	// and the run aborts with nothing written.
	root := t.TempDir()
	e := newTestEngine(t, root)

	_, err := e.Index(context.Background())
	require.Error(t, err)
	assert.NoFileExists(t, snapshot.IndexPath(root))
}

func TestIndex_EndToEnd(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, "pages/home.ts", `
import { formatDate } from "../utils/fmt";
export default function Home() { return formatDate(new Date()); }
`)
	writeTracked(t, root, "utils/fmt.ts", `
export function formatDate(d: Date): string { return d.toISOString(); }
`)

	e := newTestEngine(t, root)
	snap, err := e.Index(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Files, 2)
	assert.Equal(t, []string{"utils/fmt.ts"}, snap.Graph.Deps["pages/home.ts"].Local)
	assert.Equal(t, []string{"pages/home.ts"}, snap.Graph.ReverseDeps["utils/fmt.ts"])
	assert.Equal(t, []string{"formatDate"}, snap.Files["utils/fmt.ts"].Exports.Named)
	assert.Equal(t, []string{"/home"}, snap.Files["pages/home.ts"].Semantic.Routes)
	assert.True(t, snap.Files["pages/home.ts"].Exports.Default)
	assert.Equal(t, "page", snap.Files["pages/home.ts"].Semantic.Classification)

	// Snapshot and digest persisted.
	assert.FileExists(t, snapshot.IndexPath(root))
	assert.FileExists(t, filepath.Join(root, snapshot.MetaDir, "index.md"))
}

func TestIndex_UntrackedFilesExcluded(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, "a.ts", `export const a = 1;`)
	// On disk but never staged.
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.ts"), []byte("export const b = 1;"), 0o644))

	e := newTestEngine(t, root)
	snap, err := e.Index(context.Background())
	require.NoError(t, err)

	assert.Contains(t, snap.Files, "a.ts")
	assert.NotContains(t, snap.Files, "b.ts")
}

func TestIndex_UnresolvedStaysLocal(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, "a.ts", `
import { gone } from "./missing";
import debounce from "lodash/debounce";
`)

	e := newTestEngine(t, root)
	snap, err := e.Index(context.Background())
	require.NoError(t, err)

	deps := snap.Graph.Deps["a.ts"]
	assert.Empty(t, deps.Local)
	assert.Equal(t, []string{"./missing"}, deps.LocalUnresolved)
	assert.Equal(t, []string{"lodash"}, deps.External)
}

func TestIndex_AliasFromTSConfig(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, "tsconfig.json", `{"compilerOptions":{"paths":{"@app/*":["./src/*"]}}}`)
	writeTracked(t, root, "src/widgets/button.tsx", `export const Button = () => <button/>;`)
	writeTracked(t, root, "src/main.ts", `import { Button } from "@app/widgets/button";`)

	e := newTestEngine(t, root)
	snap, err := e.Index(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"src/widgets/button.tsx"}, snap.Graph.Deps["src/main.ts"].Local)
	require.Len(t, snap.AliasRules, 1)
	assert.Equal(t, "@app/*", snap.AliasRules[0].Pattern)
}

func TestIndex_CacheCarriesUnchangedRecords(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, "utils/fmt.ts", `export function formatDate() {}`)

	e := newTestEngine(t, root)
	_, err := e.Index(context.Background())
	require.NoError(t, err)

	// Tamper with the persisted record: if the second run carries it
	// verbatim, the marker survives; if it re-extracts, the marker is lost.
	prior, err := snapshot.LoadIndex(root)
	require.NoError(t, err)
	prior.Files["utils/fmt.ts"].Semantic.Tags = []string{"carry-marker"}
	require.NoError(t, snapshot.WriteIndex(root, prior))

	snap, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"carry-marker"}, snap.Files["utils/fmt.ts"].Semantic.Tags)
}

func TestIndex_SchemaBumpInvalidatesCache(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, "utils/fmt.ts", `export function formatDate() {}`)

	e := newTestEngine(t, root)
	_, err := e.Index(context.Background())
	require.NoError(t, err)

	prior, err := snapshot.LoadIndex(root)
	require.NoError(t, err)
	prior.SchemaVersion = snapshot.IndexSchemaVersion - 1
	prior.Files["utils/fmt.ts"].Semantic.Tags = []string{"carry-marker"}
	require.NoError(t, snapshot.WriteIndex(root, prior))

	snap, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, snap.Files["utils/fmt.ts"].Semantic.Tags, "carry-marker")
}

func TestIndex_ChangedContentReextracted(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, "a.ts", `export const one = 1;`)

	e := newTestEngine(t, root)
	first, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, first.Files["a.ts"].Exports.Named)

	writeTracked(t, root, "a.ts", `export const two = 2;`)
	second, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, second.Files["a.ts"].Exports.Named)
	assert.NotEqual(t, first.Files["a.ts"].Hash, second.Files["a.ts"].Hash)
}

func TestIndex_ForceIgnoresPrior(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, "a.ts", `export const a = 1;`)

	e := newTestEngine(t, root)
	_, err := e.Index(context.Background())
	require.NoError(t, err)

	prior, err := snapshot.LoadIndex(root)
	require.NoError(t, err)
	prior.Files["a.ts"].Semantic.Tags = []string{"carry-marker"}
	require.NoError(t, snapshot.WriteIndex(root, prior))

	forced := newTestEngine(t, root, WithForce(true))
	snap, err := forced.Index(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, snap.Files["a.ts"].Semantic.Tags, "carry-marker")
}

func TestIndex_Deterministic(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, "pages/home.ts", `import "../utils/fmt";`)
	writeTracked(t, root, "utils/fmt.ts", `export function formatDate() {}`)

	e := newTestEngine(t, root)
	first, err := e.Index(context.Background())
	require.NoError(t, err)
	second, err := e.Index(context.Background())
	require.NoError(t, err)

	// Byte-identical apart from the generation timestamp.
	first.GeneratedAt = time.Time{}
	second.GeneratedAt = time.Time{}
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestIndex_ConfigExcludes(t *testing.T) {
	root := initRepo(t)
	writeTracked(t, root, ".trellis.toml", `
[discovery]
exclude = ["**/*.stories.tsx"]
`)
	writeTracked(t, root, "src/button.tsx", `export const Button = 1;`)
	writeTracked(t, root, "src/button.stories.tsx", `export const Story = 1;`)

	e := newTestEngine(t, root)
	snap, err := e.Index(context.Background())
	require.NoError(t, err)

	assert.Contains(t, snap.Files, "src/button.tsx")
	assert.NotContains(t, snap.Files, "src/button.stories.tsx")
	// Excluded files stay in the tracked count used for resolution.
	assert.Equal(t, 3, snap.TrackedCount)
}

func TestDescribe_RequiresIndex(t *testing.T) {
	root := initRepo(t)
	e := newTestEngine(t, root)
	_, err := e.Describe(context.Background())
	require.Error(t, err)
}
