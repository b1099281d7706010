package resolve

import (
	"testing"

	"github.com/jward/trellis/internal/extract"
	"github.com/jward/trellis/internal/snapshot"
	"github.com/stretchr/testify/assert"
)

func TestClassify_RelativeCascade(t *testing.T) {
	r := New([]string{"pages/a.js"}, nil)
	kind, value := r.classify("pages/b.ts", "./a")
	assert.Equal(t, depLocal, kind)
	assert.Equal(t, "pages/a.js", value)
}

func TestClassify_ExtensionProbeOrder(t *testing.T) {
	// Both a.ts and a.js exist: .ts wins because extensions are probed in
	// fixed order.
	r := New([]string{"pages/a.ts", "pages/a.js"}, nil)
	_, value := r.classify("pages/b.ts", "./a")
	assert.Equal(t, "pages/a.ts", value)
}

func TestClassify_IndexFallback(t *testing.T) {
	// No direct match: the cascade moves on to a/index.<ext> in the same
	// extension order.
	r := New([]string{"pages/a/index.tsx"}, nil)
	kind, value := r.classify("pages/b.ts", "./a")
	assert.Equal(t, depLocal, kind)
	assert.Equal(t, "pages/a/index.tsx", value)
}

func TestClassify_DirectBeatsIndex(t *testing.T) {
	r := New([]string{"pages/a.jsx", "pages/a/index.ts"}, nil)
	_, value := r.classify("pages/b.ts", "./a")
	assert.Equal(t, "pages/a.jsx", value)
}

func TestClassify_ExplicitExtensionAsIs(t *testing.T) {
	r := New([]string{"assets/logo.svg"}, nil)
	kind, value := r.classify("src/app.ts", "../assets/logo.svg")
	assert.Equal(t, depLocal, kind)
	assert.Equal(t, "assets/logo.svg", value)

	kind, value = r.classify("src/app.ts", "../assets/missing.svg")
	assert.Equal(t, depLocalUnresolved, kind)
	assert.Equal(t, "../assets/missing.svg", value)
}

func TestClassify_RootAbsolute(t *testing.T) {
	r := New([]string{"shared/api.ts"}, nil)
	kind, value := r.classify("deep/nested/file.ts", "/shared/api")
	assert.Equal(t, depLocal, kind)
	assert.Equal(t, "shared/api.ts", value)
}

func TestClassify_EscapeAboveRootUnresolved(t *testing.T) {
	r := New([]string{"a.ts"}, nil)
	kind, value := r.classify("a.ts", "../../outside")
	assert.Equal(t, depLocalUnresolved, kind)
	assert.Equal(t, "../../outside", value)
}

func TestClassify_AliasRewrite(t *testing.T) {
	rules := []snapshot.AliasRule{{Pattern: "@app/*", Targets: []string{"./src/*"}}}
	r := New([]string{"src/widgets/button.tsx"}, rules)
	kind, value := r.classify("src/main.ts", "@app/widgets/button")
	assert.Equal(t, depLocal, kind)
	assert.Equal(t, "src/widgets/button.tsx", value)
}

func TestClassify_AliasHitButMissingFile(t *testing.T) {
	// An alias match that fails the existence cascade stays local, surfaced
	// as unresolved with the raw specifier, never external.
	rules := []snapshot.AliasRule{{Pattern: "@app/*", Targets: []string{"./src/*"}}}
	r := New(nil, rules)
	kind, value := r.classify("src/main.ts", "@app/widgets/button")
	assert.Equal(t, depLocalUnresolved, kind)
	assert.Equal(t, "@app/widgets/button", value)
}

func TestClassify_ExternalReduction(t *testing.T) {
	r := New(nil, nil)

	kind, value := r.classify("a.ts", "@scope/pkg/sub/path")
	assert.Equal(t, depExternal, kind)
	assert.Equal(t, "@scope/pkg", value)

	kind, value = r.classify("a.ts", "lodash/debounce")
	assert.Equal(t, depExternal, kind)
	assert.Equal(t, "lodash", value)

	kind, value = r.classify("a.ts", "react")
	assert.Equal(t, depExternal, kind)
	assert.Equal(t, "react", value)
}

func TestFile_MergesAndSorts(t *testing.T) {
	r := New([]string{"utils/fmt.ts", "utils/net.ts"}, nil)
	entry := r.File("pages/home.ts", extract.Facts{
		Static:  []string{"../utils/fmt", "react", "./missing"},
		Dynamic: []string{"../utils/net", "lodash/debounce", "../utils/fmt"},
	})
	assert.Equal(t, []string{"utils/fmt.ts", "utils/net.ts"}, entry.Local)
	assert.Equal(t, []string{"./missing"}, entry.LocalUnresolved)
	assert.Equal(t, []string{"lodash", "react"}, entry.External)
}

func TestPackageIdentity(t *testing.T) {
	assert.Equal(t, "@scope/pkg", PackageIdentity("@scope/pkg/sub"))
	assert.Equal(t, "lodash", PackageIdentity("lodash/debounce"))
	assert.Equal(t, "react", PackageIdentity("react"))
}
