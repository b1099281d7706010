package extract

import (
	"path"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// Kinds lists the recognized source kinds in resolution-probe order. The
// order is part of the resolver's contract: extension candidates are tried
// exactly in this sequence.
var Kinds = []string{"ts", "tsx", "js", "jsx"}

// KindForPath returns the source kind for a path based on its extension.
// Returns ("", false) for unrecognized extensions.
func KindForPath(p string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	for _, k := range Kinds {
		if ext == k {
			return k, true
		}
	}
	return "", false
}

// HasRecognizedExt reports whether the path already carries one of the
// recognized extensions.
func HasRecognizedExt(p string) bool {
	_, ok := KindForPath(p)
	return ok
}

var (
	grammars     map[string]*sitter.Language
	grammarsOnce sync.Once
)

// grammarForKind selects the grammar variant: typescript for plain typed
// files, tsx for typed files with embedded markup, javascript for both
// untyped variants (the javascript grammar accepts JSX).
func grammarForKind(kind string) *sitter.Language {
	grammarsOnce.Do(func() {
		grammars = map[string]*sitter.Language{
			"ts":  ts.GetLanguage(),
			"tsx": tsx.GetLanguage(),
			"js":  javascript.GetLanguage(),
			"jsx": javascript.GetLanguage(),
		}
	})
	return grammars[kind]
}
