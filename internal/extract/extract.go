// Package extract parses a single source file into import/export facts.
// Extraction is a pure function of (path, content): no filesystem access and
// no resolution happen here.
package extract

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Facts are the syntactic import/export facts of one file.
type Facts struct {
	Static  []string // specifiers from import / re-export declarations
	Dynamic []string // specifiers from import(...) / require(...) calls
	Named   []string // exported identifiers
	Default bool     // default-export assignment present
}

// File extracts facts from one file's content. The grammar variant is chosen
// by extension. A parse failure returns an error; callers degrade the file to
// an empty-facts record rather than aborting the run.
func File(ctx context.Context, path string, content []byte) (Facts, error) {
	kind, ok := KindForPath(path)
	if !ok {
		return Facts{}, fmt.Errorf("unrecognized source kind: %s", path)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammarForKind(kind))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return Facts{}, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return Facts{}, fmt.Errorf("parse %s: no syntax tree", path)
	}

	w := walker{content: content}
	w.visit(root)

	return Facts{
		Static:  sortedSet(w.static),
		Dynamic: sortedSet(w.dynamic),
		Named:   sortedSet(w.named),
		Default: w.hasDefault,
	}, nil
}

type walker struct {
	content    []byte
	static     []string
	dynamic    []string
	named      []string
	hasDefault bool
}

func (w *walker) visit(node *sitter.Node) {
	switch node.Type() {
	case "import_statement":
		if spec := w.sourceSpecifier(node); spec != "" {
			w.static = append(w.static, spec)
		}
	case "export_statement":
		w.visitExport(node)
	case "call_expression":
		w.visitCall(node)
	case "expression_statement":
		w.visitExpressionStatement(node)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil {
			w.visit(child)
		}
	}
}

// visitExport handles export declarations, export clauses, re-exports, and
// the default keyword. Children are still walked afterwards, which is how
// dynamic imports inside exported function bodies are found.
func (w *walker) visitExport(node *sitter.Node) {
	if spec := w.sourceSpecifier(node); spec != "" {
		w.static = append(w.static, spec)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "default":
			w.hasDefault = true
		case "export_clause":
			w.collectExportClause(child)
		case "namespace_export":
			// export * as ns from "x"
			if id := child.NamedChild(0); id != nil {
				if name := id.Content(w.content); name != "" {
					w.named = append(w.named, name)
				}
			}
		}
	}

	decl := node.ChildByFieldName("declaration")
	if decl == nil {
		return
	}
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration",
		"interface_declaration", "type_alias_declaration", "enum_declaration":
		if name := w.declarationName(decl); name != "" {
			w.named = append(w.named, name)
		}
	case "lexical_declaration", "variable_declaration":
		w.collectDeclaratorNames(decl)
	}
}

// visitCall records dynamic-import and require-style call specifiers.
func (w *walker) visitCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	callee := fn.Type()
	if callee == "identifier" {
		callee = fn.Content(w.content)
	}
	if callee != "import" && callee != "require" {
		return
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg != nil && arg.Type() == "string" {
			if spec := w.stringContent(arg); spec != "" {
				w.dynamic = append(w.dynamic, spec)
			}
		}
		break // only the first argument names the module
	}
}

// visitExpressionStatement detects CommonJS export assignments:
// module.exports = ... sets the default flag, exports.name = ... and
// module.exports.name = ... contribute named exports.
func (w *walker) visitExpressionStatement(node *sitter.Node) {
	expr := node.NamedChild(0)
	if expr == nil || expr.Type() != "assignment_expression" {
		return
	}
	left := expr.ChildByFieldName("left")
	if left == nil || left.Type() != "member_expression" {
		return
	}
	target := left.Content(w.content)
	switch {
	case target == "module.exports":
		w.hasDefault = true
	case target == "exports":
		// plain `exports = ...` rebinding, not an export
	default:
		prop := left.ChildByFieldName("property")
		obj := left.ChildByFieldName("object")
		if prop == nil || obj == nil {
			return
		}
		owner := obj.Content(w.content)
		if owner == "exports" || owner == "module.exports" {
			if name := prop.Content(w.content); name != "" {
				w.named = append(w.named, name)
			}
		}
	}
}

// collectExportClause records names from `export { a, b as c }`; the alias
// wins when present.
func (w *walker) collectExportClause(clause *sitter.Node) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec == nil || spec.Type() != "export_specifier" {
			continue
		}
		nameNode := spec.ChildByFieldName("alias")
		if nameNode == nil {
			nameNode = spec.ChildByFieldName("name")
		}
		if nameNode == nil {
			continue
		}
		if name := nameNode.Content(w.content); name != "" && name != "default" {
			w.named = append(w.named, name)
		}
	}
}

// collectDeclaratorNames records variable_declarator binding identifiers,
// including names bound through destructuring patterns.
func (w *walker) collectDeclaratorNames(decl *sitter.Node) {
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d == nil || d.Type() != "variable_declarator" {
			continue
		}
		if name := d.ChildByFieldName("name"); name != nil {
			w.collectBindingIdentifiers(name)
		}
	}
}

func (w *walker) collectBindingIdentifiers(node *sitter.Node) {
	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		if name := node.Content(w.content); name != "" {
			w.named = append(w.named, name)
		}
	default:
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child != nil {
				w.collectBindingIdentifiers(child)
			}
		}
	}
}

func (w *walker) declarationName(decl *sitter.Node) string {
	name := decl.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return name.Content(w.content)
}

// sourceSpecifier returns the unquoted source of an import or re-export
// statement, or "" when the statement has no source.
func (w *walker) sourceSpecifier(node *sitter.Node) string {
	source := node.ChildByFieldName("source")
	if source == nil {
		return ""
	}
	return w.stringContent(source)
}

// stringContent returns a string literal's text without quotes.
func (w *walker) stringContent(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == "string_fragment" {
			return child.Content(w.content)
		}
	}
	text := node.Content(w.content)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return ""
}

// sortedSet deduplicates and sorts, returning nil for empty input so records
// serialize identically whether facts were computed or carried.
func sortedSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
