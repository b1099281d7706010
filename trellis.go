// Package trellis builds an incremental import/export relationship index for
// JavaScript and TypeScript source trees. One run discovers the git-tracked
// file set, extracts per-file import/export facts with tree-sitter, resolves
// every specifier to a repository path or an external package identity,
// derives heuristic semantic signals, and persists the result as flat
// structured files with content-hash-gated incremental reuse.
package trellis
