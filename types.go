package trellis

import "github.com/jward/trellis/internal/snapshot"

// Public type aliases for the internal snapshot types that make up the
// Engine's output. These are Go type aliases (=) — identical to the internal
// types at compile time. External consumers use these names; no conversion
// is needed.

type IndexSnapshot = snapshot.IndexSnapshot
type FileRecord = snapshot.FileRecord
type ImportFacts = snapshot.ImportFacts
type ExportFacts = snapshot.ExportFacts
type SemanticFacts = snapshot.SemanticFacts
type AliasRule = snapshot.AliasRule
type DepEntry = snapshot.DepEntry
type Graph = snapshot.Graph
type DescriptionRecord = snapshot.DescriptionRecord
type DescriptionSet = snapshot.DescriptionSet

// Schema versions of the two independently persisted caches.
const (
	IndexSchemaVersion       = snapshot.IndexSchemaVersion
	DescriptionSchemaVersion = snapshot.DescriptionSchemaVersion
)
