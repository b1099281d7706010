package snapshot

import "time"

// Schema versions gate incremental reuse. Bumping one invalidates every cached
// record of that kind on the next run; the two caches version independently.
const (
	IndexSchemaVersion       = 4
	DescriptionSchemaVersion = 2
)

// ImportFacts holds the raw specifiers extracted from one file, prior to any
// resolution.
type ImportFacts struct {
	Static  []string `json:"static"`
	Dynamic []string `json:"dynamic"`
}

// ExportFacts holds the identifiers a file exports and whether it carries a
// default export.
type ExportFacts struct {
	Named   []string `json:"named"`
	Default bool     `json:"default"`
}

// SemanticFacts are the heuristic per-file signals derived by the tagger.
type SemanticFacts struct {
	Classification string   `json:"classification"`
	Routes         []string `json:"routes"`
	Tags           []string `json:"tags"`
	Endpoints      []string `json:"endpoints"`
	StorageKeys    []string `json:"storageKeys"`
	EnvVars        []string `json:"envVars"`
}

// FileRecord is everything the index knows about one tracked source file.
// Identity is the repository-relative slash path.
type FileRecord struct {
	Path     string         `json:"path"`
	Kind     string         `json:"kind"`
	Size     int            `json:"size"`
	Hash     string         `json:"hash"`
	Imports  ImportFacts    `json:"imports"`
	Exports  ExportFacts    `json:"exports"`
	Semantic *SemanticFacts `json:"semantic"`
}

// AliasRule is one wildcard path-alias pattern with its ordered candidate
// targets, as declared in the project configuration.
type AliasRule struct {
	Pattern string   `json:"pattern"`
	Targets []string `json:"targets"`
}

// DepEntry classifies one file's outgoing dependencies. Each slice is
// deduplicated and sorted.
type DepEntry struct {
	Local           []string `json:"local"`
	LocalUnresolved []string `json:"localUnresolved"`
	External        []string `json:"external"`
}

// Graph is the bidirectional dependency graph over the indexed file set.
// Every indexed file has a ReverseDeps entry, possibly empty.
type Graph struct {
	Deps        map[string]*DepEntry `json:"deps"`
	ReverseDeps map[string][]string  `json:"reverseDeps"`
}

// IndexSnapshot is the full output of one run and the sole input to the next
// run's reuse decision.
type IndexSnapshot struct {
	SchemaVersion int                    `json:"schemaVersion"`
	GeneratedAt   time.Time              `json:"generatedAt"`
	Root          string                 `json:"root"`
	AliasRules    []AliasRule            `json:"aliasRules"`
	TrackedCount  int                    `json:"trackedCount"`
	Files         map[string]*FileRecord `json:"files"`
	Graph         Graph                  `json:"graph"`
}

// DescriptionRecord is one file's synthesized summary. CarriedFrom records the
// generation time of the run a reused description was carried from.
type DescriptionRecord struct {
	Path           string     `json:"path"`
	Hash           string     `json:"hash"`
	Classification string     `json:"classification"`
	Description    string     `json:"description"`
	NeedsReview    bool       `json:"needsReview"`
	CarriedFrom    *time.Time `json:"carriedFrom,omitempty"`
}

// DescriptionSet is the persisted description cache. It versions and persists
// independently of the index and may lag it.
type DescriptionSet struct {
	SchemaVersion int                           `json:"schemaVersion"`
	GeneratedAt   time.Time                     `json:"generatedAt"`
	Files         map[string]*DescriptionRecord `json:"files"`
}
