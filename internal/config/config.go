// Package config loads the optional .trellis.toml run configuration. Like
// the alias configuration, a missing or malformed file degrades to defaults
// rather than failing the run.
package config

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the optional run configuration file at the repo root.
const FileName = ".trellis.toml"

// Config is the full run configuration.
type Config struct {
	Discovery Discovery `toml:"discovery"`
	Semantic  Semantic  `toml:"semantic"`
}

// Discovery filters the indexed file set.
type Discovery struct {
	// Exclude removes matching paths from indexing (doublestar globs,
	// matched against repo-relative slash paths).
	Exclude []string `toml:"exclude"`
}

// Semantic extends the built-in tag vocabulary.
type Semantic struct {
	// ExtraTags maps additional keywords to tags, evaluated after the
	// built-in vocabulary.
	ExtraTags map[string]string `toml:"extra_tags"`
}

// Load reads root/.trellis.toml. A missing file returns zero defaults and no
// error; a malformed file returns zero defaults and the decode error so the
// caller can warn and continue.
func Load(root string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		return Config{}, nil
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Excluded reports whether a repo-relative path matches any exclude glob.
// Invalid patterns never match.
func (c Config) Excluded(relPath string) bool {
	for _, pattern := range c.Discovery.Exclude {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
