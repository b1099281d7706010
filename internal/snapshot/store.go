// Package snapshot defines the index data model and its flat-file persistence.
// Snapshots are written atomically: a failed run never disturbs the prior
// files, and a successful run replaces them in one rename each.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// MetaDir is the fixed metadata directory, relative to the repo root.
const MetaDir = ".trellis"

const (
	indexFile       = "index.json"
	indexDigestFile = "index.md"
	descFile        = "descriptions.json"
	descDigestFile  = "descriptions.md"
)

// HashBytes returns the content hash used for change detection: xxhash64 of
// the raw bytes, hex encoded.
func HashBytes(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// IndexPath returns the snapshot file path for a repo root.
func IndexPath(root string) string {
	return filepath.Join(root, MetaDir, indexFile)
}

// DescriptionsPath returns the description set file path for a repo root.
func DescriptionsPath(root string) string {
	return filepath.Join(root, MetaDir, descFile)
}

// LoadIndex reads the prior snapshot. A missing, unreadable, or structurally
// invalid file yields (nil, nil): the prior snapshot exists only to enable
// reuse, so anything short of a clean parse means a full recompute.
func LoadIndex(root string) (*IndexSnapshot, error) {
	data, err := os.ReadFile(IndexPath(root))
	if err != nil {
		return nil, nil
	}
	var snap IndexSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil
	}
	return &snap, nil
}

// LoadDescriptions reads the prior description set, with the same lenient
// semantics as LoadIndex.
func LoadDescriptions(root string) (*DescriptionSet, error) {
	data, err := os.ReadFile(DescriptionsPath(root))
	if err != nil {
		return nil, nil
	}
	var set DescriptionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, nil
	}
	return &set, nil
}

// WriteIndex persists the snapshot and its digest under root/.trellis.
func WriteIndex(root string, snap *IndexSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := writeAtomic(IndexPath(root), append(data, '\n')); err != nil {
		return err
	}
	digest := RenderIndexDigest(snap)
	return writeAtomic(filepath.Join(root, MetaDir, indexDigestFile), []byte(digest))
}

// WriteDescriptions persists the description set and its digest.
func WriteDescriptions(root string, set *DescriptionSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal descriptions: %w", err)
	}
	if err := writeAtomic(DescriptionsPath(root), append(data, '\n')); err != nil {
		return err
	}
	digest := RenderDescriptionDigest(set)
	return writeAtomic(filepath.Join(root, MetaDir, descDigestFile), []byte(digest))
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place, creating the directory if needed.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Carryable reports whether a prior file record may be reused for content with
// the given fresh hash: hash match, schema match, and semantic facts present.
func Carryable(prior *IndexSnapshot, rec *FileRecord, hash string) bool {
	if prior == nil || rec == nil {
		return false
	}
	if prior.SchemaVersion != IndexSchemaVersion {
		return false
	}
	return rec.Hash == hash && rec.Semantic != nil
}
