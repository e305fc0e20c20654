// Package persist serializes the index to a JSON snapshot so restarts
// can warm-start without a cold rescan. The snapshot is a cache, never
// authoritative: a background rescan always follows a restore.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fsidx/internal/entry"
	"fsidx/internal/index"
	"fsidx/internal/logging"
	"fsidx/internal/pathutil"
)

// SnapshotName is the default file name of the persisted index.
const SnapshotName = "file_index.json"

// RootDocument holds one root's cached entries plus enough metadata to
// judge staleness. Configuration is stored separately.
type RootDocument struct {
	Entries   []entry.Entry `json:"entries"`
	ScannedAt time.Time     `json:"scannedAt,omitempty"`
}

// Document is the persisted index representation, keyed by root path.
// The schema is additive: unknown keys are ignored on load and missing
// keys default.
type Document map[string]RootDocument

// Serialize captures the current per-root caches of the index. The
// caches are snapshotted under the index lock, so serializing while a
// scan publishes is safe.
func Serialize(ix *index.Index) Document {
	doc := make(Document)
	for root, snap := range ix.Snapshot() {
		doc[root] = RootDocument{
			Entries:   snap.Entries,
			ScannedAt: snap.LastScan,
		}
	}
	return doc
}

// Seed installs a root's cached entries from the document into a rule.
// A missing sub-document seeds nothing; the rule starts empty and is
// filled by the next scan.
func Seed(doc Document, rule *index.PathRule) {
	sub, ok := doc[pathutil.Normalize(rule.Root())]
	if !ok || len(sub.Entries) == 0 {
		return
	}
	rule.SeedEntries(sub.Entries)
}

// Load reads a snapshot document. A missing or malformed file is a
// cache miss, not an error.
func Load(path string) Document {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("persist: cannot read %s: %v", path, err)
		}
		return Document{}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.Warn("persist: malformed snapshot %s, starting fresh: %v", path, err)
		return Document{}
	}
	if doc == nil {
		doc = Document{}
	}
	return doc
}

// Save writes the document atomically via a temp file and rename. A
// write failure is reported to the caller but leaves any previous
// snapshot intact; in-memory state stays authoritative.
func Save(path string, doc Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".file_index-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
