package index

import (
	"time"

	"fsidx/internal/entry"
	"fsidx/internal/pathutil"
	"fsidx/internal/scan"
)

// Default per-root settings for a freshly added path.
const (
	DefaultMaxDepth            = 100
	DefaultScanIntervalMinutes = 15
)

var (
	DefaultNameFilters = []string{".DS_Store"}
	DefaultMimeFilters = []string{"inode/directory", "application/*"}
)

// PathRule holds the configuration and cached result set for one root
// path. The cached entries are owned by the Index and replaced
// atomically when a scan of the root completes.
type PathRule struct {
	root string

	MaxDepth            int
	IndexHidden         bool
	FollowSymlinks      bool
	NameFilters         []string
	MimeFilters         []string
	WatchFilesystem     bool
	ScanIntervalMinutes int

	entries  []entry.Entry
	lastScan time.Time
}

// NewPathRule creates a rule for root with default settings.
func NewPathRule(root string) *PathRule {
	return &PathRule{
		root:                pathutil.Normalize(root),
		MaxDepth:            DefaultMaxDepth,
		NameFilters:         append([]string(nil), DefaultNameFilters...),
		MimeFilters:         append([]string(nil), DefaultMimeFilters...),
		ScanIntervalMinutes: DefaultScanIntervalMinutes,
	}
}

// Root returns the normalized root path.
func (r *PathRule) Root() string { return r.root }

// Entries returns the rule's current cached entry set. The slice is
// replaced, never mutated, so callers may hold on to it. Once the
// rule is registered with an Index, concurrent readers must go
// through Index.Snapshot instead.
func (r *PathRule) Entries() []entry.Entry { return r.entries }

// EntryCount returns the number of cached entries.
func (r *PathRule) EntryCount() int { return len(r.entries) }

// LastScan returns the completion time of the most recent scan, or the
// zero time when the rule has only warm-start cache or nothing at all.
func (r *PathRule) LastScan() time.Time { return r.lastScan }

// SeedEntries installs a warm-start cache restored from a persisted
// snapshot. Seeded entries are served until the first scan replaces
// them; they do not count as a completed scan.
func (r *PathRule) SeedEntries(entries []entry.Entry) {
	r.entries = entries
}

// invalidate drops the cached entries after a configuration change so
// the next scan rebuilds them under the new settings.
func (r *PathRule) invalidate() {
	r.entries = nil
	r.lastScan = time.Time{}
}

// options builds the walk options for this rule.
func (r *PathRule) options(workers int) *scan.Options {
	return scan.DefaultOptions().
		WithMaxDepth(r.MaxDepth).
		WithHidden(r.IndexHidden).
		WithSymlinks(r.FollowSymlinks).
		WithNameFilters(r.NameFilters).
		WithMimeFilters(r.MimeFilters).
		WithWorkers(workers)
}
