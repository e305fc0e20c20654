package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"fsidx/internal/entry"
	"fsidx/internal/logging"
	"fsidx/internal/pathutil"
	"fsidx/internal/scan"
)

// Generation is the complete result of one update cycle, published
// atomically after all roots were scanned and merged.
type Generation struct {
	Seq      int64
	Entries  []entry.Entry
	Took     time.Duration
	Finished time.Time
}

// Item pairs an entry with its primary display text, the shape the
// host search index consumes.
type Item struct {
	Entry entry.Entry
	Text  string
}

// Index owns a set of PathRules and coordinates background scans. At
// most one scan job runs at a time; update requests arriving while a
// scan is in flight are coalesced into a single follow-up run. The
// published entry view is always the result of the most recently
// completed cycle, never a partially merged one.
type Index struct {
	mu       sync.Mutex
	rules    map[string]*PathRule
	merged   []entry.Entry
	seq      int64
	scanning bool
	pending  bool

	workers int
	updates chan Generation

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an empty index. workers sets the per-root walk
// concurrency; zero picks the default.
func New(workers int) *Index {
	ctx, cancel := context.WithCancel(context.Background())
	if workers <= 0 {
		workers = 4
	}
	return &Index{
		rules:   make(map[string]*PathRule),
		workers: workers,
		updates: make(chan Generation, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddPath registers a rule. It returns false when the root is already
// registered, in which case the caller owns the rejected rule. Entries
// already cached on the rule, such as a warm-start seed, become part
// of the published view immediately.
func (ix *Index) AddPath(rule *PathRule) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.rules[rule.root]; exists {
		return false
	}
	ix.rules[rule.root] = rule
	ix.merged = ix.mergeLocked()
	return true
}

// RemovePath unregisters a root and drops its cached entries from the
// published view.
func (ix *Index) RemovePath(root string) {
	root = pathutil.Normalize(root)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.rules[root]; !ok {
		return
	}
	delete(ix.rules, root)
	ix.merged = ix.mergeLocked()
}

// IndexPaths returns the registered rules keyed by root path. The map
// is a copy; the rules are shared.
func (ix *Index) IndexPaths() map[string]*PathRule {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make(map[string]*PathRule, len(ix.rules))
	for root, rule := range ix.rules {
		out[root] = rule
	}
	return out
}

// RuleSnapshot is a point-in-time copy of one rule's published state,
// safe to read while scans keep running.
type RuleSnapshot struct {
	Entries         []entry.Entry
	LastScan        time.Time
	WatchFilesystem bool
}

// Snapshot returns the per-root caches keyed by root path, captured
// under the index lock. Concurrent readers such as the persistence
// layer use this instead of touching the rules directly.
func (ix *Index) Snapshot() map[string]RuleSnapshot {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make(map[string]RuleSnapshot, len(ix.rules))
	for root, rule := range ix.rules {
		out[root] = RuleSnapshot{
			Entries:         rule.entries,
			LastScan:        rule.lastScan,
			WatchFilesystem: rule.WatchFilesystem,
		}
	}
	return out
}

// Reconfigure applies a settings change to a registered rule. The
// cached entries are invalidated; the caller triggers Update to
// rebuild them.
func (ix *Index) Reconfigure(root string, apply func(*PathRule)) bool {
	root = pathutil.Normalize(root)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	rule, ok := ix.rules[root]
	if !ok {
		return false
	}
	apply(rule)
	rule.invalidate()
	ix.merged = ix.mergeLocked()
	return true
}

// Entries returns the current merged, deduplicated view across all
// roots. The slice is immutable once returned.
func (ix *Index) Entries() []entry.Entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.merged
}

// Items returns the merged view paired with display text for the host
// search index.
func (ix *Index) Items() []Item {
	entries := ix.Entries()
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{Entry: e, Text: e.Name})
	}
	return items
}

// Status returns a short human-readable summary of the index.
func (ix *Index) Status() string {
	ix.mu.Lock()
	n := int64(len(ix.merged))
	scanning := ix.scanning
	ix.mu.Unlock()
	if scanning {
		return fmt.Sprintf("%s entries indexed, scan in progress", humanize.Comma(n))
	}
	return fmt.Sprintf("%s entries indexed", humanize.Comma(n))
}

// Updates returns the completion channel. One Generation is delivered
// per finished update cycle; a slow receiver only ever observes the
// latest.
func (ix *Index) Updates() <-chan Generation {
	return ix.updates
}

// Update triggers a full rescan of all registered roots as one
// background job. A call made while a scan runs queues at most one
// follow-up run.
func (ix *Index) Update() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.scanning {
		ix.pending = true
		return
	}
	ix.scanning = true
	go ix.runScan()
}

// Close aborts any in-flight scan. The index stays readable.
func (ix *Index) Close() {
	ix.cancel()
}

// runScan executes one update cycle: walk every root, then publish the
// merged result in a single swap.
func (ix *Index) runScan() {
	start := time.Now()

	ix.mu.Lock()
	roots := make([]string, 0, len(ix.rules))
	for root := range ix.rules {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	jobs := make(map[string]*walkJob, len(roots))
	for _, root := range roots {
		// Options are captured under the lock so a concurrent
		// Reconfigure cannot race the walk setup.
		jobs[root] = &walkJob{opts: ix.rules[root].options(ix.workers)}
	}
	ix.mu.Unlock()

	aborted := false
	for _, root := range roots {
		if ix.ctx.Err() != nil {
			aborted = true
			break
		}
		job := jobs[root]
		entries, err := scan.NewWalker(root, job.opts).Run(ix.ctx)
		if err != nil {
			aborted = true
			break
		}
		job.entries = entries
		job.done = true
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if aborted {
		// A partial cycle is never published.
		ix.scanning = false
		ix.pending = false
		logging.Debug("index: scan aborted after %s", time.Since(start))
		return
	}

	now := time.Now()
	for root, job := range jobs {
		rule, ok := ix.rules[root]
		if !ok || !job.done {
			// Root removed mid-scan, or never reached.
			continue
		}
		rule.entries = job.entries
		rule.lastScan = now
	}
	ix.merged = ix.mergeLocked()
	ix.seq++

	gen := Generation{
		Seq:      ix.seq,
		Entries:  ix.merged,
		Took:     time.Since(start),
		Finished: now,
	}
	// Coalesce: drop the stale generation if nobody consumed it yet.
	select {
	case <-ix.updates:
	default:
	}
	ix.updates <- gen

	logging.Info("index: update %d finished, %d entries in %s",
		gen.Seq, len(gen.Entries), gen.Took.Round(time.Millisecond))

	ix.scanning = false
	if ix.pending {
		ix.pending = false
		ix.scanning = true
		go ix.runScan()
	}
}

type walkJob struct {
	opts    *scan.Options
	entries []entry.Entry
	done    bool
}

// mergeLocked rebuilds the published view from the per-rule caches.
// Dedup key is the entry ID; the first occurrence wins, with roots
// visited in sorted order so the result is deterministic.
func (ix *Index) mergeLocked() []entry.Entry {
	roots := make([]string, 0, len(ix.rules))
	total := 0
	for root, rule := range ix.rules {
		roots = append(roots, root)
		total += len(rule.entries)
	}
	sort.Strings(roots)

	merged := make([]entry.Entry, 0, total)
	seen := make(map[string]struct{}, total)
	for _, root := range roots {
		for _, e := range ix.rules[root].entries {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			merged = append(merged, e)
		}
	}
	return merged
}
