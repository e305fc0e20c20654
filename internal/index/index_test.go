package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fsidx/internal/entry"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestRule(root string) *PathRule {
	rule := NewPathRule(root)
	rule.MimeFilters = []string{"*"}
	return rule
}

func waitForGeneration(t *testing.T, ix *Index) Generation {
	t.Helper()
	select {
	case gen := <-ix.Updates():
		return gen
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for update")
		return Generation{}
	}
}

func TestAddPathRejectsDuplicate(t *testing.T) {
	root := t.TempDir()
	ix := New(1)
	defer ix.Close()

	if !ix.AddPath(newTestRule(root)) {
		t.Fatalf("first add rejected")
	}
	if ix.AddPath(newTestRule(root)) {
		t.Fatalf("duplicate add accepted")
	}
	// Normalization makes a trailing-slash variant a duplicate too.
	if ix.AddPath(newTestRule(root + string(filepath.Separator))) {
		t.Fatalf("trailing slash variant accepted")
	}
	if len(ix.IndexPaths()) != 1 {
		t.Fatalf("expected 1 registered root, got %d", len(ix.IndexPaths()))
	}
}

func TestUpdatePublishesMergedGeneration(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "sub", "b.txt"))

	ix := New(2)
	defer ix.Close()
	ix.AddPath(newTestRule(root))

	ix.Update()
	gen := waitForGeneration(t, ix)

	if gen.Seq != 1 {
		t.Fatalf("expected generation 1, got %d", gen.Seq)
	}
	got := make(map[string]bool)
	for _, e := range gen.Entries {
		got[e.Name] = true
	}
	for _, want := range []string{"a.txt", "sub", "b.txt"} {
		if !got[want] {
			t.Fatalf("generation missing %s: %v", want, got)
		}
	}
	if len(ix.Entries()) != len(gen.Entries) {
		t.Fatalf("published view disagrees with generation")
	}
}

func TestOverlappingRootsDeduplicate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "b.txt"))

	ix := New(2)
	defer ix.Close()
	ix.AddPath(newTestRule(root))
	ix.AddPath(newTestRule(filepath.Join(root, "sub")))

	ix.Update()
	gen := waitForGeneration(t, ix)

	count := make(map[string]int)
	for _, e := range gen.Entries {
		count[e.ID]++
	}
	for id, n := range count {
		if n > 1 {
			t.Fatalf("entry %s appears %d times in merged view", id, n)
		}
	}
}

func TestRapidUpdatesCoalesce(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))

	ix := New(1)
	defer ix.Close()
	ix.AddPath(newTestRule(root))

	for i := 0; i < 10; i++ {
		ix.Update()
	}

	first := waitForGeneration(t, ix)
	if first.Seq < 1 {
		t.Fatalf("unexpected first generation %d", first.Seq)
	}

	// The burst collapses to at most one follow-up run after the first.
	deadline := time.After(10 * time.Second)
	last := first
	for last.Seq == first.Seq {
		select {
		case gen := <-ix.Updates():
			last = gen
		case <-time.After(2 * time.Second):
			// No follow-up left; the burst was fully coalesced.
			return
		case <-deadline:
			t.Fatalf("coalesced runs never settled")
		}
	}
	if last.Seq > first.Seq+1 {
		t.Fatalf("burst produced %d extra generations", last.Seq-first.Seq)
	}
}

func TestRemovePathDropsEntries(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeFile(t, filepath.Join(rootA, "a.txt"))
	writeFile(t, filepath.Join(rootB, "b.txt"))

	ix := New(1)
	defer ix.Close()
	ix.AddPath(newTestRule(rootA))
	ix.AddPath(newTestRule(rootB))

	ix.Update()
	waitForGeneration(t, ix)

	ix.RemovePath(rootB)
	for _, e := range ix.Entries() {
		if e.Name == "b.txt" {
			t.Fatalf("removed root's entry still published")
		}
	}
	found := false
	for _, e := range ix.Entries() {
		if e.Name == "a.txt" {
			found = true
		}
	}
	if !found {
		t.Fatalf("surviving root's entry vanished")
	}
}

func TestReconfigureInvalidatesCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, ".hidden.txt"))

	ix := New(1)
	defer ix.Close()
	ix.AddPath(newTestRule(root))

	ix.Update()
	waitForGeneration(t, ix)
	if len(ix.Entries()) != 1 {
		t.Fatalf("expected only the visible file, got %d entries", len(ix.Entries()))
	}

	if !ix.Reconfigure(root, func(r *PathRule) { r.IndexHidden = true }) {
		t.Fatalf("reconfigure of registered root failed")
	}
	if len(ix.Entries()) != 0 {
		t.Fatalf("reconfigure must invalidate the cached entries")
	}

	ix.Update()
	gen := waitForGeneration(t, ix)
	got := make(map[string]bool)
	for _, e := range gen.Entries {
		got[e.Name] = true
	}
	if !got["a.txt"] || !got[".hidden.txt"] {
		t.Fatalf("rescan after reconfigure incomplete: %v", got)
	}
}

func TestSeededEntriesServedBeforeFirstScan(t *testing.T) {
	ix := New(1)
	defer ix.Close()

	rule := newTestRule(t.TempDir())
	rule.SeedEntries([]entry.Entry{
		{ID: "/warm/a", Name: "a", Path: "/warm/a", Kind: entry.KindFile, Mime: "text/plain"},
	})
	ix.AddPath(rule)

	if !rule.LastScan().IsZero() {
		t.Fatalf("seeding must not count as a completed scan")
	}

	// The warm-start cache is queryable immediately, before any scan.
	entries := ix.Entries()
	if len(entries) != 1 || entries[0].ID != "/warm/a" {
		t.Fatalf("seed not served through the published view: %+v", entries)
	}
	items := ix.Items()
	if len(items) != 1 || items[0].Text != "a" {
		t.Fatalf("seed not served through Items: %+v", items)
	}
}

func TestSnapshotSafeDuringUpdates(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, filepath.Join(root, "d"+string(rune('a'+i)), "f.txt"))
	}

	ix := New(2)
	defer ix.Close()
	ix.AddPath(newTestRule(root))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			snap := ix.Snapshot()
			for _, rs := range snap {
				_ = len(rs.Entries)
				_ = rs.LastScan
			}
			time.Sleep(time.Millisecond)
		}
	}()

	for i := 0; i < 10; i++ {
		ix.Update()
		time.Sleep(5 * time.Millisecond)
	}
	<-done

	waitForGeneration(t, ix)
	snap := ix.Snapshot()
	rs, ok := snap[root]
	if !ok {
		t.Fatalf("snapshot missing root %s", root)
	}
	if len(rs.Entries) == 0 {
		t.Fatalf("snapshot after scan must carry the rule cache")
	}
	if rs.LastScan.IsZero() {
		t.Fatalf("snapshot after scan must carry the scan time")
	}
}

func TestItemsCarryDisplayText(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))

	ix := New(1)
	defer ix.Close()
	ix.AddPath(newTestRule(root))
	ix.Update()
	waitForGeneration(t, ix)

	items := ix.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Text != items[0].Entry.Name {
		t.Fatalf("item text %q does not match entry name %q", items[0].Text, items[0].Entry.Name)
	}
}
