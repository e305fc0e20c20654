package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
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

func entryNames(t *testing.T, root string, opts *Options) map[string]bool {
	t.Helper()
	entries, err := NewWalker(root, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := make(map[string]bool, len(entries))
	for _, e := range entries {
		got[e.Name] = true
	}
	return got
}

func TestWalkerDepthBound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "sub", "b.txt"))
	writeFile(t, filepath.Join(root, "sub", "deep", "c.txt"))

	opts := DefaultOptions().WithWorkers(2).WithMimeFilters([]string{"*"})

	got := entryNames(t, root, opts.WithMaxDepth(1))
	if !got["a.txt"] || !got["sub"] {
		t.Fatalf("depth 1 missing root children: %v", got)
	}
	if got["b.txt"] || got["deep"] {
		t.Fatalf("depth 1 leaked deeper entries: %v", got)
	}

	opts = DefaultOptions().WithWorkers(2).WithMimeFilters([]string{"*"})
	got = entryNames(t, root, opts.WithMaxDepth(2))
	if !got["b.txt"] || !got["deep"] {
		t.Fatalf("depth 2 missing second level: %v", got)
	}
	if got["c.txt"] {
		t.Fatalf("depth 2 leaked third level: %v", got)
	}
}

func TestWalkerMaxDepthZero(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))

	opts := DefaultOptions().WithWorkers(1).WithMimeFilters([]string{"*"}).WithMaxDepth(0)
	entries, err := NewWalker(root, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries at depth 0, got %d", len(entries))
	}
}

func TestWalkerHiddenEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "visible.txt"))
	writeFile(t, filepath.Join(root, ".hidden.txt"))
	writeFile(t, filepath.Join(root, ".hiddendir", "inside.txt"))

	opts := DefaultOptions().WithWorkers(1).WithMimeFilters([]string{"*"})
	got := entryNames(t, root, opts)
	if got[".hidden.txt"] || got[".hiddendir"] || got["inside.txt"] {
		t.Fatalf("hidden entries leaked: %v", got)
	}
	if !got["visible.txt"] {
		t.Fatalf("visible entry missing: %v", got)
	}

	opts = DefaultOptions().WithWorkers(1).WithMimeFilters([]string{"*"}).WithHidden(true)
	got = entryNames(t, root, opts)
	if !got[".hidden.txt"] || !got[".hiddendir"] || !got["inside.txt"] {
		t.Fatalf("hidden entries missing when included: %v", got)
	}
}

func TestWalkerNameFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"))
	writeFile(t, filepath.Join(root, "skip.log"))
	writeFile(t, filepath.Join(root, "exact.tmp"))

	opts := DefaultOptions().WithWorkers(1).WithMimeFilters([]string{"*"}).
		WithNameFilters([]string{"*.log", "exact.tmp"})
	got := entryNames(t, root, opts)
	if got["skip.log"] || got["exact.tmp"] {
		t.Fatalf("filtered names leaked: %v", got)
	}
	if !got["keep.txt"] {
		t.Fatalf("kept name missing: %v", got)
	}
}

func TestWalkerNameFilterExcludesDirectorySubtree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"))
	writeFile(t, filepath.Join(root, "src", "main.go"))

	opts := DefaultOptions().WithWorkers(1).WithMimeFilters([]string{"*"}).
		WithNameFilters([]string{"node_modules"})
	got := entryNames(t, root, opts)
	if got["node_modules"] || got["pkg"] || got["index.js"] {
		t.Fatalf("excluded subtree leaked: %v", got)
	}
	if !got["src"] || !got["main.go"] {
		t.Fatalf("kept subtree missing: %v", got)
	}
}

func TestWalkerMimeFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "doc.txt"))
	writeFile(t, filepath.Join(root, "pic.png"))
	writeFile(t, filepath.Join(root, "sub", "note.html"))

	opts := DefaultOptions().WithWorkers(1).WithMimeFilters([]string{"text/*"})
	got := entryNames(t, root, opts)
	if got["pic.png"] {
		t.Fatalf("non-text entry leaked: %v", got)
	}
	// The directory itself is filtered out but still traversed.
	if got["sub"] {
		t.Fatalf("directory leaked past mime filter: %v", got)
	}
	if !got["doc.txt"] || !got["note.html"] {
		t.Fatalf("text entries missing: %v", got)
	}
}

func TestWalkerEmptyMimeFilterMatchesNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))

	opts := DefaultOptions().WithWorkers(1).WithMimeFilters(nil)
	entries, err := NewWalker(root, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries with empty filter, got %d", len(entries))
	}
}

func TestWalkerSymlinkCycleTerminates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "file.txt"))
	link := filepath.Join(root, "sub", "back")
	if err := os.Symlink(root, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	opts := DefaultOptions().WithWorkers(2).WithMimeFilters([]string{"*"}).WithSymlinks(true)
	entries, err := NewWalker(root, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	seen := make(map[string]int)
	for _, e := range entries {
		seen[e.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Fatalf("entry %s emitted %d times", id, n)
		}
	}
}

func TestWalkerSymlinkDirIsLeafByDefault(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "inside.txt"))
	if err := os.Symlink(target, filepath.Join(root, "linkdir")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	opts := DefaultOptions().WithWorkers(1).WithMimeFilters([]string{"*"})
	got := entryNames(t, root, opts)
	if !got["linkdir"] {
		t.Fatalf("symlinked directory missing as leaf: %v", got)
	}
	if got["inside.txt"] {
		t.Fatalf("descended into symlinked directory without FollowSymlinks: %v", got)
	}
}

func TestWalkerMissingRoot(t *testing.T) {
	opts := DefaultOptions().WithWorkers(1).WithMimeFilters([]string{"*"})
	entries, err := NewWalker(filepath.Join(t.TempDir(), "nope"), opts).Run(context.Background())
	if err != nil {
		t.Fatalf("missing root should not error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty set, got %d entries", len(entries))
	}
}

func TestWalkerAbortMidScan(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 30; i++ {
		dir := filepath.Join(root, "d"+string(rune('a'+i%26)), "s"+string(rune('a'+i/26)))
		writeFile(t, filepath.Join(dir, "f1.txt"))
		writeFile(t, filepath.Join(dir, "f2.txt"))
	}

	// Cancelling while workers are mid-directory must shut down
	// cleanly, without panics from the queue teardown.
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		opts := DefaultOptions().WithWorkers(4).WithMimeFilters([]string{"*"})
		done := make(chan error, 1)
		go func() {
			_, err := NewWalker(root, opts).Run(ctx)
			done <- err
		}()
		time.Sleep(time.Duration(i%5) * time.Millisecond)
		cancel()
		select {
		case err := <-done:
			if err != nil && err != context.Canceled {
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Fatalf("aborted walk never returned")
		}
	}
}

func TestWalkerCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions().WithWorkers(1).WithMimeFilters([]string{"*"})
	entries, err := NewWalker(root, opts).Run(ctx)
	if err == nil {
		t.Fatalf("expected context error")
	}
	if entries != nil {
		t.Fatalf("cancelled run must discard partial results")
	}
}
