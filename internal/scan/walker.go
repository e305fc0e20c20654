package scan

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"fsidx/internal/entry"
	"fsidx/internal/logging"
	"fsidx/internal/mimetype"
	"fsidx/internal/pathutil"
)

// Walker scans one root path and produces its entry set. It is used
// for a single run and not reused.
type Walker struct {
	opts *Options
	root string

	entryCh  chan entry.Entry
	errorCh  chan entry.ScanError
	dirQueue chan dirWork

	inFlight  int64
	wg        sync.WaitGroup
	closeOnce sync.Once

	// visited holds canonical paths of directories already queued,
	// which is what breaks symlink cycles.
	visitedMu sync.Mutex
	visited   map[string]struct{}
}

type dirWork struct {
	path  string
	depth int
}

// NewWalker creates a walker for one root.
func NewWalker(root string, opts *Options) *Walker {
	if opts == nil {
		opts = DefaultOptions()
	}
	queueSize := opts.Workers * 1024
	if queueSize < 4096 {
		queueSize = 4096
	}
	return &Walker{
		opts:     opts,
		root:     pathutil.Normalize(root),
		entryCh:  make(chan entry.Entry, 4096),
		errorCh:  make(chan entry.ScanError, 256),
		dirQueue: make(chan dirWork, queueSize),
		visited:  make(map[string]struct{}),
	}
}

// Run walks the root and returns its entries, deduplicated by ID.
// Unreadable directories are logged and skipped; the walk itself only
// fails when the context is cancelled, in which case the partial
// result is discarded and ctx.Err() returned.
func (w *Walker) Run(ctx context.Context) ([]entry.Entry, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		// A vanished or unreadable root yields an empty set, not an
		// error; the next scan cycle picks it up again.
		logging.Warn("scan: cannot stat root %s: %v", w.root, err)
		return nil, nil
	}
	if !info.IsDir() {
		logging.Warn("scan: root %s is not a directory", w.root)
		return nil, nil
	}
	if w.opts.MaxDepth <= 0 {
		return nil, nil
	}

	w.markVisited(pathutil.Canonical(w.root))

	// Collector dedups by ID within this root.
	var entries []entry.Entry
	seen := make(map[string]struct{})
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for e := range w.entryCh {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			entries = append(entries, e)
		}
	}()

	errorsDone := make(chan struct{})
	go func() {
		defer close(errorsDone)
		for se := range w.errorCh {
			logging.Warn("scan: skipping %s: %s", se.Path, se.Message)
		}
	}()

	for i := 0; i < w.opts.Workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runWorker(ctx)
		}()
	}

	atomic.AddInt64(&w.inFlight, 1)
	select {
	case w.dirQueue <- dirWork{path: w.root, depth: 0}:
	case <-ctx.Done():
		atomic.AddInt64(&w.inFlight, -1)
	}

	go w.monitorCompletion(ctx)

	w.wg.Wait()
	w.closeDirQueue()
	close(w.entryCh)
	close(w.errorCh)
	<-collectorDone
	<-errorsDone

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return entries, nil
}

// runWorker processes directory work until the queue is closed,
// preferring its local stack when the shared queue overflowed.
func (w *Walker) runWorker(ctx context.Context) {
	var stack []dirWork
	for {
		if n := len(stack); n > 0 {
			work := stack[n-1]
			stack = stack[:n-1]
			stack = w.processWork(ctx, work, stack)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case work, ok := <-w.dirQueue:
			if !ok {
				return
			}
			stack = w.processWork(ctx, work, stack)
		}
	}
}

func (w *Walker) processWork(ctx context.Context, work dirWork, stack []dirWork) []dirWork {
	stack = w.processDirectory(ctx, work.path, work.depth, stack)
	atomic.AddInt64(&w.inFlight, -1)
	return stack
}

// processDirectory reads one directory and emits entries for each
// surviving child. Subdirectories still within the depth bound are
// queued for processing.
func (w *Walker) processDirectory(ctx context.Context, dirPath string, depth int, stack []dirWork) []dirWork {
	if ctx.Err() != nil {
		return stack
	}

	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		w.reportError(dirPath, err)
		return stack
	}

	for i, de := range dirEntries {
		if i%100 == 0 && ctx.Err() != nil {
			return stack
		}

		name := de.Name()
		if !w.opts.IncludeHidden && pathutil.IsHidden(name) {
			continue
		}
		if w.opts.ShouldExcludeName(name) {
			continue
		}

		childPath := filepath.Join(dirPath, name)
		info, err := os.Lstat(childPath)
		if err != nil {
			w.reportError(childPath, err)
			continue
		}

		isSymlink := info.Mode()&os.ModeSymlink != 0
		mode := info.Mode()
		if isSymlink {
			target, err := os.Stat(childPath)
			if err != nil {
				// Broken link; skip quietly at debug level, this is
				// common and not worth a warning per entry.
				logging.Debug("scan: broken symlink %s: %v", childPath, err)
				continue
			}
			mode = target.Mode()
		}

		kind := entry.KindFromMode(mode)
		mimeType := mimetype.ByPath(name)
		if kind == entry.KindDir {
			mimeType = mimetype.DirectoryType
		}

		if w.opts.MimeFilters.Matches(mimeType) {
			select {
			case w.entryCh <- entry.Entry{
				ID:   pathutil.Canonical(childPath),
				Name: name,
				Path: childPath,
				Kind: kind,
				Mime: mimeType,
			}:
			case <-ctx.Done():
				return stack
			}
		}

		if kind != entry.KindDir {
			continue
		}
		if isSymlink && !w.opts.FollowSymlinks {
			// Symlinked directory treated as a leaf.
			continue
		}
		if depth+1 >= w.opts.MaxDepth {
			// Children of this directory would exceed the bound.
			continue
		}
		if !w.markVisited(pathutil.Canonical(childPath)) {
			// Already queued through another link; breaking the cycle.
			continue
		}
		stack = w.enqueueOrStack(ctx, childPath, depth+1, stack)
		if ctx.Err() != nil {
			return stack
		}
	}
	return stack
}

func (w *Walker) enqueueOrStack(ctx context.Context, path string, depth int, stack []dirWork) []dirWork {
	if ctx.Err() != nil {
		return stack
	}
	atomic.AddInt64(&w.inFlight, 1)
	select {
	case w.dirQueue <- dirWork{path: path, depth: depth}:
	default:
		// Queue full: keep work local to avoid deadlock.
		stack = append(stack, dirWork{path: path, depth: depth})
	}
	return stack
}

func (w *Walker) reportError(path string, err error) {
	select {
	case w.errorCh <- entry.ScanError{Path: path, Message: err.Error()}:
	default:
		// Error channel full; errors are sampled anyway.
	}
}

// markVisited records a canonical directory path. It returns false if
// the path was seen before.
func (w *Walker) markVisited(canonical string) bool {
	w.visitedMu.Lock()
	defer w.visitedMu.Unlock()
	if _, ok := w.visited[canonical]; ok {
		return false
	}
	w.visited[canonical] = struct{}{}
	return true
}

func (w *Walker) monitorCompletion(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Workers drain through their own ctx checks; closing the
			// queue here could race a worker mid-send. Run closes it
			// once every sender has stopped.
			return
		case <-ticker.C:
			if atomic.LoadInt64(&w.inFlight) == 0 {
				// No work pending means no sender is mid-send, so the
				// queue can close and release the blocked workers.
				w.closeDirQueue()
				return
			}
		}
	}
}

func (w *Walker) closeDirQueue() {
	w.closeOnce.Do(func() {
		close(w.dirQueue)
	})
}
