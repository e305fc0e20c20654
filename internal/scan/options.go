package scan

import (
	"path/filepath"

	"fsidx/internal/mimetype"
)

// Options configures the walk of a single root path.
type Options struct {
	// MaxDepth bounds recursion depth from the root. Entries deeper
	// than MaxDepth are never returned.
	MaxDepth int

	// IncludeHidden includes dotfiles and hidden directories.
	IncludeHidden bool

	// FollowSymlinks descends into symlinked directories. Cycles are
	// broken by tracking visited canonical paths.
	FollowSymlinks bool

	// NameFilters are glob-style exclude patterns matched against base
	// names, e.g. ".DS_Store" or "*.tmp".
	NameFilters []string

	// MimeFilters is the include-list over resolved MIME types.
	MimeFilters mimetype.Filter

	// Workers is the number of concurrent directory processors.
	Workers int
}

// DefaultOptions returns the walk defaults used for a freshly added
// root.
func DefaultOptions() *Options {
	return &Options{
		MaxDepth:    100,
		NameFilters: []string{".DS_Store"},
		MimeFilters: mimetype.Filter{"inode/directory", "application/*"},
		Workers:     4,
	}
}

// WithMaxDepth sets the recursion depth bound.
func (o *Options) WithMaxDepth(n int) *Options {
	if n >= 0 {
		o.MaxDepth = n
	}
	return o
}

// WithHidden sets whether hidden entries are indexed.
func (o *Options) WithHidden(include bool) *Options {
	o.IncludeHidden = include
	return o
}

// WithSymlinks sets whether symlinked directories are traversed.
func (o *Options) WithSymlinks(follow bool) *Options {
	o.FollowSymlinks = follow
	return o
}

// WithNameFilters replaces the exclude pattern set.
func (o *Options) WithNameFilters(patterns []string) *Options {
	o.NameFilters = patterns
	return o
}

// WithMimeFilters replaces the MIME include patterns.
func (o *Options) WithMimeFilters(patterns []string) *Options {
	o.MimeFilters = mimetype.Filter(patterns)
	return o
}

// WithWorkers sets the number of workers.
func (o *Options) WithWorkers(n int) *Options {
	if n > 0 {
		o.Workers = n
	}
	return o
}

// ShouldExcludeName checks a base name against the exclude patterns.
// A pattern that does not compile as a glob is compared literally.
func (o *Options) ShouldExcludeName(name string) bool {
	for _, p := range o.NameFilters {
		matched, err := filepath.Match(p, name)
		if err != nil {
			if p == name {
				return true
			}
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
