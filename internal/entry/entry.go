package entry

import (
	"os"
)

// Kind represents the type of an indexed filesystem object.
type Kind uint8

const (
	KindFile Kind = 0
	KindDir  Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	default:
		return "file"
	}
}

// KindFromMode derives the Kind from an os.FileMode. Symlinks are
// classified by what they point at, so callers pass the resolved mode.
func KindFromMode(mode os.FileMode) Kind {
	if mode.IsDir() {
		return KindDir
	}
	return KindFile
}

// Entry is one filesystem object included in the index. Entries are
// immutable once created; a rescan of the owning root replaces them
// wholesale.
type Entry struct {
	// ID is the canonical (symlink-resolved) path. Two entries that
	// resolve to the same target share an ID, which is what the merge
	// stage deduplicates on.
	ID string `json:"id"`

	// Name is the display name, the last path element.
	Name string `json:"name"`

	// Path is the absolute path the entry was enumerated under. It may
	// differ from ID when the entry was reached through a symlink.
	Path string `json:"path"`

	Kind Kind `json:"kind"`

	// Mime is the resolved MIME type used for filtering, e.g.
	// "inode/directory" or "application/pdf".
	Mime string `json:"mime"`
}

// ScanError records a path that could not be read during a scan.
// Scan errors are logged and skipped, never fatal.
type ScanError struct {
	Path    string
	Message string
}
