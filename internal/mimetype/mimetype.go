package mimetype

import (
	"mime"
	"path/filepath"
	"strings"
)

// DirectoryType is the MIME type reported for directories. Mime filter
// sets normally include it so that navigation into folders keeps
// working even when files are filtered down hard.
const DirectoryType = "inode/directory"

// DefaultType is used when no better type can be resolved for a file.
const DefaultType = "application/octet-stream"

// extraTypes covers common extensions the platform MIME table tends to
// miss or report inconsistently across systems.
var extraTypes = map[string]string{
	".md":    "text/markdown",
	".toml":  "application/toml",
	".yaml":  "application/yaml",
	".yml":   "application/yaml",
	".desktop": "application/x-desktop",
	".mkv":   "video/x-matroska",
	".flac":  "audio/flac",
	".heic":  "image/heic",
}

// ByPath resolves the MIME type of a file from its extension.
// Directories are not handled here; callers use DirectoryType for
// those.
func ByPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return DefaultType
	}
	if t, ok := extraTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Strip parameters such as "; charset=utf-8" so filter
		// patterns match the bare type.
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return DefaultType
}

// Match reports whether a MIME type matches a single filter pattern.
// Patterns are either exact ("inode/directory"), a type wildcard
// ("application/*"), or the catch-all "*".
func Match(pattern, mimeType string) bool {
	if pattern == "*" || pattern == "*/*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mimeType, prefix+"/")
	}
	return pattern == mimeType
}

// Filter is an include-list of MIME patterns. An empty filter matches
// nothing, which mirrors how the index treats an unconfigured root.
type Filter []string

// Matches reports whether the MIME type matches at least one pattern.
func (f Filter) Matches(mimeType string) bool {
	for _, p := range f {
		if Match(p, mimeType) {
			return true
		}
	}
	return false
}
