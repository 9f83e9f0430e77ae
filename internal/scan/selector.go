package scan

import (
	"path"

	"github.com/codeguardian-ai/codeguardian/internal/githost"
	"github.com/codeguardian-ai/codeguardian/internal/policy"
)

// File is one repository file queued for analysis.
type File struct {
	// Path is the file path relative to the repository root.
	Path string
	// Name is the base filename.
	Name string
	// Size is the blob size in bytes (zero when unknown).
	Size int64
}

// SelectFiles filters a repository tree down to the files eligible for
// analysis under pol: scannable name and size under the policy cap. Pure and
// order-preserving; entries with unknown (zero) size pass the size check and
// are bounded later by the content-length cap.
func SelectFiles(entries []githost.TreeEntry, pol *policy.Policy) []File {
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		name := path.Base(e.Path)
		if !pol.IsScannable(name) {
			continue
		}
		if e.Size >= pol.MaxFileBytes && e.Size != 0 {
			continue
		}
		files = append(files, File{Path: e.Path, Name: name, Size: e.Size})
	}
	return files
}
