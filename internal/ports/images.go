package ports

import "snapname/internal/domain"

// ImageRepository defines filesystem operations on image files
type ImageRepository interface {
	// ListImages returns supported, non-hidden image files in dir, sorted by path
	ListImages(dir string) ([]string, error)

	// Exists reports whether a file exists at path
	Exists(path string) bool

	// Size returns the file size in bytes
	Size(path string) (int64, error)

	// ResolveName finds a free file name for candidate inside dir, appending
	// _2, _3, ... on conflict. Names in reserved are treated as taken.
	ResolveName(dir string, candidate domain.CandidateName, reserved map[string]bool) (string, error)

	// Rename moves src to a free name derived from candidate in the same
	// directory and returns the final path.
	Rename(src string, candidate domain.CandidateName) (string, error)

	// Copy copies src into dstDir (created if missing) under a free name
	// derived from candidate and returns the final path.
	Copy(src, dstDir string, candidate domain.CandidateName) (string, error)
}
