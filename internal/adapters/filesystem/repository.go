package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"snapname/internal/application"
	"snapname/internal/domain"
	"snapname/internal/ports"
)

// maxSuffix bounds the _N search for a free name
const maxSuffix = 10000

// Repository implements ports.ImageRepository using the local filesystem
type Repository struct{}

var _ ports.ImageRepository = (*Repository)(nil)

// NewRepository creates a new filesystem repository
func NewRepository() *Repository {
	return &Repository{}
}

// ListImages returns the supported, non-hidden images directly inside dir
func (r *Repository) ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if domain.IsHidden(name) || !domain.IsSupportedImage(name) {
			continue
		}
		images = append(images, filepath.Join(dir, name))
	}

	sort.Strings(images)
	return images, nil
}

// Exists reports whether a file exists at path
func (r *Repository) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Size returns the size of the file at path
func (r *Repository) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ResolveName returns the first of name.ext, name_2.ext, name_3.ext, ...
// that neither exists in dir nor appears in reserved.
func (r *Repository) ResolveName(dir string, candidate domain.CandidateName, reserved map[string]bool) (string, error) {
	for n := 1; n <= maxSuffix; n++ {
		name := candidate.WithSuffix(n)
		if reserved[name] {
			continue
		}
		if r.Exists(filepath.Join(dir, name)) {
			continue
		}
		return name, nil
	}
	return "", fmt.Errorf("%w for %s in %s", application.ErrNoFreeName, candidate.FileName(), dir)
}

// Rename moves src to a free name in its own directory. The target is
// claimed with a hard link so a file appearing between resolution and
// rename is never overwritten; filesystems without hard links fall back
// to a checked rename.
func (r *Repository) Rename(src string, candidate domain.CandidateName) (string, error) {
	dir := filepath.Dir(src)
	if filepath.Base(src) == candidate.FileName() {
		return src, nil
	}

	taken := map[string]bool{}
	for range maxSuffix {
		name, err := r.ResolveName(dir, candidate, taken)
		if err != nil {
			return "", err
		}
		dst := filepath.Join(dir, name)

		err = os.Link(src, dst)
		switch {
		case err == nil:
			if err := os.Remove(src); err != nil {
				os.Remove(dst)
				return "", fmt.Errorf("failed to rename: %w", err)
			}
			return dst, nil
		case errors.Is(err, fs.ErrExist):
			taken[name] = true
			continue
		case errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("failed to rename: %w", err)
		}

		// no hard links here
		if r.Exists(dst) {
			taken[name] = true
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return "", fmt.Errorf("failed to rename: %w", err)
		}
		return dst, nil
	}
	return "", fmt.Errorf("%w for %s", application.ErrNoFreeName, candidate.FileName())
}

// Copy writes a copy of src into dstDir under a free name, creating dstDir
// when needed. The source file is left untouched.
func (r *Repository) Copy(src, dstDir string, candidate domain.CandidateName) (string, error) {
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create destination: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat source: %w", err)
	}

	taken := map[string]bool{}
	for range maxSuffix {
		name, err := r.ResolveName(dstDir, candidate, taken)
		if err != nil {
			return "", err
		}
		dst := filepath.Join(dstDir, name)

		out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			taken[name] = true
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create copy: %w", err)
		}

		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			os.Remove(dst)
			return "", fmt.Errorf("failed to copy: %w", err)
		}
		if err := out.Close(); err != nil {
			os.Remove(dst)
			return "", fmt.Errorf("failed to copy: %w", err)
		}
		os.Chtimes(dst, info.ModTime(), info.ModTime())
		return dst, nil
	}
	return "", fmt.Errorf("%w for %s", application.ErrNoFreeName, candidate.FileName())
}
