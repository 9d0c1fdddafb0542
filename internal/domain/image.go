package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// SupportedExtensions lists the image extensions the pipeline accepts (lowercase, with dot)
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// IsSupportedImage reports whether path has an accepted image extension (case-insensitive)
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsHidden reports whether the base name of path is a dotfile
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// MimeType returns the MIME type for an image path, defaulting to image/png
func MimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// SplitName splits a file name into its stem and lowercase extension
func SplitName(path string) (stem, ext string) {
	base := filepath.Base(path)
	ext = filepath.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	return stem, strings.ToLower(ext)
}

// WatchedFile is a path accepted by the watcher and waiting to be processed
type WatchedFile struct {
	Path         string
	Ext          string
	DiscoveredAt time.Time
}

// NewWatchedFile creates a WatchedFile for an absolute path
func NewWatchedFile(path string, now time.Time) WatchedFile {
	_, ext := SplitName(path)
	return WatchedFile{Path: path, Ext: ext, DiscoveredAt: now}
}
