package application

import (
	"fmt"
	"os"
	"strings"

	"snapname/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts field names to readable words (e.g., "destDir" -> "destination directory")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"path":    "image path",
		"dir":     "directory",
		"destDir": "destination directory",
		"mode":    "mode",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidateImagePath checks that path names an existing file with a supported image extension
func ValidateImagePath(fieldName, path string) error {
	if err := ValidateRequired(fieldName, path); err != nil {
		return err
	}
	if !domain.IsSupportedImage(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{Field: fieldName, Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	if info.IsDir() {
		return &ValidationError{Field: fieldName, Message: fmt.Sprintf("%s is a directory", path)}
	}
	return nil
}

// ValidateDirectory checks that dir exists and is a directory
func ValidateDirectory(fieldName, dir string) error {
	if err := ValidateRequired(fieldName, dir); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return &ValidationError{Field: fieldName, Message: fmt.Sprintf("cannot read %s: %v", dir, err)}
	}
	if !info.IsDir() {
		return &ValidationError{Field: fieldName, Message: fmt.Sprintf("%s is not a directory", dir)}
	}
	return nil
}

// ValidateApplyMode checks the batch apply mode and its destination
func ValidateApplyMode(mode domain.BatchMode, destDir string) error {
	switch mode {
	case domain.ModeRename:
		return nil
	case domain.ModeCopy:
		return ValidateRequired("destDir", destDir)
	default:
		return &ValidationError{
			Field:   "mode",
			Message: fmt.Sprintf("expected rename or copy, got: %s", mode),
		}
	}
}
