package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"snapname/internal/domain"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
	}{
		{
			name:      "valid value",
			fieldName: "path",
			value:     "/tmp/a.png",
			wantErr:   false,
		},
		{
			name:      "empty string",
			fieldName: "path",
			value:     "",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			fieldName: "dir",
			value:     "   ",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if valErr.Field != tt.fieldName {
					t.Errorf("expected field %s, got %s", tt.fieldName, valErr.Field)
				}
			}
		})
	}
}

func TestValidateImagePath(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "shot.PNG")
	txt := filepath.Join(dir, "notes.txt")
	for _, p := range []string{png, txt} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "folder.png"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		path        string
		wantErr     bool
		unsupported bool
	}{
		{"existing image", png, false, false},
		{"text file", txt, true, true},
		{"missing image", filepath.Join(dir, "gone.png"), true, false},
		{"directory", filepath.Join(dir, "folder.png"), true, false},
		{"empty", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImagePath("path", tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateImagePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrUnsupportedImage) != tt.unsupported {
				t.Errorf("ErrUnsupportedImage match = %v, want %v", errors.Is(err, ErrUnsupportedImage), tt.unsupported)
			}
		})
	}
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateDirectory("dir", dir); err != nil {
		t.Errorf("expected valid directory, got %v", err)
	}
	if err := ValidateDirectory("dir", file); err == nil {
		t.Error("expected error for file")
	}
	if err := ValidateDirectory("dir", filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestValidateApplyMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    domain.BatchMode
		dest    string
		wantErr bool
	}{
		{"rename", domain.ModeRename, "", false},
		{"copy with dest", domain.ModeCopy, "/tmp/out", false},
		{"copy without dest", domain.ModeCopy, "", true},
		{"preview is not an apply mode", domain.ModePreview, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateApplyMode(tt.mode, tt.dest)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateApplyMode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
