package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	// Separator joins words inside a generated stem
	Separator = "_"
	// MaxStemLength bounds a cleaned stem (extension excluded)
	MaxStemLength = 50
	// MinStemLength is the shortest cleaned stem accepted as a real description
	MinStemLength = 3
)

// GenericTerms are analyzer answers too vague to be used as a name
var GenericTerms = []string{"image", "screenshot"}

var (
	disallowedChars = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	separatorRun    = regexp.MustCompile(`_+`)
)

// CandidateName is the Name Synthesizer's output
type CandidateName struct {
	Stem       string
	Ext        string // lowercase, with leading dot
	IsFallback bool
}

// FileName joins stem and extension
func (c CandidateName) FileName() string {
	return c.Stem + c.Ext
}

// WithSuffix returns the file name carrying a numeric conflict suffix (n >= 2)
func (c CandidateName) WithSuffix(n int) string {
	if n < 2 {
		return c.FileName()
	}
	return fmt.Sprintf("%s%s%d%s", c.Stem, Separator, n, c.Ext)
}

// CleanStem applies the deterministic cleaning rules without any fallback.
// The result may be empty.
func CleanStem(raw string) string {
	s := strings.ToLower(raw)
	s = disallowedChars.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), Separator)
	s = separatorRun.ReplaceAllString(s, Separator)
	s = strings.Trim(s, "_-")
	if len(s) > MaxStemLength {
		s = strings.Trim(s[:MaxStemLength], "_-")
	}
	return s
}

// IsGenericTerm reports whether s is one of the generic terms
func IsGenericTerm(s string) bool {
	return slices.Contains(GenericTerms, s)
}

// SynthesizeName turns raw analyzer text into a candidate name for the file
// originally called originalName. Degenerate text (empty, too short, generic)
// yields a fallback name.
func SynthesizeName(raw, originalName string) CandidateName {
	origStem, ext := SplitName(originalName)
	stem := CleanStem(raw)

	switch {
	case IsGenericTerm(stem):
		return CandidateName{Stem: stampedName(stem), Ext: ext, IsFallback: true}
	case len(stem) < MinStemLength:
		return CandidateName{Stem: FallbackName(origStem), Ext: ext, IsFallback: true}
	}
	return CandidateName{Stem: stem, Ext: ext, IsFallback: IsFallbackStem(stem)}
}

// FallbackName derives a recognisable fallback stem from the original stem:
// a generic term followed by a monotonic millisecond timestamp.
func FallbackName(originalStem string) string {
	return stampedName(FallbackTerm(originalStem))
}

// FallbackTerm picks the generic term best describing the original file
func FallbackTerm(originalStem string) string {
	cleaned := strings.ReplaceAll(CleanStem(originalStem), Separator, "")
	if strings.HasPrefix(cleaned, "screenshot") {
		return "screenshot"
	}
	return "image"
}

func stampedName(term string) string {
	return fmt.Sprintf("%s%s%d", term, Separator, stamps.next())
}

// stamper hands out strictly increasing epoch-millisecond stamps
type stamper struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

var stamps = &stamper{now: time.Now}

func (s *stamper) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return ms
}
