package span

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// TextUnit is one extracted span of text: a single visual line (or
// formatting run) together with the font hints the structure parser
// relies on. Units are immutable once produced.
type TextUnit struct {
	Content string
	Bold    bool
	Font    string
	Page    int
}

// Extractor converts raw document bytes into a flat sequence of TextUnits
// in reading order.
type Extractor interface {
	Extract(r io.Reader, filename string) ([]TextUnit, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ExtractFile opens path and extracts its units with the extractor
// matching the file extension.
func ExtractFile(path string) ([]TextUnit, error) {
	ex, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ex.Extract(f, filepath.Base(path))
}

// FromLines builds plain (non-bold) units from pre-split lines, one unit
// per line, all on page 1. Used by the text extractor and in tests.
func FromLines(lines []string) []TextUnit {
	units := make([]TextUnit, 0, len(lines))
	for _, line := range lines {
		units = append(units, TextUnit{Content: Normalize(line), Page: 1})
	}
	return units
}

var spaceRun = regexp.MustCompile(`\s+`)

// Normalize collapses runs of whitespace to single spaces and trims the
// ends. Diacritics and casing are left untouched.
func Normalize(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// boldFont reports whether a PDF font name denotes a bold face.
// Covers TimesNewRomanPS-BoldMT, TimesNewRoman,Bold and friends;
// Times-BD style names don't contain the word bold.
func boldFont(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "-bd")
}
