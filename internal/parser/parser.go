// Package parser reads diary files written elsewhere into a doctree.DocTree.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/diarist/internal/doctree"
)

// Parser converts raw file bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tune individual parsers.
type Options struct {
	// PDFFallbackPdftotext shells out to pdftotext when the Go reader fails.
	PDFFallbackPdftotext bool
}

// ForFile returns the parser for filename's extension.
func ForFile(filename string, opts Options) (Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension reports whether ForFile accepts filename.
func IsSupportedExtension(filename string) bool {
	_, err := ForFile(filename, Options{})
	return err == nil
}

// baseTitle is the file name without directory or extension.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
