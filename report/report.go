// Package report turns uploaded report files into core.ReportDocument values
// ready for indexing. PDF text is extracted with github.com/ledongthuc/pdf;
// plain text and markdown files are read as-is.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hupe1980/caremesh/core"
)

// Load reads the report at path. The document source is the file's base name
// and its ID is derived from the same.
func Load(path string) (core.ReportDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.ReportDocument{}, fmt.Errorf("report not found: %s: %w", path, core.ErrNotFound)
		}
		return core.ReportDocument{}, fmt.Errorf("stat report %s: %w", path, err)
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = ExtractPDF(path)
	case ".txt", ".md":
		var b []byte
		b, err = os.ReadFile(path)
		text = string(b)
	default:
		return core.ReportDocument{}, fmt.Errorf("unsupported report format: %s: %w", filepath.Ext(path), core.ErrUnsupportedFormat)
	}
	if err != nil {
		return core.ReportDocument{}, err
	}

	source := filepath.Base(path)
	return core.ReportDocument{
		ID:     strings.TrimSuffix(source, filepath.Ext(source)),
		Text:   strings.TrimSpace(text),
		Source: source,
	}, nil
}

// LoadAll loads every path in order, stopping at the first failure.
func LoadAll(paths []string) ([]core.ReportDocument, error) {
	docs := make([]core.ReportDocument, 0, len(paths))
	for _, p := range paths {
		d, err := Load(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// ExtractPDF returns the plain text of every page of the PDF at path.
func ExtractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %v: %w", path, err, core.ErrUnsupportedFormat)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", path, err)
	}
	return buf.String(), nil
}
