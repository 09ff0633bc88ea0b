package rag

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFile is returned for file extensions the extractor
// does not handle.
var ErrUnsupportedFile = errors.New("rag: unsupported file type")

// CommandRunner executes an external command and returns its stdout.
// Seam for testing the PDF path without a pdftotext binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// FileExtractor pulls plain text out of PDF and DOCX files. PDF goes
// through the pdftotext binary; DOCX is parsed directly from the
// OOXML archive.
type FileExtractor struct {
	runner CommandRunner
}

// ExtractorOption configures a FileExtractor.
type ExtractorOption func(*FileExtractor)

// WithRunner overrides the command runner used for PDF extraction.
func WithRunner(r CommandRunner) ExtractorOption {
	return func(e *FileExtractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// NewFileExtractor creates a file extractor.
func NewFileExtractor(opts ...ExtractorOption) *FileExtractor {
	e := &FileExtractor{runner: execRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the plain text of the file, dispatching on its
// extension. Unknown extensions fail with ErrUnsupportedFile.
func (e *FileExtractor) Extract(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("rag: stat %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(ctx, path)
	case ".docx":
		return extractDOCX(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(path))
	}
}

// extractPDF shells out to pdftotext, reading the result from stdout.
func (e *FileExtractor) extractPDF(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("rag: pdftotext %s: %w", path, err)
	}
	return string(out), nil
}

// extractDOCX opens the OOXML archive and pulls the paragraph text out
// of word/document.xml. Blank paragraphs are dropped.
func extractDOCX(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("rag: open docx %s: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("rag: open document.xml: %w", err)
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}
	return "", fmt.Errorf("rag: %s has no word/document.xml", path)
}

// parseDocumentXML walks the WordprocessingML token stream, collecting
// run text (<w:t>) and ending a paragraph at each closing <w:p>.
func parseDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var paragraphs []string
	var current bytes.Buffer
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("rag: parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if para := strings.TrimSpace(current.String()); para != "" {
					paragraphs = append(paragraphs, para)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if para := strings.TrimSpace(current.String()); para != "" {
		paragraphs = append(paragraphs, para)
	}

	return strings.Join(paragraphs, "\n"), nil
}
