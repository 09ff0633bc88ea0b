package rag

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error

	gotName string
	gotArgs []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.gotName = name
	m.gotArgs = args
	return m.output, m.err
}

func writeDOCX(t *testing.T, dir string, paragraphs []string) string {
	t.Helper()

	var doc string
	doc += `<?xml version="1.0" encoding="UTF-8"?>`
	doc += `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		doc += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	doc += `</w:body></w:document>`

	path := filepath.Join(dir, "sample.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return path
}

func TestExtractDOCX(t *testing.T) {
	path := writeDOCX(t, t.TempDir(), []string{"玻尿酸填充介绍。", "  ", "适合面部轮廓调整。"})

	text, err := NewFileExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "玻尿酸填充介绍。\n适合面部轮廓调整。", text)
}

func TestExtractPDFUsesRunner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brochure.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644))

	runner := &mockRunner{output: []byte("第一页内容。\n第二页内容。\n")}
	e := NewFileExtractor(WithRunner(runner))

	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "第一页内容。\n第二页内容。\n", text)
	assert.Equal(t, "pdftotext", runner.gotName)
	assert.Contains(t, runner.gotArgs, path)
}

func TestExtractPDFRunnerFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	e := NewFileExtractor(WithRunner(&mockRunner{err: errors.New("boom")}))
	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := NewFileExtractor().Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := NewFileExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}
