// Package extract pulls plain text out of uploaded study material.
//
// Supported upload types are .txt, .md, and .pdf. Plain-text formats are
// decoded directly; PDF extraction shells out to pdftotext through a
// CommandRunner port so tests can substitute a double and deployments can
// point at a different converter.
package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yunhan0/recall/internal/fault"
)

// supportedExtensions are the upload types the ingestion endpoint accepts.
var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".pdf": true,
}

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor converts uploaded files to plain text.
type Extractor struct {
	runner CommandRunner
}

// New creates an Extractor using the system pdftotext binary for PDFs.
func New() *Extractor {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates an Extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// Supported reports whether the filename's extension can be extracted.
func Supported(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Text extracts the plain text of an uploaded file.
// Unsupported types, undecodable content, and extraction output that is blank
// after trimming are validation errors: the caller must not ingest them.
func (e *Extractor) Text(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return "", fault.Validationf("unsupported file type %q (accepted: .txt, .md, .pdf)", ext)
	}

	var text string
	switch ext {
	case ".pdf":
		out, err := e.pdfText(ctx, data)
		if err != nil {
			return "", err
		}
		text = out
	default:
		if !utf8.Valid(data) {
			return "", fault.Validationf("file %q is not valid UTF-8 text", filename)
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", fault.Validationf("file %q contains no extractable text", filename)
	}

	return text, nil
}

// pdfText writes the upload to a temp file and converts it with
// `pdftotext <file> -` (stdout output).
func (e *Extractor) pdfText(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "recall-upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file for pdf extraction: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing temp pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp pdf: %w", err)
	}

	out, err := e.runner.Run(ctx, "pdftotext", tmp.Name(), "-")
	if err != nil {
		return "", fault.Validationf("pdf text extraction failed: %v", err)
	}

	return string(out), nil
}
