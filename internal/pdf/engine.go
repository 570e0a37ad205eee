package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Engine implements Splitter and Assembler with pdfcpu. pdfcpu's file-based
// API keeps peak memory flat for large inputs, so each call stages its work
// in a fresh temp directory.
type Engine struct {
	conf *model.Configuration
}

// NewEngine creates an engine with pdfcpu's default configuration.
func NewEngine() *Engine {
	return &Engine{conf: model.NewDefaultConfiguration()}
}

// Split writes the document to a scratch file, splits it into one file per
// page and reads the pages back in order.
func (e *Engine) Split(ctx context.Context, doc []byte) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "docsplit-split-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	source := filepath.Join(tempDir, "source.pdf")
	if err := os.WriteFile(source, doc, 0o600); err != nil {
		return nil, fmt.Errorf("stage source pdf: %w", err)
	}

	pageCount, err := api.PageCountFile(source)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	if err := api.SplitFile(source, tempDir, 1, e.conf); err != nil {
		return nil, fmt.Errorf("split pdf: %w", err)
	}

	pages := make([][]byte, 0, pageCount)
	for n := 1; n <= pageCount; n++ {
		page, err := os.ReadFile(filepath.Join(tempDir, fmt.Sprintf("source_%d.pdf", n)))
		if err != nil {
			return nil, fmt.Errorf("read split page %d: %w", n, err)
		}
		pages = append(pages, page)
	}

	return pages, nil
}

// Assemble stages the page units and merges them into one PDF in page
// order.
func (e *Engine) Assemble(ctx context.Context, pages [][]byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to assemble")
	}

	tempDir, err := os.MkdirTemp("", "docsplit-merge-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	paths := make([]string, len(pages))
	for i, page := range pages {
		paths[i] = filepath.Join(tempDir, fmt.Sprintf("page_%d.pdf", i+1))
		if err := os.WriteFile(paths[i], page, 0o600); err != nil {
			return nil, fmt.Errorf("stage page %d: %w", i+1, err)
		}
	}

	merged := filepath.Join(tempDir, "merged.pdf")
	if err := api.MergeCreateFile(paths, merged, false, e.conf); err != nil {
		return nil, fmt.Errorf("merge pages: %w", err)
	}

	out, err := os.ReadFile(merged)
	if err != nil {
		return nil, fmt.Errorf("read merged pdf: %w", err)
	}
	return out, nil
}
