// Package pdf splits source documents into single-page units and assembles
// page units back into output documents, using pdfcpu on a scratch
// directory.
package pdf

import "context"

// Splitter produces one PDF per physical page of the source document, in
// page order.
type Splitter interface {
	Split(ctx context.Context, doc []byte) ([][]byte, error)
}

// Assembler merges a logical document's page units into a single PDF.
type Assembler interface {
	Assemble(ctx context.Context, pages [][]byte) ([]byte, error)
}
