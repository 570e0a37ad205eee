// Package extract produces per-page field maps from page content. The
// pipeline consumes extractors through the Extractor interface; the shipped
// implementation calls a Vertex AI generative model.
package extract

import (
	"context"

	"docsplit/pkg/contracts/domain"
)

// Extractor analyzes one page unit and returns its extracted fields.
type Extractor interface {
	ExtractPage(ctx context.Context, page []byte) (map[string]domain.FieldValue, error)
}

// NoopExtractor returns an empty field map for every page. It backs local
// runs without a configured model; every page then groups under its
// per-page fallback key.
type NoopExtractor struct{}

func (NoopExtractor) ExtractPage(context.Context, []byte) (map[string]domain.FieldValue, error) {
	return map[string]domain.FieldValue{}, nil
}
