package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docsplit/internal/blob"
	"docsplit/internal/extract"
	"docsplit/internal/operations"
	"docsplit/internal/pdf"
	"docsplit/internal/queue"
	"docsplit/internal/records"
	"docsplit/pkg/contracts/domain"
)

// DefaultOutputContainer receives assembled documents and result manifests
// unless configured otherwise.
const DefaultOutputContainer = "processed-documents"

// Processor drives one dequeued job end to end: download, split, per-page
// extraction with cancellation checkpoints, aggregation, per-document
// assembly/upload/record, result manifest, terminal status.
type Processor struct {
	ops             *operations.Service
	blobs           blob.Store
	splitter        pdf.Splitter
	assembler       pdf.Assembler
	extractor       extract.Extractor
	records         records.Store
	outputContainer string
	logger          *slog.Logger
}

// NewProcessor wires a processor. An empty outputContainer falls back to
// DefaultOutputContainer.
func NewProcessor(
	ops *operations.Service,
	blobs blob.Store,
	splitter pdf.Splitter,
	assembler pdf.Assembler,
	extractor extract.Extractor,
	recordStore records.Store,
	outputContainer string,
	logger *slog.Logger,
) *Processor {
	if outputContainer == "" {
		outputContainer = DefaultOutputContainer
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		ops:             ops,
		blobs:           blobs,
		splitter:        splitter,
		assembler:       assembler,
		extractor:       extractor,
		records:         recordStore,
		outputContainer: outputContainer,
		logger:          logger.With(slog.String("component", "pipeline")),
	}
}

// Process handles one delivered envelope. Returning a non-nil error hands
// the message back to the transport's redelivery policy; a malformed
// envelope or missing operation is logged and dropped since there is no
// record to update.
func (p *Processor) Process(ctx context.Context, env queue.Envelope) error {
	tracer := otel.Tracer("pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(
			attribute.String("operation.id", env.OperationID),
			attribute.String("blob.name", env.Message.BlobName),
		),
	)
	defer span.End()

	logger := p.logger.With(slog.String("operation_id", env.OperationID))

	if env.OperationID == "" || env.Message.ContainerName == "" || env.Message.BlobName == "" {
		logger.ErrorContext(ctx, "malformed job envelope, dropping message")
		return nil
	}

	op, err := p.ops.Get(ctx, env.OperationID)
	if err != nil {
		if errors.Is(err, operations.ErrOperationNotFound) {
			logger.ErrorContext(ctx, "operation not found for job, dropping message")
			return nil
		}
		return fmt.Errorf("load operation: %w", err)
	}

	if err := p.run(ctx, op, env.Message, logger); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "job failed")
		p.markFailed(ctx, op, err, logger)
		return err
	}
	return nil
}

// run executes the job against a loaded operation. It returns nil for both
// success and cancellation; cancellation is a clean outcome, not a failure.
func (p *Processor) run(ctx context.Context, op *operations.Operation, msg queue.JobMessage, logger *slog.Logger) error {
	// Cancellation may have arrived while the message sat on the queue.
	if op.CancelRequested {
		return p.finishCancelled(ctx, op, logger)
	}

	now := time.Now().UTC()
	op.Status = operations.StatusRunning
	op.StartedAt = &now
	if err := p.ops.Update(ctx, op); err != nil {
		return fmt.Errorf("mark operation running: %w", err)
	}

	logger.InfoContext(ctx, "downloading source blob",
		slog.String("container", msg.ContainerName),
		slog.String("blob", msg.BlobName))
	source, err := p.blobs.Download(ctx, msg.ContainerName, msg.BlobName)
	if err != nil {
		return fmt.Errorf("download %s/%s: %w", msg.ContainerName, msg.BlobName, err)
	}

	pages, err := p.splitter.Split(ctx, source)
	if err != nil {
		return fmt.Errorf("split source into pages: %w", err)
	}
	logger.InfoContext(ctx, "split source into pages", slog.Int("pages", len(pages)))

	op.TotalCount = len(pages)
	if err := p.ops.Update(ctx, op); err != nil {
		return fmt.Errorf("persist page count: %w", err)
	}

	results, cancelled, err := p.extractPages(ctx, op, pages, logger)
	if err != nil {
		return err
	}
	defer releasePages(results)
	if cancelled {
		return p.finishCancelled(ctx, op, logger)
	}

	identifierField := msg.IdentifierField
	if identifierField == "" {
		identifierField = operations.DefaultIdentifierField
	}
	docs := Aggregate(results, identifierField)
	logger.InfoContext(ctx, "aggregated pages into documents",
		slog.String("identifier_field", identifierField),
		slog.Int("documents", len(docs)))

	// The aggregated document count replaces the physical page count as the
	// job's unit of progress.
	op.TotalCount = len(docs)
	if err := p.ops.Update(ctx, op); err != nil {
		return fmt.Errorf("persist document count: %w", err)
	}

	manifest, err := p.produceDocuments(ctx, op, msg, docs, logger)
	if err != nil {
		return err
	}

	resultName, err := p.uploadManifest(ctx, msg.BlobName, manifest)
	if err != nil {
		return err
	}
	op.ResultBlobName = resultName

	now = time.Now().UTC()
	op.Status = operations.StatusSucceeded
	op.CompletedAt = &now
	if err := p.ops.Update(ctx, op); err != nil {
		return fmt.Errorf("mark operation succeeded: %w", err)
	}

	operationsSucceeded.Inc()
	logger.InfoContext(ctx, "operation succeeded",
		slog.Int("documents", len(docs)),
		slog.String("result_blob", resultName))
	return nil
}

// extractPages runs field extraction over every page in order. The durable
// cancel flag is re-read from the store before each page, never cached, so
// cancellation latency is bounded by one page's processing time.
func (p *Processor) extractPages(ctx context.Context, op *operations.Operation, pages [][]byte, logger *slog.Logger) ([]domain.PageResult, bool, error) {
	results := make([]domain.PageResult, 0, len(pages))

	for i, page := range pages {
		fresh, err := p.ops.Get(ctx, op.ID)
		if err != nil {
			return results, false, fmt.Errorf("refresh cancel flag: %w", err)
		}
		if fresh.CancelRequested {
			logger.InfoContext(ctx, "cancellation observed between pages",
				slog.Int("pages_done", len(results)))
			releasePages(results)
			return nil, true, nil
		}

		pageNumber := i + 1
		fields, err := p.extractor.ExtractPage(ctx, page)
		if err != nil {
			return results, false, fmt.Errorf("extract page %d: %w", pageNumber, err)
		}
		pagesExtracted.Inc()

		results = append(results, domain.PageResult{
			PageNumber: pageNumber,
			Content:    page,
			Fields:     fields,
		})
	}

	return results, false, nil
}

// produceDocuments assembles, uploads and records every aggregated document
// in ascending order of its minimum page number, bumping the operation's
// progress counter after each one.
func (p *Processor) produceDocuments(ctx context.Context, op *operations.Operation, msg queue.JobMessage, docs []domain.AggregatedDocument, logger *slog.Logger) (*domain.ResultManifest, error) {
	base := baseName(msg.BlobName)
	manifest := &domain.ResultManifest{
		OriginalFileName: msg.BlobName,
		TotalDocuments:   len(docs),
		ProcessedAt:      time.Now().UTC(),
	}

	for i, doc := range docs {
		documentNumber := i + 1

		output, err := p.assembler.Assemble(ctx, doc.PageContents())
		if err != nil {
			return nil, fmt.Errorf("assemble document %d: %w", documentNumber, err)
		}

		// Deterministic names make re-uploads under redelivery overwrite in
		// place instead of accumulating orphans.
		outName := fmt.Sprintf("%s_doc_%d.pdf", base, documentNumber)
		url, err := p.blobs.Upload(ctx, p.outputContainer, outName, output)
		if err != nil {
			return nil, fmt.Errorf("upload document %d: %w", documentNumber, err)
		}

		combined := combineFieldData(doc)
		record := &domain.DocumentRecord{
			ID:             domain.RecordID(op.ID, documentNumber),
			OperationID:    op.ID,
			DocumentNumber: documentNumber,
			Identifier:     doc.Identifier,
			OriginalFile:   msg.BlobName,
			PageCount:      len(doc.Pages),
			PageNumbers:    doc.PageNumbers(),
			ExtractedData:  combined,
			ContainerName:  p.outputContainer,
			BlobName:       outName,
			BlobURL:        url,
			ProcessedAt:    time.Now().UTC(),
		}
		if err := p.records.Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("persist document record %d: %w", documentNumber, err)
		}

		manifest.Documents = append(manifest.Documents, domain.ManifestEntry{
			DocumentNumber: documentNumber,
			PageCount:      len(doc.Pages),
			PageNumbers:    doc.PageNumbers(),
			Identifier:     doc.Identifier,
			ExtractedData:  combined,
			OutputBlobName: outName,
		})
		documentsProduced.Inc()

		op.ProcessedCount = documentNumber
		if err := p.ops.Update(ctx, op); err != nil {
			return nil, fmt.Errorf("persist progress after document %d: %w", documentNumber, err)
		}

		logger.InfoContext(ctx, "document produced",
			slog.Int("document_number", documentNumber),
			slog.String("identifier", doc.Identifier),
			slog.Int("pages", len(doc.Pages)),
			slog.String("output_blob", outName))
	}

	return manifest, nil
}

func (p *Processor) uploadManifest(ctx context.Context, blobName string, manifest *domain.ResultManifest) (string, error) {
	payload, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result manifest: %w", err)
	}

	resultName := baseName(blobName) + "_result.json"
	if _, err := p.blobs.Upload(ctx, p.outputContainer, resultName, payload); err != nil {
		return "", fmt.Errorf("upload result manifest: %w", err)
	}
	return resultName, nil
}

func (p *Processor) finishCancelled(ctx context.Context, op *operations.Operation, logger *slog.Logger) error {
	now := time.Now().UTC()
	op.Status = operations.StatusCancelled
	op.CompletedAt = &now
	if err := p.ops.Update(ctx, op); err != nil {
		return fmt.Errorf("mark operation cancelled: %w", err)
	}

	operationsCancelled.Inc()
	logger.InfoContext(ctx, "operation cancelled")
	return nil
}

// markFailed records the failure on the operation before the error
// propagates back to the transport. The update failing too is only logged;
// the original error must still reach the redelivery policy.
func (p *Processor) markFailed(ctx context.Context, op *operations.Operation, cause error, logger *slog.Logger) {
	now := time.Now().UTC()
	op.Status = operations.StatusFailed
	op.CompletedAt = &now
	op.Error = cause.Error()

	if err := p.ops.Update(ctx, op); err != nil {
		logger.ErrorContext(ctx, "failed to record operation failure",
			slog.String("error", err.Error()))
	}

	operationsFailed.Inc()
	logger.ErrorContext(ctx, "operation failed", slog.String("error", cause.Error()))
}

// combineFieldData merges the pages' field maps into the persisted shape.
func combineFieldData(doc domain.AggregatedDocument) map[string]interface{} {
	pageFields := make([]map[string]domain.FieldValue, len(doc.Pages))
	for i, page := range doc.Pages {
		pageFields[i] = page.Fields
	}
	return map[string]interface{}{
		"page_count": len(doc.Pages),
		"pages":      pageFields,
	}
}

// releasePages drops the page content buffers so the backing memory can be
// reclaimed when the job ends or is cancelled.
func releasePages(pages []domain.PageResult) {
	for i := range pages {
		pages[i].Content = nil
	}
}

func baseName(blobName string) string {
	return strings.TrimSuffix(blobName, filepath.Ext(blobName))
}
