package http

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "docsplit/internal/errors"
	"docsplit/internal/infrastructure"
	"docsplit/internal/middleware"
	"docsplit/internal/operations"
	"docsplit/internal/queue"
	"docsplit/internal/records"
)

// RetryAfterSeconds is the polling interval hint returned with 202
// responses for operations that have not finished.
const RetryAfterSeconds = 10

var validate = validator.New()

// OperationsHandler handles operation-related HTTP requests.
type OperationsHandler struct {
	service OperationService
	queue   queue.Queue
	records records.Store
	logger  *slog.Logger
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(service OperationService, q queue.Queue, recordStore records.Store, logger *slog.Logger) *OperationsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if q == nil {
		panic("queue cannot be nil")
	}
	if recordStore == nil {
		panic("record store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OperationsHandler{
		service: service,
		queue:   q,
		records: recordStore,
		logger:  logger.With(slog.String("handler", "operations")),
	}
}

// StartOperationRequest is the request to submit a document for processing.
type StartOperationRequest struct {
	ContainerName   string `json:"container_name" validate:"required"`
	BlobName        string `json:"blob_name" validate:"required"`
	IdentifierField string `json:"identifier_field"`
}

// Bind implements the render.Binder interface for request validation.
func (req *StartOperationRequest) Bind(r *http.Request) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("field %s is required", verrs[0].Field())
		}
		return err
	}
	return nil
}

// StartOperationResponse acknowledges an accepted submission.
type StartOperationResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
	PollingURL  string `json:"polling_url"`
}

// Routes returns a chi router for operation endpoints.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.StartOperation)
	r.Get("/", h.ListOperations)
	r.Get("/{id}", h.GetOperation)
	r.Get("/{id}/documents", h.ListOperationDocuments)
	r.Post("/{id}/cancel", h.CancelOperation)
	r.Post("/{id}/retry", h.RetryOperation)

	return r
}

// StartOperation handles POST /api/operations. It persists a NotStarted
// operation, enqueues the processing job and replies 202 with a polling
// URL.
func (h *OperationsHandler) StartOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.start_operation",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	data := &StartOperationRequest{}
	if err := render.Bind(r, data); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "request_validation"))

		h.logger.ErrorContext(ctx, "failed to bind start request",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.ValidationProblem(err.Error(), r.URL.Path+"#"+reqID).
			WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))
		render.Render(w, r, problem)
		return
	}

	op, err := h.service.Create(ctx, data.ContainerName, data.BlobName, data.IdentifierField)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation create failed")

		h.logger.ErrorContext(ctx, "failed to create operation",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.InternalProblem("Failed to create operation", r.URL.Path+"#"+reqID).
			WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))
		render.Render(w, r, problem)
		return
	}

	span.SetAttributes(
		attribute.String("operation.id", op.ID),
		attribute.String("operation.container", op.ContainerName),
		attribute.String("operation.blob", op.BlobName),
	)

	// The polling URL is part of the durable record so pollers hitting a
	// different instance get the same answer.
	op.PollingURL = "/api/operations/" + op.ID
	if err := h.service.Update(ctx, op); err != nil {
		h.logger.WarnContext(ctx, "failed to persist polling url",
			slog.String("operation_id", op.ID),
			slog.String("error", err.Error()))
	}

	env := queue.Envelope{
		OperationID: op.ID,
		Message: queue.JobMessage{
			ContainerName:   op.ContainerName,
			BlobName:        op.BlobName,
			IdentifierField: op.IdentifierField,
		},
	}
	if err := h.queue.Enqueue(ctx, env); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "job enqueue failed")

		h.logger.ErrorContext(ctx, "failed to enqueue job",
			slog.String("operation_id", op.ID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.UnavailableProblem(
			"Job queue is full, please try again later", r.URL.Path+"#"+reqID).
			WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
			WithExtension("operation_id", op.ID)
		render.Render(w, r, problem)
		return
	}

	h.logger.InfoContext(ctx, "operation accepted",
		slog.String("operation_id", op.ID),
		slog.String("container", op.ContainerName),
		slog.String("blob", op.BlobName),
		slog.String("request_id", reqID))

	w.Header().Set("Location", op.PollingURL)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, StartOperationResponse{
		OperationID: op.ID,
		Status:      string(op.Status),
		PollingURL:  op.PollingURL,
	})
}

// GetOperation handles GET /api/operations/{id}. The status code encodes
// progress: 202 with a Retry-After hint while the operation has not
// finished, 200 for succeeded or cancelled, 500 for failed. The full
// operation record is the body in every case.
func (h *OperationsHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operationID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.get_operation",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations/{id}"),
			attribute.String("operation.id", operationID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	op, err := h.service.Get(ctx, operationID)
	if err != nil {
		h.handleError(w, r, span, err, operationID)
		return
	}

	span.SetAttributes(attribute.String("operation.status", string(op.Status)))

	switch op.Status {
	case operations.StatusNotStarted, operations.StatusRunning:
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
		render.Status(r, http.StatusAccepted)
	case operations.StatusFailed:
		render.Status(r, http.StatusInternalServerError)
	default:
		render.Status(r, http.StatusOK)
	}
	render.JSON(w, r, op)
}

// ListOperations handles GET /api/operations with optional status and
// limit query parameters.
func (h *OperationsHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.list_operations",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	filter := operations.Filter{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := operations.ParseStatus(raw)
		if !ok {
			problem := apierrors.ValidationProblem(
				fmt.Sprintf("invalid status filter: %s", raw), r.URL.Path+"#"+reqID).
				WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))
			render.Render(w, r, problem)
			return
		}
		filter.Status = status
		span.SetAttributes(attribute.String("filter.status", raw))
	}

	if raw := r.URL.Query().Get("max_items"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
			span.SetAttributes(attribute.Int("filter.max_items", limit))
		}
	}

	ops, err := h.service.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list operations failed")

		h.logger.ErrorContext(ctx, "failed to list operations",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.InternalProblem("Failed to list operations", r.URL.Path+"#"+reqID).
			WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))
		render.Render(w, r, problem)
		return
	}

	span.SetAttributes(attribute.Int("operations.count", len(ops)))

	render.JSON(w, r, map[string]interface{}{
		"operations": ops,
		"count":      len(ops),
	})
}

// ListOperationDocuments handles GET /api/operations/{id}/documents,
// returning the document records the operation has produced so far.
func (h *OperationsHandler) ListOperationDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operationID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.list_documents",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations/{id}/documents"),
			attribute.String("operation.id", operationID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	if _, err := h.service.Get(ctx, operationID); err != nil {
		h.handleError(w, r, span, err, operationID)
		return
	}

	docs, err := h.records.ListByOperation(ctx, operationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list documents failed")

		h.logger.ErrorContext(ctx, "failed to list operation documents",
			slog.String("operation_id", operationID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.InternalProblem("Failed to list documents", r.URL.Path+"#"+reqID).
			WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))
		render.Render(w, r, problem)
		return
	}

	span.SetAttributes(attribute.Int("documents.count", len(docs)))

	render.JSON(w, r, map[string]interface{}{
		"operation_id": operationID,
		"documents":    docs,
		"count":        len(docs),
	})
}

// CancelOperation handles POST /api/operations/{id}/cancel. Cancellation
// is cooperative: a running worker observes the flag at its next page
// boundary, so the response may still show Running.
func (h *OperationsHandler) CancelOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operationID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.cancel_operation",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations/{id}/cancel"),
			attribute.String("operation.id", operationID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "operation cancel request",
		slog.String("operation_id", operationID),
		slog.String("request_id", reqID))

	op, err := h.service.RequestCancel(ctx, operationID)
	if err != nil {
		h.handleError(w, r, span, err, operationID)
		return
	}

	span.SetAttributes(attribute.String("operation.status", string(op.Status)))

	message := "cancellation requested"
	if op.Status == operations.StatusCancelled {
		message = "operation cancelled"
	}
	render.JSON(w, r, map[string]interface{}{
		"operation_id": op.ID,
		"status":       op.Status,
		"message":      message,
	})
}

// RetryOperation handles POST /api/operations/{id}/retry. A retry submits
// a brand new operation referencing the same source document and replies
// 202 like the original submission.
func (h *OperationsHandler) RetryOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operationID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.retry_operation",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations/{id}/retry"),
			attribute.String("operation.id", operationID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "operation retry request",
		slog.String("operation_id", operationID),
		slog.String("request_id", reqID))

	op, err := h.service.Retry(ctx, operationID)
	if err != nil {
		h.handleError(w, r, span, err, operationID)
		return
	}

	span.SetAttributes(attribute.String("operation.id.new", op.ID))

	w.Header().Set("Location", op.PollingURL)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, StartOperationResponse{
		OperationID: op.ID,
		Status:      string(op.Status),
		PollingURL:  op.PollingURL,
	})
}

// handleError maps service errors onto the problem taxonomy.
func (h *OperationsHandler) handleError(w http.ResponseWriter, r *http.Request, span trace.Span, err error, operationID string) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	traceID := infrastructure.TraceIDFromContext(ctx)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	h.logger.ErrorContext(ctx, "request failed",
		slog.String("operation_id", operationID),
		slog.String("error", err.Error()),
		slog.String("request_id", reqID))

	instance := r.URL.Path + "#" + reqID

	var problem *apierrors.ProblemDetails
	var stateErr *operations.InvalidStateError

	switch {
	case stderrors.Is(err, operations.ErrOperationNotFound):
		problem = apierrors.NotFoundProblem(
			fmt.Sprintf("Operation %s not found", operationID), instance)
	case stderrors.As(err, &stateErr):
		problem = apierrors.InvalidStateProblem(stateErr.Error(), instance).
			WithExtension("status", string(stateErr.Status))
	case stderrors.Is(err, queue.ErrQueueFull):
		problem = apierrors.UnavailableProblem(
			"Job queue is full, please try again later", instance)
	default:
		problem = apierrors.InternalProblem("An unexpected error occurred", instance)
	}

	problem.WithExtension("trace_id", traceID).
		WithExtension("operation_id", operationID)

	render.Render(w, r, problem)
}
