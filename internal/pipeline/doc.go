// Package pipeline is the queue-driven worker that turns one submitted
// multi-page document into a set of logical output documents.
//
// A job runs in fixed order: resolve the operation from the envelope, honor
// a pre-run cancel request, mark Running, download the source, split it
// into one unit per physical page, extract each page's fields with a fresh
// cancel-flag read between pages, aggregate pages into logical documents by
// the configured identifier field, then assemble/upload/record each
// document in ascending min-page order before writing the result manifest
// and marking Succeeded.
//
// Any failure marks the operation Failed and propagates the error to the
// transport, whose at-least-once redelivery policy governs retries. A
// redelivered job restarts from the download step and reproduces every
// document; deterministic blob names and record-id upserts keep that
// reprocessing idempotent.
package pipeline
