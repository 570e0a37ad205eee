// Package app assembles the service: configuration, logging, stores,
// the job queue, the processing pipeline and the HTTP router, plus the
// run loop with graceful shutdown.
package app
