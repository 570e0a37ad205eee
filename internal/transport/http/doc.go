// Package http contains the HTTP transport layer: chi handlers that
// translate between the REST surface and the operations service.
//
// Submissions are acknowledged with 202 Accepted and a polling URL. Polls
// encode progress in the status code: 202 with a Retry-After hint while
// work is pending or running, 200 once the operation succeeded or was
// cancelled, 500 when it failed. Errors render as RFC 7807 problem
// details.
package http
