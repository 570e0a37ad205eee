package operations

import "time"

// DefaultIdentifierField is the extraction field used to group pages when a
// submission does not name one.
const DefaultIdentifierField = "identifier"

// Status is the lifecycle state of an Operation.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status is final. No transition ever leaves a
// terminal status.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus maps a raw string onto a known Status value.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusNotStarted, StatusRunning, StatusSucceeded, StatusFailed, StatusCancelled:
		return Status(raw), true
	}
	return "", false
}

// Operation is the durable record tracking one asynchronous document
// processing job. The submission API creates it, the worker pipeline owns
// status, progress, error and timestamp mutations, and the cancel handler
// owns CancelRequested.
type Operation struct {
	ID              string     `json:"id" firestore:"id"`
	Status          Status     `json:"status" firestore:"status"`
	ContainerName   string     `json:"container_name" firestore:"containerName"`
	BlobName        string     `json:"blob_name" firestore:"blobName"`
	IdentifierField string     `json:"identifier_field" firestore:"identifierField"`
	CreatedAt       time.Time  `json:"created_at" firestore:"createdAt"`
	StartedAt       *time.Time `json:"started_at,omitempty" firestore:"startedAt"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" firestore:"completedAt"`
	ProcessedCount  int        `json:"processed_count" firestore:"processedCount"`
	TotalCount      int        `json:"total_count" firestore:"totalCount"`
	ResultBlobName  string     `json:"result_blob_name,omitempty" firestore:"resultBlobName"`
	Error           string     `json:"error,omitempty" firestore:"error"`
	CancelRequested bool       `json:"cancel_requested" firestore:"cancelRequested"`
	PollingURL      string     `json:"polling_url,omitempty" firestore:"pollingUrl"`
}

// Clone returns a copy of the operation safe to hand to another goroutine.
func (o *Operation) Clone() *Operation {
	clone := *o
	if o.StartedAt != nil {
		t := *o.StartedAt
		clone.StartedAt = &t
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		clone.CompletedAt = &t
	}
	return &clone
}
