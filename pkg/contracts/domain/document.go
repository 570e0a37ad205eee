package domain

import (
	"fmt"
	"strconv"
	"time"
)

// FieldKind discriminates the typed value carried by a FieldValue.
type FieldKind string

const (
	FieldKindString  FieldKind = "string"
	FieldKindNumber  FieldKind = "number"
	FieldKindDate    FieldKind = "date"
	FieldKindBoolean FieldKind = "boolean"
	FieldKindUnknown FieldKind = "unknown"
)

// FieldValue is one extracted field. The raw text is always preserved in
// Content; TypedValue carries the decoded scalar for the known kinds and is
// nil for FieldKindUnknown.
type FieldValue struct {
	Kind       FieldKind   `json:"kind"`
	Content    string      `json:"content"`
	Confidence float64     `json:"confidence"`
	TypedValue interface{} `json:"typed_value,omitempty"`
}

// Scalar returns the string form of the field used for grouping pages into
// documents. The typed value wins when it carries a non-empty scalar,
// otherwise the raw content is used. ok is false when the field carries
// neither.
func (v FieldValue) Scalar() (value string, ok bool) {
	switch tv := v.TypedValue.(type) {
	case string:
		if tv != "" {
			return tv, true
		}
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), true
	case int:
		return strconv.Itoa(tv), true
	case int64:
		return strconv.FormatInt(tv, 10), true
	case bool:
		return strconv.FormatBool(tv), true
	}
	if v.Content != "" {
		return v.Content, true
	}
	return "", false
}

// PageResult is one physical page's content plus its extracted field map.
// Content is owned by the job that produced it for the duration of that run
// and is released when the job ends or is cancelled.
type PageResult struct {
	PageNumber int                   `json:"page_number"`
	Content    []byte                `json:"-"`
	Fields     map[string]FieldValue `json:"fields"`
}

// AggregatedDocument is one reconstructed logical document: the run of pages
// that share an identifier key, ordered ascending by page number.
type AggregatedDocument struct {
	Identifier string       `json:"identifier"`
	Pages      []PageResult `json:"pages"`
}

// PageNumbers returns the document's page numbers in ascending order.
func (d AggregatedDocument) PageNumbers() []int {
	nums := make([]int, len(d.Pages))
	for i, p := range d.Pages {
		nums[i] = p.PageNumber
	}
	return nums
}

// PageContents returns the raw content of each page in page order.
func (d AggregatedDocument) PageContents() [][]byte {
	contents := make([][]byte, len(d.Pages))
	for i, p := range d.Pages {
		contents[i] = p.Content
	}
	return contents
}

// DocumentRecord is the persisted output for one assembled logical document.
// The record id is derived from (operation id, document number) so that a
// redelivered job upserts the same record instead of duplicating it.
type DocumentRecord struct {
	ID             string                 `json:"id" firestore:"id"`
	OperationID    string                 `json:"operation_id" firestore:"operationId"`
	DocumentNumber int                    `json:"document_number" firestore:"documentNumber"`
	Identifier     string                 `json:"identifier" firestore:"identifier"`
	OriginalFile   string                 `json:"original_file" firestore:"originalFile"`
	PageCount      int                    `json:"page_count" firestore:"pageCount"`
	PageNumbers    []int                  `json:"page_numbers" firestore:"pageNumbers"`
	ExtractedData  map[string]interface{} `json:"extracted_data" firestore:"extractedData"`
	ContainerName  string                 `json:"container_name" firestore:"containerName"`
	BlobName       string                 `json:"blob_name" firestore:"blobName"`
	BlobURL        string                 `json:"blob_url" firestore:"blobUrl"`
	ProcessedAt    time.Time              `json:"processed_at" firestore:"processedAt"`
}

// RecordID builds the deterministic document record id for an operation and
// document number.
func RecordID(operationID string, documentNumber int) string {
	return fmt.Sprintf("%s_%d", operationID, documentNumber)
}

// ResultManifest summarizes every document produced by one job. It is
// serialized to JSON and stored next to the output documents.
type ResultManifest struct {
	OriginalFileName string          `json:"original_file_name"`
	TotalDocuments   int             `json:"total_documents"`
	Documents        []ManifestEntry `json:"documents"`
	ProcessedAt      time.Time       `json:"processed_at"`
}

// ManifestEntry describes one produced document inside a ResultManifest.
type ManifestEntry struct {
	DocumentNumber int                    `json:"document_number"`
	PageCount      int                    `json:"page_count"`
	PageNumbers    []int                  `json:"page_numbers"`
	Identifier     string                 `json:"identifier"`
	ExtractedData  map[string]interface{} `json:"extracted_data"`
	OutputBlobName string                 `json:"output_blob_name"`
}
