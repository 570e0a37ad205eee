// Package errors defines the API error surface: RFC 7807 problem details
// rendered through go-chi/render, plus constructors for the error taxonomy
// the handlers map domain failures onto.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extensions are folded into the serialized object alongside the
	// standard members.
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON folds extensions into the serialized object.
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{}, 5+len(pd.Extensions))
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension member to the problem details.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// ValidationProblem reports a malformed request the caller can fix.
func ValidationProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(http.StatusBadRequest,
		"/errors/validation_failed", "validation_failed", detail, instance)
}

// NotFoundProblem reports an unknown resource id.
func NotFoundProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(http.StatusNotFound,
		"/errors/not_found", "not_found", detail, instance)
}

// InvalidStateProblem reports a cancel or retry issued against an
// operation whose status does not allow it.
func InvalidStateProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(http.StatusBadRequest,
		"/errors/invalid_state", "invalid_state", detail, instance)
}

// InternalProblem reports an unexpected server-side failure without leaking
// internal detail.
func InternalProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(http.StatusInternalServerError,
		"/errors/internal_error", "internal_error", detail, instance)
}

// UnavailableProblem reports transient infrastructure pressure such as a
// full job queue.
func UnavailableProblem(detail, instance string) *ProblemDetails {
	return NewProblemDetails(http.StatusServiceUnavailable,
		"/errors/service_unavailable", "service_unavailable", detail, instance)
}
