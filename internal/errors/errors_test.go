package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetailsMarshalFoldsExtensions(t *testing.T) {
	problem := ValidationProblem("blob_name is required", "/api/operations#req-1").
		WithExtension("trace_id", "trace-123")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "/errors/validation_failed", decoded["type"])
	assert.Equal(t, "validation_failed", decoded["title"])
	assert.Equal(t, float64(http.StatusBadRequest), decoded["status"])
	assert.Equal(t, "blob_name is required", decoded["detail"])
	assert.Equal(t, "/api/operations#req-1", decoded["instance"])
	assert.Equal(t, "trace-123", decoded["trace_id"])
}

func TestProblemDetailsOmitsEmptyMembers(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, "/errors/not_found", "not_found", "", "")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	_, hasDetail := decoded["detail"]
	_, hasInstance := decoded["instance"]
	assert.False(t, hasDetail)
	assert.False(t, hasInstance)
}

func TestProblemDetailsRenderSetsStatus(t *testing.T) {
	problem := InvalidStateProblem("cannot cancel operation in succeeded status", "")

	req := httptest.NewRequest(http.MethodPost, "/api/operations/x/cancel", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, render.Render(rec, req, problem))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaxonomyStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ValidationProblem("", "").Status)
	assert.Equal(t, http.StatusNotFound, NotFoundProblem("", "").Status)
	assert.Equal(t, http.StatusBadRequest, InvalidStateProblem("", "").Status)
	assert.Equal(t, http.StatusInternalServerError, InternalProblem("", "").Status)
	assert.Equal(t, http.StatusServiceUnavailable, UnavailableProblem("", "").Status)
}
