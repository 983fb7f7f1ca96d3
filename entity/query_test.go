package entity

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryStatusString(t *testing.T) {
	t.Parallel()

	tests := map[QueryStatus]string{
		QueryStatusUnknown: "UNKNOWN",
		QueryStatusValid:   "VALID",
		QueryStatusInvalid: "INVALID",
		QueryStatusBound:   "BOUND",
		QueryStatus(42):    "UNKNOWN",
	}

	for status, want := range tests {
		assert.Equal(t, want, status.String())
	}
}

func TestQueryRecordJSON(t *testing.T) {
	t.Parallel()

	r := QueryRecord{
		ID:     uuid.MustParse("6b2f7a0e-8c51-4d2a-9d43-1f0f4b2f8a11"),
		Source: "queries",
		Line:   3,
		Text:   "SELECT Id FROM Account WHERE Id = [id]",
		Status: QueryStatusInvalid,
		Error:  &QueryError{Code: "lexical", Message: "boom", Offset: 34, Line: 1, Column: 35},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "INVALID", got["status"])
	assert.Equal(t, "6b2f7a0e-8c51-4d2a-9d43-1f0f4b2f8a11", got["id"])
	assert.NotContains(t, got, "bound")
	assert.NotContains(t, got, "values")
	assert.Equal(t, "lexical", got["error"].(map[string]any)["code"])
}
