package entity

import (
	"time"

	"github.com/google/uuid"
)

type QueryStatus uint8

const (
	QueryStatusUnknown QueryStatus = iota
	QueryStatusValid
	QueryStatusInvalid
	QueryStatusBound
)

var queryStatusNames = [...]string{"UNKNOWN", "VALID", "INVALID", "BOUND"}

func (s QueryStatus) String() string {
	if int(s) >= len(queryStatusNames) {
		return queryStatusNames[QueryStatusUnknown]
	}
	return queryStatusNames[s]
}

func (s QueryStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// QueryRecord is one query read from a source. Processors fill in the
// remaining fields as the record moves through the pipeline.
type QueryRecord struct {
	ID         uuid.UUID         `json:"id"`
	Source     string            `json:"source"`
	Line       int               `json:"line"`
	Text       string            `json:"text"`
	ReceivedAt time.Time         `json:"received_at"`
	Values     map[string]string `json:"values,omitempty"`

	Status     QueryStatus     `json:"status"`
	Normalized string          `json:"normalized,omitempty"`
	RoundTrip  bool            `json:"round_trip"`
	Variables  []QueryVariable `json:"variables,omitempty"`
	Bound      string          `json:"bound,omitempty"`
	Error      *QueryError     `json:"error,omitempty"`
}

// QueryVariable is a variable reference found in a query.
type QueryVariable struct {
	Name    string  `json:"name"`
	Default *string `json:"default,omitempty"`
	Quoted  bool    `json:"quoted"`
}

// QueryError describes why a query was rejected.
type QueryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Offset  int    `json:"offset,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}
