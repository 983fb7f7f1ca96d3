package processor

import (
	"fmt"

	"github.com/thisisjab/jitsoql/entity"
	"github.com/thisisjab/jitsoql/soql"
)

type ValidateProcessorConfig struct {
	Name string `yaml:"-"`
	// RequireRoundTrip rejects queries that parse but are not written in
	// canonical form.
	RequireRoundTrip bool `yaml:"require_round_trip"`
}

// ValidateProcessor parses each query and records whether it is valid, its
// canonical form and the variables it references. An invalid query is a
// result, not a processing error.
type ValidateProcessor struct {
	cfg ValidateProcessorConfig
}

func NewValidateProcessor(cfg ValidateProcessorConfig) (*ValidateProcessor, error) {
	return &ValidateProcessor{cfg: cfg}, nil
}

func (p *ValidateProcessor) Name() string {
	return p.cfg.Name
}

func (p *ValidateProcessor) Process(record entity.QueryRecord) (entity.QueryRecord, error) {
	q, err := soql.ParseQuery(record.Text)
	if err != nil {
		record.Status = entity.QueryStatusInvalid
		record.Error = queryErrorFrom(err)
		return record, nil
	}

	normalized, err := soql.ComposeQuery(q)
	if err != nil {
		return record, fmt.Errorf("cannot compose parsed query: %w", err)
	}

	record.Status = entity.QueryStatusValid
	record.Normalized = normalized
	record.RoundTrip = normalized == record.Text
	record.Variables = variablesOf(soql.Variables(q))
	record.Error = nil

	if p.cfg.RequireRoundTrip && !record.RoundTrip {
		record.Status = entity.QueryStatusInvalid
		record.Error = &entity.QueryError{
			Code:    "not_canonical",
			Message: fmt.Sprintf("query is not in canonical form, expected %q", normalized),
		}
	}

	return record, nil
}
